package relay

import "github.com/gaslane/go-gaslane/metrics"

const (
	subsystem = "relay"

	success = "ok"
	failure = "failed"
)

var instructionsProcessed = metrics.NewCounter(
	"instructions_total",
	subsystem,
	"Processed instructions by opcode and outcome",
	[]string{"opcode", "outcome"},
)
