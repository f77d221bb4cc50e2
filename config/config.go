// Package config defines the configuration used by the gaslane CLI and the
// defaults it starts from.
package config

// Config is the top-level configuration.
type Config struct {
	// DataDir is the parent directory of the sqlite state file.
	DataDir string `mapstructure:"data-dir"`
	// LedgerAddress is the bech32 address of the ledger account. Empty
	// selects the built-in default ledger address.
	LedgerAddress string `mapstructure:"ledger-address"`
	// RecordSize is the allocation of the ledger account buffer in bytes.
	RecordSize int `mapstructure:"record-size"`
	LogLevel   string `mapstructure:"log-level"`
	// Metrics enables the prometheus endpoint on MetricsListen.
	Metrics       bool   `mapstructure:"metrics"`
	MetricsListen string `mapstructure:"metrics-listen"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DataDir:       "data",
		RecordSize:    1 << 16,
		LogLevel:      "info",
		MetricsListen: "127.0.0.1:9464",
	}
}
