// gaslane is a command line front end for the relay-fee ledger. It keeps
// the ledger record and native balances in a local sqlite file and executes
// one instruction per invocation, standing in for the chain runtime that
// would deliver instructions in production.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	cfg "github.com/gaslane/go-gaslane/config"
	"github.com/gaslane/go-gaslane/host"
	"github.com/gaslane/go-gaslane/metrics"
	"github.com/gaslane/go-gaslane/sql"

	"github.com/gaslane/go-gaslane/common/types"
)

var config = cfg.DefaultConfig()

func main() {
	root := &cobra.Command{
		Use:           "gaslane",
		Short:         "relay-fee ledger for meta transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "load configuration from file")
	root.PersistentFlags().StringP("data-dir", "d", config.DataDir, "directory for the sqlite state file")
	root.PersistentFlags().String("ledger-address", config.LedgerAddress, "bech32 address of the ledger account")
	root.PersistentFlags().Int("record-size", config.RecordSize, "ledger account buffer allocation in bytes")
	root.PersistentFlags().String("log-level", config.LogLevel, "zap log level")
	root.PersistentFlags().Bool("metrics", config.Metrics, "expose prometheus metrics while the command runs")
	root.PersistentFlags().String("metrics-listen", config.MetricsListen, "prometheus listen address")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		if file := viper.GetString("config"); file != "" {
			viper.SetConfigFile(file)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("read config %s: %w", file, err)
			}
		}
		return viper.Unmarshal(&config)
	}

	root.AddCommand(
		initCmd(),
		topupCmd(),
		submitCmd(),
		feesCmd(),
		tokenCmd(),
		claimCmd(),
		depositCmd(),
		statusCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// defaultLedgerAddress is used when no ledger address is configured.
var defaultLedgerAddress = types.GenerateAddress([]byte("gaslane-default-ledger"))

func openHost() (*host.Host, *sql.Database, error) {
	logger, err := newLogger(config.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if config.Metrics {
		metrics.StartMetricsServer(logger, config.MetricsListen)
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open(
		"file:"+filepath.Join(config.DataDir, "state.sql"),
		sql.WithLogger(logger),
		sql.WithSchema(host.Schema()),
	)
	if err != nil {
		return nil, nil, err
	}
	address := defaultLedgerAddress
	if config.LedgerAddress != "" {
		address, err = types.StringToAddress(config.LedgerAddress)
		if err != nil {
			return nil, nil, fmt.Errorf("parse ledger address: %w", err)
		}
	}
	h, err := host.New(db, address,
		host.WithLogger(logger),
		host.WithRecordSize(config.RecordSize),
	)
	if err != nil {
		return nil, nil, err
	}
	return h, db, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	conf := zap.NewProductionConfig()
	conf.Level = lvl
	return conf.Build()
}

func parseAddress(arg string) (types.Address, error) {
	address, err := types.StringToAddress(arg)
	if err != nil {
		return types.Address{}, fmt.Errorf("parse address %q: %w", arg, err)
	}
	return address, nil
}
