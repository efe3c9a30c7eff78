// Package commands provides CLI command implementations.
package commands

import (
	"io"
	"os"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"TopAnalyzer/pkg/config"
)

// Cfg is the shared configuration instance.
var Cfg = config.New()

var configPath = os.Getenv("TOPAN_CONFIG")

// NewRootCmd creates the root command with all subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "topan",
		Short: "Per-process time series from top snapshot logs",
		Long: `topan reconstructs per-process time series from logs of repeated top snapshots,
exports them and charts them.

Commands:
  ingest     Parse logs and report or export the reconstructed series
  graph      Chart logs or exported series as HTML or PNG
  offsets    Chart ptp4l clock offset and frequency
  serve      Serve charts and series over HTTP
  snapshot   Write top-style snapshot blocks of the running processes`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupLogging,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", configPath, "Configuration file (.toml, .yaml)")
	flags.StringVar(&Cfg.LogLevel, "log-level", Cfg.LogLevel, "Log level. One of debug, info, warn, error, fatal, panic.")

	root.AddCommand(
		NewIngestCmd(),
		NewGraphCmd(),
		NewOffsetsCmd(),
		NewServeCmd(),
		NewSnapshotCmd(),
	)

	return root
}

func setupLogging(cmd *cobra.Command, args []string) error {
	lvl, err := log.ParseLevel(Cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	return nil
}

// loadConfig reads --config ahead of cobra so that file values become flag defaults and
// explicit flags still win.
func loadConfig(args []string) error {
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.StringVar(&configPath, "config", configPath, "")

	if err := fs.Parse(args); err != nil && !errors.Is(err, pflag.ErrHelp) {
		return err
	}
	if configPath == "" {
		return nil
	}
	if err := Cfg.Load(configPath); err != nil {
		return err
	}
	Cfg.ApplyDefaults()
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := loadConfig(os.Args[1:]); err != nil {
		log.WithError(err).Error("cannot load configuration")
		os.Exit(1)
	}
	if err := NewRootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
