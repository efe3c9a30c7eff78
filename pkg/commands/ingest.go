package commands

import (
	"fmt"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"TopAnalyzer/pkg/exporting"
)

// NewIngestCmd creates the ingest subcommand.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ingest <path>...",
		Aliases: []string{"i"},
		Short:   "Parse top logs into per-process series",
		Long: `Parse top snapshot logs into per-process series and print a summary per file.

Directories are walked for the configured log file name (default top.log, optionally
gzip compressed). Logs are expected under <experiment>/<host>/top.log; outputs are named
<experiment>-<host>.

Example:
  topan ingest data/5g
  topan ingest --export -f parquet -o out/ data/5g/01logs/client/top.log`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIngest,
	}

	Cfg.AddIngestFlags(cmd)
	Cfg.AddOutputFlags(cmd)
	cmd.Flags().BoolVar(&Cfg.Export, "export", Cfg.Export, "Export the series in --format to --output-dir")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	Cfg.ApplyDefaults()
	if err := Cfg.Validate(); err != nil {
		return err
	}

	stores, failure := loadSources(args)
	for _, l := range stores {
		if l.summary != nil {
			fmt.Fprintln(cmd.OutOrStdout(), l.summary.String())
		}

		if !Cfg.Export {
			continue
		}
		path := Cfg.GenerateOutputPath(l.source.Name())
		if err := exporting.ExportStore(path, Cfg.OutputFormat, l.store, l.summary); err != nil {
			log.WithError(err).WithField("path", path).Error("export failed")
			failure = errors.Append(failure, err)
			continue
		}
		log.WithField("path", path).Info("exported")
	}
	return failure
}
