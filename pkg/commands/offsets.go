package commands

import (
	"os"
	"path/filepath"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"TopAnalyzer/pkg/ingesting"
	"TopAnalyzer/pkg/offsets"
	"TopAnalyzer/pkg/utils"
)

var maxOffset float64

// NewOffsetsCmd creates the offsets subcommand.
func NewOffsetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offsets <ptp.log>...",
		Short: "Chart ptp4l clock offset and frequency",
		Long: `Parse the "master offset" reports of ptp4l logs and chart offset and frequency
(both in microseconds) over time. Other ptp4l lines are ignored.

Example:
  topan offsets data/5g/01logs/client/ptp.log
  topan offsets --max-offset 359362165 --graph-format png -o plots/ ptp.log`,
		Args: cobra.MinimumNArgs(1),
		RunE: runOffsets,
	}

	cmd.Flags().StringVarP(&Cfg.OutputDir, "output-dir", "o", Cfg.OutputDir, "Output directory")
	cmd.Flags().StringVar(&Cfg.GraphFormat, "graph-format", Cfg.GraphFormat, "Graph format (html, png)")
	cmd.Flags().Float64Var(&maxOffset, "max-offset", 0, "Drop offsets above this many microseconds")

	return cmd
}

func runOffsets(cmd *cobra.Command, args []string) error {
	Cfg.ApplyDefaults()
	if err := Cfg.Validate(); err != nil {
		return err
	}
	if cmd.Flags().Changed("max-offset") {
		Cfg.MaxOffsetUs = &maxOffset
	}

	if err := os.MkdirAll(Cfg.OutputDir, 0755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	opts := offsets.Options{MaxOffset: Cfg.MaxOffsetUs, Logger: log.StandardLogger()}
	var failure error
	for _, path := range args {
		points, stats, err := offsets.ReadFile(path, opts)
		if err != nil {
			log.WithError(err).WithField("path", path).Error("cannot read ptp log")
			failure = errors.Append(failure, err)
			continue
		}

		name := ingesting.SourceOf(path).Name()
		log.WithFields(log.Fields{
			"source":    name,
			"points":    stats.Points,
			"ignored":   stats.Ignored,
			"malformed": stats.Malformed,
			"filtered":  stats.Filtered,
		}).Info("parsed ptp log")

		out := filepath.Join(Cfg.OutputDir, utils.SanitizeFilename(name)+"-ptp."+Cfg.GraphFormat)
		if err := offsets.WriteChart(out, name, points); err != nil {
			log.WithError(err).WithField("path", out).Error("chart failed")
			failure = errors.Append(failure, err)
			continue
		}
		log.WithField("path", out).Info("generated chart")
	}
	return failure
}
