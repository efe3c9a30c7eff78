package commands

import (
	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"TopAnalyzer/pkg/graphing"
)

// NewGraphCmd creates the graph subcommand.
func NewGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "graph <path>...",
		Aliases: []string{"g"},
		Short:   "Generate charts from logs or exported series",
		Long: `Generate charts for every log found under the given paths, or for exported files
(parquet, jsonl, csv, tsv).

HTML output is one page per source with a cross-process chart per metric, plus the
per-process panels with --per-process. PNG output writes <experiment>-<host>-<metric>.png
files, the virtual memory one named <experiment>-<host>-virtual-mem.png.

Example:
  topan graph data/5g
  topan graph --graph-format png --metrics virt,cpu -o plots/ data/5g
  topan graph --config ranges.toml out/5g-client.parquet`,
		Args: cobra.MinimumNArgs(1),
		RunE: runGraph,
	}

	Cfg.AddIngestFlags(cmd)
	cmd.Flags().StringVarP(&Cfg.OutputDir, "output-dir", "o", Cfg.OutputDir, "Output directory")
	Cfg.AddGraphFlags(cmd)

	return cmd
}

func newGenerator(l loaded) (*graphing.Generator, error) {
	filters, err := Cfg.RangeFilters()
	if err != nil {
		return nil, err
	}
	metrics, err := Cfg.Metrics()
	if err != nil {
		return nil, err
	}

	name := l.source.Name()
	return graphing.NewGenerator(l.store, name,
		graphing.WithMetrics(metrics...),
		graphing.WithFilters(filters...),
		graphing.WithPerProcess(Cfg.PerProcess),
		graphing.WithInfo(graphing.NewReportInfo(name, l.store, l.summary, filters)),
		graphing.WithLogger(log.StandardLogger()),
	)
}

func runGraph(cmd *cobra.Command, args []string) error {
	Cfg.ApplyDefaults()
	if err := Cfg.Validate(); err != nil {
		return err
	}

	stores, failure := loadSources(args)
	for _, l := range stores {
		gen, err := newGenerator(l)
		if err != nil {
			return err
		}

		out := Cfg.GenerateGraphPath(gen.Name())
		if Cfg.GraphFormat == "png" {
			_, err = gen.WritePNG(out)
		} else {
			err = gen.WriteHTML(out)
		}
		if errors.Is(err, graphing.ErrNoData) {
			log.WithField("source", gen.Name()).Warn("nothing to chart")
			continue
		}
		if err != nil {
			log.WithError(err).WithField("path", out).Error("graph generation failed")
			failure = errors.Append(failure, err)
		}
	}
	return failure
}
