package config

import (
	"github.com/c2h5oh/datasize"
	"github.com/spf13/cobra"
)

// byteSizeValue adapts datasize.ByteSize to pflag.Value.
type byteSizeValue struct{ v *datasize.ByteSize }

func (b byteSizeValue) String() string     { return b.v.HumanReadable() }
func (b byteSizeValue) Set(s string) error { return b.v.UnmarshalText([]byte(s)) }
func (b byteSizeValue) Type() string       { return "size" }

// AddIngestFlags adds ingestion flags to a command.
func (c *Config) AddIngestFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&c.Policy, "policy", c.Policy, "Parse failure policy (lenient, strict)")
	flags.IntVarP(&c.Workers, "workers", "w", c.Workers, "Files ingested in parallel (0 = number of CPUs)")
	flags.Var(byteSizeValue{&c.MaxLineSize}, "max-line-size", "Longest accepted input line (e.g. 1MB)")
	flags.StringVar(&c.FileName, "file-name", c.FileName, "Log file name searched for in directories")
}

// AddOutputFlags adds common output flags to a command.
func (c *Config) AddOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&c.OutputDir, "output-dir", "o", c.OutputDir, "Output directory")
	flags.StringVarP(&c.OutputFormat, "format", "f", c.OutputFormat, "Export format (parquet, jsonl, csv, tsv)")
}

// AddGraphFlags adds graph generation flags to a command.
func (c *Config) AddGraphFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&c.GraphFormat, "graph-format", c.GraphFormat, "Graph format (html, png)")
	flags.StringSliceVar(&c.GraphMetrics, "metrics", c.GraphMetrics, "Metrics to chart (default all)")
	flags.BoolVar(&c.PerProcess, "per-process", c.PerProcess, "Also chart every process on its own")
}

// AddAllFlags adds all common flags to a command.
func (c *Config) AddAllFlags(cmd *cobra.Command) {
	c.AddIngestFlags(cmd)
	c.AddOutputFlags(cmd)
	c.AddGraphFlags(cmd)
}
