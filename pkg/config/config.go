// Package config provides configuration management for topan.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/BurntSushi/toml"
	"github.com/c2h5oh/datasize"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"TopAnalyzer/pkg/exporting"
	"TopAnalyzer/pkg/ingesting"
	"TopAnalyzer/pkg/parsing"
	"TopAnalyzer/pkg/series"
)

// RangeRule bounds the plotted values of one metric. Nil bounds are open.
type RangeRule struct {
	Metric string   `toml:"metric" yaml:"metric"`
	Min    *float64 `toml:"min" yaml:"min"`
	Max    *float64 `toml:"max" yaml:"max"`
}

// Config holds all topan configuration options.
type Config struct {
	// Ingestion settings
	Policy      string              `toml:"policy" yaml:"policy"`
	Workers     int                 `toml:"workers" yaml:"workers"`
	MaxLineSize datasize.ByteSize   `toml:"max_line_size" yaml:"max_line_size"`
	FileName    string              `toml:"file_name" yaml:"file_name"`
	Labels      []parsing.LabelRule `toml:"labels" yaml:"labels"`

	// Output settings
	OutputDir    string `toml:"output_dir" yaml:"output_dir"`
	OutputFormat string `toml:"format" yaml:"format"`
	Export       bool   `toml:"export" yaml:"export"`

	// Graph settings
	GraphFormat  string      `toml:"graph_format" yaml:"graph_format"`
	GraphMetrics []string    `toml:"graph_metrics" yaml:"graph_metrics"`
	PerProcess   bool        `toml:"per_process" yaml:"per_process"`
	Ranges       []RangeRule `toml:"ranges" yaml:"ranges"`
	MaxOffsetUs  *float64    `toml:"max_offset_us" yaml:"max_offset_us"`

	LogLevel string `toml:"log_level" yaml:"log_level"`
}

// Default configuration values.
const (
	DefaultPolicy      = "lenient"
	DefaultOutputDir   = "."
	DefaultFormat      = "parquet"
	DefaultGraphFormat = "html"
	DefaultLogLevel    = "info"
)

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Policy:       DefaultPolicy,
		MaxLineSize:  ingesting.DefaultMaxLineSize,
		FileName:     ingesting.DefaultFileName,
		OutputDir:    DefaultOutputDir,
		OutputFormat: DefaultFormat,
		GraphFormat:  DefaultGraphFormat,
		LogLevel:     DefaultLogLevel,
	}
}

// Load decodes a TOML or YAML file over c, chosen by the file extension.
func (c *Config) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return errors.Wrapf(err, "decode %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return errors.Wrapf(err, "decode %s", path)
		}
	default:
		return errors.Errorf("unsupported config format: %s (valid: .toml, .yaml, .yml)", path)
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := ingesting.ParsePolicy(c.Policy); err != nil {
		return err
	}

	if c.Workers < 0 {
		return errors.Errorf("workers cannot be negative, got %d", c.Workers)
	}

	if _, ok := exporting.Get(c.OutputFormat); !ok {
		return errors.Errorf("invalid output format: %s (valid: %s)", c.OutputFormat, strings.Join(ValidOutputFormats(), ", "))
	}

	if !isValid(c.GraphFormat, ValidGraphFormats()) {
		return errors.Errorf("invalid graph format: %s (valid: html, png)", c.GraphFormat)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log level")
	}

	for _, l := range c.Labels {
		if l.Match == "" || l.Label == "" {
			return errors.Errorf("label rule needs both match and label, got %+v", l)
		}
	}

	if _, err := c.RangeFilters(); err != nil {
		return err
	}
	if _, err := c.Metrics(); err != nil {
		return err
	}

	if c.OutputDir != "" {
		if info, err := os.Stat(c.OutputDir); err != nil {
			if !os.IsNotExist(err) {
				return errors.Wrap(err, "cannot access output directory")
			}
		} else if !info.IsDir() {
			return errors.Errorf("output path is not a directory: %s", c.OutputDir)
		}
	}

	return nil
}

// ValidOutputFormats returns the list of supported output formats.
func ValidOutputFormats() []string {
	return []string{"parquet", "jsonl", "csv", "tsv"}
}

// ValidGraphFormats returns the list of supported graph formats.
func ValidGraphFormats() []string {
	return []string{"html", "png"}
}

func isValid(v string, valid []string) bool {
	for _, f := range valid {
		if f == v {
			return true
		}
	}
	return false
}

// ApplyDefaults fills in any missing values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Policy == "" {
		c.Policy = DefaultPolicy
	}
	if c.MaxLineSize == 0 {
		c.MaxLineSize = ingesting.DefaultMaxLineSize
	}
	if c.FileName == "" {
		c.FileName = ingesting.DefaultFileName
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.OutputFormat == "" {
		c.OutputFormat = DefaultFormat
	}
	if c.GraphFormat == "" {
		c.GraphFormat = DefaultGraphFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// IngestOptions translates the configuration into ingestion options.
func (c *Config) IngestOptions(logger logrus.FieldLogger) ([]ingesting.Option, error) {
	policy, err := ingesting.ParsePolicy(c.Policy)
	if err != nil {
		return nil, err
	}
	return []ingesting.Option{
		ingesting.WithPolicy(policy),
		ingesting.WithLabels(parsing.LabelTable(c.Labels)),
		ingesting.WithMaxLineSize(c.MaxLineSize),
		ingesting.WithLogger(logger),
	}, nil
}

// RangeFilters converts the configured ranges into series filters.
func (c *Config) RangeFilters() ([]series.RangeFilter, error) {
	filters := make([]series.RangeFilter, 0, len(c.Ranges))
	for _, r := range c.Ranges {
		m, err := series.ParseMetric(r.Metric)
		if err != nil {
			return nil, errors.Wrap(err, "range")
		}
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			return nil, errors.Errorf("range for %s has min %v above max %v", r.Metric, *r.Min, *r.Max)
		}
		filters = append(filters, series.RangeFilter{Metric: m, Min: r.Min, Max: r.Max})
	}
	return filters, nil
}

// Metrics returns the metrics to chart; all of them when none are configured.
func (c *Config) Metrics() ([]series.Metric, error) {
	if len(c.GraphMetrics) == 0 {
		return series.Metrics, nil
	}
	out := make([]series.Metric, 0, len(c.GraphMetrics))
	for _, name := range c.GraphMetrics {
		m, err := series.ParseMetric(name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// GenerateOutputPath builds the export path for a source name.
func (c *Config) GenerateOutputPath(name string) string {
	return filepath.Join(c.OutputDir, name+exporting.GetExtension(c.OutputFormat))
}

// GenerateGraphPath builds the graph output path (file for html, directory for png).
func (c *Config) GenerateGraphPath(name string) string {
	if c.GraphFormat == "png" {
		return filepath.Join(c.OutputDir, name+"_graphs")
	}
	return filepath.Join(c.OutputDir, name+".html")
}
