package config

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"emperror.dev/errors"
	"github.com/c2h5oh/datasize"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TopAnalyzer/pkg/ingesting"
	"TopAnalyzer/pkg/parsing"
	"TopAnalyzer/pkg/series"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewIsValid(t *testing.T) {
	c := New()
	assert.NoError(t, c.Validate())
	assert.Equal(t, "lenient", c.Policy)
	assert.Equal(t, ingesting.DefaultMaxLineSize, c.MaxLineSize)
	assert.Equal(t, "top.log", c.FileName)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"policy", func(c *Config) { c.Policy = "sloppy" }},
		{"workers", func(c *Config) { c.Workers = -1 }},
		{"format", func(c *Config) { c.OutputFormat = "xml" }},
		{"graph format", func(c *Config) { c.GraphFormat = "svg" }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"label", func(c *Config) { c.Labels = []parsing.LabelRule{{Match: "java"}} }},
		{"range metric", func(c *Config) { c.Ranges = []RangeRule{{Metric: "gpu"}} }},
		{"graph metric", func(c *Config) { c.GraphMetrics = []string{"cpu", "gpu"} }},
		{"output file", func(c *Config) {
			f, err := os.CreateTemp(t.TempDir(), "out")
			require.NoError(t, err)
			f.Close()
			c.OutputDir = f.Name()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			tt.modify(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	c := &Config{Workers: 2}
	c.ApplyDefaults()
	assert.Equal(t, 2, c.Workers)
	assert.Equal(t, DefaultPolicy, c.Policy)
	assert.Equal(t, DefaultFormat, c.OutputFormat)
	assert.Equal(t, DefaultGraphFormat, c.GraphFormat)
	assert.Equal(t, ingesting.DefaultFileName, c.FileName)
	assert.NoError(t, c.Validate())
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "topan.toml", `
policy = "strict"
workers = 4
max_line_size = "2MB"
format = "csv"
graph_metrics = ["cpu", "virt"]
max_offset_us = 359362165.0

[[labels]]
match = "java"
label = "server"

[[ranges]]
metric = "cpu"
min = 1.5
max = 20.0
`)

	c := New()
	require.NoError(t, c.Load(path))
	require.NoError(t, c.Validate())

	assert.Equal(t, "strict", c.Policy)
	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, 2*datasize.MB, c.MaxLineSize)
	assert.Equal(t, "csv", c.OutputFormat)
	assert.Equal(t, DefaultGraphFormat, c.GraphFormat)
	assert.Equal(t, []parsing.LabelRule{{Match: "java", Label: "server"}}, c.Labels)
	require.NotNil(t, c.MaxOffsetUs)
	assert.Equal(t, 359362165.0, *c.MaxOffsetUs)

	metrics, err := c.Metrics()
	require.NoError(t, err)
	assert.Equal(t, []series.Metric{series.CPUPercent, series.VirtualMem}, metrics)

	filters, err := c.RangeFilters()
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Equal(t, series.CPUPercent, filters[0].Metric)
	assert.Equal(t, 1.5, *filters[0].Min)
	assert.Equal(t, 20.0, *filters[0].Max)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "topan.yaml", `
policy: lenient
output_dir: out
per_process: true
labels:
  - match: python3
    label: worker
ranges:
  - metric: virt
    max: 20
`)

	c := New()
	require.NoError(t, c.Load(path))
	assert.Equal(t, "out", c.OutputDir)
	assert.True(t, c.PerProcess)
	assert.Equal(t, "worker", parsing.LabelTable(c.Labels).Apply("/usr/bin/python3 app.py"))

	filters, err := c.RangeFilters()
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Nil(t, filters[0].Min)
	assert.Equal(t, 20.0, *filters[0].Max)
}

func TestLoadErrors(t *testing.T) {
	c := New()
	assert.Error(t, c.Load(filepath.Join(t.TempDir(), "missing.toml")))
	assert.Error(t, c.Load(writeFile(t, "topan.json", "{}")))
	assert.Error(t, c.Load(writeFile(t, "bad.toml", "policy = ")))
}

func TestRangeFiltersRejectInvertedBounds(t *testing.T) {
	lo, hi := 10.0, 1.0
	c := New()
	c.Ranges = []RangeRule{{Metric: "cpu", Min: &lo, Max: &hi}}
	_, err := c.RangeFilters()
	assert.Error(t, err)
}

func TestMetricsDefaultToAll(t *testing.T) {
	metrics, err := New().Metrics()
	require.NoError(t, err)
	assert.Equal(t, series.Metrics, metrics)
}

func TestIngestOptions(t *testing.T) {
	c := New()
	c.Policy = "strict"
	opts, err := c.IngestOptions(logrus.New())
	require.NoError(t, err)

	_, _, err = ingesting.Ingest(strings.NewReader("not a record\n"), opts...)
	assert.Error(t, err)

	c.Policy = "lenient"
	opts, err = c.IngestOptions(logrus.New())
	require.NoError(t, err)
	_, sum, err := ingesting.Ingest(strings.NewReader("not a record\n"), opts...)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)

	c.Policy = "bogus"
	_, err = c.IngestOptions(logrus.New())
	assert.Error(t, err)
}

func TestGeneratePaths(t *testing.T) {
	c := New()
	c.OutputDir = "out"

	assert.Equal(t, filepath.Join("out", "exp-host.parquet"), c.GenerateOutputPath("exp-host"))
	c.OutputFormat = "jsonl"
	assert.Equal(t, filepath.Join("out", "exp-host.jsonl"), c.GenerateOutputPath("exp-host"))

	assert.Equal(t, filepath.Join("out", "exp-host.html"), c.GenerateGraphPath("exp-host"))
	c.GraphFormat = "png"
	assert.Equal(t, filepath.Join("out", "exp-host_graphs"), c.GenerateGraphPath("exp-host"))
}

func TestValidateKeepsCause(t *testing.T) {
	file := writeFile(t, "plain", "x")

	c := New()
	c.OutputDir = filepath.Join(file, "sub")
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, syscall.ENOTDIR), "%v", err)
	assert.Contains(t, err.Error(), "cannot access output directory")

	c = New()
	c.Workers = -2
	assert.EqualError(t, c.Validate(), "workers cannot be negative, got -2")

	c = New()
	c.LogLevel = "loud"
	err = c.Validate()
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid log level: "), err.Error())
}
