package exporting

import (
	"os"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/goccy/go-json"

	"TopAnalyzer/pkg/ingesting"
	"TopAnalyzer/pkg/series"
)

// ErrEmptyStore is returned when a store without samples is exported.
const ErrEmptyStore = errors.Sentinel("store has no samples")

// Exporter writes reconstructed series to one of the registered output formats.
type Exporter struct {
	path   string
	format string
	writer Writer
}

// NewExporter creates a new exporter for the given path and format.
func NewExporter(path, format string) (*Exporter, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "create output directory")
		}
	}

	f, ok := Get(format)
	if !ok {
		return nil, errors.Errorf("unsupported format: %s", format)
	}

	writer := f.Writer()
	if err := writer.Init(path); err != nil {
		return nil, errors.Wrap(err, "init writer")
	}

	return &Exporter{
		path:   path,
		format: f.Name(),
		writer: writer,
	}, nil
}

// Path returns the output file path.
func (e *Exporter) Path() string {
	return e.path
}

// Format returns the output format.
func (e *Exporter) Format() string {
	return e.format
}

// WriteStore flattens the store and writes every (pid, sample) row.
func (e *Exporter) WriteStore(st *series.Store) error {
	rows := FlattenStore(st)
	if len(rows) == 0 {
		return ErrEmptyStore
	}
	return e.writer.WriteBatch(rows)
}

// Flush ensures all buffered data is written.
func (e *Exporter) Flush() error {
	return e.writer.Flush()
}

// Close finalizes and closes the exporter.
func (e *Exporter) Close() error {
	return e.writer.Close()
}

// SummaryPath returns the path of the summary written next to the export.
func (e *Exporter) SummaryPath() string {
	base := filepath.Base(e.path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(e.path), name+"_summary.json")
}

// WriteSummary writes the ingestion summary to a JSON file beside the export.
func (e *Exporter) WriteSummary(sum *ingesting.Summary) error {
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal summary")
	}
	return os.WriteFile(e.SummaryPath(), data, 0644)
}

// ExportStore is a convenience that writes a store and its summary and closes the file.
func ExportStore(path, format string, st *series.Store, sum *ingesting.Summary) (err error) {
	if st.Samples() == 0 {
		return ErrEmptyStore
	}
	e, err := NewExporter(path, format)
	if err != nil {
		return err
	}
	defer func() { err = errors.Combine(err, e.Close()) }()

	if err := e.WriteStore(st); err != nil {
		return err
	}
	if sum != nil {
		return e.WriteSummary(sum)
	}
	return nil
}
