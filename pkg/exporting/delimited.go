package exporting

import (
	"encoding/csv"
	"io"
	"os"

	"emperror.dev/errors"
)

func init() {
	Register(&DelimitedFormat{name: "csv", ext: ".csv", comma: ','})
	Register(&DelimitedFormat{name: "tsv", ext: ".tsv", comma: '\t'})
}

// DelimitedFormat writes a header of Columns followed by one text line per row.
type DelimitedFormat struct {
	name  string
	ext   string
	comma rune
}

func (f *DelimitedFormat) Name() string         { return f.name }
func (f *DelimitedFormat) Extensions() []string { return []string{f.ext} }
func (f *DelimitedFormat) Reader() Reader       { return &DelimitedReader{comma: f.comma} }
func (f *DelimitedFormat) Writer() Writer       { return &DelimitedWriter{comma: f.comma} }

// DelimitedReader reads rows by column name, so the columns may come in any order.
// Cells are typed from the column schema; text columns are never reinterpreted.
type DelimitedReader struct {
	file  *os.File
	csv   *csv.Reader
	index []int
	comma rune
}

// Open opens the file and maps the header onto Columns.
func (r *DelimitedReader) Open(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open file")
	}
	r.file = file
	r.csv = csv.NewReader(file)
	r.csv.Comma = r.comma
	r.csv.ReuseRecord = true

	header, err := r.csv.Read()
	if err != nil {
		return errors.Combine(errors.Wrap(err, "read header"), file.Close())
	}
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[name] = i
	}
	r.index = make([]int, len(Columns))
	for i, name := range Columns {
		p, ok := pos[name]
		if !ok {
			return errors.Combine(errors.Wrapf(ErrMalformedRow, "missing column %s", name), file.Close())
		}
		r.index[i] = p
	}
	return nil
}

// Read parses every remaining line.
func (r *DelimitedReader) Read() ([]Row, error) {
	var rows []Row
	for {
		cells, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}

		var row Row
		for i, f := range row.fields() {
			p := r.index[i]
			if p >= len(cells) {
				line, _ := r.csv.FieldPos(0)
				return nil, errors.Wrapf(ErrMalformedRow, "line %d: missing %s", line, f.name)
			}
			if err := f.set(cells[p]); err != nil {
				line, _ := r.csv.FieldPos(p)
				return nil, errors.WithDetails(err, "line", line)
			}
		}
		rows = append(rows, row)
	}
}

// Close closes the underlying file.
func (r *DelimitedReader) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// DelimitedWriter writes the header on Init and one line per row.
type DelimitedWriter struct {
	file  *os.File
	csv   *csv.Writer
	comma rune
}

// Init creates the file and writes the header.
func (w *DelimitedWriter) Init(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create file")
	}
	w.file = file
	w.csv = csv.NewWriter(file)
	w.csv.Comma = w.comma
	if err := w.csv.Write(Columns); err != nil {
		return errors.Combine(errors.Wrap(err, "write header"), file.Close())
	}
	return nil
}

// WriteBatch writes rows in Columns order.
func (w *DelimitedWriter) WriteBatch(rows []Row) error {
	for i, row := range rows {
		if err := w.csv.Write(row.Strings()); err != nil {
			return errors.Wrapf(err, "row %d", i)
		}
	}
	return nil
}

// Flush writes buffered lines to the file.
func (w *DelimitedWriter) Flush() error {
	if w.csv == nil {
		return nil
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Close flushes and closes the file.
func (w *DelimitedWriter) Close() error {
	if w.file == nil {
		return nil
	}
	return errors.Combine(w.Flush(), w.file.Close())
}
