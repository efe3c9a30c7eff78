package exporting

import (
	"bufio"
	"bytes"
	"os"

	"emperror.dev/errors"
	"github.com/goccy/go-json"
)

const (
	bufferSize   = 64 * 1024
	maxJSONLLine = 1024 * 1024
)

func init() {
	Register(&JSONLFormat{})
}

// JSONLFormat writes one JSON object per row.
type JSONLFormat struct{}

func (f *JSONLFormat) Name() string         { return "jsonl" }
func (f *JSONLFormat) Extensions() []string { return []string{".jsonl", ".json"} }
func (f *JSONLFormat) Reader() Reader       { return &JSONLReader{} }
func (f *JSONLFormat) Writer() Writer       { return &JSONLWriter{} }

// JSONLReader decodes each non-blank line into a Row.
type JSONLReader struct {
	file *os.File
}

func (r *JSONLReader) Open(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open file")
	}
	r.file = file
	return nil
}

func (r *JSONLReader) Read() ([]Row, error) {
	scanner := bufio.NewScanner(r.file)
	scanner.Buffer(make([]byte, bufferSize), maxJSONLLine)

	var rows []Row
	for line := 1; scanner.Scan(); line++ {
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var row Row
		if err := json.Unmarshal(data, &row); err != nil {
			return nil, errors.Wrapf(ErrMalformedRow, "line %d: %v", line, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	return rows, nil
}

func (r *JSONLReader) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// JSONLWriter encodes rows through a buffered writer.
type JSONLWriter struct {
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
}

func (w *JSONLWriter) Init(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create file")
	}
	w.file = file
	w.buf = bufio.NewWriterSize(file, bufferSize)
	w.enc = json.NewEncoder(w.buf)
	return nil
}

func (w *JSONLWriter) WriteBatch(rows []Row) error {
	for i := range rows {
		if err := w.enc.Encode(&rows[i]); err != nil {
			return errors.Wrapf(err, "row %d", i)
		}
	}
	return nil
}

func (w *JSONLWriter) Flush() error {
	if w.buf == nil {
		return nil
	}
	return w.buf.Flush()
}

func (w *JSONLWriter) Close() error {
	if w.file == nil {
		return nil
	}
	return errors.Combine(w.Flush(), w.file.Close())
}
