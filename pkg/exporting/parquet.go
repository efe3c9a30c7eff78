package exporting

import (
	"fmt"
	"io"
	"os"

	"emperror.dev/errors"
	"github.com/parquet-go/parquet-go"
)

// parquetBatch is the number of rows decoded per read call.
const parquetBatch = 1024

func init() {
	Register(&ParquetFormat{})
}

// ParquetFormat stores rows with the typed schema derived from Row.
type ParquetFormat struct{}

func (f *ParquetFormat) Name() string         { return "parquet" }
func (f *ParquetFormat) Extensions() []string { return []string{".parquet"} }
func (f *ParquetFormat) Reader() Reader       { return &ParquetReader{} }
func (f *ParquetFormat) Writer() Writer       { return &ParquetWriter{} }

// ParquetReader decodes a file into Rows, converting compatible schemas by column name.
type ParquetReader struct {
	file   *os.File
	reader *parquet.GenericReader[Row]
}

func (r *ParquetReader) Open(path string) (err error) {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open file")
	}
	r.file = file

	stat, err := file.Stat()
	if err != nil {
		return errors.Combine(errors.Wrap(err, "stat file"), file.Close())
	}
	pf, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return errors.Combine(errors.Wrap(err, "open parquet file"), file.Close())
	}

	// The generic reader panics on schemas it cannot convert to Row.
	defer func() {
		if p := recover(); p != nil {
			err = errors.Combine(errors.Wrapf(ErrMalformedRow, "schema: %s", fmt.Sprint(p)), file.Close())
			r.file = nil
		}
	}()
	r.reader = parquet.NewGenericReader[Row](pf)
	return nil
}

func (r *ParquetReader) Read() ([]Row, error) {
	if r.reader == nil {
		return nil, errors.New("reader not initialized")
	}

	rows := make([]Row, 0, r.reader.NumRows())
	buf := make([]Row, parquetBatch)
	for {
		n, err := r.reader.Read(buf)
		rows = append(rows, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "read rows")
		}
		if n == 0 {
			return rows, nil
		}
	}
}

func (r *ParquetReader) Close() error {
	var err error
	if r.reader != nil {
		err = r.reader.Close()
	}
	if r.file != nil {
		err = errors.Combine(err, r.file.Close())
	}
	return err
}

// ParquetWriter writes Snappy-compressed rows.
type ParquetWriter struct {
	file   *os.File
	writer *parquet.GenericWriter[Row]
}

func (w *ParquetWriter) Init(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create file")
	}
	w.file = file
	w.writer = parquet.NewGenericWriter[Row](file, parquet.Compression(&parquet.Snappy))
	return nil
}

func (w *ParquetWriter) WriteBatch(rows []Row) error {
	if _, err := w.writer.Write(rows); err != nil {
		return errors.Wrap(err, "write parquet rows")
	}
	return nil
}

func (w *ParquetWriter) Flush() error {
	if w.writer == nil {
		return nil
	}
	return w.writer.Flush()
}

// Close writes the footer and closes the file.
func (w *ParquetWriter) Close() error {
	if w.file == nil {
		return nil
	}
	return errors.Combine(w.writer.Close(), w.file.Close())
}
