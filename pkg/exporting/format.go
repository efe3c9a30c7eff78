// Package exporting persists reconstructed series in the registered tabular formats and
// reads them back.
package exporting

import (
	"path/filepath"
	"strings"

	"emperror.dev/errors"
)

// Format is a file format rows can be exported to and loaded from.
type Format interface {
	Name() string
	Extensions() []string
	Reader() Reader
	Writer() Writer
}

// Reader loads every row of a file.
type Reader interface {
	Open(path string) error
	Read() ([]Row, error)
	Close() error
}

// Writer writes rows to a file created by Init.
type Writer interface {
	Init(path string) error
	WriteBatch(rows []Row) error
	Flush() error
	Close() error
}

var (
	registry    = make(map[string]Format)
	extRegistry = make(map[string]Format)
)

// Register adds a format to the registry.
func Register(f Format) {
	name := strings.ToLower(f.Name())
	registry[name] = f
	for _, ext := range f.Extensions() {
		extRegistry[strings.ToLower(ext)] = f
	}
}

// Get returns a format by name.
func Get(name string) (Format, bool) {
	f, ok := registry[strings.ToLower(name)]
	return f, ok
}

// GetByExtension returns a format by file extension.
func GetByExtension(ext string) (Format, bool) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	f, ok := extRegistry[ext]
	return f, ok
}

// GetByPath returns a format based on the file's extension.
func GetByPath(path string) (Format, bool) {
	return GetByExtension(filepath.Ext(path))
}

// GetExtension returns the file extension for a format name.
func GetExtension(format string) string {
	if f, ok := Get(format); ok {
		return f.Extensions()[0]
	}
	return ".jsonl"
}

// LoadRows loads all rows from a file, choosing the format by extension.
func LoadRows(path string) (rows []Row, err error) {
	f, ok := GetByPath(path)
	if !ok {
		return nil, errors.Errorf("unsupported format for file: %s", path)
	}

	reader := f.Reader()
	if err := reader.Open(path); err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer func() { err = errors.Combine(err, reader.Close()) }()

	rows, err = reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read rows")
	}
	return rows, nil
}

// SaveRows writes rows to a file, choosing the format by extension.
func SaveRows(path string, rows []Row) error {
	f, ok := GetByPath(path)
	if !ok {
		return errors.Errorf("unsupported format for file: %s", path)
	}

	writer := f.Writer()
	if err := writer.Init(path); err != nil {
		return errors.Wrap(err, "init writer")
	}
	if err := writer.WriteBatch(rows); err != nil {
		return errors.Combine(errors.Wrap(err, "write rows"), writer.Close())
	}
	return writer.Close()
}
