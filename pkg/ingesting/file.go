package ingesting

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/klauspost/pgzip"

	"TopAnalyzer/pkg/series"
)

// IngestFile ingests the log at path. Files ending in ".gz" are decompressed on the fly.
// The file is closed on every return path.
func IngestFile(path string, opts ...Option) (store *series.Store, sum *Summary, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open log")
	}
	defer func() {
		err = errors.Combine(err, f.Close())
	}()
	adviseSequential(f)

	var r io.Reader = f
	if strings.EqualFold(filepath.Ext(path), ".gz") {
		gz, gzErr := pgzip.NewReader(f)
		if gzErr != nil {
			return nil, nil, errors.Wrapf(gzErr, "gzip %s", path)
		}
		defer func() {
			err = errors.Combine(err, gz.Close())
		}()
		r = gz
	}

	opts = append([]Option{WithSource(path)}, opts...)
	return Ingest(r, opts...)
}
