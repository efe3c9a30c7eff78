package commands

import (
	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"

	"TopAnalyzer/pkg/exporting"
	"TopAnalyzer/pkg/ingesting"
	"TopAnalyzer/pkg/series"
)

// loaded is one reconstructed store and where it came from. summary is nil for stores
// read back from an export.
type loaded struct {
	source  ingesting.Source
	store   *series.Store
	summary *ingesting.Summary
}

// isExport reports whether path is an exported file rather than a raw log.
func isExport(path string) bool {
	_, ok := exporting.GetByPath(path)
	return ok
}

// loadSources ingests raw logs (walking directories for the configured file name) and
// reads exported files back. Failed inputs are logged and reported in the returned error
// without stopping the others.
func loadSources(args []string) ([]loaded, error) {
	var (
		out     []loaded
		logs    []string
		failure error
	)

	for _, arg := range args {
		if !isExport(arg) {
			logs = append(logs, arg)
			continue
		}
		st, err := exporting.LoadStore(arg)
		if err != nil {
			log.WithError(err).WithField("path", arg).Error("cannot load export")
			failure = errors.Append(failure, err)
			continue
		}
		out = append(out, loaded{source: ingesting.Source{Path: arg}, store: st})
	}

	if len(logs) == 0 {
		return out, failure
	}

	sources, err := ingesting.Discover(logs, Cfg.FileName)
	if err != nil {
		return out, errors.Append(failure, err)
	}
	if len(sources) == 0 {
		log.WithField("file_name", Cfg.FileName).Warn("no log files found")
	}

	opts, err := Cfg.IngestOptions(log.StandardLogger())
	if err != nil {
		return out, errors.Append(failure, err)
	}

	results := ingesting.IngestFiles(ingesting.Paths(sources), Cfg.Workers, opts...)
	for i, res := range results {
		if res.Err != nil {
			log.WithError(res.Err).WithField("path", res.Path).Error("ingestion failed")
			failure = errors.Append(failure, res.Err)
			continue
		}
		log.WithFields(res.Summary.Fields()).Info("ingested")
		out = append(out, loaded{source: sources[i], store: res.Store, summary: res.Summary})
	}
	return out, failure
}
