package ingesting

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"emperror.dev/errors"
)

// DefaultFileName is the snapshot log name looked for under experiment directories.
const DefaultFileName = "top.log"

// Source is one log file found on disk. Logs are laid out as
// <root>/<experiment>/<host>/top.log, so Host and Experiment come from the parent directories.
type Source struct {
	Path       string
	Experiment string
	Host       string
}

// Name returns "experiment-host", used to name outputs.
func (s Source) Name() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{s.Experiment, s.Host} {
		if p != "" && p != "." && p != string(filepath.Separator) {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		base := filepath.Base(s.Path)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.Join(parts, "-")
}

// SourceOf describes a single log path.
func SourceOf(path string) Source {
	host := filepath.Dir(path)
	return Source{
		Path:       path,
		Host:       filepath.Base(host),
		Experiment: filepath.Base(filepath.Dir(host)),
	}
}

// Discover expands each root: regular files are taken as-is, directories are walked for
// files named fileName (or fileName+".gz"). Results are sorted by path.
func Discover(roots []string, fileName string) ([]Source, error) {
	if fileName == "" {
		fileName = DefaultFileName
	}

	var out []Source
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.Wrapf(err, "stat %s", root)
		}
		if !info.IsDir() {
			out = append(out, SourceOf(root))
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if name := d.Name(); name == fileName || name == fileName+".gz" {
				out = append(out, SourceOf(path))
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walk %s", root)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Paths returns the file paths of sources.
func Paths(sources []Source) []string {
	paths := make([]string, len(sources))
	for i, s := range sources {
		paths[i] = s.Path
	}
	return paths
}
