// Package offsets extracts clock offset and frequency samples from ptp4l logs.
package offsets

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"emperror.dev/errors"
	"github.com/klauspost/pgzip"
	"github.com/sirupsen/logrus"

	"TopAnalyzer/pkg/graphing"
)

// ErrMalformedLine is returned for a master line whose fields cannot be read.
const ErrMalformedLine = errors.Sentinel("malformed ptp4l line")

// Point is one master offset report.
type Point struct {
	// Time is the ptp4l timestamp in seconds.
	Time float64 `json:"time"`
	// Offset from the master clock in microseconds.
	Offset float64 `json:"offsetUs"`
	// Frequency adjustment in ppb, scaled by 1/1000 like the offset.
	Frequency float64 `json:"frequency"`
}

// Options controls post-processing of parsed points.
type Options struct {
	// MaxOffset drops points whose offset is above it. Nil keeps everything.
	MaxOffset *float64
	Logger    logrus.FieldLogger
}

// Stats counts what a read did with its input.
type Stats struct {
	Lines     int `json:"lines"`
	Points    int `json:"points"`
	Ignored   int `json:"ignored"`
	Malformed int `json:"malformed"`
	Filtered  int `json:"filtered"`
}

// ParseLine parses "ptp4l[<t>]: master offset <ns> s<state> freq <ppb> path delay <ns>".
// ok is false for lines that are not master offset reports.
func ParseLine(line string) (p Point, ok bool, err error) {
	head, rest, found := strings.Cut(line, ":")
	if !found {
		return p, false, nil
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "master") {
		return p, false, nil
	}
	if len(fields) < 6 {
		return p, false, errors.Wrapf(ErrMalformedLine, "want 6 fields, got %d", len(fields))
	}

	open := strings.IndexByte(head, '[')
	if open < 0 || !strings.HasSuffix(head, "]") {
		return p, false, errors.Wrapf(ErrMalformedLine, "timestamp %q", head)
	}
	if p.Time, err = strconv.ParseFloat(head[open+1:len(head)-1], 64); err != nil {
		return p, false, errors.Wrapf(ErrMalformedLine, "timestamp %q", head)
	}

	offset, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return p, false, errors.Wrapf(ErrMalformedLine, "offset %q", fields[2])
	}
	freq, err := strconv.ParseInt(fields[5], 10, 64)
	if err != nil {
		return p, false, errors.Wrapf(ErrMalformedLine, "freq %q", fields[5])
	}

	p.Offset = float64(offset) / 1000
	p.Frequency = float64(freq) / 1000
	return p, true, nil
}

// Filter returns the points whose offset does not exceed max.
func Filter(points []Point, max *float64) []Point {
	if max == nil {
		return points
	}
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Offset <= *max {
			out = append(out, p)
		}
	}
	return out
}

// Read parses every master line of r. Malformed lines are logged and skipped.
func Read(r io.Reader, opts Options) ([]Point, Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var (
		points []Point
		stats  Stats
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		stats.Lines++
		p, ok, err := ParseLine(scanner.Text())
		switch {
		case err != nil:
			stats.Malformed++
			logger.WithError(err).WithField("line", stats.Lines).Debug("skipping line")
		case !ok:
			stats.Ignored++
		default:
			points = append(points, p)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, errors.Wrap(err, "scan")
	}

	kept := Filter(points, opts.MaxOffset)
	stats.Filtered = len(points) - len(kept)
	stats.Points = len(kept)
	return kept, stats, nil
}

// ReadFile reads a ptp4l log, decompressing it when the name ends in .gz.
func ReadFile(path string, opts Options) (points []Point, stats Stats, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, stats, errors.Wrap(err, "open")
	}
	defer func() { err = errors.Combine(err, f.Close()) }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, gzErr := pgzip.NewReader(f)
		if gzErr != nil {
			return nil, stats, errors.Wrapf(gzErr, "gzip %s", path)
		}
		defer gz.Close()
		r = gz
	}
	return Read(r, opts)
}

// Lines converts points into the offset and frequency chart lines.
func Lines(points []Point) []graphing.XY {
	offset := graphing.XY{Name: "Offset", X: make([]float64, len(points)), Y: make([]float64, len(points))}
	freq := graphing.XY{Name: "Frequency", X: make([]float64, len(points)), Y: make([]float64, len(points))}
	for i, p := range points {
		offset.X[i], offset.Y[i] = p.Time, p.Offset
		freq.X[i], freq.Y[i] = p.Time, p.Frequency
	}
	return []graphing.XY{offset, freq}
}

// WriteChart renders the points as HTML or PNG, chosen by the extension of path.
func WriteChart(path, title string, points []Point) error {
	lines := Lines(points)
	if strings.HasSuffix(strings.ToLower(path), ".png") {
		return graphing.SavePNG(path, title, "Time (s)", "Synchronism (us)", lines...)
	}
	return graphing.WriteHTML(path, title, "Time (s)", "Synchronism (us)", lines...)
}
