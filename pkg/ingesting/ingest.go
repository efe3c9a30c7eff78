// Package ingesting reads snapshot logs line by line and aggregates them into a series store.
package ingesting

import (
	"fmt"
	"io"
	"strings"

	"emperror.dev/errors"
	"github.com/google/uuid"

	"TopAnalyzer/pkg/parsing"
	"TopAnalyzer/pkg/series"
)

// LineError is a parse failure tied to its 1-based line number.
type LineError struct {
	Source string
	Line   int
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// top prints these lines around each process table when run in batch mode.
var preamblePrefixes = []string{
	"top -",
	"Tasks:",
	"Threads:",
	"%Cpu",
	"Cpu(s):",
	"KiB Mem", "MiB Mem", "GiB Mem", "TiB Mem",
	"KiB Swap", "MiB Swap", "GiB Swap", "TiB Swap",
	"Mem:", "Swap:",
}

func isPreamble(line string) bool {
	for _, p := range preamblePrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	first, _, _ := strings.Cut(line, " ")
	return first == "PID"
}

// Ingest reads snapshot lines from r and returns the store built from them.
// Under the strict policy the first parse failure aborts the pass and is returned as a
// *LineError along with the summary so far. Store invariant violations always abort.
func Ingest(r io.Reader, opts ...Option) (*series.Store, *Summary, error) {
	o := buildOptions(opts)
	log := o.Logger.WithField("source", o.Source)

	store := series.NewStore()
	sum := &Summary{
		RunID:  uuid.NewString(),
		Source: o.Source,
		Policy: o.Policy.String(),
	}
	finish := func() {
		sum.Processes = store.Len()
		sum.Mismatches = store.Mismatches()
	}

	lines := newLineReader(r, int(o.MaxLineSize.Bytes()))
	for {
		raw, err := lines.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !errors.Is(err, ErrLineTooLong) {
			finish()
			return nil, sum, errors.Wrapf(err, "read %s", o.Source)
		}
		sum.LinesRead++

		if err != nil {
			lerr := &LineError{Source: o.Source, Line: sum.LinesRead, Err: err}
			if o.Policy == Strict {
				finish()
				return nil, sum, lerr
			}
			sum.skip(ErrLineTooLong.Error())
			log.WithField("line", sum.LinesRead).Warnf("skipping line longer than %s", o.MaxLineSize.HumanReadable())
			continue
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			sum.Blank++
			continue
		}
		if isPreamble(line) {
			sum.Preamble++
			continue
		}

		rec, err := o.Parser.ParseLine(line)
		if err != nil {
			lerr := &LineError{Source: o.Source, Line: sum.LinesRead, Err: err}
			if o.Policy == Strict {
				finish()
				return nil, sum, lerr
			}
			sum.skip(parsing.Reason(err))
			log.WithField("line", sum.LinesRead).Debugf("skipping line: %v", err)
			continue
		}

		flagged := store.NumMismatches()
		if _, err := store.Observe(rec); err != nil {
			finish()
			return nil, sum, errors.Wrapf(err, "%s:%d", o.Source, sum.LinesRead)
		}
		sum.Records++

		if store.NumMismatches() > flagged {
			for _, m := range store.Mismatches()[flagged:] {
				log.WithField("line", sum.LinesRead).Warnf("possible pid reuse: %s", m)
			}
		}
	}
	finish()
	return store, sum, nil
}
