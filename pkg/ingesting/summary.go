package ingesting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"TopAnalyzer/pkg/series"
)

// Summary reports what one ingestion pass did with its input.
type Summary struct {
	RunID       string                 `json:"runId"`
	Source      string                 `json:"source"`
	Policy      string                 `json:"policy"`
	LinesRead   int                    `json:"linesRead"`
	Records     int                    `json:"records"`
	Skipped     int                    `json:"skipped"`
	SkipReasons map[string]int         `json:"skipReasons,omitempty"`
	Blank       int                    `json:"blank"`
	Preamble    int                    `json:"preamble"`
	Processes   int                    `json:"processes"`
	Mismatches  []series.LabelMismatch `json:"mismatches,omitempty"`
}

func (s *Summary) skip(reason string) {
	s.Skipped++
	if s.SkipReasons == nil {
		s.SkipReasons = make(map[string]int)
	}
	s.SkipReasons[reason]++
}

// Fields returns the summary as structured log fields.
func (s *Summary) Fields() logrus.Fields {
	return logrus.Fields{
		"source":     s.Source,
		"run":        s.RunID,
		"lines":      s.LinesRead,
		"records":    s.Records,
		"skipped":    s.Skipped,
		"pids":       s.Processes,
		"mismatches": len(s.Mismatches),
	}
}

// String renders a one-line human-readable summary.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d lines, %d records, %d skipped, %d processes",
		s.Source, s.LinesRead, s.Records, s.Skipped, s.Processes)

	if len(s.SkipReasons) > 0 {
		reasons := make([]string, 0, len(s.SkipReasons))
		for r := range s.SkipReasons {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)
		parts := make([]string, len(reasons))
		for i, r := range reasons {
			parts[i] = fmt.Sprintf("%s=%d", r, s.SkipReasons[r])
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	if n := len(s.Mismatches); n > 0 {
		fmt.Fprintf(&b, ", %d label mismatches", n)
	}
	return b.String()
}
