package series

import (
	"fmt"

	"emperror.dev/errors"

	"TopAnalyzer/pkg/parsing"
)

// Store invariant violations. These indicate a caller bug and are never recoverable.
const (
	ErrSeriesNotFound  = errors.Sentinel("series not found")
	ErrDuplicateSeries = errors.Sentinel("duplicate series creation")
)

// LabelMismatch records a sample whose user or command disagrees with the identity
// captured when the series was created. It may indicate pid reuse.
type LabelMismatch struct {
	PID      int64  `json:"pid"`
	Sample   int    `json:"sample"`
	Field    string `json:"field"`
	Captured string `json:"captured"`
	Observed string `json:"observed"`
}

func (m LabelMismatch) String() string {
	return fmt.Sprintf("pid %d sample %d: %s %q != %q", m.PID, m.Sample, m.Field, m.Observed, m.Captured)
}

// Store maps process identifiers to their series for one ingestion pass.
type Store struct {
	series     map[int64]*Series
	order      []int64
	mismatches []LabelMismatch
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		series: make(map[int64]*Series),
	}
}

// Get returns the series for pid.
func (st *Store) Get(pid int64) (*Series, bool) {
	s, ok := st.series[pid]
	return s, ok
}

// Len returns the number of distinct pids.
func (st *Store) Len() int { return len(st.order) }

// PIDs returns the pids in first-sighting order.
func (st *Store) PIDs() []int64 {
	out := make([]int64, len(st.order))
	copy(out, st.order)
	return out
}

// Series returns every series in first-sighting order.
func (st *Store) Series() []*Series {
	out := make([]*Series, 0, len(st.order))
	for _, pid := range st.order {
		out = append(out, st.series[pid])
	}
	return out
}

// Samples returns the total number of records held by the store.
func (st *Store) Samples() int {
	n := 0
	for _, s := range st.series {
		n += s.Len()
	}
	return n
}

// Create starts a new series seeded with r.
func (st *Store) Create(r parsing.Record) (*Series, error) {
	if _, ok := st.series[r.PID]; ok {
		return nil, errors.Wrapf(ErrDuplicateSeries, "pid %d", r.PID)
	}
	s := newSeries(r)
	st.series[r.PID] = s
	st.order = append(st.order, r.PID)
	return s, nil
}

// Append adds r to the existing series for its pid.
func (st *Store) Append(r parsing.Record) (*Series, error) {
	s, ok := st.series[r.PID]
	if !ok {
		return nil, errors.Wrapf(ErrSeriesNotFound, "pid %d", r.PID)
	}
	if s.User != r.User {
		st.flag(s, "user", s.User, r.User)
	}
	if s.Command != r.Command {
		st.flag(s, "command", s.Command, r.Command)
	}
	s.push(r)
	return s, nil
}

func (st *Store) flag(s *Series, field, captured, observed string) {
	st.mismatches = append(st.mismatches, LabelMismatch{
		PID:      s.PID,
		Sample:   s.Len(),
		Field:    field,
		Captured: captured,
		Observed: observed,
	})
}

// Observe creates a series for an unseen pid or appends to an existing one. Calling it
// twice with the same record appends twice. It reports whether a new series was created.
func (st *Store) Observe(r parsing.Record) (bool, error) {
	if _, ok := st.series[r.PID]; !ok {
		_, err := st.Create(r)
		return err == nil, err
	}
	_, err := st.Append(r)
	return false, err
}

// PidIndex returns the captured command label of every pid.
func (st *Store) PidIndex() map[int64]string {
	idx := make(map[int64]string, len(st.series))
	for pid, s := range st.series {
		idx[pid] = s.Command
	}
	return idx
}

// Mismatches returns the identity disagreements seen so far.
func (st *Store) Mismatches() []LabelMismatch {
	out := make([]LabelMismatch, len(st.mismatches))
	copy(out, st.mismatches)
	return out
}

// NumMismatches returns how many identity disagreements have been flagged.
func (st *Store) NumMismatches() int { return len(st.mismatches) }
