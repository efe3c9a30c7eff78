package exporting

import (
	"sort"

	"emperror.dev/errors"

	"TopAnalyzer/pkg/parsing"
	"TopAnalyzer/pkg/series"
)

// FlattenStore emits one row per (pid, sample), pids in first-sighting order.
func FlattenStore(st *series.Store) []Row {
	rows := make([]Row, 0, st.Samples())
	for _, s := range st.Series() {
		for i := 0; i < s.Len(); i++ {
			rows = append(rows, FlattenRecord(s.Record(i), i))
		}
	}
	return rows
}

// RebuildStore replays rows into a fresh store, ordered by sample index and then by
// position in rows, which reproduces the original first-sighting order.
func RebuildStore(rows []Row) (*series.Store, error) {
	type entry struct {
		rec    parsing.Record
		sample int
	}
	entries := make([]entry, 0, len(rows))
	for i, row := range rows {
		rec, sample, err := row.Record()
		if err != nil {
			return nil, errors.WithDetails(err, "row", i)
		}
		entries = append(entries, entry{rec, sample})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].sample < entries[j].sample })

	st := series.NewStore()
	for _, e := range entries {
		if _, err := st.Observe(e.rec); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// LoadStore reads an exported file of any registered format back into a store.
func LoadStore(path string) (*series.Store, error) {
	rows, err := LoadRows(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return RebuildStore(rows)
}
