// Package series accumulates parsed snapshot records into per-process time series.
package series

import (
	"time"

	"github.com/shopspring/decimal"

	"TopAnalyzer/pkg/parsing"
)

// Series holds the aligned metric sequences of one process. The n-th element of every
// sequence belongs to the same sampling instant. Consumers must treat it as read-only.
type Series struct {
	PID     int64
	User    string
	Command string

	Priority       []int64
	Nice           []int64
	VirtualMemKiB  []int64
	ResidentMemKiB []int64
	SharedMemKiB   []int64
	Status         []parsing.ProcessStatus
	CPUPercent     []decimal.Decimal
	MemPercent     []decimal.Decimal
	CPUTime        []time.Duration
}

func newSeries(r parsing.Record) *Series {
	s := &Series{
		PID:     r.PID,
		User:    r.User,
		Command: r.Command,
	}
	s.push(r)
	return s
}

func (s *Series) push(r parsing.Record) {
	s.Priority = append(s.Priority, r.Priority)
	s.Nice = append(s.Nice, r.Nice)
	s.VirtualMemKiB = append(s.VirtualMemKiB, r.VirtualMemKiB)
	s.ResidentMemKiB = append(s.ResidentMemKiB, r.ResidentMemKiB)
	s.SharedMemKiB = append(s.SharedMemKiB, r.SharedMemKiB)
	s.Status = append(s.Status, r.Status)
	s.CPUPercent = append(s.CPUPercent, r.CPUPercent)
	s.MemPercent = append(s.MemPercent, r.MemPercent)
	s.CPUTime = append(s.CPUTime, r.CPUTime)
}

// Len returns the number of samples appended to the series.
func (s *Series) Len() int { return len(s.Priority) }

// Label returns the legend label "pid [command]".
func (s *Series) Label() string {
	return label(s.PID, s.Command)
}

// Record rebuilds the record observed at sample i.
func (s *Series) Record(i int) parsing.Record {
	return parsing.Record{
		PID:            s.PID,
		User:           s.User,
		Priority:       s.Priority[i],
		Nice:           s.Nice[i],
		VirtualMemKiB:  s.VirtualMemKiB[i],
		ResidentMemKiB: s.ResidentMemKiB[i],
		SharedMemKiB:   s.SharedMemKiB[i],
		Status:         s.Status[i],
		CPUPercent:     s.CPUPercent[i],
		MemPercent:     s.MemPercent[i],
		CPUTime:        s.CPUTime[i],
		Command:        s.Command,
	}
}

// lengths returns the length of each of the nine sequences.
func (s *Series) lengths() [9]int {
	return [9]int{
		len(s.Priority), len(s.Nice),
		len(s.VirtualMemKiB), len(s.ResidentMemKiB), len(s.SharedMemKiB),
		len(s.Status), len(s.CPUPercent), len(s.MemPercent), len(s.CPUTime),
	}
}

// Aligned reports whether all nine sequences have the same length.
func (s *Series) Aligned() bool {
	l := s.lengths()
	for _, n := range l[1:] {
		if n != l[0] {
			return false
		}
	}
	return true
}
