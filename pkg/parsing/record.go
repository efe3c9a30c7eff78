// Package parsing turns top snapshot lines into typed records.
package parsing

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NumFields is the number of whitespace-separated columns in a snapshot line.
const NumFields = 12

// Record is one parsed snapshot line. It is a value type and is never mutated after parsing.
type Record struct {
	PID            int64
	User           string
	Priority       int64
	Nice           int64
	VirtualMemKiB  int64
	ResidentMemKiB int64
	SharedMemKiB   int64
	Status         ProcessStatus
	CPUPercent     decimal.Decimal
	MemPercent     decimal.Decimal
	CPUTime        time.Duration
	Command        string
}

// Fields re-serializes the record into its twelve primitive tokens. The result parses
// back into an equal Record (with an empty label table).
func (r Record) Fields() []string {
	return []string{
		strconv.FormatInt(r.PID, 10),
		r.User,
		formatPriority(r.Priority),
		strconv.FormatInt(r.Nice, 10),
		strconv.FormatInt(r.VirtualMemKiB, 10),
		strconv.FormatInt(r.ResidentMemKiB, 10),
		strconv.FormatInt(r.SharedMemKiB, 10),
		r.Status.Code(),
		r.CPUPercent.String(),
		r.MemPercent.String(),
		FormatCPUTime(r.CPUTime),
		r.Command,
	}
}

// String renders the record as a snapshot line.
func (r Record) String() string {
	return strings.Join(r.Fields(), " ")
}

// Equal reports whether two records carry the same values.
func (r Record) Equal(o Record) bool {
	return r.PID == o.PID &&
		r.User == o.User &&
		r.Priority == o.Priority &&
		r.Nice == o.Nice &&
		r.VirtualMemKiB == o.VirtualMemKiB &&
		r.ResidentMemKiB == o.ResidentMemKiB &&
		r.SharedMemKiB == o.SharedMemKiB &&
		r.Status == o.Status &&
		r.CPUPercent.Equal(o.CPUPercent) &&
		r.MemPercent.Equal(o.MemPercent) &&
		r.CPUTime == o.CPUTime &&
		r.Command == o.Command
}
