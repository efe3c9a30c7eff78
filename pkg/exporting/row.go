package exporting

import (
	"math"
	"strconv"
	"time"

	"emperror.dev/errors"
	"github.com/shopspring/decimal"

	"TopAnalyzer/pkg/parsing"
)

// Column names of a flattened store.
const (
	ColPID        = "pid"
	ColUser       = "user"
	ColCommand    = "command"
	ColSample     = "sample"
	ColPriority   = "priority"
	ColNice       = "nice"
	ColVirtKiB    = "virtKiB"
	ColResKiB     = "resKiB"
	ColShrKiB     = "shrKiB"
	ColStatus     = "status"
	ColCPUPercent = "cpuPercent"
	ColMemPercent = "memPercent"
	ColCPUTimeSec = "cpuTimeSec"
)

// ErrMalformedRow is returned when an exported row cannot be turned back into a record.
const ErrMalformedRow = errors.Sentinel("malformed row")

// Row is one (pid, sample) observation as it is written to disk. Percentages keep their
// canonical decimal text so that every format reads them back exactly.
type Row struct {
	PID        int64   `json:"pid" parquet:"pid"`
	User       string  `json:"user" parquet:"user"`
	Command    string  `json:"command" parquet:"command"`
	Sample     int64   `json:"sample" parquet:"sample"`
	Priority   int64   `json:"priority" parquet:"priority"`
	Nice       int64   `json:"nice" parquet:"nice"`
	VirtKiB    int64   `json:"virtKiB" parquet:"virtKiB"`
	ResKiB     int64   `json:"resKiB" parquet:"resKiB"`
	ShrKiB     int64   `json:"shrKiB" parquet:"shrKiB"`
	Status     string  `json:"status" parquet:"status"`
	CPUPercent string  `json:"cpuPercent" parquet:"cpuPercent"`
	MemPercent string  `json:"memPercent" parquet:"memPercent"`
	CPUTimeSec float64 `json:"cpuTimeSec" parquet:"cpuTimeSec"`
}

// rowField binds a column name to exactly one typed field of a Row.
type rowField struct {
	name string
	i    *int64
	s    *string
	f    *float64
}

func (r *Row) fields() []rowField {
	return []rowField{
		{name: ColPID, i: &r.PID},
		{name: ColUser, s: &r.User},
		{name: ColCommand, s: &r.Command},
		{name: ColSample, i: &r.Sample},
		{name: ColPriority, i: &r.Priority},
		{name: ColNice, i: &r.Nice},
		{name: ColVirtKiB, i: &r.VirtKiB},
		{name: ColResKiB, i: &r.ResKiB},
		{name: ColShrKiB, i: &r.ShrKiB},
		{name: ColStatus, s: &r.Status},
		{name: ColCPUPercent, s: &r.CPUPercent},
		{name: ColMemPercent, s: &r.MemPercent},
		{name: ColCPUTimeSec, f: &r.CPUTimeSec},
	}
}

// Columns lists the column names in file order.
var Columns = func() []string {
	fields := new(Row).fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	return names
}()

func (f rowField) format() string {
	switch {
	case f.i != nil:
		return strconv.FormatInt(*f.i, 10)
	case f.f != nil:
		return strconv.FormatFloat(*f.f, 'f', -1, 64)
	default:
		return *f.s
	}
}

// set parses a text cell by the column's type. Text columns are taken verbatim.
func (f rowField) set(cell string) error {
	switch {
	case f.i != nil:
		v, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return errors.Wrapf(ErrMalformedRow, "column %s: %q", f.name, cell)
		}
		*f.i = v
	case f.f != nil:
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return errors.Wrapf(ErrMalformedRow, "column %s: %q", f.name, cell)
		}
		*f.f = v
	default:
		*f.s = cell
	}
	return nil
}

// Strings renders the row as text cells in Columns order.
func (r Row) Strings() []string {
	fields := r.fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.format()
	}
	return out
}

// FlattenRecord converts the record observed at the given sample index into a row.
func FlattenRecord(r parsing.Record, sample int) Row {
	return Row{
		PID:        r.PID,
		User:       r.User,
		Command:    r.Command,
		Sample:     int64(sample),
		Priority:   r.Priority,
		Nice:       r.Nice,
		VirtKiB:    r.VirtualMemKiB,
		ResKiB:     r.ResidentMemKiB,
		ShrKiB:     r.SharedMemKiB,
		Status:     r.Status.Code(),
		CPUPercent: r.CPUPercent.String(),
		MemPercent: r.MemPercent.String(),
		CPUTimeSec: r.CPUTime.Seconds(),
	}
}

// Record rebuilds the parsed record and its sample index.
func (r Row) Record() (parsing.Record, int, error) {
	if r.Sample < 0 {
		return parsing.Record{}, 0, errors.Wrapf(ErrMalformedRow, "column %s: %d", ColSample, r.Sample)
	}
	status, err := parsing.ParseStatus(r.Status)
	if err != nil {
		return parsing.Record{}, 0, errors.Wrap(ErrMalformedRow, err.Error())
	}
	cpu, err := decimal.NewFromString(r.CPUPercent)
	if err != nil {
		return parsing.Record{}, 0, errors.Wrapf(ErrMalformedRow, "column %s: %q", ColCPUPercent, r.CPUPercent)
	}
	mem, err := decimal.NewFromString(r.MemPercent)
	if err != nil {
		return parsing.Record{}, 0, errors.Wrapf(ErrMalformedRow, "column %s: %q", ColMemPercent, r.MemPercent)
	}
	if r.CPUTimeSec < 0 || math.IsNaN(r.CPUTimeSec) || r.CPUTimeSec > math.MaxInt64/1e9 {
		return parsing.Record{}, 0, errors.Wrapf(ErrMalformedRow, "column %s: %v", ColCPUTimeSec, r.CPUTimeSec)
	}

	return parsing.Record{
		PID:            r.PID,
		User:           r.User,
		Priority:       r.Priority,
		Nice:           r.Nice,
		VirtualMemKiB:  r.VirtKiB,
		ResidentMemKiB: r.ResKiB,
		SharedMemKiB:   r.ShrKiB,
		Status:         status,
		CPUPercent:     cpu,
		MemPercent:     mem,
		CPUTime:        time.Duration(math.Round(r.CPUTimeSec*1e6)) * time.Microsecond,
		Command:        r.Command,
	}, int(r.Sample), nil
}
