package series

import (
	"strings"

	"emperror.dev/errors"
)

// Metric selects one of the nine per-process sequences.
type Metric int

const (
	Priority Metric = iota
	Nice
	VirtualMem
	ResidentMem
	SharedMem
	Status
	CPUPercent
	MemPercent
	CPUTime
)

// Metrics lists every metric in column order.
var Metrics = []Metric{Priority, Nice, VirtualMem, ResidentMem, SharedMem, Status, CPUPercent, MemPercent, CPUTime}

var metricInfo = [...]struct {
	name  string
	title string
	unit  string
}{
	Priority:    {"priority", "Priority", ""},
	Nice:        {"nice", "Nice", ""},
	VirtualMem:  {"virt", "Virtual memory size", "KiB"},
	ResidentMem: {"res", "Resident memory size", "KiB"},
	SharedMem:   {"shr", "Shared memory size", "KiB"},
	Status:      {"status", "Status", ""},
	CPUPercent:  {"cpu", "CPU usage", "%"},
	MemPercent:  {"mem", "Memory usage", "%"},
	CPUTime:     {"time", "Total CPU time", "s"},
}

// Name returns the short metric name used in configuration and file names.
func (m Metric) Name() string { return metricInfo[m].name }

// Title returns the human-readable metric name.
func (m Metric) Title() string { return metricInfo[m].title }

// Unit returns the unit of the metric's values, if any.
func (m Metric) Unit() string { return metricInfo[m].unit }

// AxisLabel returns "Title (unit)".
func (m Metric) AxisLabel() string {
	if u := m.Unit(); u != "" {
		return m.Title() + " (" + u + ")"
	}
	return m.Title()
}

func (m Metric) String() string { return m.Name() }

// ParseMetric looks a metric up by its short name.
func ParseMetric(name string) (Metric, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, m := range Metrics {
		if m.Name() == name {
			return m, nil
		}
	}
	return 0, errors.Errorf("unknown metric %q", name)
}
