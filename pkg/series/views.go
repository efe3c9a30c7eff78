package series

import (
	"fmt"
)

// Point is one value of a view, keyed by its sample index within the series.
type Point struct {
	Index int
	Value float64
}

// View is one process's values for a single metric.
type View struct {
	PID    int64
	Label  string
	Metric Metric
	Points []Point
}

func label(pid int64, command string) string {
	return fmt.Sprintf("%d [%s]", pid, command)
}

// Values converts the selected sequence to float64 for charting. Status values map to
// their ordinal in parsing.Statuses and CPU time is in seconds.
func (s *Series) Values(m Metric) []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		switch m {
		case Priority:
			out[i] = float64(s.Priority[i])
		case Nice:
			out[i] = float64(s.Nice[i])
		case VirtualMem:
			out[i] = float64(s.VirtualMemKiB[i])
		case ResidentMem:
			out[i] = float64(s.ResidentMemKiB[i])
		case SharedMem:
			out[i] = float64(s.SharedMemKiB[i])
		case Status:
			out[i] = float64(s.Status[i].Ordinal())
		case CPUPercent:
			out[i] = s.CPUPercent[i].InexactFloat64()
		case MemPercent:
			out[i] = s.MemPercent[i].InexactFloat64()
		case CPUTime:
			out[i] = s.CPUTime[i].Seconds()
		}
	}
	return out
}

// View returns the series' values for m.
func (s *Series) View(m Metric) View {
	vals := s.Values(m)
	pts := make([]Point, len(vals))
	for i, v := range vals {
		pts[i] = Point{Index: i, Value: v}
	}
	return View{PID: s.PID, Label: s.Label(), Metric: m, Points: pts}
}

// CrossProcess selects metric m from every series in the store, one view per pid in
// first-sighting order, aligned on sample index.
func CrossProcess(st *Store, m Metric) []View {
	views := make([]View, 0, st.Len())
	for _, s := range st.Series() {
		views = append(views, s.View(m))
	}
	return views
}

// MaxLen returns the longest view length, i.e. the number of x-axis positions.
func MaxLen(views []View) int {
	n := 0
	for _, v := range views {
		if len(v.Points) > 0 {
			if last := v.Points[len(v.Points)-1].Index + 1; last > n {
				n = last
			}
		}
	}
	return n
}
