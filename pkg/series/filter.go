package series

// RangeFilter drops points of one metric outside [Min, Max]. A nil bound is open.
type RangeFilter struct {
	Metric Metric
	Min    *float64
	Max    *float64
}

// Keep reports whether v passes the filter.
func (f RangeFilter) Keep(v float64) bool {
	if f.Min != nil && v < *f.Min {
		return false
	}
	if f.Max != nil && v > *f.Max {
		return false
	}
	return true
}

// Apply returns a copy of v without the out-of-range points. Surviving points keep their
// sample index. Views of a different metric are returned unchanged.
func (f RangeFilter) Apply(v View) View {
	if v.Metric != f.Metric {
		return v
	}
	out := v
	out.Points = make([]Point, 0, len(v.Points))
	for _, p := range v.Points {
		if f.Keep(p.Value) {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// ApplyFilters runs every filter over every view.
func ApplyFilters(views []View, filters []RangeFilter) []View {
	if len(filters) == 0 {
		return views
	}
	out := make([]View, len(views))
	for i, v := range views {
		for _, f := range filters {
			v = f.Apply(v)
		}
		out[i] = v
	}
	return out
}
