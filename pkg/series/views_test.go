package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrossProcess(t *testing.T) {
	st := NewStore()
	for i, pid := range []int64{10, 20, 10, 20, 10} {
		_, err := st.Observe(record(t, pid, "R", int64(100*(i+1))))
		require.NoError(t, err)
	}

	views := CrossProcess(st, VirtualMem)
	require.Len(t, views, 2)

	assert.Equal(t, int64(10), views[0].PID)
	assert.Equal(t, "10 [cmd10]", views[0].Label)
	assert.Equal(t, []Point{{0, 100}, {1, 300}, {2, 500}}, views[0].Points)
	assert.Equal(t, []Point{{0, 200}, {1, 400}}, views[1].Points)
	assert.Equal(t, 3, MaxLen(views))
}

func TestValues(t *testing.T) {
	st := NewStore()
	_, err := st.Observe(record(t, 1, "S", 5))
	require.NoError(t, err)
	s, _ := st.Get(1)

	assert.Equal(t, []float64{1.5}, s.Values(CPUPercent))
	assert.Equal(t, []float64{0.2}, s.Values(MemPercent))
	assert.Equal(t, []float64{1}, s.Values(CPUTime))
	assert.Equal(t, []float64{3}, s.Values(Status))
	assert.Equal(t, []float64{20}, s.Values(Priority))
	assert.Equal(t, []float64{50}, s.Values(SharedMem))
}

func TestParseMetric(t *testing.T) {
	for _, m := range Metrics {
		got, err := ParseMetric(m.Name())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMetric("offset")
	assert.Error(t, err)

	assert.Equal(t, "Virtual memory size (KiB)", VirtualMem.AxisLabel())
	assert.Equal(t, "Nice", Nice.AxisLabel())
}

func TestRangeFilter(t *testing.T) {
	lo, hi := 150.0, 450.0
	f := RangeFilter{Metric: VirtualMem, Min: &lo, Max: &hi}

	v := View{Metric: VirtualMem, Points: []Point{{0, 100}, {1, 200}, {2, 400}, {3, 500}}}
	got := f.Apply(v)
	assert.Equal(t, []Point{{1, 200}, {2, 400}}, got.Points)
	assert.Len(t, v.Points, 4, "input view must not be modified")

	other := View{Metric: CPUPercent, Points: []Point{{0, 1000}}}
	assert.Equal(t, other, f.Apply(other))

	open := RangeFilter{Metric: VirtualMem, Max: &hi}
	assert.True(t, open.Keep(-1))
	assert.False(t, open.Keep(451))

	out := ApplyFilters([]View{v, other}, []RangeFilter{f})
	assert.Len(t, out[0].Points, 2)
	assert.Len(t, out[1].Points, 1)
}
