package graphing

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"TopAnalyzer/pkg/parsing"
	"TopAnalyzer/pkg/series"
)

const chartHeight = "400px"

// statusAxis lists the status labels in ordinal order so a status value indexes it.
func statusAxis() []string {
	labels := make([]string, len(parsing.Statuses))
	for i, s := range parsing.Statuses {
		labels[i] = s.String()
	}
	return labels
}

func yAxisFor(m series.Metric) opts.YAxis {
	if m == series.Status {
		return opts.YAxis{Type: "category", Name: m.AxisLabel(), Data: statusAxis()}
	}
	return opts.YAxis{Type: "value", Name: m.AxisLabel(), Scale: opts.Bool(true)}
}

// newLineChart creates a line chart with sample index on a value x axis.
func newLineChart(title, subtitle string, y opts.YAxis) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "sample"}),
		charts.WithYAxisOpts(y),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: chartHeight}),
	)
	return line
}

func lineData(v series.View) []opts.LineData {
	data := make([]opts.LineData, len(v.Points))
	for i, p := range v.Points {
		if v.Metric == series.Status {
			data[i] = opts.LineData{Value: []interface{}{p.Index, int(p.Value)}}
			continue
		}
		data[i] = opts.LineData{Value: []interface{}{p.Index, p.Value}}
	}
	return data
}

func addView(line *charts.Line, name string, v series.View) {
	step := v.Metric == series.Status
	line.AddSeries(name, lineData(v),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(len(v.Points) < 200), Step: step}),
	)
}

// createCrossProcessChart draws one metric for every process, one line per pid.
func createCrossProcessChart(name string, m series.Metric, views []series.View) *charts.Line {
	line := newLineChart(fmt.Sprintf("%s by process", m.Title()), name, yAxisFor(m))
	for _, v := range views {
		if len(v.Points) == 0 {
			continue
		}
		addView(line, v.Label, v)
	}
	return line
}

// processCharts builds the per-process panels: CPU x MEM, priority x nice, memory,
// status and CPU time.
func (g *Generator) processCharts(s *series.Series) []components.Charter {
	title := fmt.Sprintf("%s: %s", g.name, s.Label())

	panels := []struct {
		subtitle string
		y        opts.YAxis
		metrics  []series.Metric
	}{
		{"CPU x MEM", opts.YAxis{Type: "value", Name: "%"}, []series.Metric{series.CPUPercent, series.MemPercent}},
		{"Priority x Nice", opts.YAxis{Type: "value", Scale: opts.Bool(true)}, []series.Metric{series.Priority, series.Nice}},
		{"Memory", opts.YAxis{Type: "value", Name: "KiB"}, []series.Metric{series.VirtualMem, series.ResidentMem, series.SharedMem}},
		{"Status", yAxisFor(series.Status), []series.Metric{series.Status}},
		{"CPU time", yAxisFor(series.CPUTime), []series.Metric{series.CPUTime}},
	}

	out := make([]components.Charter, 0, len(panels))
	for _, p := range panels {
		line := newLineChart(title, p.subtitle, p.y)
		points := 0
		for _, m := range p.metrics {
			v := g.view(s, m)
			points += len(v.Points)
			addView(line, m.Title(), v)
		}
		if points > 0 {
			out = append(out, line)
		}
	}
	return out
}
