package graphing

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"strconv"
	"strings"

	"emperror.dev/errors"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"TopAnalyzer/pkg/ingesting"
	"TopAnalyzer/pkg/series"
)

// ReportInfo is the header shown above the charts of an HTML report.
type ReportInfo struct {
	Name       string
	Source     string
	RunID      string
	Processes  int
	Samples    int
	Skipped    int
	Mismatches int
	Filters    []string
}

// decoratePage injects the report header after <body> and the shared styles and
// scripts before </head> of a rendered echarts page.
func decoratePage(html string, info *ReportInfo) (string, error) {
	var head bytes.Buffer
	if err := templates.ExecuteTemplate(&head, "styles", nil); err != nil {
		return "", errors.Wrap(err, "execute styles template")
	}
	if err := templates.ExecuteTemplate(&head, "scripts", nil); err != nil {
		return "", errors.Wrap(err, "execute scripts template")
	}
	html = strings.Replace(html, "</head>", head.String()+"</head>", 1)

	if info != nil {
		var body bytes.Buffer
		if err := templates.ExecuteTemplate(&body, "report_info", info); err != nil {
			return "", errors.Wrap(err, "execute report_info template")
		}
		html = strings.Replace(html, "<body>", "<body>\n"+body.String(), 1)
	}
	return html, nil
}

// RenderInfo renders only the report header.
func RenderInfo(info ReportInfo) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "report_info", info); err != nil {
		return "", errors.Wrap(err, "execute report_info template")
	}
	return template.HTML(buf.String()), nil
}

// createXYChart draws free-form lines on value axes.
func createXYChart(title, xLabel, yLabel string, lines []XY) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: xLabel, Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: yLabel, Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: chartHeight}),
	)
	for _, l := range lines {
		pts := l.points()
		data := make([]opts.LineData, len(pts))
		for i, p := range pts {
			data[i] = opts.LineData{Value: []interface{}{p.X, p.Y}}
		}
		line.AddSeries(l.Name, data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		)
	}
	return line
}

// WriteHTML writes a single-chart HTML page of free-form lines to path.
func WriteHTML(path, title, xLabel, yLabel string, lines ...XY) error {
	points := 0
	for _, l := range lines {
		points += len(l.points())
	}
	if points == 0 {
		return ErrNoData
	}

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(createXYChart(title, xLabel, yLabel, lines))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return errors.Wrap(err, "render charts")
	}
	html, err := decoratePage(buf.String(), nil)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(html), 0644)
}

// NewReportInfo summarizes a store and, when available, the ingestion that built it.
func NewReportInfo(name string, st *series.Store, sum *ingesting.Summary, filters []series.RangeFilter) ReportInfo {
	info := ReportInfo{
		Name:       name,
		Processes:  st.Len(),
		Samples:    st.Samples(),
		Mismatches: st.NumMismatches(),
	}
	if sum != nil {
		info.Source = sum.Source
		info.RunID = sum.RunID
		info.Skipped = sum.Skipped
	}
	for _, f := range filters {
		info.Filters = append(info.Filters, describeFilter(f))
	}
	return info
}

func describeFilter(f series.RangeFilter) string {
	lo, hi := "-inf", "+inf"
	if f.Min != nil {
		lo = strconv.FormatFloat(*f.Min, 'g', -1, 64)
	}
	if f.Max != nil {
		hi = strconv.FormatFloat(*f.Max, 'g', -1, 64)
	}
	return fmt.Sprintf("%s in [%s, %s]", f.Metric.Name(), lo, hi)
}
