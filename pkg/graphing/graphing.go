// Package graphing renders reconstructed process series as interactive HTML pages and
// static PNG images.
package graphing

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/sirupsen/logrus"

	"TopAnalyzer/pkg/series"
)

// ErrNoData is returned when no chart could be produced.
const ErrNoData = errors.Sentinel("no data to chart")

// Generator creates visualizations for one store.
type Generator struct {
	store      *series.Store
	name       string
	metrics    []series.Metric
	filters    []series.RangeFilter
	perProcess bool
	info       *ReportInfo
	logger     logrus.FieldLogger
}

// Option configures a Generator.
type Option func(*Generator)

// WithMetrics restricts the cross-process charts to the given metrics.
func WithMetrics(m ...series.Metric) Option {
	return func(g *Generator) {
		if len(m) > 0 {
			g.metrics = m
		}
	}
}

// WithFilters drops out-of-range points before rendering.
func WithFilters(f ...series.RangeFilter) Option {
	return func(g *Generator) { g.filters = f }
}

// WithPerProcess adds the per-process charts to HTML output.
func WithPerProcess(on bool) Option {
	return func(g *Generator) { g.perProcess = on }
}

// WithInfo sets the header shown above the HTML charts.
func WithInfo(info ReportInfo) Option {
	return func(g *Generator) { g.info = &info }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGenerator creates a generator for st. name prefixes titles and output files,
// typically "<experiment>-<host>".
func NewGenerator(st *series.Store, name string, opts ...Option) (*Generator, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if name == "" {
		return nil, errors.New("name is required")
	}

	g := &Generator{
		store:   st,
		name:    name,
		metrics: series.Metrics,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Name returns the generator's name.
func (g *Generator) Name() string { return g.name }

func (g *Generator) crossProcess(m series.Metric) []series.View {
	return series.ApplyFilters(series.CrossProcess(g.store, m), g.filters)
}

func (g *Generator) view(s *series.Series, m series.Metric) series.View {
	v := s.View(m)
	for _, f := range g.filters {
		v = f.Apply(v)
	}
	return v
}

func hasPoints(views []series.View) bool {
	for _, v := range views {
		if len(v.Points) > 0 {
			return true
		}
	}
	return false
}

// Render writes a complete HTML page with every chart to w.
func (g *Generator) Render(w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = "Process metrics - " + g.name

	added := 0
	for _, m := range g.metrics {
		views := g.crossProcess(m)
		if !hasPoints(views) {
			g.logger.WithField("metric", m.Name()).Debug("no points left to chart")
			continue
		}
		page.AddCharts(createCrossProcessChart(g.name, m, views))
		added++
	}

	if g.perProcess {
		for _, s := range g.store.Series() {
			for _, c := range g.processCharts(s) {
				page.AddCharts(c)
				added++
			}
		}
	}

	if added == 0 {
		return ErrNoData
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return errors.Wrap(err, "render charts")
	}

	html, err := decoratePage(buf.String(), g.info)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, html)
	return err
}

// WriteHTML renders the page to path.
func (g *Generator) WriteHTML(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}

	var buf bytes.Buffer
	if err := g.Render(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrap(err, "write html")
	}

	g.logger.WithField("path", path).Info("generated graphs")
	return nil
}
