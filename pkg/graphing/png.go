package graphing

import (
	"os"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"TopAnalyzer/pkg/series"
	"TopAnalyzer/pkg/utils"
)

const (
	defaultWidth  = 12 * vg.Inch
	defaultHeight = 6 * vg.Inch
)

// XY is one named line of a free-form chart.
type XY struct {
	Name string
	X    []float64
	Y    []float64
}

func (l XY) points() plotter.XYs {
	n := len(l.X)
	if len(l.Y) < n {
		n = len(l.Y)
	}
	pts := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		pts[i].X = l.X[i]
		pts[i].Y = l.Y[i]
	}
	return pts
}

func viewXY(v series.View) XY {
	xy := XY{Name: v.Label, X: make([]float64, len(v.Points)), Y: make([]float64, len(v.Points))}
	for i, p := range v.Points {
		xy.X[i] = float64(p.Index)
		xy.Y[i] = p.Value
	}
	return xy
}

// SavePNG draws lines into a PNG file. Empty lines are skipped.
func SavePNG(path, title, xLabel, yLabel string, lines ...XY) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true

	drawn := 0
	for i, l := range lines {
		pts := l.points()
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "line %s", l.Name)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(l.Name, line)
		drawn++
	}
	if drawn == 0 {
		return ErrNoData
	}
	p.Add(plotter.NewGrid())

	return p.Save(defaultWidth, defaultHeight, path)
}

// PNGName returns the file name of the cross-process PNG for m.
func (g *Generator) PNGName(m series.Metric) string {
	suffix := m.Name()
	if m == series.VirtualMem {
		suffix = "virtual-mem"
	}
	return utils.SanitizeFilename(g.name) + "-" + suffix + ".png"
}

// WritePNG renders one cross-process PNG per configured metric into dir and returns the
// files written. Metrics with nothing left to draw are skipped.
func (g *Generator) WritePNG(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "create output directory")
	}

	var written []string
	for _, m := range g.metrics {
		views := g.crossProcess(m)
		lines := make([]XY, 0, len(views))
		for _, v := range views {
			lines = append(lines, viewXY(v))
		}

		path := filepath.Join(dir, g.PNGName(m))
		err := SavePNG(path, g.name, "sample", m.AxisLabel(), lines...)
		if errors.Is(err, ErrNoData) {
			g.logger.WithField("metric", m.Name()).Debug("no points left to chart")
			continue
		}
		if err != nil {
			return written, errors.Wrapf(err, "render %s", m.Name())
		}
		written = append(written, path)
	}

	if len(written) == 0 {
		return nil, ErrNoData
	}
	g.logger.WithFields(logrus.Fields{"dir": dir, "files": len(written)}).Info("generated graphs")
	return written, nil
}
