package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	plotTitle  = "Smoothed Bootstrapped Accuracy per Crop per Week"
	plotXLabel = "Week of the Year"
	plotYLabel = "Accuracy"
	legendHead = "Crop Type"

	plotWidth  = 10 * vg.Inch
	plotHeight = 8 * vg.Inch

	// bandAlpha is the opacity of the ±std band.
	bandAlpha = 51
)

// WriteBandPlot renders one smoothed accuracy line per crop with a ±1 std
// band and encodes it as PNG to w.
func WriteBandPlot(w io.Writer, series []CropSeries, palette *Palette) error {
	p := plot.New()
	p.Title.Text = plotTitle
	p.X.Label.Text = plotXLabel
	p.Y.Label.Text = plotYLabel
	p.Y.Min = 0
	p.Y.Max = 1
	p.Add(plotter.NewGrid())

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	p.Legend.Add(legendHead)

	for _, s := range series {
		if len(s.Weeks) == 0 {
			continue
		}
		c := palette.Color(s.Crop)

		band, err := plotter.NewPolygon(bandXYs(s))
		if err != nil {
			return fmt.Errorf("crop %s: band: %w", s.Crop, err)
		}
		band.Color = color.NRGBA{R: c.R, G: c.G, B: c.B, A: bandAlpha}
		band.LineStyle.Color = color.Transparent
		p.Add(band)

		pts := make(plotter.XYs, len(s.Weeks))
		for i, wk := range s.Weeks {
			pts[i] = plotter.XY{X: float64(wk), Y: s.Smoothed[i]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("crop %s: line: %w", s.Crop, err)
		}
		line.Color = c
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.Crop, line)
	}

	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}

// bandXYs traces the upper edge left to right and the lower edge back.
func bandXYs(s CropSeries) plotter.XYs {
	n := len(s.Weeks)
	xys := make(plotter.XYs, 0, 2*n)
	for i := range n {
		xys = append(xys, plotter.XY{X: float64(s.Weeks[i]), Y: s.Upper(i)})
	}
	for i := n - 1; i >= 0; i-- {
		xys = append(xys, plotter.XY{X: float64(s.Weeks[i]), Y: s.Lower(i)})
	}
	return xys
}
