package render

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	apperrors "rheocli/internal/errors"
	"rheocli/internal/regression"
	"rheocli/pkg/contracts/domain"
)

const (
	xAxisLabel = "Z-Height/mm (Positive)"
	yAxisLabel = "Torque/%"

	// equationOffset lifts the fit equation label above the line end,
	// in torque percentage points.
	equationOffset = 0.3
)

// panelStyle bundles the font sizes for one chart panel. Grid panels are
// smaller than standalone charts, so they carry their own scale.
type panelStyle struct {
	title    vg.Length
	label    vg.Length
	tick     vg.Length
	legend   vg.Length
	equation vg.Length
}

var (
	singlePanelStyle = panelStyle{
		title:    vg.Points(15),
		label:    vg.Points(12),
		tick:     vg.Points(10),
		legend:   vg.Points(10),
		equation: vg.Points(8),
	}
	gridPanelStyle = panelStyle{
		title:    vg.Points(12),
		label:    vg.Points(10),
		tick:     vg.Points(9),
		legend:   vg.Points(8),
		equation: vg.Points(7),
	}
)

// newPanel builds an axes skeleton shared by every chart variant.
func newPanel(title string, style panelStyle) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = style.title
	p.Title.Padding = vg.Points(6)

	p.X.Label.Text = xAxisLabel
	p.Y.Label.Text = yAxisLabel
	p.X.Label.TextStyle.Font.Size = style.label
	p.Y.Label.TextStyle.Font.Size = style.label
	p.X.Tick.Label.Font.Size = style.tick
	p.Y.Tick.Label.Font.Size = style.tick
	p.X.Tick.Marker = decimalTicks(6, "%.3f")

	p.Legend.Top = true
	p.Legend.TextStyle.Font.Size = style.legend

	p.Add(plotter.NewGrid())
	return p
}

// decimalTicks caps the axis at maxLabels evenly spaced ticks formatted with
// labelFmt, keeping long fractional z positions readable.
func decimalTicks(maxLabels int, labelFmt string) plot.Ticker {
	if maxLabels < 2 {
		maxLabels = 2
	}
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
			return nil
		}
		if min == max {
			return []plot.Tick{{Value: min, Label: fmt.Sprintf(labelFmt, min)}}
		}
		step := (max - min) / float64(maxLabels-1)
		ticks := make([]plot.Tick, 0, maxLabels)
		for i := 0; i < maxLabels; i++ {
			v := min + float64(i)*step
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf(labelFmt, v)})
		}
		return ticks
	})
}

// buildPanel plots one trial: a colored point series per cell, restricted to
// the torque window, with the fitted line and its equation overlaid wherever
// a fit exists. hasData is false when no cell has points in the window.
func (r *Renderer) buildPanel(table *domain.MeasurementTable, fits []domain.FitResult, title string, style panelStyle) (p *plot.Plot, hasData bool, err error) {
	p = newPanel(title, style)

	fitByCell := make(map[int]domain.FitResult, len(fits))
	for _, fit := range fits {
		if fit.TrialNumber == table.TrialNumber {
			fitByCell[fit.Cell] = fit
		}
	}

	for cell := 1; cell <= domain.CellCount; cell++ {
		z, torque, serr := table.Series(cell)
		if serr != nil {
			return nil, false, apperrors.NewRenderError("invalid cell series", serr)
		}
		zf, tf := regression.FilterWindow(z, torque, r.window)
		if len(zf) == 0 {
			continue
		}
		hasData = true

		pts := make(plotter.XYs, len(zf))
		for i := range zf {
			pts[i].X = zf[i]
			pts[i].Y = tf[i]
		}
		line, scatter, perr := plotter.NewLinePoints(pts)
		if perr != nil {
			return nil, false, apperrors.NewRenderError(fmt.Sprintf("cell %d series plot failed", cell), perr)
		}
		seriesColor := CellColor(cell)
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = seriesColor
		scatter.GlyphStyle.Color = seriesColor
		scatter.GlyphStyle.Radius = vg.Points(2)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(line, scatter)
		p.Legend.Add(fmt.Sprintf("Cell %d", cell), line, scatter)

		if fit, ok := fitByCell[cell]; ok {
			if ferr := addFitOverlay(p, fit, zf, style); ferr != nil {
				return nil, false, ferr
			}
		}
	}

	// Pin the torque axis to the window after the data has widened it.
	p.Y.Min = r.window.Min
	p.Y.Max = r.window.Max
	return p, hasData, nil
}

// addFitOverlay draws the dashed fit line across the cell's z span and tags
// its far end with the equation.
func addFitOverlay(p *plot.Plot, fit domain.FitResult, z []float64, style panelStyle) error {
	minZ, maxZ := z[0], z[0]
	for _, v := range z[1:] {
		if v < minZ {
			minZ = v
		}
		if v > maxZ {
			maxZ = v
		}
	}

	line, err := plotter.NewLine(plotter.XYs{
		{X: minZ, Y: fit.Slope*minZ + fit.Intercept},
		{X: maxZ, Y: fit.Slope*maxZ + fit.Intercept},
	})
	if err != nil {
		return apperrors.NewRenderError(fmt.Sprintf("cell %d fit line failed", fit.Cell), err)
	}
	line.LineStyle.Color = fitLineColor
	line.LineStyle.Width = vg.Points(1.2)
	line.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
	p.Add(line)

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: maxZ, Y: fit.Slope*maxZ + fit.Intercept + equationOffset}},
		Labels: []string{fmt.Sprintf("y = %.3fx + %.3f", fit.Slope, fit.Intercept)},
	})
	if err != nil {
		return apperrors.NewRenderError(fmt.Sprintf("cell %d equation label failed", fit.Cell), err)
	}
	labels.TextStyle[0].Font.Size = style.equation
	labels.TextStyle[0].XAlign = text.XRight
	labels.TextStyle[0].YAlign = text.YBottom
	p.Add(labels)
	return nil
}

// emptyPanel stands in for a trial with no rows inside the torque window.
func (r *Renderer) emptyPanel(title string, style panelStyle) (*plot.Plot, error) {
	p := newPanel(title, style)

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs: plotter.XYs{{X: 0.5, Y: (r.window.Min + r.window.Max) / 2}},
		Labels: []string{
			fmt.Sprintf("No data points found in torque range %g-%g", r.window.Min, r.window.Max),
		},
	})
	if err != nil {
		return nil, apperrors.NewRenderError("empty panel label failed", err)
	}
	labels.TextStyle[0].Font.Size = style.label
	labels.TextStyle[0].XAlign = text.XCenter
	labels.TextStyle[0].YAlign = text.YCenter
	p.Add(labels)

	p.X.Min, p.X.Max = 0, 1
	p.Y.Min = r.window.Min
	p.Y.Max = r.window.Max
	return p, nil
}
