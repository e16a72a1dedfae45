package render

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	apperrors "rheocli/internal/errors"
	"rheocli/pkg/contracts/domain"
)

const (
	chartDPI = 300

	singleChartWidth  = 10.0
	singleChartHeight = 6.0
	gridChartWidth    = 14.0
	gridChartHeight   = 11.0
)

// Renderer turns measurement tables and their fits into PNG charts.
type Renderer struct {
	logger *slog.Logger
	window domain.TorqueWindow
}

// NewRenderer creates a renderer that subsets series to the given window.
func NewRenderer(logger *slog.Logger, window domain.TorqueWindow) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger, window: window}
}

// SaveTrialChart renders one trial as a standalone chart: every cell's
// points in the torque window plus the fitted lines, written as a PNG.
func (r *Renderer) SaveTrialChart(ctx context.Context, table *domain.MeasurementTable, fits []domain.FitResult, path string) error {
	p, hasData, err := r.buildPanel(table, fits, "Z-Height vs Torque for All 6 Cells", singlePanelStyle)
	if err != nil {
		return err
	}
	if !hasData {
		p, err = r.emptyPanel(fmt.Sprintf("Z-Height vs Torque (No data in range %g-%g)", r.window.Min, r.window.Max), singlePanelStyle)
		if err != nil {
			return err
		}
	}

	if err := savePanelPNG(p, singleChartWidth, singleChartHeight, path); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "trial chart rendered",
		slog.Int("trial", table.TrialNumber),
		slog.Bool("has_data", hasData),
		slog.String("path", path),
	)
	return nil
}

// SaveTrialGrid renders every trial as a panel in a two-column grid under a
// shared headline, written as a single PNG.
func (r *Renderer) SaveTrialGrid(ctx context.Context, tables []*domain.MeasurementTable, fits []domain.FitResult, path string) error {
	if len(tables) == 0 {
		return apperrors.NewRenderError("no trials to render", nil)
	}

	cols := 2
	if len(tables) < 2 {
		cols = 1
	}
	rows := (len(tables) + cols - 1) / cols

	plots := make([][]*plot.Plot, rows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, cols)
	}
	for i, table := range tables {
		title := fmt.Sprintf("Trial %d: Z vs T", table.TrialNumber)
		p, hasData, err := r.buildPanel(table, fits, title, gridPanelStyle)
		if err != nil {
			return err
		}
		if !hasData {
			p, err = r.emptyPanel(fmt.Sprintf("Trial %d: No data in range %g-%g", table.TrialNumber, r.window.Min, r.window.Max), gridPanelStyle)
			if err != nil {
				return err
			}
		}
		plots[i/cols][i%cols] = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.NewRenderError("failed to create chart directory", err)
	}

	width := vg.Length(gridChartWidth) * vg.Inch
	height := vg.Length(gridChartHeight) * vg.Inch
	canvas := vgimg.NewWith(
		vgimg.UseWH(width, height),
		vgimg.UseDPI(chartDPI),
	)
	dc := draw.New(canvas)

	headline := fmt.Sprintf("Z-Height vs Torque Analysis for All Trials (%g-%g%% Torque Range)", r.window.Min, r.window.Max)
	titleStyle := plot.New().Title.TextStyle
	titleStyle.Font.Size = vg.Points(16)
	titleStyle.XAlign = text.XCenter
	titleStyle.YAlign = text.YTop
	dc.FillText(titleStyle, vg.Point{X: width / 2, Y: height - vg.Points(8)}, headline)

	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadTop:    vg.Points(34),
		PadBottom: vg.Points(6),
		PadLeft:   vg.Points(6),
		PadRight:  vg.Points(6),
		PadX:      vg.Points(14),
		PadY:      vg.Points(14),
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			if plots[i][j] != nil {
				plots[i][j].Draw(canvases[i][j])
			}
		}
	}

	if err := writePNG(canvas, path); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "trial grid rendered",
		slog.Int("trials", len(tables)),
		slog.Int("rows", rows),
		slog.Int("cols", cols),
		slog.String("path", path),
	)
	return nil
}

// savePanelPNG rasterizes one plot at print resolution.
func savePanelPNG(p *plot.Plot, widthIn, heightIn float64, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.NewRenderError("failed to create chart directory", err)
	}

	canvas := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(chartDPI),
	)
	p.Draw(draw.New(canvas))

	return writePNG(canvas, path)
}

func writePNG(canvas *vgimg.Canvas, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewRenderError("failed to create chart file", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	defer bw.Flush()

	png := vgimg.PngCanvas{Canvas: canvas}
	if _, err := png.WriteTo(bw); err != nil {
		return apperrors.NewRenderError("failed to encode chart", err)
	}
	return nil
}
