package ictus

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/maroda/ictus/entropy"
	It "github.com/maroda/ictus/types"
)

const (
	diagnosticRows = 4
	pngWidth       = 960
	pngHeight      = 480
	pngMargin      = 40
)

// Diagnostics fans one plot out to several renderers
type Diagnostics []entropy.Diagnostic

func (ds Diagnostics) Render(plot It.DiagnosticPlot) error {
	var errs []error
	for _, d := range ds {
		errs = append(errs, d.Render(plot))
	}
	return errors.Join(errs...)
}

// PlotFileName is <prefix>_bib_d<D>_tau<tau>.png
func PlotFileName(plot It.DiagnosticPlot) string {
	prefix := plot.Name
	if prefix == "" {
		prefix = "ictus"
	}
	return fmt.Sprintf("%s_bib_d%d_tau%d.png", prefix, plot.Dimension, plot.Delay)
}

// PNGDiagnostic writes each plot as an image in Dir
type PNGDiagnostic struct {
	Dir    string
	Width  int
	Height int
}

func (p *PNGDiagnostic) Render(plot It.DiagnosticPlot) error {
	img := DrawPlot(plot, p.Width, p.Height)

	path := filepath.Join(p.Dir, PlotFileName(plot))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("diagnostic plot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("diagnostic plot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("diagnostic plot: %w", err)
	}

	slog.Info("Diagnostic plot written", slog.String("path", path))
	return nil
}

// DrawPlot renders the series against sample index.
// Bands are shaded columns, time axis ticks run along the top.
func DrawPlot(plot It.DiagnosticPlot, width, height int) *image.RGBA {
	if width <= 2*pngMargin {
		width = pngWidth
	}
	if height <= 2*pngMargin {
		height = pngHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	n := len(plot.Samples)
	if n == 0 {
		return img
	}
	lo, hi := finiteRange(plot.Samples)

	plotW := width - 2*pngMargin
	plotH := height - 2*pngMargin
	xOf := func(i float64) int {
		if n == 1 {
			return pngMargin
		}
		return pngMargin + int(i/float64(n-1)*float64(plotW))
	}
	yOf := func(v float64) int {
		if hi == lo {
			return height - pngMargin - plotH/2
		}
		return height - pngMargin - int((v-lo)/(hi-lo)*float64(plotH))
	}

	for _, b := range plot.Bands {
		c := namedColor(b.Color)
		shade := color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0x40}
		r := image.Rect(xOf(float64(b.StartIndex)), pngMargin, xOf(float64(b.EndIndex))+1, height-pngMargin)
		draw.Draw(img, r, image.NewUniform(shade), image.Point{}, draw.Over)
	}

	axis := color.RGBA{0x30, 0x30, 0x30, 0xff}
	for x := pngMargin; x <= width-pngMargin; x++ {
		img.Set(x, height-pngMargin, axis)
		img.Set(x, pngMargin, axis)
	}
	for y := pngMargin; y <= height-pngMargin; y++ {
		img.Set(pngMargin, y, axis)
	}

	// top axis, one tick every TickStep samples
	if plot.TickStep > 0 {
		for i := 0; i < n; i += plot.TickStep {
			x := xOf(float64(i))
			for y := pngMargin - 6; y < pngMargin; y++ {
				img.Set(x, y, axis)
			}
		}
	}

	// NaN samples break the line
	line := color.RGBA{0x10, 0x10, 0x10, 0xff}
	started := false
	var px, py int
	for i, v := range plot.Samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			started = false
			continue
		}
		x, y := xOf(float64(i)), yOf(v)
		if started {
			drawLine(img, px, py, x, y, line)
		} else {
			img.Set(x, y, line)
		}
		px, py, started = x, y, true
	}
	return img
}

// finiteRange is the min and max of the finite values in xs
func finiteRange(xs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// drawLine is Bresenham's line
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

func namedColor(name string) color.RGBA {
	r, g, b := tcell.GetColor(name).RGB()
	if r < 0 {
		return color.RGBA{0x80, 0x80, 0x80, 0xff}
	}
	return color.RGBA{uint8(r), uint8(g), uint8(b), 0xff}
}

// TerminalDiagnostic keeps the last plot for the bottom panel of the View
type TerminalDiagnostic struct {
	MU   sync.Mutex
	Last *It.DiagnosticPlot
}

func NewTerminalDiagnostic() *TerminalDiagnostic {
	return &TerminalDiagnostic{}
}

func (td *TerminalDiagnostic) Render(plot It.DiagnosticPlot) error {
	td.MU.Lock()
	td.Last = &plot
	td.MU.Unlock()
	return nil
}

// Draw shows the band colours on one row and the series as a sparkline under it
func (td *TerminalDiagnostic) Draw(s tcell.Screen, x, y, width int) {
	td.MU.Lock()
	plot := td.Last
	td.MU.Unlock()
	if plot == nil || width <= 0 {
		return
	}

	title := fmt.Sprintf("%s  d=%d tau=%d", PlotFileName(*plot), plot.Dimension, plot.Delay)
	style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorLightSteelBlue)
	for i, r := range []rune(title) {
		if i >= width {
			break
		}
		s.SetContent(x+i, y, r, nil, style)
	}

	n := len(plot.Samples)
	if n == 0 {
		return
	}
	col := func(i int) int { return x + i*width/max(n, 1) }

	for _, b := range plot.Bands {
		bandStyle := tcell.StyleDefault.Background(tcell.GetColor(b.Color))
		WriteBar(s, col(b.StartIndex), y+1, col(b.EndIndex)+1, y+2, bandStyle)
	}

	// one rune per column, sampled from the series
	spark := make([]float64, 0, width)
	for c := 0; c < min(width, n); c++ {
		spark = append(spark, plot.Samples[c*n/min(width, n)])
	}
	lo, hi := finiteRange(plot.Samples)
	for i, r := range Sparkline(spark, lo, hi, width) {
		s.SetContent(x+i, y+2, r, nil, tcell.StyleDefault.Foreground(tcell.ColorAquaMarine))
	}
}
