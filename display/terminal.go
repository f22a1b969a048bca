package ictus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/maroda/ictus/dispatch"
	Mo "github.com/maroda/ictus/obvy"
	Mp "github.com/maroda/ictus/plugin"
	Ms "github.com/maroda/ictus/server"
	It "github.com/maroda/ictus/types"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gonum.org/v1/gonum/floats"
)

const (
	screenGutter = 3
	labelWidth   = 28
)

var (
	sparkRunes = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	shadeRunes = []rune{' ', '░', '▒', '▓', '█'}
)

// View shows every analysis the Dispatcher knows about
type View struct {
	MU         sync.Mutex           // State locks to read data
	Dispatch   *dispatch.Dispatcher // Runs the analyses
	Screen     tcell.Screen         // the screen itself
	Stats      *Mo.StatsInternal    // Internal status for prometheus
	Store      Mp.OutputAdapter     // Optional result store
	Configs    []Ms.ConfigFile      // Analyses submitted at start and on reload
	Supervisor *RefreshSupervisor
	Diagnostic *TerminalDiagnostic // Last diagnostic plot drawn at the bottom
	server     *http.Server        // API and metrics server
	records    []It.AnalysisRecord // Snapshot taken on each refresh
	Selected   int                 // Record shown in detail
}

// ServeOptions configure StartViewWithConfig and StartWebNoTUI
type ServeOptions struct {
	Addr      string // listen address, ":8090" by default
	Workers   int    // dispatcher concurrency, GOMAXPROCS when zero
	StorePath string // badger directory, no store when empty
	BatchSize int    // store write batch size
	PlotDir   string // PNG diagnostics are written here when set
}

// ValToRune maps v within [lo, hi] onto the eight sparkline levels.
// NaN is blank.
func ValToRune(v, lo, hi float64) rune {
	if math.IsNaN(v) {
		return ' '
	}
	if hi <= lo {
		return sparkRunes[0]
	}
	level := int((v - lo) / (hi - lo) * float64(len(sparkRunes)-1))
	level = max(0, min(level, len(sparkRunes)-1))
	return sparkRunes[level]
}

// ShadeRune maps v in [0, 1] onto a block shade for heatmap cells
func ShadeRune(v float64) rune {
	if math.IsNaN(v) {
		return '·'
	}
	level := int(math.Round(v * float64(len(shadeRunes)-1)))
	level = max(0, min(level, len(shadeRunes)-1))
	return shadeRunes[level]
}

// Sparkline keeps the most recent width values as runes scaled to [lo, hi]
func Sparkline(values []float64, lo, hi float64, width int) []rune {
	if width <= 0 {
		return nil
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	runes := make([]rune, len(values))
	for i, v := range values {
		runes[i] = ValToRune(v, lo, hi)
	}
	return runes
}

// RecordSeries is the row drawn for a record: entropies for a trace,
// milliseconds for an IBI sequence, the mean of each delay for a heatmap.
func RecordSeries(rec It.AnalysisRecord) (values []float64, lo, hi float64) {
	switch {
	case rec.Trace != nil:
		values = make([]float64, len(rec.Trace.Windows))
		for i, w := range rec.Trace.Windows {
			values[i] = w.Entropy
		}
		return values, 0, 1
	case rec.Heatmap != nil:
		values = make([]float64, len(rec.Heatmap.Rows))
		for i, row := range rec.Heatmap.Rows {
			values[i] = nanMean(row)
		}
		return values, 0, 1
	case len(rec.IBI) > 0:
		return rec.IBI, floats.Min(rec.IBI), floats.Max(rec.IBI)
	}
	return nil, 0, 1
}

func nanMean(row []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range row {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// DrawSparkline displays a rune row coloured by intensity
func (v *View) DrawSparkline(x, y int, runes []rune) {
	for i, r := range runes {
		// Choose color based on the rune (intensity)
		var style tcell.Style
		switch r {
		case '▁':
			style = tcell.StyleDefault.Foreground(tcell.ColorSeaGreen)
		case '▂':
			style = tcell.StyleDefault.Foreground(tcell.ColorMediumSeaGreen)
		case '▃':
			style = tcell.StyleDefault.Foreground(tcell.ColorLightSeaGreen)
		case '▄':
			style = tcell.StyleDefault.Foreground(tcell.ColorDarkTurquoise)
		case '▅':
			style = tcell.StyleDefault.Foreground(tcell.ColorMediumTurquoise)
		case '▆':
			style = tcell.StyleDefault.Foreground(tcell.ColorTurquoise)
		case '▇':
			style = tcell.StyleDefault.Foreground(tcell.ColorLightGreen)
		case '█':
			style = tcell.StyleDefault.Foreground(tcell.ColorAquaMarine)
		default:
			style = tcell.StyleDefault
		}

		v.Screen.SetContent(x+i, y, r, nil, style)
	}
}

// DrawHeatmap draws one shaded row per delay and returns the rows used
func (v *View) DrawHeatmap(x, y, width, maxRows int, hm *It.DelayHeatmap) int {
	style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorOrange)
	drawn := 0
	for i, row := range hm.Rows {
		if drawn >= maxRows {
			break
		}
		v.DrawText(x, y+drawn, x+4, y+drawn, fmt.Sprintf("%3d", i+1))
		if len(row) > width-4 {
			row = row[len(row)-(width-4):]
		}
		for j, val := range row {
			v.Screen.SetContent(x+4+j, y+drawn, ShadeRune(val), nil, style)
		}
		drawn++
	}
	return drawn
}

// DrawText displays the text string at the given (x1, y1) with box size (x2, y2)
func (v *View) DrawText(x1, y1, x2, y2 int, text string) {
	row := y1
	col := x1
	style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorLightSteelBlue)
	for _, r := range text {
		v.Screen.SetContent(col, row, r, nil, style)
		col++
		if col >= x2 {
			row++
			col = x1
		}
		if row > y2 {
			break
		}
	}
}

// DrawViewBorder displays the outline of the View
func (v *View) DrawViewBorder(width, height int) {
	hvStyle := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorPink)
	v.Screen.SetContent(0, 0, tcell.RuneULCorner, nil, hvStyle)
	for i := 1; i < width; i++ {
		v.Screen.SetContent(i, 0, tcell.RuneHLine, nil, hvStyle)
		v.Screen.SetContent(i, height, tcell.RuneHLine, nil, hvStyle)
	}
	v.Screen.SetContent(width, 0, tcell.RuneURCorner, nil, hvStyle)

	for i := 1; i < height; i++ {
		v.Screen.SetContent(0, i, tcell.RuneVLine, nil, hvStyle)
		v.Screen.SetContent(width, i, tcell.RuneVLine, nil, hvStyle)
	}

	v.Screen.SetContent(0, height, tcell.RuneLLCorner, nil, hvStyle)
	v.Screen.SetContent(width, height, tcell.RuneLRCorner, nil, hvStyle)
}

func statusStyle(status string) tcell.Style {
	switch status {
	case It.StatusOK:
		return tcell.StyleDefault.Foreground(tcell.ColorLightGreen)
	case It.StatusError:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	}
}

// DrawRecords draws one line per record and the selected record's detail
func (v *View) DrawRecords() {
	width, height := v.GetScreenSize()

	v.MU.Lock()
	records := v.records
	selected := v.Selected
	v.MU.Unlock()

	v.DrawViewBorder(width-2, height-1)
	v.DrawText(2, 1, width-2, 1, fmt.Sprintf("ICTUS  %d analyses  %d workers", len(records), v.Dispatch.Workers))

	bottom := height - 3
	if v.Diagnostic != nil {
		bottom -= diagnosticRows
	}

	y := screenGutter
	for i, rec := range records {
		if y >= bottom {
			break
		}
		marker := ' '
		if i == selected {
			marker = '▶'
		}
		v.Screen.SetContent(1, y, marker, nil, tcell.StyleDefault.Foreground(tcell.ColorPink))
		label := fmt.Sprintf("%-12.12s %-11s", rec.Name, rec.Kind)
		v.DrawText(2, y, 2+labelWidth, y, label)
		v.Screen.SetContent(2+labelWidth-2, y, '●', nil, statusStyle(rec.Status))

		values, lo, hi := RecordSeries(rec)
		v.DrawSparkline(2+labelWidth, y, Sparkline(values, lo, hi, width-labelWidth-5))
		y++
	}

	// Detail of the selected record
	if selected >= 0 && selected < len(records) && y < bottom {
		rec := records[selected]
		y++
		switch {
		case rec.Status == It.StatusError:
			v.DrawText(2, y, width-3, y+1, "error: "+rec.Message)
		case rec.Heatmap != nil:
			v.DrawText(2, y, width-3, y, fmt.Sprintf("%s  tau 1..%d  D=%d", rec.Name, rec.Heatmap.DelayMax, rec.Heatmap.Dimension))
			v.DrawHeatmap(2, y+1, width-5, bottom-y-1, rec.Heatmap)
		case rec.Trace != nil:
			v.DrawText(2, y, width-3, y, fmt.Sprintf("%s  D=%d tau=%d  %d windows", rec.Name, rec.Trace.Dimension, rec.Trace.Delay, len(rec.Trace.Windows)))
		case rec.IBI != nil:
			v.DrawText(2, y, width-3, y, fmt.Sprintf("%s  %d intervals  %.0f..%.0f ms", rec.Name, len(rec.IBI), floats.Min(rec.IBI), floats.Max(rec.IBI)))
		}
	}

	if v.Diagnostic != nil {
		v.Diagnostic.Draw(v.Screen, 2, bottom, width-5)
	}

	v.DrawText(1, height-1, width, height+10, "/n/ /p/ to select | /ESC/ to quit")
	v.DrawText(width-8, height-1, width, height+10, "ICTUS")
}

// Refresh takes a new snapshot of the Dispatcher's records
func (v *View) Refresh() {
	records := v.Dispatch.Records()

	v.MU.Lock()
	v.records = records
	if v.Selected >= len(records) {
		v.Selected = max(0, len(records)-1)
	}
	v.MU.Unlock()
}

// Cycle moves the selection by delta, wrapping around
func (v *View) Cycle(delta int) {
	v.MU.Lock()
	defer v.MU.Unlock()
	n := len(v.records)
	if n == 0 {
		v.Selected = 0
		return
	}
	v.Selected = ((v.Selected+delta)%n + n) % n
}

// Running Loop to handle events, returns when the user quits
func (v *View) handleKeyBoardEvent() {
	for {
		ev := v.Screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return
		case *tcell.EventResize:
			v.ResizeScreen()
		case *tcell.EventKey:
			// Catch quit and exit
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				return
			}

			switch ev.Rune() {
			case 'n':
				v.Cycle(1)
				v.UpdateScreen()
			case 'p':
				v.Cycle(-1)
				v.UpdateScreen()
			}
		}
	}
}

// GetScreenSize provides the terminal size for drawing
func (v *View) GetScreenSize() (int, int) {
	width, height := v.Screen.Size()
	return width, height
}

// ResizeScreen redraws after terminal changes
func (v *View) ResizeScreen() {
	v.Screen.Sync()
	v.UpdateScreen()
}

func (v *View) UpdateScreen() {
	if v.Screen == nil {
		return
	}
	v.Screen.Clear()
	v.DrawRecords()
	v.Screen.Show()
}

// tick is one supervisor refresh
func (v *View) tick() {
	// Panic recovery and logging
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in refresh", slog.Any("panic", r))
			slog.Error("Recovered from panic", slog.String("stack", string(debug.Stack())))
		}
	}()

	v.Refresh()
	v.UpdateScreen()
}

// RespWriter is a wrapper with StatsMiddleware, used for Prometheus
type RespWriter struct {
	http.ResponseWriter
	Status int
}

// WriteHeader is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) WriteHeader(status int) {
	w.Status = status
	w.ResponseWriter.WriteHeader(status)
}

// Write is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) Write(b []byte) (int, error) {
	return w.ResponseWriter.Write(b)
}

func (v *View) StatsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &RespWriter{
			ResponseWriter: w,
			Status:         200,
		}
		next.ServeHTTP(wrapped, r)

		v.Stats.RecWWW(strconv.Itoa(wrapped.Status), r.Method)
	})
}

// NewView builds a View around a fresh Dispatcher.
// The screen is optional; without one the View only serves HTTP.
func NewView(screen tcell.Screen, workers int) *View {
	stats := Mo.NewStatsInternal()
	view := &View{
		Dispatch: dispatch.New(workers, stats),
		Screen:   screen,
		Stats:    stats,
	}
	if screen != nil {
		view.Diagnostic = NewTerminalDiagnostic()
	}
	view.NewRefreshSupervisor(time.Second)
	return view
}

// Diagnostics returns the renderers plots are handed to:
// the terminal panel when a screen is attached, PNG files when dir is set.
func (v *View) Diagnostics(dir string) Diagnostics {
	var ds Diagnostics
	if v.Diagnostic != nil {
		ds = append(ds, v.Diagnostic)
	}
	if dir != "" {
		ds = append(ds, &PNGDiagnostic{Dir: dir})
	}
	return ds
}

// SubmitConfigs dispatches every stanza, logging the ones that fail
func (v *View) SubmitConfigs(c []Ms.ConfigFile, plotDir string) {
	v.MU.Lock()
	v.Configs = c
	v.MU.Unlock()

	diag := v.Diagnostics(plotDir)
	for _, cf := range c {
		if _, err := Ms.SubmitConfig(v.Dispatch, cf, diag); err != nil {
			slog.Error("Could not submit analysis", slog.String("config", cf.ID), slog.Any("Error", err))
		}
	}
}

func (v *View) listen(addr string) {
	if addr == "" {
		addr = ":8090"
	}
	v.server = &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(v.SetupMux(), "ictus"),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Shutdown stops refreshing and serving, cancels running analyses
// and closes the store once the last record is written.
func (v *View) Shutdown(ctx context.Context) error {
	var errs []error
	if v.Supervisor != nil {
		v.Supervisor.Stop()
	}
	if v.server != nil {
		errs = append(errs, v.server.Shutdown(ctx))
	}
	v.Dispatch.Close()
	if v.Store != nil {
		errs = append(errs, v.Store.Close())
	}
	return errors.Join(errs...)
}

func (v *View) setup(c []Ms.ConfigFile, opts ServeOptions) error {
	if opts.StorePath != "" {
		if err := InitBadgerOutput(v, opts.StorePath, opts.BatchSize); err != nil {
			return err
		}
	}
	v.listen(opts.Addr)
	v.SubmitConfigs(c, opts.PlotDir)
	return nil
}

// StartViewWithConfig is called by main to run the program.
// This also starts up the API and /metrics endpoint.
func StartViewWithConfig(c []Ms.ConfigFile, opts ServeOptions) error {
	screen, err := GetTTY()
	if err != nil {
		slog.Error("Could not start View", slog.Any("Error", err))
		return err
	}
	defer screen.Fini()

	view := NewView(screen, opts.Workers)
	if err := view.setup(c, opts); err != nil {
		return err
	}

	view.Supervisor.Start()

	// Run API endpoint
	go func() {
		slog.Info("Starting Ictus API endpoint...", slog.String("Port", view.server.Addr))
		if err := view.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not start API endpoint", slog.Any("Error", err))
		}
	}()

	view.UpdateScreen()
	view.handleKeyBoardEvent()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return view.Shutdown(ctx)
}

// StartWebNoTUI serves the API without a terminal until ctx ends
func StartWebNoTUI(ctx context.Context, c []Ms.ConfigFile, opts ServeOptions) error {
	view := NewView(nil, opts.Workers)
	if err := view.setup(c, opts); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting Ictus web server...", slog.String("Port", view.server.Addr))
		if err := view.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		slog.Error("Could not start web server", slog.Any("Error", serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(serveErr, view.Shutdown(shutdownCtx))
}
