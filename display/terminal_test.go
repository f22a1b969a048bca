package ictus_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	Md "github.com/maroda/ictus/display"
	Ms "github.com/maroda/ictus/server"
	It "github.com/maroda/ictus/types"
)

func TestScreen(t *testing.T) {
	s := mkTestScreen(t, "")
	defer s.Fini()
	s.Clear()

	t.Run("Check test screen", func(t *testing.T) {
		b, x, y := s.GetContents()
		if len(b) != x*y || x != 80 || y != 25 {
			t.Fatalf("Contents (%v, %v, %v) wrong", len(b), x, y)
		}
		for i := 0; i < x*y; i++ {
			if len(b[i].Runes) == 1 && b[i].Runes[0] != ' ' {
				t.Errorf("Incorrect contents at %v: %v", i, b[i].Runes)
			}
		}
	})
}

func TestValToRune(t *testing.T) {
	tests := []struct {
		name   string
		v      float64
		lo, hi float64
		want   rune
	}{
		{"bottom", 0, 0, 1, '▁'},
		{"top", 1, 0, 1, '█'},
		{"middle", 0.5, 0, 1, '▄'},
		{"below range", -3, 0, 1, '▁'},
		{"above range", 7, 0, 1, '█'},
		{"flat range", 5, 5, 5, '▁'},
		{"missing", math.NaN(), 0, 1, ' '},
		{"milliseconds", 1000, 800, 1200, '▄'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Md.ValToRune(tt.v, tt.lo, tt.hi)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShadeRune(t *testing.T) {
	assertString(t, string(Md.ShadeRune(0)), " ")
	assertString(t, string(Md.ShadeRune(0.5)), "▒")
	assertString(t, string(Md.ShadeRune(1)), "█")
	assertString(t, string(Md.ShadeRune(math.NaN())), "·")
}

func TestSparkline(t *testing.T) {
	t.Run("Keeps the most recent values", func(t *testing.T) {
		got := Md.Sparkline([]float64{0, 0, 1, 1, 1}, 0, 1, 3)
		assertString(t, string(got), "███")
	})

	t.Run("Shorter than width", func(t *testing.T) {
		got := Md.Sparkline([]float64{0, 1}, 0, 1, 10)
		assertString(t, string(got), "▁█")
	})

	t.Run("No width", func(t *testing.T) {
		assertInt(t, len(Md.Sparkline([]float64{1}, 0, 1, 0)), 0)
	})
}

func TestRecordSeries(t *testing.T) {
	t.Run("Trace gives entropies", func(t *testing.T) {
		rec := It.AnalysisRecord{Trace: &It.EntropyTrace{Windows: []It.WindowEntropy{{Entropy: 0.25}, {Entropy: 0.75}}}}
		values, lo, hi := Md.RecordSeries(rec)
		assertInt(t, len(values), 2)
		if values[1] != 0.75 || lo != 0 || hi != 1 {
			t.Errorf("got %v in [%v, %v]", values, lo, hi)
		}
	})

	t.Run("Heatmap gives row means without NaN", func(t *testing.T) {
		rec := It.AnalysisRecord{Heatmap: &It.DelayHeatmap{Rows: [][]float64{{0.2, 0.4}, {0.6, math.NaN()}, {math.NaN()}}}}
		values, _, _ := Md.RecordSeries(rec)
		assertInt(t, len(values), 3)
		if math.Abs(values[0]-0.3) > 1e-12 || values[1] != 0.6 || !math.IsNaN(values[2]) {
			t.Errorf("got %v", values)
		}
	})

	t.Run("IBI is scaled to its own range", func(t *testing.T) {
		rec := It.AnalysisRecord{IBI: It.IBISequence{800, 1000, 1200}}
		_, lo, hi := Md.RecordSeries(rec)
		if lo != 800 || hi != 1200 {
			t.Errorf("got [%v, %v]", lo, hi)
		}
	})
}

func bandtPompeConfig(id string) Ms.ConfigFile {
	return Ms.ConfigFile{
		ID:      id,
		Kind:    "bandt_pompe",
		Samples: []float64{4, 7, 9, 10, 6, 11, 3},
		Params:  It.AnalysisParams{Dimension: 2, Delay: 1, Window: 7, Step: 1},
	}
}

func submitAndWait(t *testing.T, view *Md.View, cf Ms.ConfigFile) It.AnalysisRecord {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := Ms.SubmitConfig(view.Dispatch, cf, Md.Diagnostics{})
	if err != nil {
		t.Fatalf("could not submit: %v", err)
	}
	rec, err := view.Dispatch.Await(ctx, id)
	if err != nil {
		t.Fatalf("could not await: %v", err)
	}
	return rec
}

func TestView_DrawRecords(t *testing.T) {
	view, s := makeTestViewWithScreen(t)

	submitAndWait(t, view, bandtPompeConfig("BREATH"))
	submitAndWait(t, view, Ms.ConfigFile{
		ID:      "SHORT",
		Kind:    "bandt_pompe",
		Samples: []float64{1},
		Params:  It.AnalysisParams{Dimension: 3, Delay: 1, Window: 1, Step: 1},
	})

	view.Refresh()
	view.UpdateScreen()

	assertStringContains(t, screenText(s, 1), "ICTUS  2 analyses")
	assertStringContains(t, screenText(s, 3), "BREATH")
	assertStringContains(t, screenText(s, 3), "bandt_pompe")
	assertStringContains(t, screenText(s, 4), "SHORT")

	t.Run("Shows the selected trace detail", func(t *testing.T) {
		assertStringContains(t, screenText(s, 6), "1 windows")
	})

	t.Run("Shows the selected error", func(t *testing.T) {
		view.Cycle(1)
		view.UpdateScreen()
		assertStringContains(t, screenText(s, 6), "error:")
	})
}

func TestView_Cycle(t *testing.T) {
	view := makeTestView(t)
	for _, id := range []string{"A", "B", "C"} {
		submitAndWait(t, view, bandtPompeConfig(id))
	}
	view.Refresh()

	view.Cycle(1)
	view.Cycle(1)
	assertInt(t, view.Selected, 2)

	view.Cycle(1)
	assertInt(t, view.Selected, 0)

	view.Cycle(-1)
	assertInt(t, view.Selected, 2)
}

func TestView_HandleKeyBoardEvent(t *testing.T) {
	view, s := makeTestViewWithScreen(t)
	submitAndWait(t, view, bandtPompeConfig("A"))
	submitAndWait(t, view, bandtPompeConfig("B"))
	view.Refresh()

	s.InjectKey(tcell.KeyRune, 'n', tcell.ModNone)
	s.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	done := make(chan struct{})
	go func() {
		Md.HandleKeyBoardEvent(view)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("key loop did not return on ESC")
	}
	assertInt(t, view.Selected, 1)
}
