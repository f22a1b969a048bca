package ictus_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	Md "github.com/maroda/ictus/display"
)

func mkTestScreen(t *testing.T, charset string) tcell.SimulationScreen {
	s := tcell.NewSimulationScreen(charset)
	if s == nil {
		t.Fatalf("Failed to get SimulationScreen")
	}
	if err := s.Init(); err != nil {
		t.Fatalf("Failed to init screen: %v", err)
	}
	return s
}

// View with a simulation screen, closed at the end of the test
func makeTestViewWithScreen(t *testing.T) (*Md.View, tcell.SimulationScreen) {
	t.Helper()
	s := mkTestScreen(t, "")
	view := Md.NewView(s, 2)
	t.Cleanup(func() {
		view.Dispatch.Close()
		s.Fini()
	})
	return view, s
}

// View without a screen, as served by StartWebNoTUI
func makeTestView(t *testing.T) *Md.View {
	t.Helper()
	view := Md.NewView(nil, 2)
	t.Cleanup(view.Dispatch.Close)
	return view
}

// screenText reads row y of the simulation screen
func screenText(s tcell.SimulationScreen, y int) string {
	cells, width, _ := s.GetContents()
	var b strings.Builder
	for x := 0; x < width; x++ {
		c := cells[y*width+x]
		if len(c.Runes) > 0 {
			b.WriteRune(c.Runes[0])
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func assertError(t testing.TB, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Errorf("got error %q want %q", got, want)
	}
}

func assertGotError(t testing.TB, got error) {
	t.Helper()
	if got == nil {
		t.Errorf("Expected an error but got %q", got)
	}
}

func assertStatus(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct status, got %d, want %d", got, want)
	}
}

func assertInt(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct value, got %d, want %d", got, want)
	}
}

func assertString(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func assertStringContains(t *testing.T, full, want string) {
	t.Helper()
	if !strings.Contains(full, want) {
		t.Errorf("Did not find %q, expected string contains %q", want, full)
	}
}
