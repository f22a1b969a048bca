package ictus_test

import (
	"testing"
	"time"

	Ms "github.com/maroda/ictus/server"
)

func TestRefreshSupervisor(t *testing.T) {
	t.Run("Creates new struct", func(t *testing.T) {
		view := makeTestView(t)
		rs := view.NewRefreshSupervisor(0)

		// Check if the view is the same
		if rs.View != view {
			t.Errorf("NewRefreshSupervisor() view = %v, want %v", rs.View, view)
		}
		if rs.Interval != time.Second {
			t.Errorf("default interval = %v, want 1s", rs.Interval)
		}
		if view.Supervisor != rs {
			t.Errorf("View does not point at its supervisor")
		}
	})

	view, s := makeTestViewWithScreen(t)
	rs := view.NewRefreshSupervisor(20 * time.Millisecond)

	t.Run("Refreshes the screen", func(t *testing.T) {
		rs.Start()
		defer rs.Stop()

		if rs.StopChan == nil {
			t.Errorf("StopChan() should be initialized, not nil")
		}
		if rs.Ticker == nil {
			t.Errorf("Ticker() should be initialized, not nil")
		}

		submitAndWait(t, view, bandtPompeConfig("TICKED"))

		// Allow for a few refreshes
		time.Sleep(200 * time.Millisecond)
		assertStringContains(t, screenText(s, 3), "TICKED")
	})

	t.Run("Stops Refreshing with Supervisor", func(t *testing.T) {
		rs.Start()

		done := make(chan struct{})
		go func() {
			rs.Stop()
			close(done)
		}()

		select {
		case <-done:
		// Success! Stop() returned
		case <-time.After(2 * time.Second):
			t.Fatalf("Refreshing did not stop after timeout")
		}
		if rs.StopChan != nil {
			t.Errorf("StopChan should be cleared after Stop")
		}
	})

	t.Run("Stop without Start", func(t *testing.T) {
		rs.Stop()
		rs.Stop()
	})

	t.Run("Restarts Refresh Supervisor", func(t *testing.T) {
		rs.Start()
		rs.Restart()
		defer rs.Stop()

		if rs.StopChan == nil {
			t.Errorf("StopChan should be set after Restart")
		}
	})

	t.Run("Reloads configuration", func(t *testing.T) {
		view.ReloadConfig([]Ms.ConfigFile{bandtPompeConfig("RELOADED")}, "")
		defer view.Supervisor.Stop()

		time.Sleep(200 * time.Millisecond)
		found := false
		for _, rec := range view.Dispatch.Records() {
			if rec.Name == "RELOADED" {
				found = true
			}
		}
		if !found {
			t.Errorf("reloaded analysis was not submitted")
		}
		assertInt(t, len(view.Configs), 1)
	})
}
