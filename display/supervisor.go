package ictus

import (
	"sync"
	"time"

	Ms "github.com/maroda/ictus/server"
)

type RefreshSupervisor struct {
	View     *View
	Interval time.Duration
	Ticker   *time.Ticker
	StopChan chan struct{}
	WG       sync.WaitGroup
}

// NewRefreshSupervisor is a wrapper around the View that manages the refresh goroutine
// They are strongly coupled, one knows about the other
func (v *View) NewRefreshSupervisor(interval time.Duration) *RefreshSupervisor {
	if interval <= 0 {
		interval = time.Second
	}
	rs := &RefreshSupervisor{
		View:     v,
		Interval: interval,
	}
	v.Supervisor = rs
	return rs
}

// ReloadConfig submits a new set of analyses with refreshing paused
func (v *View) ReloadConfig(c []Ms.ConfigFile, plotDir string) {
	v.Supervisor.Stop()
	v.SubmitConfigs(c, plotDir)
	v.Supervisor.Start()
}

// Start the RefreshSupervisor
func (p *RefreshSupervisor) Start() {
	p.StopChan = make(chan struct{})
	p.Ticker = time.NewTicker(p.Interval)

	p.WG.Add(1)
	go func(stop chan struct{}, ticker *time.Ticker) {
		defer p.WG.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.View.tick()
			case <-stop:
				return
			}
		}
	}(p.StopChan, p.Ticker)
}

// Stop the RefreshSupervisor
func (p *RefreshSupervisor) Stop() {
	if p.StopChan != nil {
		close(p.StopChan)
		p.WG.Wait()
		p.StopChan = nil
	}
}

// Restart the RefreshSupervisor
func (p *RefreshSupervisor) Restart() {
	p.Stop()
	p.Start()
}
