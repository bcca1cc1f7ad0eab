// Package poll drives the pipeline on a schedule and tracks run status
// for the HTTP API.
package poll

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"ses-engine/internal/events"
	"ses-engine/internal/pipeline"
)

// Status is the last-run snapshot served by GET /run/status.
type Status struct {
	Running   bool            `json:"running"`
	LastRunAt string          `json:"last_run_at,omitempty"`
	LastOkAt  string          `json:"last_ok_at,omitempty"`
	LastError string          `json:"last_error,omitempty"`
	Counts    pipeline.Counts `json:"counts"`
}

// Poller owns the ticker loop. Trigger forces an immediate run between
// ticks; status is readable at any time.
type Poller struct {
	runner  *pipeline.Runner
	hub     *events.Hub
	status  atomic.Value // Status
	trigger chan struct{}
}

func New(runner *pipeline.Runner, hub *events.Hub) *Poller {
	p := &Poller{
		runner:  runner,
		hub:     hub,
		trigger: make(chan struct{}, 1),
	}
	p.status.Store(Status{})
	return p
}

// Status returns the last-run snapshot.
func (p *Poller) Status() Status {
	return p.status.Load().(Status)
}

// Trigger requests a run as soon as the loop is free. Safe from any
// goroutine; a pending trigger coalesces with the next one.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Start runs the loop until ctx is cancelled. An interval of zero disables
// the ticker; only Trigger starts runs then.
func (p *Poller) Start(ctx context.Context, interval time.Duration) {
	go func() {
		var tick <-chan time.Time
		if interval > 0 {
			t := time.NewTicker(interval)
			defer t.Stop()
			tick = t.C
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-tick:
			case <-p.trigger:
			}
			p.runOnce(ctx)
		}
	}()
}

func (p *Poller) runOnce(ctx context.Context) {
	st := p.Status()
	st.Running = true
	st.LastRunAt = time.Now().Format(time.RFC3339)
	p.status.Store(st)
	p.publish(events.TypePollStarted, nil)

	counts, err := p.runner.RunOnce(ctx)

	st = p.Status()
	st.Running = false
	st.Counts = counts
	if err != nil {
		st.LastError = err.Error()
		log.Printf("[poll] error: %v", err)
	} else {
		st.LastError = ""
		st.LastOkAt = time.Now().Format(time.RFC3339)
		log.Printf("[poll] ok fetched=%d skipped=%d processed=%d failed=%d added=%d",
			counts.Fetched, counts.Skipped, counts.Processed, counts.Failed, counts.Added)
	}
	p.status.Store(st)
	p.publish(events.TypePollFinished, st)
}

func (p *Poller) publish(typ string, data any) {
	if p.hub == nil {
		return
	}
	p.hub.Publish(events.MakeEvent("", typ, data))
}
