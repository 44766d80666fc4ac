package workload

import (
	"context"
	"sync"
	"time"
)

// StatusSnapshot is one display-only view of an application's units.
type StatusSnapshot struct {
	App   string
	Units []Unit
	Taken time.Time
}

// StatusMonitor periodically re-queries unit status purely for display,
// decoupled from whatever blocking wait its owner is doing. It is a
// scoped resource: the owner must call Stop on every exit path, which
// cancels the poller and blocks until both internal goroutines have
// exited. After Stop returns no further sink calls occur.
type StatusMonitor struct {
	cancel   context.CancelFunc
	pollDone chan struct{}
	sinkDone chan struct{}
	stop     sync.Once
}

// StartStatusMonitor launches the side channel. Snapshots flow through a
// bounded channel sized to the number of applications; when the sink lags
// behind, fresh snapshots are dropped rather than blocking the poller.
func StartStatusMonitor(ctx context.Context, reader StatusReader, model string, apps []string, interval time.Duration, sink func(StatusSnapshot)) *StatusMonitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	monitorCtx, cancel := context.WithCancel(ctx)
	updates := make(chan StatusSnapshot, len(apps))
	m := &StatusMonitor{
		cancel:   cancel,
		pollDone: make(chan struct{}),
		sinkDone: make(chan struct{}),
	}

	go func() {
		defer close(m.pollDone)
		defer close(updates)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
			}

			for _, app := range apps {
				application, err := reader.GetApplication(monitorCtx, app, model)
				if err != nil {
					// Display only; absence and transport hiccups are not
					// the monitor's problem.
					continue
				}
				snapshot := StatusSnapshot{App: app, Units: application.Units, Taken: time.Now()}
				select {
				case updates <- snapshot:
				default:
				}
			}
		}
	}()

	go func() {
		defer close(m.sinkDone)
		for snapshot := range updates {
			if sink != nil {
				sink(snapshot)
			}
		}
	}()

	return m
}

// Stop cancels the poller and waits for both goroutines to exit. Safe to
// call more than once.
func (m *StatusMonitor) Stop() {
	if m == nil {
		return
	}
	m.stop.Do(func() {
		m.cancel()
		<-m.pollDone
		<-m.sinkDone
	})
}
