// Package lifecycle runs the process's long-lived jobs and tears them
// down in order when a signal arrives or a job fails.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"
)

const shutdownGrace = 10 * time.Second

type job struct {
	name string
	run  func(context.Context) error
}

type Manager struct {
	logger *slog.Logger

	mu           sync.Mutex
	runJobs      []job
	shutdownJobs []job
}

func NewManager(logger *slog.Logger) *Manager {
	return &Manager{logger: logger}
}

// AddRun registers a long-running job. The first job to fail cancels all
// the others.
func (m *Manager) AddRun(name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.runJobs = append(m.runJobs, job{name: name, run: fn})
	m.mu.Unlock()
}

// AddShutdown registers a cleanup step, executed in registration order
// after every run job has stopped.
func (m *Manager) AddShutdown(name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.shutdownJobs = append(m.shutdownJobs, job{name: name, run: fn})
	m.mu.Unlock()
}

// StartAndWait runs every registered job until the context is done, a
// signal arrives, or a job fails, then runs shutdown jobs under a grace
// deadline.
func (m *Manager) StartAndWait(parent context.Context, sig ...os.Signal) error {
	ctx := parent
	stopSignal := func() {}
	if len(sig) > 0 {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(parent, sig...)
		stopSignal = stop
	}
	defer stopSignal()

	runCtx, cancelRuns := context.WithCancel(ctx)
	defer cancelRuns()

	runJobs := m.snapshot(&m.runJobs)
	shutdownJobs := m.snapshot(&m.shutdownJobs)

	errCh := make(chan error, len(runJobs))
	var wg sync.WaitGroup
	for _, j := range runJobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.logger.Info("job started", "job", j.name)
			if err := j.run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Error("job failed", "job", j.name, "error", err)
				errCh <- err
				cancelRuns()
			}
		}()
	}

	doneCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		m.logger.Info("shutting down")
		cancelRuns()
	case err := <-errCh:
		runErr = err
		cancelRuns()
	case <-doneCh:
	}

	<-doneCh

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancelShutdown()

	var shutdownErr error
	for _, j := range shutdownJobs {
		if err := j.run(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Warn("shutdown step failed", "job", j.name, "error", err)
			shutdownErr = errors.Join(shutdownErr, err)
		}
	}
	return errors.Join(runErr, shutdownErr)
}

func (m *Manager) snapshot(src *[]job) []job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]job, len(*src))
	copy(out, *src)
	return out
}
