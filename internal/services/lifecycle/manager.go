package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// StopFunc tears one component down. It must respect ctx cancellation.
type StopFunc func(ctx context.Context) error

type entry struct {
	name string
	stop StopFunc
}

// Manager collects teardown callbacks during startup and runs them in
// reverse registration order on shutdown, so dependents stop before the
// infrastructure they sit on.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	entries []entry
	once    sync.Once
	result  error
}

func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{timeout: timeout, logger: logger}
}

// Register adds a teardown callback under a component name.
func (m *Manager) Register(name string, stop StopFunc) {
	if stop == nil {
		return
	}
	m.mu.Lock()
	m.entries = append(m.entries, entry{name: name, stop: stop})
	m.mu.Unlock()
}

// Shutdown runs every registered callback newest-first under the
// configured deadline. Errors are collected rather than short-circuiting
// so one misbehaving component cannot keep the rest alive. Subsequent
// calls return the first run's result.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.once.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()

		m.mu.Lock()
		entries := m.entries
		m.mu.Unlock()

		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			started := time.Now()
			if err := e.stop(ctx); err != nil {
				m.logger.Error("component failed to stop",
					zap.String("component", e.name),
					zap.Error(err))
				m.result = errors.Join(m.result, err)
				continue
			}
			m.logger.Info("component stopped",
				zap.String("component", e.name),
				zap.Duration("took", time.Since(started)))
		}
	})
	return m.result
}

// Listen invokes cancel once SIGTERM or SIGINT arrives.
func (m *Manager) Listen(cancel context.CancelFunc) {
	if cancel == nil {
		return
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		sig := <-sigCh
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()
}
