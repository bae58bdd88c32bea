package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/synergysphere/backend/internal/infrastructure/outbox"
)

const (
	defaultInterval = 10 * time.Second
	probeTimeout    = 3 * time.Second
)

// Monitor keeps a cached view of backing-store health for the health
// endpoint. Probes run on a background ticker so requests never ping
// the stores directly. State transitions are logged once, not on every
// tick.
type Monitor struct {
	pg     *pgxpool.Pool
	redis  *redislib.Client
	outbox *outbox.Store

	interval time.Duration
	logger   *zap.Logger
	stopCh   chan struct{}

	mu     sync.RWMutex
	status Status
}

func New(pg *pgxpool.Pool, redis *redislib.Client, ob *outbox.Store, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		pg:       pg,
		redis:    redis,
		outbox:   ob,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	close(m.stopCh)
}

// IsOnline reports whether the stores required to serve requests are
// reachable. The outbox is deliberately excluded.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.PostgreSQL && m.status.Redis
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh()
	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

// refresh probes all three stores concurrently; a slow postgres ping
// must not delay the redis verdict past its own timeout.
func (m *Monitor) refresh() {
	var (
		wg         sync.WaitGroup
		pgOK       bool
		redisOK    bool
		outboxOK   bool
		outboxSize int
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		pgOK = m.probePostgres()
	}()
	go func() {
		defer wg.Done()
		redisOK = m.probeRedis()
	}()
	go func() {
		defer wg.Done()
		outboxOK, outboxSize = m.probeOutbox()
	}()
	wg.Wait()

	next := Status{
		PostgreSQL: pgOK,
		Redis:      redisOK,
		Outbox:     outboxOK,
		OutboxSize: outboxSize,
		LastCheck:  time.Now(),
	}

	m.mu.Lock()
	prev := m.status
	m.status = next
	m.mu.Unlock()

	m.logTransition("postgresql", prev.PostgreSQL, next.PostgreSQL)
	m.logTransition("redis", prev.Redis, next.Redis)
	m.logTransition("outbox", prev.Outbox, next.Outbox)
}

func (m *Monitor) logTransition(store string, was, is bool) {
	if was == is {
		return
	}
	if is {
		m.logger.Info("store online", zap.String("store", store))
		return
	}
	m.logger.Warn("store offline", zap.String("store", store))
}

func (m *Monitor) probePostgres() bool {
	if m.pg == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	return m.pg.Ping(ctx) == nil
}

func (m *Monitor) probeRedis() bool {
	if m.redis == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	return m.redis.Ping(ctx).Err() == nil
}

func (m *Monitor) probeOutbox() (bool, int) {
	if m.outbox == nil {
		return false, 0
	}
	size, err := m.outbox.Size()
	if err != nil {
		return false, 0
	}
	return true, size
}
