package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/synergysphere/backend/domain"
)

const (
	userChannelPrefix    = "notify:user:"
	projectChannelPrefix = "notify:project:"
)

// envelope is the wire format on the Redis bus. ExcludeUserID lets a
// publisher skip the actor that caused the event.
type envelope struct {
	ExcludeUserID string              `json:"exclude_user_id,omitempty"`
	Notification  domain.Notification `json:"notification"`
}

// Hub fans notifications out to connected websocket clients. Publishes go
// through Redis pub/sub so every instance behind a load balancer delivers
// to its own connections.
type Hub struct {
	rdb    *redislib.Client
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

func NewHub(rdb *redislib.Client, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rdb:     rdb,
		logger:  logger,
		clients: make(map[string]map[*Client]struct{}),
		done:    make(chan struct{}),
	}
}

// Run subscribes to the notification channels and pumps messages to local
// clients until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ctx, h.cancel = context.WithCancel(ctx)
	defer close(h.done)

	sub := h.rdb.PSubscribe(ctx, userChannelPrefix+"*", projectChannelPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.dispatch(msg.Channel, []byte(msg.Payload))
		}
	}
}

// Drain stops the subscriber loop and disconnects every client.
func (h *Hub) Drain(ctx context.Context) error {
	if h.cancel != nil {
		h.cancel()
		select {
		case <-h.done:
		case <-ctx.Done():
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.clients {
		for c := range conns {
			c.close()
		}
	}
	h.clients = make(map[string]map[*Client]struct{})
	return nil
}

// NotifyUser publishes a notification to a single user's channel.
func (h *Hub) NotifyUser(ctx context.Context, userID string, n domain.Notification) {
	h.publish(ctx, userChannelPrefix+userID, envelope{Notification: n})
}

// NotifyProject publishes a notification to every member connected to the
// project channel, skipping excludeUserID (usually the actor).
func (h *Hub) NotifyProject(ctx context.Context, projectID, excludeUserID string, n domain.Notification) {
	h.publish(ctx, projectChannelPrefix+projectID, envelope{
		ExcludeUserID: excludeUserID,
		Notification:  n,
	})
}

func (h *Hub) publish(ctx context.Context, channel string, env envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("failed to marshal notification", zap.Error(err))
		return
	}
	if err := h.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		h.logger.Error("failed to publish notification",
			zap.String("channel", channel),
			zap.Error(err))
	}
}

func (h *Hub) dispatch(channel string, payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		h.logger.Warn("dropping malformed bus message", zap.Error(err))
		return
	}

	raw, err := json.Marshal(env.Notification)
	if err != nil {
		return
	}

	switch {
	case strings.HasPrefix(channel, userChannelPrefix):
		userID := strings.TrimPrefix(channel, userChannelPrefix)
		h.deliverToUser(userID, raw)

	case strings.HasPrefix(channel, projectChannelPrefix):
		projectID := strings.TrimPrefix(channel, projectChannelPrefix)
		h.deliverToProject(projectID, env.ExcludeUserID, raw)
	}
}

func (h *Hub) deliverToUser(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		c.enqueue(payload)
	}
}

func (h *Hub) deliverToProject(projectID, excludeUserID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for userID, conns := range h.clients {
		if userID == excludeUserID {
			continue
		}
		for c := range conns {
			if c.subscribed(projectID) {
				c.enqueue(payload)
			}
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.clients[c.userID]
	if conns == nil {
		conns = make(map[*Client]struct{})
		h.clients[c.userID] = conns
	}
	conns[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.clients[c.userID]
	if conns == nil {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}
}

// ConnectionCount reports how many websocket connections are attached.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}
