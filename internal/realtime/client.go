package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 10

	// sendBuffer bounds per-connection backlog. A client that cannot keep
	// up is disconnected instead of stalling the hub.
	sendBuffer = 64
)

// controlMessage is what clients send over the socket to manage their
// project channel subscriptions.
type controlMessage struct {
	Action    string `json:"action"`
	ProjectID string `json:"project_id"`
}

// Client is one websocket connection owned by an authenticated user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	logger *zap.Logger

	send chan []byte
	done chan struct{}

	mu       sync.RWMutex
	projects map[string]struct{}

	closeOnce sync.Once
}

// Serve registers the connection and blocks until it closes. canJoin is
// consulted before a project channel subscription is accepted.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, userID string, canJoin func(ctx context.Context, projectID string) bool) {
	c := &Client{
		hub:      h,
		conn:     conn,
		userID:   userID,
		logger:   h.logger,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		projects: make(map[string]struct{}),
	}

	h.register(c)
	defer func() {
		h.unregister(c)
		c.close()
	}()

	go c.writePump()
	c.readPump(ctx, canJoin)
}

func (c *Client) subscribed(projectID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.projects[projectID]
	return ok
}

// enqueue hands the payload to the write pump. On a full buffer the
// connection is torn down; the reader sees the close and unregisters.
func (c *Client) enqueue(payload []byte) {
	select {
	case <-c.done:
	case c.send <- payload:
	default:
		c.logger.Warn("disconnecting slow websocket client",
			zap.String("user_id", c.userID))
		c.close()
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) readPump(ctx context.Context, canJoin func(ctx context.Context, projectID string) bool) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var msg controlMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.ProjectID == "" {
			continue
		}
		c.handleControl(ctx, msg, canJoin)
	}
}

// handleControl applies a subscription frame. The wire names are
// join-project and leave-project; the short forms are accepted too.
func (c *Client) handleControl(ctx context.Context, msg controlMessage, canJoin func(ctx context.Context, projectID string) bool) {
	switch msg.Action {
	case "join-project", "join":
		if canJoin != nil && !canJoin(ctx, msg.ProjectID) {
			return
		}
		c.mu.Lock()
		c.projects[msg.ProjectID] = struct{}{}
		c.mu.Unlock()

	case "leave-project", "leave":
		c.mu.Lock()
		delete(c.projects, msg.ProjectID)
		c.mu.Unlock()
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
