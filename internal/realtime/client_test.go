package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestClient() *Client {
	return &Client{
		userID:   "u1",
		logger:   zap.NewNop(),
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		projects: make(map[string]struct{}),
	}
}

func TestHandleControlProjectSubscriptions(t *testing.T) {
	c := newTestClient()
	ctx := context.Background()
	allow := func(context.Context, string) bool { return true }

	c.handleControl(ctx, controlMessage{Action: "join-project", ProjectID: "p1"}, allow)
	assert.True(t, c.subscribed("p1"))

	c.handleControl(ctx, controlMessage{Action: "leave-project", ProjectID: "p1"}, allow)
	assert.False(t, c.subscribed("p1"))

	// Short forms work as well.
	c.handleControl(ctx, controlMessage{Action: "join", ProjectID: "p2"}, allow)
	assert.True(t, c.subscribed("p2"))
	c.handleControl(ctx, controlMessage{Action: "leave", ProjectID: "p2"}, allow)
	assert.False(t, c.subscribed("p2"))

	c.handleControl(ctx, controlMessage{Action: "subscribe", ProjectID: "p3"}, allow)
	assert.False(t, c.subscribed("p3"))
}

func TestHandleControlConsultsMembershipGate(t *testing.T) {
	c := newTestClient()
	ctx := context.Background()

	deny := func(context.Context, string) bool { return false }
	c.handleControl(ctx, controlMessage{Action: "join-project", ProjectID: "p1"}, deny)
	assert.False(t, c.subscribed("p1"))
}
