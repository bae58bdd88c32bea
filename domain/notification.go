package domain

import (
	"encoding/json"
	"time"
)

// Notification event types emitted over the realtime channel.
const (
	NotifyTaskCreated        = "task-created"
	NotifyTaskUpdated        = "task-updated"
	NotifyTaskDeleted        = "task-deleted"
	NotifyTaskCommented      = "task-commented"
	NotifyMemberJoined       = "member-joined"
	NotifyMemberRemoved      = "member-removed"
	NotifyInvitationReceived = "invitation-received"
	NotifyAttachmentUploaded = "attachment-uploaded"
)

// Notification is the wire shape of a realtime event.
type Notification struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewNotification stamps an event with the current time. Marshal failure
// of the payload degrades to a null data field rather than dropping the
// event type.
func NewNotification(eventType string, payload interface{}) Notification {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("null")
	}
	return Notification{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
