package domain

import "time"

// MessageKind distinguishes text from audio messages; audio messages get a
// fallback body in push notifications.
type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageAudio MessageKind = "audio"
)

// Message is one chat message. The id doubles as the authoritative sequence:
// consumers must re-sort by it rather than trust socket arrival order.
type Message struct {
	ID        int         `db:"id" json:"id"`
	ChatID    int         `db:"chat_id" json:"chat_id"`
	SenderID  int         `db:"sender_id" json:"sender_id"`
	Kind      MessageKind `db:"kind" json:"kind"`
	Content   string      `db:"content" json:"content"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// ChatEvent is broadcast through websockets.
type ChatEvent struct {
	Type      string                 `json:"type"`
	Message   *Message               `json:"message,omitempty"`
	Emergency *EmergencyStatusChange `json:"emergency,omitempty"`
}

// Websocket event names.
const (
	EventMessageCreated         = "MessageCreated"
	EventEmergencyStatusChanged = "EmergencyStatusChanged"
)
