package notify

import (
	"context"

	"careline-service/internal/domain"
	"careline-service/internal/ws"
)

// RealtimeSender pushes events to every socket subscribed to the chat's live
// room. Clients that are not connected simply miss the event and catch up
// through the normal fetch path.
type RealtimeSender struct {
	hub *ws.Hub
}

// NewRealtimeSender constructs a RealtimeSender over the hub.
func NewRealtimeSender(hub *ws.Hub) *RealtimeSender {
	return &RealtimeSender{hub: hub}
}

func (s *RealtimeSender) Name() string { return "realtime" }

func (s *RealtimeSender) NotifyMessageCreated(_ context.Context, chat domain.Chat, msg domain.Message) error {
	s.hub.Broadcast(chat.ID, domain.ChatEvent{Type: domain.EventMessageCreated, Message: &msg})
	return nil
}

func (s *RealtimeSender) NotifyEmergencyStatusChanged(_ context.Context, chat domain.Chat, change domain.EmergencyStatusChange) error {
	s.hub.Broadcast(chat.ID, domain.ChatEvent{Type: domain.EventEmergencyStatusChanged, Emergency: &change})
	return nil
}
