package domain

import (
	"time"

	"github.com/samber/lo"
)

// EmergencyType categorizes a declared emergency.
type EmergencyType string

const (
	EmergencyMedical   EmergencyType = "medical"
	EmergencySafety    EmergencyType = "safety"
	EmergencyWellbeing EmergencyType = "wellbeing"
	EmergencyOther     EmergencyType = "other"
)

// ValidEmergencyType reports whether t is a known category.
func ValidEmergencyType(t EmergencyType) bool {
	switch t {
	case EmergencyMedical, EmergencySafety, EmergencyWellbeing, EmergencyOther:
		return true
	}
	return false
}

// Emergency is one declared incident inside a chat. The set of supervisors
// entitled to close it is computed once, when the emergency attaches to its
// chat, and never recomputed afterwards: participant changes after
// attachment do not widen or narrow AllowedToResolve.
type Emergency struct {
	ID           int           `db:"id" json:"id"`
	Type         EmergencyType `db:"type" json:"type"`
	ChatID       int           `db:"chat_id" json:"chat_id"`
	MadeByUserID int           `db:"made_by_user" json:"made_by_user"`
	RaisedAt     time.Time     `db:"raised_at" json:"raised_at"`

	AllowedToResolve []int `db:"-" json:"allowed_to_resolve"`
	HasResolved      []int `db:"-" json:"has_resolved"`
}

// AttachToChat binds the emergency to its owning chat, freezes the
// authorized resolver set from the chat's current participants and registers
// the emergency on the chat. The binding is attach-once: any second call
// fails with a chat_already_assigned conflict, including a re-attach to the
// same chat.
func (e *Emergency) AttachToChat(chat *Chat) error {
	if e.ChatID != 0 {
		return NewConflict(CodeChatAlreadyAssigned, "emergency is already assigned to a chat")
	}
	e.ChatID = chat.ID
	e.AllowedToResolve = chat.Supervisors()
	chat.Emergencies = append(chat.Emergencies, e)
	return nil
}

// Resolved reports completion: every authorized supervisor has voted. An
// emergency whose resolver set came out empty is resolved at creation; that
// follows from the completion rule and matches product behavior for chats
// with no supervised participants.
func (e *Emergency) Resolved() bool {
	return len(e.HasResolved) >= len(e.AllowedToResolve)
}

// Resolve records a resolution vote by the given supervisor. Preconditions
// are checked in order and the first failure wins; a repeated vote from the
// same supervisor is rejected rather than double-counted, which keeps the
// completion count safe under client retries.
func (e *Emergency) Resolve(supervisorID int) error {
	if e.Resolved() {
		return NewConflict(CodeAlreadyResolved, "emergency is already resolved")
	}
	if supervisorID == 0 {
		return NewConflict(CodeEmptyHandler, "handler is empty")
	}
	if !lo.Contains(e.AllowedToResolve, supervisorID) {
		return NewConflict(CodeNotAuthorized, "supervisor is not authorized to resolve this emergency")
	}
	if lo.Contains(e.HasResolved, supervisorID) {
		return NewConflict(CodeDuplicateResolution, "supervisor has already resolved this emergency")
	}
	e.HasResolved = append(e.HasResolved, supervisorID)
	return nil
}

// Status snapshots the resolution progress for API responses and events.
func (e *Emergency) Status(kind string, actorID int) EmergencyStatusChange {
	return EmergencyStatusChange{
		EmergencyID:   e.ID,
		ChatID:        e.ChatID,
		Type:          e.Type,
		Status:        kind,
		ActorID:       actorID,
		Resolved:      e.Resolved(),
		ResolvedCount: len(e.HasResolved),
		RequiredCount: len(e.AllowedToResolve),
	}
}

// Emergency status event kinds.
const (
	StatusRaised             = "raised"
	StatusResolutionRecorded = "resolution_recorded"
	StatusResolved           = "resolved"
	StatusAlertActivated     = "alert_activated"
	StatusAlertDeactivated   = "alert_deactivated"
)

// EmergencyStatusChange is the payload broadcast when an emergency or alert
// changes state. ActorID identifies who triggered the change and is excluded
// from push recipients.
type EmergencyStatusChange struct {
	EmergencyID   int           `json:"emergency_id,omitempty"`
	ChatID        int           `json:"chat_id"`
	Type          EmergencyType `json:"type,omitempty"`
	Status        string        `json:"status"`
	ActorID       int           `json:"actor_id"`
	Resolved      bool          `json:"resolved"`
	ResolvedCount int           `json:"resolved_count"`
	RequiredCount int           `json:"required_count"`
}
