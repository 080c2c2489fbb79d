package domain

import (
	"time"

	"github.com/samber/lo"
)

// Participant is a chat member. Supervised users carry the id of the
// supervisor responsible for them; ExternalID and Email identify the member
// at the push-notification provider.
type Participant struct {
	ChatID       int     `db:"chat_id" json:"chat_id"`
	UserID       int     `db:"user_id" json:"user_id"`
	SupervisorID *int    `db:"supervisor_id" json:"supervisor_id,omitempty"`
	ExternalID   *string `db:"external_id" json:"external_id,omitempty"`
	Email        *string `db:"email" json:"email,omitempty"`
}

// Chat is a conversation between supervised users and their contacts. It is
// the unit of authorization: membership decides who may post, raise
// emergencies and receive notifications. On top of the Emergency aggregate
// the chat also carries a lightweight alert toggle used for simple
// supervisor-monitoring notices; the toggle may only be withdrawn by the
// user who raised it.
type Chat struct {
	ID                   int        `db:"id" json:"id"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	EmergencyActive      bool       `db:"emergency_active" json:"emergency_active"`
	EmergencyInitiatorID *int       `db:"emergency_initiator_id" json:"emergency_initiator_id,omitempty"`
	EmergencyActivatedAt *time.Time `db:"emergency_activated_at" json:"emergency_activated_at,omitempty"`

	Participants []Participant `db:"-" json:"participants,omitempty"`
	Emergencies  []*Emergency  `db:"-" json:"-"`
}

// HasParticipant reports whether the user is a member of the chat.
func (c *Chat) HasParticipant(userID int) bool {
	return lo.ContainsBy(c.Participants, func(p Participant) bool {
		return p.UserID == userID
	})
}

// Supervisors returns the distinct supervisors reachable from the current
// participants. Participants without a supervisor link contribute nothing;
// participants sharing a supervisor contribute it once.
func (c *Chat) Supervisors() []int {
	ids := lo.FilterMap(c.Participants, func(p Participant, _ int) (int, bool) {
		if p.SupervisorID == nil {
			return 0, false
		}
		return *p.SupervisorID, true
	})
	return lo.Uniq(ids)
}

// ActivateAlert turns the alert toggle on. Calling it while already active
// is a no-op that keeps the original initiator and timestamp; the returned
// bool reports whether state changed.
func (c *Chat) ActivateAlert(initiatorID int, now time.Time) bool {
	if c.EmergencyActive {
		return false
	}
	c.EmergencyActive = true
	c.EmergencyInitiatorID = &initiatorID
	c.EmergencyActivatedAt = &now
	return true
}

// DeactivateAlert turns the alert toggle off. Only the recorded initiator
// may withdraw the alert; calling it while inactive is a no-op. The bool
// reports whether state changed.
func (c *Chat) DeactivateAlert(initiatorID int) (bool, error) {
	if !c.EmergencyActive {
		return false, nil
	}
	if c.EmergencyInitiatorID == nil || *c.EmergencyInitiatorID != initiatorID {
		return false, NewConflict(CodeNotInitiator, "only the alert initiator may withdraw it")
	}
	c.EmergencyActive = false
	c.EmergencyInitiatorID = nil
	c.EmergencyActivatedAt = nil
	return true, nil
}

// ChatSummary provides an API-friendly view of a chat for a user.
type ChatSummary struct {
	ChatID          int       `db:"id" json:"chat_id"`
	EmergencyActive bool      `db:"emergency_active" json:"emergency_active"`
	Created         time.Time `db:"created_at" json:"created_at"`
}
