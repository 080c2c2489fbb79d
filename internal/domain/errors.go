package domain

import "errors"

// Stable conflict codes exposed to API clients.
const (
	CodeAlreadyResolved     = "already_resolved"
	CodeEmptyHandler        = "empty_handler"
	CodeNotAuthorized       = "not_authorized"
	CodeDuplicateResolution = "duplicate_resolution"
	CodeChatAlreadyAssigned = "chat_already_assigned"
	CodeNotInitiator        = "not_initiator"
)

// Conflict is a domain rule violation returned to the caller as a value,
// never as a panic. Code is stable for client translation, Reason is the
// human-readable explanation.
type Conflict struct {
	Code   string
	Reason string
}

func (c *Conflict) Error() string {
	return c.Reason
}

// NewConflict builds a Conflict error.
func NewConflict(code, reason string) *Conflict {
	return &Conflict{Code: code, Reason: reason}
}

// AsConflict unwraps err into a Conflict if it is one.
func AsConflict(err error) (*Conflict, bool) {
	var conflict *Conflict
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}

// ConflictCode returns the stable code of a Conflict error, or "".
func ConflictCode(err error) string {
	if conflict, ok := AsConflict(err); ok {
		return conflict.Code
	}
	return ""
}
