package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"careline-service/internal/domain"
)

type recordingSender struct {
	name    string
	err     error
	doPanic bool

	mu       sync.Mutex
	messages int
	statuses int
}

func (s *recordingSender) Name() string { return s.name }

func (s *recordingSender) NotifyMessageCreated(context.Context, domain.Chat, domain.Message) error {
	if s.doPanic {
		panic("boom")
	}
	s.mu.Lock()
	s.messages++
	s.mu.Unlock()
	return s.err
}

func (s *recordingSender) NotifyEmergencyStatusChanged(context.Context, domain.Chat, domain.EmergencyStatusChange) error {
	if s.doPanic {
		panic("boom")
	}
	s.mu.Lock()
	s.statuses++
	s.mu.Unlock()
	return s.err
}

func TestDispatcherInvokesAllSenders(t *testing.T) {
	a := &recordingSender{name: "a"}
	b := &recordingSender{name: "b"}
	d := NewDispatcher(time.Second, a, b)

	d.MessageCreated(domain.Chat{ID: 1}, domain.Message{ID: 2})
	d.EmergencyStatusChanged(domain.Chat{ID: 1}, domain.EmergencyStatusChange{ChatID: 1})
	d.Wait()

	assert.Equal(t, 1, a.messages)
	assert.Equal(t, 1, b.messages)
	assert.Equal(t, 1, a.statuses)
	assert.Equal(t, 1, b.statuses)
}

func TestDispatcherIsolatesFailingSender(t *testing.T) {
	failing := &recordingSender{name: "failing", err: errors.New("provider down")}
	healthy := &recordingSender{name: "healthy"}
	d := NewDispatcher(time.Second, failing, healthy)

	d.MessageCreated(domain.Chat{ID: 1}, domain.Message{ID: 2})
	d.Wait()

	assert.Equal(t, 1, healthy.messages)
}

func TestDispatcherSurvivesPanickingSender(t *testing.T) {
	panicking := &recordingSender{name: "panicking", doPanic: true}
	healthy := &recordingSender{name: "healthy"}
	d := NewDispatcher(time.Second, panicking, healthy)

	d.EmergencyStatusChanged(domain.Chat{ID: 1}, domain.EmergencyStatusChange{ChatID: 1})
	d.Wait()

	assert.Equal(t, 1, healthy.statuses)
}
