package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"careline-service/internal/domain"
	"careline-service/internal/observability"
)

// Sender turns a committed domain event into outbound notifications over one
// delivery channel.
type Sender interface {
	Name() string
	NotifyMessageCreated(ctx context.Context, chat domain.Chat, msg domain.Message) error
	NotifyEmergencyStatusChanged(ctx context.Context, chat domain.Chat, change domain.EmergencyStatusChange) error
}

// Dispatcher fans a domain event out to every registered sender. It is
// invoked after the triggering transaction has committed: each sender runs
// on its own goroutine with its own timeout, detached from the request
// context, and a failing or panicking sender is logged without touching the
// others or the caller.
type Dispatcher struct {
	senders []Sender
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher builds a Dispatcher over the given senders.
func NewDispatcher(timeout time.Duration, senders ...Sender) *Dispatcher {
	return &Dispatcher{senders: senders, timeout: timeout}
}

// MessageCreated notifies all senders of a new message. Fire-and-forget.
func (d *Dispatcher) MessageCreated(chat domain.Chat, msg domain.Message) {
	d.fanOut("MessageCreated", func(ctx context.Context, s Sender) error {
		return s.NotifyMessageCreated(ctx, chat, msg)
	})
}

// EmergencyStatusChanged notifies all senders of an emergency or alert state
// change. Fire-and-forget.
func (d *Dispatcher) EmergencyStatusChanged(chat domain.Chat, change domain.EmergencyStatusChange) {
	d.fanOut("EmergencyStatusChanged", func(ctx context.Context, s Sender) error {
		return s.NotifyEmergencyStatusChanged(ctx, chat, change)
	})
}

// Wait blocks until all in-flight deliveries finish. Used on shutdown and in
// tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) fanOut(event string, deliver func(context.Context, Sender) error) {
	for _, sender := range d.senders {
		sender := sender
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("notify: sender %s panicked on %s: %v", sender.Name(), event, r)
					observability.IncNotifyDelivery(sender.Name(), event, "panic")
				}
			}()

			// Dispatch runs after commit, so it gets its own deadline
			// rather than inheriting the request's cancellation.
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()

			if err := deliver(ctx, sender); err != nil {
				log.Printf("notify: sender %s failed on %s: %v", sender.Name(), event, err)
				observability.IncNotifyDelivery(sender.Name(), event, "error")
				return
			}
			observability.IncNotifyDelivery(sender.Name(), event, "ok")
		}()
	}
}
