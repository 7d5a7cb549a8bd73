package notifier

import (
	"context"
	"errors"
	"time"
)

// Queue change types
const (
	TypeTicketCreated  = "ticket.created"
	TypeTicketUpdated  = "ticket.updated"
	TypeTicketDeleted  = "ticket.deleted"
	TypeTicketsCleared = "tickets.cleared"
	TypeEventCreated   = "event.created"
)

// ScopeAll is the EventID of a change that touches every event
const ScopeAll = "all"

// QueueEvent describes one change to an event queue
type QueueEvent struct {
	Type      string    `json:"type"`
	EventID   string    `json:"event_id"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Number    int64     `json:"number,omitempty"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Key is the partition key; changes of one event stay ordered
func (e *QueueEvent) Key() string {
	return e.EventID
}

// Publisher fans queue changes out to listeners
type Publisher interface {
	Publish(ctx context.Context, event *QueueEvent) error
}

// Nop discards every change
type Nop struct{}

// Publish does nothing
func (Nop) Publish(ctx context.Context, event *QueueEvent) error {
	return nil
}

// Multi publishes to every publisher and joins their errors
type Multi []Publisher

// Publish calls each publisher in order
func (m Multi) Publish(ctx context.Context, event *QueueEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
