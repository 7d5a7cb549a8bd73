package repository

import (
	"context"

	"github.com/prohmpiriya/take-a-number/backend-queue/internal/domain"
)

// EventRepository defines the interface for event data access
type EventRepository interface {
	// Create inserts the event together with its zero counter, atomically
	Create(ctx context.Context, event *domain.Event) error
	// GetByID retrieves an event including its PIN hash; nil when missing
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	// List retrieves all events, newest first
	List(ctx context.Context) ([]*domain.Event, error)
}

// CounterAllocator hands out per-event ticket numbers
type CounterAllocator interface {
	// Next atomically increments and returns the event's last number.
	// Returns domain.ErrEventNotFound or domain.ErrCounterMissing when no counter row matches.
	Next(ctx context.Context, eventID string) (int64, error)
	// Current returns the last number handed out, without changing it
	Current(ctx context.Context, eventID string) (int64, error)
}

// TicketRepository defines the interface for ticket data access
type TicketRepository interface {
	// Create allocates the next number for ticket.EventID and inserts the ticket in one transaction
	Create(ctx context.Context, ticket *domain.Ticket) error
	// GetByID retrieves a ticket; nil when missing
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// ListByEvent retrieves every ticket of an event ordered by number
	ListByEvent(ctx context.Context, eventID string) ([]*domain.Ticket, error)
	// Patch applies patch only while the ticket's status is in allowedFrom.
	// Returns nil when no ticket matched (missing or status not allowed).
	Patch(ctx context.Context, id string, patch *domain.TicketPatch, allowedFrom []domain.TicketStatus) (*domain.Ticket, error)
	// Delete removes a ticket; deleting a missing ticket is not an error
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteByEvent removes every ticket of an event, keeping its counter
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
	// DeleteAll removes every ticket of every event, keeping counters
	DeleteAll(ctx context.Context) (int64, error)
}
