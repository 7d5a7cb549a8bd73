package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/prohmpiriya/take-a-number/backend-queue/internal/domain"
)

// MemoryStore keeps events, counters and tickets in process memory.
// All three repositories share one lock, so ticket creation is atomic with allocation.
type MemoryStore struct {
	mu       sync.RWMutex
	events   map[string]*memoryEvent
	counters map[string]int64
	tickets  map[string]*domain.Ticket
	seq      int64

	Events   *MemoryEventRepository
	Counters *MemoryCounterAllocator
	Tickets  *MemoryTicketRepository
}

type memoryEvent struct {
	event *domain.Event
	seq   int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		events:   make(map[string]*memoryEvent),
		counters: make(map[string]int64),
		tickets:  make(map[string]*domain.Ticket),
	}
	s.Events = &MemoryEventRepository{store: s}
	s.Counters = &MemoryCounterAllocator{store: s}
	s.Tickets = &MemoryTicketRepository{store: s}
	return s
}

func copyEvent(e *domain.Event) *domain.Event {
	c := *e
	return &c
}

func copyTicket(t *domain.Ticket) *domain.Ticket {
	c := *t
	return &c
}

// next must be called with the write lock held
func (s *MemoryStore) next(eventID string) (int64, error) {
	last, ok := s.counters[eventID]
	if !ok {
		if _, exists := s.events[eventID]; exists {
			return 0, domain.ErrCounterMissing
		}
		return 0, domain.ErrEventNotFound
	}
	last++
	s.counters[eventID] = last
	return last, nil
}

// MemoryEventRepository implements EventRepository in memory
type MemoryEventRepository struct {
	store *MemoryStore
}

// Create stores the event and its zero counter
func (r *MemoryEventRepository) Create(ctx context.Context, event *domain.Event) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[event.ID]; exists {
		return errors.New("event already exists")
	}

	s.seq++
	s.events[event.ID] = &memoryEvent{event: copyEvent(event), seq: s.seq}
	s.counters[event.ID] = 0
	return nil
}

// GetByID retrieves an event by ID
func (r *MemoryEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return nil, nil
	}
	return copyEvent(e.event), nil
}

// List retrieves all events, newest first
func (r *MemoryEventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	s := r.store
	s.mu.RLock()
	entries := make([]*memoryEvent, 0, len(s.events))
	for _, e := range s.events {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.event.CreatedAt.Equal(b.event.CreatedAt) {
			return a.event.CreatedAt.After(b.event.CreatedAt)
		}
		return a.seq > b.seq
	})

	events := make([]*domain.Event, 0, len(entries))
	for _, e := range entries {
		events = append(events, copyEvent(e.event))
	}
	return events, nil
}

// MemoryCounterAllocator implements CounterAllocator in memory
type MemoryCounterAllocator struct {
	store *MemoryStore
}

// Next increments and returns the event counter
func (a *MemoryCounterAllocator) Next(ctx context.Context, eventID string) (int64, error) {
	s := a.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next(eventID)
}

// Current returns the last number handed out
func (a *MemoryCounterAllocator) Current(ctx context.Context, eventID string) (int64, error) {
	s := a.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	last, ok := s.counters[eventID]
	if !ok {
		if _, exists := s.events[eventID]; exists {
			return 0, domain.ErrCounterMissing
		}
		return 0, domain.ErrEventNotFound
	}
	return last, nil
}

// MemoryTicketRepository implements TicketRepository in memory
type MemoryTicketRepository struct {
	store *MemoryStore
}

// Create allocates a number and stores the ticket under one lock
func (r *MemoryTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	number, err := s.next(ticket.EventID)
	if err != nil {
		return err
	}

	ticket.Number = number
	s.tickets[ticket.ID] = copyTicket(ticket)
	return nil
}

// GetByID retrieves a ticket by ID
func (r *MemoryTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, nil
	}
	return copyTicket(t), nil
}

// ListByEvent retrieves every ticket of an event ordered by number
func (r *MemoryTicketRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.Ticket, error) {
	s := r.store
	s.mu.RLock()
	tickets := make([]*domain.Ticket, 0)
	for _, t := range s.tickets {
		if t.EventID == eventID {
			tickets = append(tickets, copyTicket(t))
		}
	}
	s.mu.RUnlock()

	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].Number < tickets[j].Number
	})
	return tickets, nil
}

// Patch applies patch while the ticket's status is in allowedFrom
func (r *MemoryTicketRepository) Patch(ctx context.Context, id string, patch *domain.TicketPatch, allowedFrom []domain.TicketStatus) (*domain.Ticket, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, nil
	}

	if len(allowedFrom) > 0 {
		allowed := false
		for _, status := range allowedFrom {
			if t.Status == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, nil
		}
	}

	patch.Apply(t)
	return copyTicket(t), nil
}

// Delete removes a ticket
func (r *MemoryTicketRepository) Delete(ctx context.Context, id string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[id]; !ok {
		return false, nil
	}
	delete(s.tickets, id)
	return true, nil
}

// DeleteByEvent removes every ticket of an event
func (r *MemoryTicketRepository) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, t := range s.tickets {
		if t.EventID == eventID {
			delete(s.tickets, id)
			removed++
		}
	}
	return removed, nil
}

// DeleteAll removes every ticket
func (r *MemoryTicketRepository) DeleteAll(ctx context.Context) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := int64(len(s.tickets))
	s.tickets = make(map[string]*domain.Ticket)
	return removed, nil
}

var (
	_ EventRepository  = (*MemoryEventRepository)(nil)
	_ CounterAllocator = (*MemoryCounterAllocator)(nil)
	_ TicketRepository = (*MemoryTicketRepository)(nil)
	_ EventRepository  = (*PostgresEventRepository)(nil)
	_ CounterAllocator = (*PostgresCounterAllocator)(nil)
	_ TicketRepository = (*PostgresTicketRepository)(nil)
)
