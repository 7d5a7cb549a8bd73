package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prohmpiriya/take-a-number/backend-queue/internal/domain"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/dto"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/notifier"
)

// CreateTicket hands the visitor the next number of the event
func (s *queueService) CreateTicket(ctx context.Context, req *dto.CreateTicketRequest) (*domain.Ticket, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		ID:        uuid.New().String(),
		EventID:   req.EventID,
		Name:      req.Name,
		Status:    domain.TicketStatusWaiting,
		CreatedAt: s.now(),
	}

	start := time.Now()
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return nil, domain.NewValidationError("event_id", "Unknown event")
		}
		return nil, domain.WrapStoreError("create ticket", err)
	}
	s.metrics.ticketIssued(ctx, ticket.EventID, float64(time.Since(start).Microseconds())/1000)

	s.publish(ctx, &notifier.QueueEvent{
		Type:     notifier.TypeTicketCreated,
		EventID:  ticket.EventID,
		TicketID: ticket.ID,
		Number:   ticket.Number,
		Status:   string(ticket.Status),
	})

	return ticket, nil
}

// GetTicket retrieves a ticket by ID
func (s *queueService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, domain.WrapStoreError("get ticket", err)
	}
	if ticket == nil {
		return nil, domain.ErrTicketNotFound
	}
	return ticket, nil
}

// ListTickets lists every ticket of an event by number
func (s *queueService) ListTickets(ctx context.Context, eventID string) ([]*domain.Ticket, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, domain.NewValidationError("event_id", "event_id is required")
	}

	if _, err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}

	tickets, err := s.ticketRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, domain.WrapStoreError("list tickets", err)
	}
	return tickets, nil
}

// PatchTicket changes a ticket's status and/or name.
// The state machine is checked here and guarded again by the store's conditional update.
func (s *queueService) PatchTicket(ctx context.Context, id string, req *dto.PatchTicketRequest) (*domain.Ticket, error) {
	patch, err := req.ToPatch()
	if err != nil {
		return nil, err
	}

	current, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	allowedFrom := domain.AllTicketStatuses
	if patch.Status != nil {
		if !current.Status.CanTransitionTo(*patch.Status, s.config.AllowReopen) {
			return nil, &domain.TransitionError{From: current.Status, To: *patch.Status}
		}
		allowedFrom = domain.SourcesFor(*patch.Status, s.config.AllowReopen)
	}

	updated, err := s.ticketRepo.Patch(ctx, current.ID, patch, allowedFrom)
	if err != nil {
		return nil, domain.WrapStoreError("patch ticket", err)
	}
	if updated == nil {
		// Changed or removed by a concurrent request
		latest, err := s.ticketRepo.GetByID(ctx, current.ID)
		if err != nil {
			return nil, domain.WrapStoreError("get ticket", err)
		}
		if latest == nil || patch.Status == nil {
			return nil, domain.ErrTicketNotFound
		}
		return nil, &domain.TransitionError{From: latest.Status, To: *patch.Status}
	}

	if updated.Status != current.Status {
		s.metrics.transition(ctx, string(current.Status), string(updated.Status))
	}

	s.publish(ctx, &notifier.QueueEvent{
		Type:     notifier.TypeTicketUpdated,
		EventID:  updated.EventID,
		TicketID: updated.ID,
		Number:   updated.Number,
		Status:   string(updated.Status),
	})

	return updated, nil
}

// DeleteTicket removes a ticket; deleting a missing ticket is a no-op
func (s *queueService) DeleteTicket(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)

	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		return false, domain.WrapStoreError("get ticket", err)
	}
	if ticket == nil {
		return false, nil
	}

	deleted, err := s.ticketRepo.Delete(ctx, id)
	if err != nil {
		return false, domain.WrapStoreError("delete ticket", err)
	}

	if deleted {
		s.publish(ctx, &notifier.QueueEvent{
			Type:     notifier.TypeTicketDeleted,
			EventID:  ticket.EventID,
			TicketID: ticket.ID,
			Number:   ticket.Number,
		})
	}
	return deleted, nil
}

// ClearTickets removes the tickets of one event, or of every event for scope "all".
// Counters are kept so numbers are never reissued.
func (s *queueService) ClearTickets(ctx context.Context, scope string) (int64, error) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return 0, domain.NewValidationError("event_id", "event_id or \"all\" is required")
	}

	var (
		removed int64
		err     error
	)
	if scope == dto.ClearScopeAll {
		removed, err = s.ticketRepo.DeleteAll(ctx)
	} else {
		removed, err = s.ticketRepo.DeleteByEvent(ctx, scope)
	}
	if err != nil {
		return 0, domain.WrapStoreError("clear tickets", err)
	}

	s.publish(ctx, &notifier.QueueEvent{
		Type:    notifier.TypeTicketsCleared,
		EventID: scope,
	})

	return removed, nil
}
