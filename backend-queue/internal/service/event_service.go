package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/prohmpiriya/take-a-number/backend-queue/internal/domain"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/dto"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/notifier"
)

// CreateEvent opens a new event queue protected by a PIN
func (s *queueService) CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*domain.Event, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pinHash, err := s.hasher.Digest(req.PIN)
	if err != nil {
		return nil, domain.WrapStoreError("hash pin", err)
	}

	event := &domain.Event{
		ID:        uuid.New().String(),
		Name:      req.Name,
		PinHash:   pinHash,
		IsActive:  true,
		CreatedAt: s.now(),
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, domain.WrapStoreError("create event", err)
	}

	s.metrics.eventCreated(ctx)
	s.publish(ctx, &notifier.QueueEvent{
		Type:    notifier.TypeEventCreated,
		EventID: event.ID,
	})

	return event, nil
}

// ListEvents lists all events, newest first
func (s *queueService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, domain.WrapStoreError("list events", err)
	}
	return events, nil
}

// GetEvent retrieves an event by ID
func (s *queueService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	return s.requireEvent(ctx, strings.TrimSpace(id))
}

// VerifyPIN reports whether pin opens the event's admin view
func (s *queueService) VerifyPIN(ctx context.Context, id string, req *dto.VerifyPINRequest) (bool, error) {
	if err := req.Validate(); err != nil {
		return false, err
	}

	event, err := s.requireEvent(ctx, strings.TrimSpace(id))
	if err != nil {
		return false, err
	}

	return s.hasher.Verify(req.PIN, event.PinHash), nil
}
