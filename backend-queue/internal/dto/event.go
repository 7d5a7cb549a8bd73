package dto

import (
	"strings"
	"time"

	"github.com/prohmpiriya/take-a-number/backend-queue/internal/domain"
)

// CreateEventRequest represents request to open a new event queue
type CreateEventRequest struct {
	Name string `json:"name" binding:"max=200"`
	PIN  string `json:"pin" binding:"max=128"`
}

// Normalize trims the name; the PIN is kept byte-exact
func (r *CreateEventRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

// Validate checks required fields after normalization
func (r *CreateEventRequest) Validate() error {
	if r.Name == "" {
		return domain.NewValidationError("name", "Event name is required")
	}
	if strings.TrimSpace(r.PIN) == "" {
		return domain.NewValidationError("pin", "Admin PIN is required")
	}
	return nil
}

// VerifyPINRequest carries a PIN attempt
type VerifyPINRequest struct {
	PIN string `json:"pin" binding:"max=128"`
}

// Validate checks the attempt is not blank
func (r *VerifyPINRequest) Validate() error {
	if r.PIN == "" {
		return domain.NewValidationError("pin", "PIN is required")
	}
	return nil
}

// EventResponse represents an event without its PIN hash
type EventResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// VerifyPINResponse is the verify outcome
type VerifyPINResponse struct {
	OK         bool   `json:"ok"`
	AdminToken string `json:"admin_token,omitempty"`
	ExpiresAt  string `json:"expires_at,omitempty"`
}

// ToEventResponse converts a domain event
func ToEventResponse(e *domain.Event) *EventResponse {
	return &EventResponse{
		ID:        e.ID,
		Name:      e.Name,
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

// ToEventResponses converts a list of domain events
func ToEventResponses(events []*domain.Event) []*EventResponse {
	out := make([]*EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, ToEventResponse(e))
	}
	return out
}
