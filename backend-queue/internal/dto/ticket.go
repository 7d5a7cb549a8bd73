package dto

import (
	"strings"
	"time"

	"github.com/prohmpiriya/take-a-number/backend-queue/internal/domain"
)

// ClearScopeAll clears every ticket of every event
const ClearScopeAll = "all"

// CreateTicketRequest represents a visitor taking a number
type CreateTicketRequest struct {
	Name    string `json:"name" binding:"max=200"`
	EventID string `json:"event_id" binding:"max=64"`
}

// Normalize trims text fields
func (r *CreateTicketRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.EventID = strings.TrimSpace(r.EventID)
}

// Validate checks required fields after normalization
func (r *CreateTicketRequest) Validate() error {
	if r.Name == "" {
		return domain.NewValidationError("name", "Name is required")
	}
	if r.EventID == "" {
		return domain.NewValidationError("event_id", "Event ID is required")
	}
	return nil
}

// PatchTicketRequest changes a ticket's status and/or name
type PatchTicketRequest struct {
	Status *string `json:"status" binding:"omitempty,max=32"`
	Name   *string `json:"name" binding:"omitempty,max=200"`
}

// ToPatch validates the request and converts it to a domain patch
func (r *PatchTicketRequest) ToPatch() (*domain.TicketPatch, error) {
	if r.Status == nil && r.Name == nil {
		return nil, domain.NewValidationError("", "At least one of status or name must be provided")
	}

	patch := &domain.TicketPatch{}
	if r.Status != nil {
		status := domain.TicketStatus(strings.ToLower(strings.TrimSpace(*r.Status)))
		if !status.IsValid() {
			return nil, domain.NewValidationError("status", "Status must be one of waiting, done, canceled")
		}
		patch.Status = &status
	}
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "Name must not be empty")
		}
		patch.Name = &name
	}
	return patch, nil
}

// TicketResponse represents a ticket
type TicketResponse struct {
	ID        string `json:"id"`
	EventID   string `json:"event_id"`
	Number    int64  `json:"number"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// ToTicketResponse converts a domain ticket
func ToTicketResponse(t *domain.Ticket) *TicketResponse {
	return &TicketResponse{
		ID:        t.ID,
		EventID:   t.EventID,
		Number:    t.Number,
		Name:      t.Name,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
}

// ToTicketResponses converts a list of domain tickets
func ToTicketResponses(tickets []*domain.Ticket) []*TicketResponse {
	out := make([]*TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, ToTicketResponse(t))
	}
	return out
}

// ClearTicketsResponse reports a clear operation
type ClearTicketsResponse struct {
	Scope   string `json:"scope"`
	Removed int64  `json:"removed"`
}

// DeleteTicketResponse reports a delete operation
type DeleteTicketResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
