package domain

import "time"

// TicketStatus represents where a ticket is in its lifecycle
type TicketStatus string

const (
	TicketStatusWaiting  TicketStatus = "waiting"
	TicketStatusDone     TicketStatus = "done"
	TicketStatusCanceled TicketStatus = "canceled"
)

// AllTicketStatuses lists every known status
var AllTicketStatuses = []TicketStatus{
	TicketStatusWaiting,
	TicketStatusDone,
	TicketStatusCanceled,
}

// validTransitions defines allowed status changes.
// Key is current status, value is list of allowed next statuses.
var validTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusWaiting:  {TicketStatusDone, TicketStatusCanceled},
	TicketStatusDone:     {}, // Terminal
	TicketStatusCanceled: {}, // Terminal
}

// reopenTransitions are allowed on top of validTransitions when reopening is enabled
var reopenTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusDone:     {TicketStatusWaiting},
	TicketStatusCanceled: {TicketStatusWaiting},
}

// IsValid returns true if s is a known status
func (s TicketStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// IsTerminal returns true for done and canceled
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusDone || s == TicketStatusCanceled
}

// CanTransitionTo reports whether moving from s to target is allowed.
// Same-status moves are idempotent and always allowed.
func (s TicketStatus) CanTransitionTo(target TicketStatus, allowReopen bool) bool {
	if !s.IsValid() || !target.IsValid() {
		return false
	}
	if s == target {
		return true
	}
	if contains(validTransitions[s], target) {
		return true
	}
	return allowReopen && contains(reopenTransitions[s], target)
}

// SourcesFor returns every status from which target may be reached
func SourcesFor(target TicketStatus, allowReopen bool) []TicketStatus {
	sources := make([]TicketStatus, 0, len(AllTicketStatuses))
	for _, s := range AllTicketStatuses {
		if s.CanTransitionTo(target, allowReopen) {
			sources = append(sources, s)
		}
	}
	return sources
}

func contains(list []TicketStatus, target TicketStatus) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}

// Ticket is one visitor's place in an event queue
type Ticket struct {
	ID        string       `json:"id"`
	EventID   string       `json:"event_id"`
	Number    int64        `json:"number"`
	Name      string       `json:"name"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// IsWaiting returns true while the ticket is still queued
func (t *Ticket) IsWaiting() bool {
	return t.Status == TicketStatusWaiting
}

// TicketPatch holds the fields a patch may change; nil means unchanged
type TicketPatch struct {
	Status *TicketStatus
	Name   *string
}

// IsEmpty returns true when the patch changes nothing
func (p *TicketPatch) IsEmpty() bool {
	return p == nil || (p.Status == nil && p.Name == nil)
}

// Apply writes the patch onto t
func (p *TicketPatch) Apply(t *Ticket) {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
}
