package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/prohmpiriya/take-a-number/backend-queue/internal/domain"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/dto"
)

// UpNext is the wait text of the first waiting ticket
const UpNext = "up next"

// WaitingSubset returns the waiting tickets ordered by number
func WaitingSubset(tickets []*domain.Ticket) []*domain.Ticket {
	waiting := make([]*domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.IsWaiting() {
			waiting = append(waiting, t)
		}
	}
	sort.Slice(waiting, func(i, j int) bool {
		return waiting[i].Number < waiting[j].Number
	})
	return waiting
}

// PositionAhead counts waiting tickets with a smaller number than ticket
func PositionAhead(tickets []*domain.Ticket, ticket *domain.Ticket) int {
	ahead := 0
	for _, t := range tickets {
		if t.IsWaiting() && t.Number < ticket.Number {
			ahead++
		}
	}
	return ahead
}

// FormatETA renders minutes as "Xh Ym", or "Ym" under an hour
func FormatETA(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	hrs := minutes / 60
	mins := minutes % 60
	if hrs > 0 {
		return fmt.Sprintf("%dh %dm", hrs, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// GetPosition reports how many waiting tickets are ahead of ticketID and the estimated wait
func (s *queueService) GetPosition(ctx context.Context, ticketID string) (*dto.PositionResponse, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	resp := &dto.PositionResponse{Ticket: dto.ToTicketResponse(ticket)}
	if !ticket.IsWaiting() {
		return resp, nil
	}

	tickets, err := s.ticketRepo.ListByEvent(ctx, ticket.EventID)
	if err != nil {
		return nil, domain.WrapStoreError("list tickets", err)
	}

	resp.Ahead = PositionAhead(tickets, ticket)
	resp.UpNext = resp.Ahead == 0
	resp.EstimatedMinutes = resp.Ahead * s.config.AvgMinutesPerTicket
	if resp.UpNext {
		resp.EstimatedWait = UpNext
	} else {
		resp.EstimatedWait = FormatETA(resp.EstimatedMinutes)
	}
	return resp, nil
}

// NowServing returns the first waiting tickets of an event
func (s *queueService) NowServing(ctx context.Context, eventID string) (*dto.NowServingResponse, error) {
	if eventID == "" {
		return nil, domain.NewValidationError("event_id", "event_id is required")
	}

	tickets, err := s.ListTickets(ctx, eventID)
	if err != nil {
		return nil, err
	}

	waiting := WaitingSubset(tickets)
	serving := waiting
	if limit := s.config.NowServingLimit; limit > 0 && len(serving) > limit {
		serving = serving[:limit]
	}

	return &dto.NowServingResponse{
		EventID: eventID,
		Tickets: dto.ToTicketResponses(serving),
		Waiting: len(waiting),
	}, nil
}

// Dashboard summarises an event queue for its admin
func (s *queueService) Dashboard(ctx context.Context, eventID string) (*dto.DashboardResponse, error) {
	if eventID == "" {
		return nil, domain.NewValidationError("event_id", "event_id is required")
	}

	event, err := s.requireEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	tickets, err := s.ticketRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, domain.WrapStoreError("list tickets", err)
	}

	lastIssued, err := s.counters.Current(ctx, eventID)
	if err != nil {
		return nil, domain.WrapStoreError("read counter", err)
	}

	resp := &dto.DashboardResponse{
		EventID:             event.ID,
		EventName:           event.Name,
		Total:               len(tickets),
		LastIssuedNumber:    lastIssued,
		AvgMinutesPerTicket: s.config.AvgMinutesPerTicket,
	}
	for _, t := range tickets {
		switch t.Status {
		case domain.TicketStatusWaiting:
			resp.Waiting++
		case domain.TicketStatusDone:
			resp.Done++
		case domain.TicketStatusCanceled:
			resp.Canceled++
		}
	}

	if waiting := WaitingSubset(tickets); len(waiting) > 0 {
		next := waiting[0].Number
		resp.NextNumber = &next
	}
	resp.EstimatedClearTime = FormatETA(resp.Waiting * s.config.AvgMinutesPerTicket)

	return resp, nil
}
