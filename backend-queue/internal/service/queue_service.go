package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/prohmpiriya/take-a-number/backend-queue/internal/domain"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/dto"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/notifier"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/repository"
	"github.com/prohmpiriya/take-a-number/pkg/logger"
	"github.com/prohmpiriya/take-a-number/pkg/pinhash"
)

// QueueService is the facade over events, tickets and the views derived from them.
// Every returned error matches one of the domain error kinds with errors.Is.
type QueueService interface {
	// Events
	CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*domain.Event, error)
	ListEvents(ctx context.Context) ([]*domain.Event, error)
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	VerifyPIN(ctx context.Context, id string, req *dto.VerifyPINRequest) (bool, error)

	// Tickets
	CreateTicket(ctx context.Context, req *dto.CreateTicketRequest) (*domain.Ticket, error)
	GetTicket(ctx context.Context, id string) (*domain.Ticket, error)
	ListTickets(ctx context.Context, eventID string) ([]*domain.Ticket, error)
	PatchTicket(ctx context.Context, id string, req *dto.PatchTicketRequest) (*domain.Ticket, error)
	DeleteTicket(ctx context.Context, id string) (bool, error)
	ClearTickets(ctx context.Context, scope string) (int64, error)

	// Views
	GetPosition(ctx context.Context, ticketID string) (*dto.PositionResponse, error)
	NowServing(ctx context.Context, eventID string) (*dto.NowServingResponse, error)
	Dashboard(ctx context.Context, eventID string) (*dto.DashboardResponse, error)
}

// Config holds queue behaviour settings
type Config struct {
	AvgMinutesPerTicket int
	NowServingLimit     int
	AllowReopen         bool
	StoreBackend        string
}

// DefaultConfig returns the default queue settings
func DefaultConfig() *Config {
	return &Config{
		AvgMinutesPerTicket: 3,
		NowServingLimit:     5,
		StoreBackend:        "memory",
	}
}

// queueService implements the QueueService interface
type queueService struct {
	eventRepo  repository.EventRepository
	counters   repository.CounterAllocator
	ticketRepo repository.TicketRepository
	hasher     pinhash.Hasher
	publisher  notifier.Publisher
	config     *Config
	metrics    *queueMetrics
	now        func() time.Time
}

// NewQueueService creates a new QueueService
func NewQueueService(
	eventRepo repository.EventRepository,
	counters repository.CounterAllocator,
	ticketRepo repository.TicketRepository,
	hasher pinhash.Hasher,
	publisher notifier.Publisher,
	config *Config,
) QueueService {
	if config == nil {
		config = DefaultConfig()
	}
	if hasher == nil {
		hasher = pinhash.SHA256{}
	}
	if publisher == nil {
		publisher = notifier.Nop{}
	}
	return &queueService{
		eventRepo:  eventRepo,
		counters:   counters,
		ticketRepo: ticketRepo,
		hasher:     hasher,
		publisher:  publisher,
		config:     config,
		metrics:    newQueueMetrics(config.StoreBackend),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// publish notifies listeners; a failed notification never fails the operation
func (s *queueService) publish(ctx context.Context, event *notifier.QueueEvent) {
	event.Timestamp = s.now()
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.WarnCtx(ctx, "failed to publish queue change",
			zap.String("type", event.Type),
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}
}

// requireEvent loads an event or returns ErrEventNotFound
func (s *queueService) requireEvent(ctx context.Context, id string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.WrapStoreError("get event", err)
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	return event, nil
}
