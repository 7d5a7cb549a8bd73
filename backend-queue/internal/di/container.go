package di

import (
	"fmt"

	"github.com/prohmpiriya/take-a-number/backend-queue/internal/handler"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/notifier"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/repository"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/service"
	"github.com/prohmpiriya/take-a-number/pkg/config"
	"github.com/prohmpiriya/take-a-number/pkg/database"
	"github.com/prohmpiriya/take-a-number/pkg/middleware"
	"github.com/prohmpiriya/take-a-number/pkg/pinhash"
	"github.com/prohmpiriya/take-a-number/pkg/redis"
)

// Container holds all dependencies for the queue service
type Container struct {
	// Infrastructure
	DB       *database.PostgresDB
	Redis    *redis.Client
	Producer notifier.Producer

	// Repositories
	EventRepo  repository.EventRepository
	Counters   repository.CounterAllocator
	TicketRepo repository.TicketRepository

	// Services
	Publisher    notifier.Publisher
	QueueService service.QueueService

	// Handlers
	Handlers    *handler.Handlers
	TokenConfig *middleware.AdminTokenConfig
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config   *config.Config
	DB       *database.PostgresDB // nil selects the in-memory store
	Redis    *redis.Client        // nil disables Pub/Sub notifications
	Producer notifier.Producer    // nil disables Kafka records
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) (*Container, error) {
	appCfg := cfg.Config

	c := &Container{
		DB:       cfg.DB,
		Redis:    cfg.Redis,
		Producer: cfg.Producer,
	}

	// Initialize repositories
	backend := config.StorePostgres
	if c.DB != nil {
		c.EventRepo = repository.NewPostgresEventRepository(c.DB.Pool())
		counters := repository.NewPostgresCounterAllocator(c.DB.Pool())
		c.Counters = counters
		c.TicketRepo = repository.NewPostgresTicketRepository(c.DB.Pool(), counters)
	} else {
		backend = config.StoreMemory
		store := repository.NewMemoryStore()
		c.EventRepo = store.Events
		c.Counters = store.Counters
		c.TicketRepo = store.Tickets
	}

	// Initialize notifiers
	var publishers notifier.Multi
	if c.Redis != nil {
		publishers = append(publishers, notifier.NewRedisPublisher(c.Redis))
	}
	if c.Producer != nil {
		publishers = append(publishers, notifier.NewKafkaPublisher(c.Producer, appCfg.Kafka.Topic))
	}
	if len(publishers) > 0 {
		c.Publisher = publishers
	} else {
		c.Publisher = notifier.Nop{}
	}

	// Initialize services
	hasher, err := pinhash.New(appCfg.Queue.PinHashAlgorithm, appCfg.Queue.PinHashIterations)
	if err != nil {
		return nil, fmt.Errorf("failed to create pin hasher: %w", err)
	}

	c.QueueService = service.NewQueueService(
		c.EventRepo,
		c.Counters,
		c.TicketRepo,
		hasher,
		c.Publisher,
		&service.Config{
			AvgMinutesPerTicket: appCfg.Queue.AvgMinutesPerTicket,
			NowServingLimit:     appCfg.Queue.NowServingLimit,
			AllowReopen:         appCfg.Queue.AllowReopen,
			StoreBackend:        backend,
		},
	)

	// Initialize handlers
	c.TokenConfig = &middleware.AdminTokenConfig{
		Secret:   appCfg.JWT.Secret,
		Issuer:   appCfg.JWT.Issuer,
		TTL:      appCfg.JWT.TokenTTL,
		Required: appCfg.Queue.RequireAdminToken,
	}

	c.Handlers = &handler.Handlers{
		Event:  handler.NewEventHandler(c.QueueService, c.TokenConfig),
		Ticket: handler.NewTicketHandler(c.QueueService, c.TokenConfig),
		Stream: handler.NewStreamHandler(c.QueueService, c.Redis, &handler.StreamConfig{
			Keepalive:    appCfg.Queue.StreamKeepalive,
			PollInterval: appCfg.Queue.StreamPollInterval,
			MaxDuration:  appCfg.Queue.StreamMaxDuration,
		}),
		Health: handler.NewHealthHandler(c.DB, c.Redis),
	}

	return c, nil
}
