package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/prohmpiriya/take-a-number/pkg/logger"
	"github.com/prohmpiriya/take-a-number/pkg/middleware"
	"github.com/prohmpiriya/take-a-number/pkg/response"
)

// Handlers groups the HTTP handlers served by the router
type Handlers struct {
	Event  *EventHandler
	Ticket *TicketHandler
	Stream *StreamHandler
	Health *HealthHandler
}

// RouterConfig holds router-level settings
type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	TokenConfig    *middleware.AdminTokenConfig
	Logger         *logger.Logger
	EnableTracing  bool
}

// SetupRouter builds the gin engine with middleware and routes
func SetupRouter(h *Handlers, cfg *RouterConfig) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(gin.Recovery())
	if cfg.EnableTracing {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	router.Use(middleware.CORSWithConfig(corsConfig))
	router.Use(middleware.RequestID())

	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}
	router.Use(middleware.RequestLogger(log, "/health", "/ready"))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, response.NotFound("Route not found"))
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, response.Error(response.ErrCodeMethodNotAllowed, "Method not allowed"))
	})

	router.GET("/health", h.Health.Health)
	router.GET("/ready", h.Health.Ready)

	tokenConfig := cfg.TokenConfig
	if tokenConfig == nil {
		tokenConfig = &middleware.AdminTokenConfig{}
	}
	admin := middleware.AdminTokenMiddleware(tokenConfig)

	api := router.Group("/api")
	{
		events := api.Group("/events")
		{
			events.GET("", h.Event.List)
			events.POST("", h.Event.Create)
			events.GET("/:id", h.Event.Get)
			events.POST("/:id/verify", h.Event.Verify)
			events.GET("/:id/now-serving", h.Event.NowServing)
			events.GET("/:id/stream", h.Stream.Stream)
			events.GET("/:id/dashboard", admin, h.Event.Dashboard)
		}

		tickets := api.Group("/tickets")
		{
			tickets.GET("", h.Ticket.List)
			tickets.POST("", h.Ticket.Create)
			tickets.DELETE("/clear", admin, h.Ticket.Clear)
			tickets.GET("/:id", h.Ticket.Get)
			tickets.GET("/:id/position", h.Ticket.Position)
			tickets.PATCH("/:id", admin, h.Ticket.Patch)
			tickets.PUT("/:id", admin, h.Ticket.Patch)
			tickets.DELETE("/:id", admin, h.Ticket.Delete)
		}
	}

	return router
}
