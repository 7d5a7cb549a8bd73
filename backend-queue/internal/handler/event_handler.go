package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/prohmpiriya/take-a-number/backend-queue/internal/dto"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/service"
	"github.com/prohmpiriya/take-a-number/pkg/logger"
	"github.com/prohmpiriya/take-a-number/pkg/middleware"
	"github.com/prohmpiriya/take-a-number/pkg/response"
	"github.com/prohmpiriya/take-a-number/pkg/telemetry"
)

// EventHandler handles event HTTP requests
type EventHandler struct {
	queueService service.QueueService
	tokenConfig  *middleware.AdminTokenConfig
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(queueService service.QueueService, tokenConfig *middleware.AdminTokenConfig) *EventHandler {
	return &EventHandler{
		queueService: queueService,
		tokenConfig:  tokenConfig,
	}
}

// List handles GET /api/events
func (h *EventHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	events, err := h.queueService.ListEvents(ctx)
	if err != nil {
		telemetry.FailSpan(span, err, "list events failed")
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.List(dto.ToEventResponses(events), len(events)))
}

// Create handles POST /api/events
func (h *EventHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		telemetry.FailSpan(span, err, "invalid request")
		invalidBody(c, err)
		return
	}

	event, err := h.queueService.CreateEvent(ctx, &req)
	if err != nil {
		telemetry.FailSpan(span, err, "create event failed")
		handleError(c, err)
		return
	}

	span.SetAttributes(telemetry.EventIDAttr(event.ID))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, response.Success(dto.ToEventResponse(event)))
}

// Get handles GET /api/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	eventID := c.Param("id")

	event, err := h.queueService.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.ToEventResponse(event)))
}

// Verify handles POST /api/events/:id/verify.
// A correct PIN also returns an admin token when a signing secret is configured.
func (h *EventHandler) Verify(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.verify")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	span.SetAttributes(telemetry.EventIDAttr(eventID))

	var req dto.VerifyPINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		telemetry.FailSpan(span, err, "invalid request")
		invalidBody(c, err)
		return
	}

	ok, err := h.queueService.VerifyPIN(ctx, eventID, &req)
	if err != nil {
		telemetry.FailSpan(span, err, "verify failed")
		handleError(c, err)
		return
	}

	if !ok {
		span.SetStatus(codes.Error, "invalid pin")
		c.JSON(http.StatusUnauthorized, response.ErrorWithData(response.ErrCodeInvalidPIN, "Invalid PIN", &dto.VerifyPINResponse{OK: false}))
		return
	}

	resp := &dto.VerifyPINResponse{OK: true}
	if h.tokenConfig != nil && h.tokenConfig.Secret != "" {
		token, expiresAt, err := middleware.IssueAdminToken(h.tokenConfig, eventID)
		if err != nil {
			logger.ErrorCtx(ctx, "failed to issue admin token", zap.Error(err), zap.String("event_id", eventID))
		} else {
			resp.AdminToken = token
			resp.ExpiresAt = expiresAt.UTC().Format(time.RFC3339)
		}
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Success(resp))
}

// NowServing handles GET /api/events/:id/now-serving
func (h *EventHandler) NowServing(c *gin.Context) {
	result, err := h.queueService.NowServing(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Dashboard handles GET /api/events/:id/dashboard
func (h *EventHandler) Dashboard(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.dashboard")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	span.SetAttributes(telemetry.EventIDAttr(eventID))

	if !middleware.CanAdminister(c, h.tokenConfig, eventID) {
		span.SetStatus(codes.Error, "forbidden")
		c.JSON(http.StatusForbidden, response.Forbidden("Admin token does not grant access to this event"))
		return
	}

	result, err := h.queueService.Dashboard(ctx, eventID)
	if err != nil {
		telemetry.FailSpan(span, err, "dashboard failed")
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Success(result))
}
