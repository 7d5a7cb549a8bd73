package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/take-a-number/backend-queue/internal/domain"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/dto"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/service"
	"github.com/prohmpiriya/take-a-number/pkg/middleware"
	"github.com/prohmpiriya/take-a-number/pkg/response"
	"github.com/prohmpiriya/take-a-number/pkg/telemetry"
)

// TicketHandler handles ticket HTTP requests
type TicketHandler struct {
	queueService service.QueueService
	tokenConfig  *middleware.AdminTokenConfig
}

// NewTicketHandler creates a new TicketHandler
func NewTicketHandler(queueService service.QueueService, tokenConfig *middleware.AdminTokenConfig) *TicketHandler {
	return &TicketHandler{
		queueService: queueService,
		tokenConfig:  tokenConfig,
	}
}

// eventQuery reads the event scope from ?event_id=, falling back to ?event=
func eventQuery(c *gin.Context) string {
	if eventID := c.Query("event_id"); eventID != "" {
		return eventID
	}
	return c.Query("event")
}

// List handles GET /api/tickets?event_id=
func (h *TicketHandler) List(c *gin.Context) {
	tickets, err := h.queueService.ListTickets(c.Request.Context(), eventQuery(c))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.List(dto.ToTicketResponses(tickets), len(tickets)))
}

// Create handles POST /api/tickets
func (h *TicketHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.ticket.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		telemetry.FailSpan(span, err, "invalid request")
		invalidBody(c, err)
		return
	}

	span.SetAttributes(telemetry.EventIDAttr(req.EventID))

	ticket, err := h.queueService.CreateTicket(ctx, &req)
	if err != nil {
		telemetry.FailSpan(span, err, "create ticket failed")
		handleError(c, err)
		return
	}

	span.SetAttributes(
		telemetry.TicketIDAttr(ticket.ID),
		telemetry.TicketNumberAttr(ticket.Number),
	)
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, response.Success(dto.ToTicketResponse(ticket)))
}

// Get handles GET /api/tickets/:id
func (h *TicketHandler) Get(c *gin.Context) {
	ticket, err := h.queueService.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.ToTicketResponse(ticket)))
}

// Position handles GET /api/tickets/:id/position
func (h *TicketHandler) Position(c *gin.Context) {
	result, err := h.queueService.GetPosition(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Patch handles PATCH and PUT /api/tickets/:id
func (h *TicketHandler) Patch(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.ticket.patch")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	ticketID := c.Param("id")
	span.SetAttributes(telemetry.TicketIDAttr(ticketID))

	var req dto.PatchTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		telemetry.FailSpan(span, err, "invalid request")
		invalidBody(c, err)
		return
	}

	if !h.authorizeTicket(c, ticketID) {
		span.SetStatus(codes.Error, "forbidden")
		return
	}

	ticket, err := h.queueService.PatchTicket(ctx, ticketID, &req)
	if err != nil {
		telemetry.FailSpan(span, err, "patch ticket failed")
		handleError(c, err)
		return
	}

	span.SetAttributes(telemetry.TicketStatusAttr(string(ticket.Status)))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Success(dto.ToTicketResponse(ticket)))
}

// Delete handles DELETE /api/tickets/:id
func (h *TicketHandler) Delete(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.ticket.delete")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	ticketID := c.Param("id")
	span.SetAttributes(telemetry.TicketIDAttr(ticketID))

	if !h.authorizeTicket(c, ticketID) {
		span.SetStatus(codes.Error, "forbidden")
		return
	}

	deleted, err := h.queueService.DeleteTicket(ctx, ticketID)
	if err != nil {
		telemetry.FailSpan(span, err, "delete ticket failed")
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Success(&dto.DeleteTicketResponse{ID: ticketID, Deleted: deleted}))
}

// Clear handles DELETE /api/tickets/clear?event_id=<id>|all
func (h *TicketHandler) Clear(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.ticket.clear")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	scope := eventQuery(c)
	span.SetAttributes(telemetry.EventIDAttr(scope))

	if scope != "" && h.tokenConfig != nil && h.tokenConfig.Required {
		// an admin token is scoped to one event and never clears them all
		if scope == dto.ClearScopeAll || !middleware.CanAdminister(c, h.tokenConfig, scope) {
			span.SetStatus(codes.Error, "forbidden")
			c.JSON(http.StatusForbidden, response.Forbidden("Admin token does not grant access to this scope"))
			return
		}
	}

	removed, err := h.queueService.ClearTickets(ctx, scope)
	if err != nil {
		telemetry.FailSpan(span, err, "clear tickets failed")
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, response.Success(&dto.ClearTicketsResponse{Scope: scope, Removed: removed}))
}

// authorizeTicket checks the admin token against the ticket's event.
// It writes the error response and returns false when access is denied.
func (h *TicketHandler) authorizeTicket(c *gin.Context, ticketID string) bool {
	if h.tokenConfig == nil || !h.tokenConfig.Required {
		return true
	}

	ticket, err := h.queueService.GetTicket(c.Request.Context(), ticketID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// missing tickets are reported by the operation itself
			return true
		}
		handleError(c, err)
		return false
	}

	if !middleware.CanAdminister(c, h.tokenConfig, ticket.EventID) {
		c.JSON(http.StatusForbidden, response.Forbidden("Admin token does not grant access to this event"))
		return false
	}
	return true
}
