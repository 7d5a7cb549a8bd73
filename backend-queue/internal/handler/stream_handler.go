package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/prohmpiriya/take-a-number/backend-queue/internal/dto"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/notifier"
	"github.com/prohmpiriya/take-a-number/backend-queue/internal/service"
	"github.com/prohmpiriya/take-a-number/pkg/logger"
	"github.com/prohmpiriya/take-a-number/pkg/redis"
	"github.com/prohmpiriya/take-a-number/pkg/telemetry"
)

// Stream message types
const (
	StreamSnapshot = "snapshot"
	StreamUpdate   = "update"
	StreamTimeout  = "timeout"
)

// StreamConfig holds live stream timings
type StreamConfig struct {
	Keepalive    time.Duration
	PollInterval time.Duration
	MaxDuration  time.Duration
}

// DefaultStreamConfig returns default stream timings
func DefaultStreamConfig() *StreamConfig {
	return &StreamConfig{
		Keepalive:    15 * time.Second,
		PollInterval: 2 * time.Second,
		MaxDuration:  5 * time.Minute,
	}
}

// StreamHandler pushes live "now serving" updates over server-sent events
type StreamHandler struct {
	queueService service.QueueService
	redisClient  *redis.Client // For Pub/Sub subscription; nil falls back to polling
	config       *StreamConfig
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(queueService service.QueueService, redisClient *redis.Client, config *StreamConfig) *StreamHandler {
	if config == nil {
		config = DefaultStreamConfig()
	}
	return &StreamHandler{
		queueService: queueService,
		redisClient:  redisClient,
		config:       config,
	}
}

// Stream handles GET /api/events/:id/stream (SSE)
func (h *StreamHandler) Stream(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.stream")
	defer span.End()

	eventID := c.Param("id")
	span.SetAttributes(telemetry.EventIDAttr(eventID))

	snapshot, err := h.queueService.NowServing(ctx, eventID)
	if err != nil {
		telemetry.FailSpan(span, err, "stream failed")
		handleError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering
	c.Status(http.StatusOK)

	// the server write timeout does not apply to a long-lived stream
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	h.writeMessage(c, &dto.StreamMessage{Type: StreamSnapshot, NowServing: snapshot})

	if h.redisClient != nil {
		h.streamWithPubSub(c, ctx, eventID)
	} else {
		h.streamWithPolling(c, ctx, eventID, snapshot)
	}

	span.SetStatus(codes.Ok, "")
}

// streamWithPubSub refreshes the view whenever a queue change is published for the event
func (h *StreamHandler) streamWithPubSub(c *gin.Context, ctx context.Context, eventID string) {
	pubsub := h.redisClient.Subscribe(ctx, notifier.Channel(eventID), notifier.Channel(notifier.ScopeAll))
	defer pubsub.Close()

	msgChan := pubsub.Channel()

	keepalive := time.NewTicker(h.config.Keepalive)
	defer keepalive.Stop()

	maxWait := time.NewTimer(h.config.MaxDuration)
	defer maxWait.Stop()

	for {
		select {
		case <-ctx.Done():
			// Client disconnected
			return

		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			var change notifier.QueueEvent
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				logger.WarnCtx(ctx, "invalid queue change payload", zap.Error(err))
				continue
			}

			view, err := h.queueService.NowServing(ctx, eventID)
			if err != nil {
				return
			}
			h.writeMessage(c, &dto.StreamMessage{Type: StreamUpdate, TicketID: change.TicketID, NowServing: view})

		case <-keepalive.C:
			h.writeKeepalive(c)

		case <-maxWait.C:
			h.writeMessage(c, &dto.StreamMessage{Type: StreamTimeout})
			return
		}
	}
}

// streamWithPolling is the fallback when Redis Pub/Sub is unavailable.
// It only writes when the view changed since the last message.
func (h *StreamHandler) streamWithPolling(c *gin.Context, ctx context.Context, eventID string, last *dto.NowServingResponse) {
	ticker := time.NewTicker(h.config.PollInterval)
	defer ticker.Stop()

	keepalive := time.NewTicker(h.config.Keepalive)
	defer keepalive.Stop()

	maxWait := time.NewTimer(h.config.MaxDuration)
	defer maxWait.Stop()

	lastPayload, _ := json.Marshal(last)

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			view, err := h.queueService.NowServing(ctx, eventID)
			if err != nil {
				return
			}
			payload, _ := json.Marshal(view)
			if bytes.Equal(payload, lastPayload) {
				continue
			}
			lastPayload = payload
			h.writeMessage(c, &dto.StreamMessage{Type: StreamUpdate, NowServing: view})

		case <-keepalive.C:
			h.writeKeepalive(c)

		case <-maxWait.C:
			h.writeMessage(c, &dto.StreamMessage{Type: StreamTimeout})
			return
		}
	}
}

func (h *StreamHandler) writeMessage(c *gin.Context, msg *dto.StreamMessage) {
	data, _ := json.Marshal(msg)
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", msg.Type, data)
	c.Writer.Flush()
}

func (h *StreamHandler) writeKeepalive(c *gin.Context) {
	c.Writer.WriteString(":keepalive\n\n")
	c.Writer.Flush()
}
