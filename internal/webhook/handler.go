package webhook

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-events/internal/adapter"
	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/messaging"
	"github.com/feral-file/ff-chain-events/internal/normalizer"
)

const (
	DEFAULT_TIMESTAMP_TOLERANCE = 5 * time.Minute
	DEFAULT_MAX_BODY_SIZE       = 1 << 20
)

// Config holds the inbound webhook settings
type Config struct {
	Secret             string
	TimestampTolerance time.Duration
	MaxBodySize        int64
}

// Handler receives signed external events and relays them to the broker
type Handler struct {
	config     Config
	normalizer normalizer.Normalizer
	publisher  messaging.Publisher
	io         adapter.IO
	clock      adapter.Clock
}

// NewHandler creates a new webhook handler
func NewHandler(cfg Config, norm normalizer.Normalizer, publisher messaging.Publisher, io adapter.IO, clock adapter.Clock) *Handler {
	if cfg.TimestampTolerance <= 0 {
		cfg.TimestampTolerance = DEFAULT_TIMESTAMP_TOLERANCE
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DEFAULT_MAX_BODY_SIZE
	}

	return &Handler{
		config:     cfg,
		normalizer: norm,
		publisher:  publisher,
		io:         io,
		clock:      clock,
	}
}

// Receive handles POST /webhooks/events.
// The signature is verified on the raw body before anything parses it
func (h *Handler) Receive(c *gin.Context) {
	ctx := c.Request.Context()
	eventID := c.GetHeader(HeaderEventID)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.MaxBodySize)
	body, err := h.io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, Response{EventID: eventID, Code: "payload_too_large", Message: "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, Response{EventID: eventID, Code: "bad_request", Message: "failed to read request body"})
		return
	}

	now := h.clock.Now()
	if err := Verify(h.config.Secret, c.GetHeader(HeaderSignature), c.GetHeader(HeaderTimestamp), eventID, body, now, h.config.TimestampTolerance); err != nil {
		logger.WarnCtx(ctx, "Rejected webhook", zap.Error(err), zap.String("event_id", eventID), zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, Response{EventID: eventID, Code: "unauthorized", Message: "invalid signature"})
		return
	}

	// the envelope is built from the signed body only
	raw := domain.RawEvent{
		Variant:    domain.VariantWebhook,
		Payload:    body,
		ReceivedAt: now.UTC(),
	}

	env, err := h.normalizer.Normalize(raw)
	if err != nil {
		if !domain.IsFormatError(err) {
			logger.ErrorCtx(ctx, err, zap.String("event_id", eventID))
			c.JSON(http.StatusInternalServerError, Response{EventID: eventID, Code: "internal_error", Message: "failed to normalize event"})
			return
		}

		if dlErr := h.publisher.PublishDeadLetter(ctx, raw.Network, body, err.Error()); dlErr != nil {
			logger.WarnCtx(ctx, "Failed to dead-letter webhook payload", zap.Error(dlErr), zap.String("event_id", eventID))
		}
		c.JSON(http.StatusBadRequest, Response{EventID: eventID, Code: "invalid_payload", Message: err.Error()})
		return
	}

	if err := h.publisher.Publish(ctx, env); err != nil {
		if domain.IsFormatError(err) && !errors.Is(err, domain.ErrTransientBroker) {
			c.JSON(http.StatusBadRequest, Response{EventID: eventID, Code: "invalid_payload", Message: err.Error()})
			return
		}

		logger.ErrorCtx(ctx, err, zap.String("event_id", eventID), logger.Network(string(env.NetworkID)))
		c.JSON(http.StatusServiceUnavailable, Response{EventID: eventID, Code: "unavailable", Message: "failed to relay event"})
		return
	}

	logger.InfoCtx(ctx, "Webhook event relayed",
		zap.String("event_id", eventID),
		logger.Network(string(env.NetworkID)),
		logger.Block(env.Block()))

	c.JSON(http.StatusAccepted, Response{EventID: eventID})
}
