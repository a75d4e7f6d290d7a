package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
	"github.com/greenbridge/rocketchat-bridge/internal/biz/usecase"
	"github.com/greenbridge/rocketchat-bridge/internal/worker"
)

// WebhookHandler serves both webhook directions and the command endpoint.
// Webhook endpoints always answer 200 once the body parses: the platforms
// retry on non-2xx, and a bad message would be retried forever.
type WebhookHandler struct {
	guard      *usecase.Guard
	normalizer *usecase.Normalizer
	outbound   *usecase.OutboundTransformer
	commands   *usecase.CommandDispatcher
	delivery   *usecase.DeliveryPipeline
	state      *usecase.StateSync
	pool       *worker.Pool
	limiter    *InstanceLimiter
	log        zerolog.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(
	guard *usecase.Guard,
	normalizer *usecase.Normalizer,
	outbound *usecase.OutboundTransformer,
	commands *usecase.CommandDispatcher,
	delivery *usecase.DeliveryPipeline,
	state *usecase.StateSync,
	pool *worker.Pool,
	limiter *InstanceLimiter,
	log zerolog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		guard:      guard,
		normalizer: normalizer,
		outbound:   outbound,
		commands:   commands,
		delivery:   delivery,
		state:      state,
		pool:       pool,
		limiter:    limiter,
		log:        log.With().Str("component", "api").Logger(),
	}
}

// HandleGreenAPI processes an inbound GREEN-API webhook. Message delivery is
// handed to the worker pool; the webhook is acknowledged immediately.
func (h *WebhookHandler) HandleGreenAPI(c *gin.Context) {
	var webhook domain.GreenAPIWebhook
	if err := c.ShouldBindJSON(&webhook); err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "invalid webhook body"})
		return
	}

	if !h.limiter.Allow(webhook.InstanceData.IDInstance) {
		c.JSON(http.StatusTooManyRequests, gin.H{"message": "rate limit exceeded"})
		return
	}

	instance, err := h.guard.AuthorizeGreenAPIWebhook(c.Request.Context(), c.GetHeader("Authorization"), &webhook)
	if err != nil {
		h.log.Warn().Err(err).Int64("idInstance", webhook.InstanceData.IDInstance).Msg("green-api webhook rejected")
		c.JSON(http.StatusOK, gin.H{"message": err.Error()})
		return
	}

	switch webhook.TypeWebhook {
	case domain.WebhookStateInstance:
		if err := h.state.Handle(c.Request.Context(), &webhook); err != nil {
			h.log.Error().Err(err).Int64("idInstance", webhook.InstanceData.IDInstance).Msg("state sync failed")
			c.JSON(http.StatusOK, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})

	case domain.WebhookIncomingMessage:
		msg, err := h.normalizer.Normalize(&webhook)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"message": err.Error()})
			return
		}
		h.pool.Submit(worker.Job{
			ID: fmt.Sprintf("deliver-%s", msg.MessageID),
			Run: func(ctx context.Context) error {
				return h.delivery.Deliver(ctx, msg, instance)
			},
		})
		c.JSON(http.StatusOK, gin.H{"status": "accepted"})

	default:
		c.JSON(http.StatusOK, gin.H{"message": "unsupported webhook type"})
	}
}

// HandleRocketChat processes an agent-message webhook from a workspace and
// dispatches the reply to GREEN-API synchronously.
func (h *WebhookHandler) HandleRocketChat(c *gin.Context) {
	var webhook domain.RocketChatWebhook
	if err := c.ShouldBindJSON(&webhook); err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "invalid webhook body"})
		return
	}

	token := c.GetHeader("X-Rocketchat-Livechat-Token")
	resolved, err := h.guard.AuthorizeRocketWebhook(c.Request.Context(), token, &webhook)
	if err != nil {
		h.log.Warn().Err(err).Str("agent", webhook.Agent.Email).Msg("rocket.chat webhook rejected")
		c.JSON(http.StatusOK, gin.H{"message": err.Error()})
		return
	}

	out, err := h.outbound.Transform(&webhook, resolved.Workspace.URL)
	if err != nil {
		if errors.Is(err, domain.ErrAgentIdentityMismatch) {
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": err.Error()})
		return
	}

	if err := h.delivery.DispatchOutbound(c.Request.Context(), &webhook, out, resolved); err != nil {
		c.JSON(http.StatusOK, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// HandleCommand executes a slash command. Unlike the webhook endpoints this
// one reports failures with real status codes; the caller is our own
// Rocket.Chat app, not a retrying platform.
func (h *WebhookHandler) HandleCommand(c *gin.Context) {
	var cmd domain.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid command body"})
		return
	}
	cmd.Type = c.Param("command")

	if err := h.guard.AuthorizeCommand(c.Request.Context(), &cmd); err != nil {
		h.writeCommandError(c, err)
		return
	}

	result, err := h.commands.Handle(c.Request.Context(), &cmd)
	if err != nil {
		h.writeCommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *WebhookHandler) writeCommandError(c *gin.Context, err error) {
	var (
		validation    *domain.ValidationError
		authorization *domain.AuthorizationError
		notFound      *domain.NotFoundError
		integration   *domain.IntegrationError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
	case errors.As(err, &authorization):
		c.JSON(http.StatusUnauthorized, gin.H{"error": authorization.Message})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Message})
	case errors.As(err, &integration):
		c.JSON(http.StatusBadGateway, gin.H{"error": integration.Message})
	default:
		h.log.Error().Err(err).Str("command", c.Param("command")).Msg("command failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
