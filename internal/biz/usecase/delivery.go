package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
	"github.com/greenbridge/rocketchat-bridge/internal/biz/repo"
)

// DeliveryPipeline moves canonical messages into Rocket.Chat and agent
// replies back out to GREEN-API. Provisioning of visitor and room is
// idempotent by construction of the visitor token, not by dedup logic.
type DeliveryPipeline struct {
	storage repo.Storage
	rocket  repo.RocketChatRepo
	green   repo.GreenAPIRepo
	log     zerolog.Logger
}

// NewDeliveryPipeline creates a DeliveryPipeline.
func NewDeliveryPipeline(storage repo.Storage, rocket repo.RocketChatRepo, green repo.GreenAPIRepo, log zerolog.Logger) *DeliveryPipeline {
	return &DeliveryPipeline{
		storage: storage,
		rocket:  rocket,
		green:   green,
		log:     log.With().Str("component", "delivery").Logger(),
	}
}

// Deliver provisions the livechat side for a canonical message and dispatches
// it. Every failure is caught here, logged with response context and
// surfaced as an IntegrationError; it is never retried.
func (p *DeliveryPipeline) Deliver(ctx context.Context, msg *domain.CanonicalMessage, instance *domain.Instance) error {
	if err := p.deliver(ctx, msg, instance); err != nil {
		p.logFailure(err, msg.MessageID)
		var ie *domain.IntegrationError
		if errors.As(err, &ie) {
			return err
		}
		return &domain.IntegrationError{Message: err.Error()}
	}
	return nil
}

func (p *DeliveryPipeline) deliver(ctx context.Context, msg *domain.CanonicalMessage, instance *domain.Instance) error {
	user, err := p.storage.Users.FindByID(ctx, instance.UserID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return domain.NewNotFoundError("user %d not found", instance.UserID)
	}

	workspace, err := p.storage.Workspaces.FindByID(ctx, user.WorkspaceID)
	if err != nil {
		return fmt.Errorf("find workspace: %w", err)
	}
	if workspace == nil {
		return domain.NewNotFoundError("workspace %d not found", user.WorkspaceID)
	}

	creds := repo.RocketChatCredentials{
		BaseURL: workspace.URL,
		UserID:  user.RocketChatID,
		Token:   user.RocketChatToken,
	}

	senderPhone := domain.CleanChatID(msg.ChatID)
	visitorToken := fmt.Sprintf("%s:%s:%s", domain.MessageIDPrefix, instance.Settings.Phone(), senderPhone)

	visitor, err := p.rocket.CreateVisitor(ctx, creds, visitorToken, msg.SenderName, senderPhone, domain.MessageIDPrefix+":"+msg.ChatID)
	if err != nil {
		return fmt.Errorf("create visitor: %w", err)
	}

	room, err := p.rocket.CreateRoom(ctx, creds, visitor.Token, user.RocketChatID)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}

	// Opportunistic: routing falls back to wid resolution when the mapping
	// is missing, so a mapping failure must not block the message.
	if err := p.storage.RoomMappings.Create(ctx, room.RID, user.ID, instance.ID); err != nil {
		p.log.Warn().Err(err).Str("room", room.RID).Msg("failed to persist room mapping")
	}

	if msg.File != nil {
		if err := p.rocket.UploadFile(ctx, creds, visitor.Token, room.RID, msg.File.URL, msg.File.FileName, msg.File.Caption); err != nil {
			return fmt.Errorf("upload file: %w", err)
		}
		return nil
	}

	messageID := fmt.Sprintf("%s:%s", domain.MessageIDPrefix, msg.MessageID)
	if err := p.rocket.SendMessage(ctx, creds, visitor.Token, room.RID, msg.Text, messageID); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// DispatchOutbound sends an agent message to GREEN-API. On failure the error
// is rendered back into the livechat room, prefixed with the fixed marker the
// outbound filter recognizes, so the agent sees the delivery failure without
// the bridge echoing it forever.
func (p *DeliveryPipeline) DispatchOutbound(ctx context.Context, webhook *domain.RocketChatWebhook, out *OutboundMessage, resolved *ResolvedWebhook) error {
	instance := resolved.Instance

	var err error
	switch {
	case out.File != nil:
		err = p.green.SendFileByURL(ctx, instance.IDInstance, instance.APITokenInstance, *out.File)
	case out.Text != nil:
		err = p.green.SendText(ctx, instance.IDInstance, instance.APITokenInstance, *out.Text)
	default:
		return domain.NewValidationError("outbound message carries neither text nor file")
	}
	if err == nil {
		return nil
	}

	p.logFailure(err, webhook.Messages[0].ID)
	p.notifyRoom(ctx, webhook, resolved, err)

	var ie *domain.IntegrationError
	if errors.As(err, &ie) {
		return err
	}
	return &domain.IntegrationError{Message: err.Error()}
}

// notifyRoom posts a visible delivery-failure message into the room the agent
// wrote in. Best effort; a failure here is only logged.
func (p *DeliveryPipeline) notifyRoom(ctx context.Context, webhook *domain.RocketChatWebhook, resolved *ResolvedWebhook, cause error) {
	creds := repo.RocketChatCredentials{
		BaseURL: resolved.Workspace.URL,
		UserID:  resolved.User.RocketChatID,
		Token:   resolved.User.RocketChatToken,
	}
	body := fmt.Sprintf("%s %v", domain.ErrorEchoPrefix, cause)
	rid := webhook.Messages[0].Rid

	if err := p.rocket.SendMessage(ctx, creds, webhook.Visitor.Token, rid, body, uuid.NewString()); err != nil {
		p.log.Error().Err(err).Str("room", rid).Msg("failed to post delivery error into room")
	}
}

func (p *DeliveryPipeline) logFailure(err error, messageID string) {
	evt := p.log.Error().Err(err).Str("messageId", messageID)
	var ie *domain.IntegrationError
	if errors.As(err, &ie) {
		evt = evt.Int("status", ie.Status).Str("response", ie.Body)
	}
	evt.Msg("delivery failed")
}
