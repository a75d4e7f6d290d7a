package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
	"github.com/greenbridge/rocketchat-bridge/internal/biz/repo"
)

// Guard authorizes every inbound command and webhook before any business
// logic runs. Check ordering is fixed: role marker, then credential
// liveness, then workspace token, so the cheapest and most specific
// condition fails first.
type Guard struct {
	storage repo.Storage
	rocket  repo.RocketChatRepo
	log     zerolog.Logger
}

// NewGuard creates a Guard.
func NewGuard(storage repo.Storage, rocket repo.RocketChatRepo, log zerolog.Logger) *Guard {
	return &Guard{
		storage: storage,
		rocket:  rocket,
		log:     log.With().Str("component", "guard").Logger(),
	}
}

// ResolvedWebhook is the identity hydrated onto an authorized chat-platform
// webhook.
type ResolvedWebhook struct {
	Workspace *domain.Workspace
	User      *domain.User
	Instance  *domain.Instance
}

// AuthorizeCommand gates a slash-command request.
func (g *Guard) AuthorizeCommand(ctx context.Context, cmd *domain.Command) error {
	switch cmd.Type {
	case domain.CmdRegisterWorkspace:
		// Bootstrap case: no prior token exists to check.
		return nil

	case domain.CmdRegisterAgent, domain.CmdCreateInstance, domain.CmdUpdateToken:
		if !cmd.HasRole(domain.RoleLivechatAgent) {
			return domain.NewAuthorizationError("command %q requires the livechat-agent role", cmd.Type)
		}
		if cmd.Type == domain.CmdCreateInstance {
			return nil
		}
		return g.verifyCredentials(ctx, cmd)

	case domain.CmdListInstances, domain.CmdListUsers, domain.CmdRemoveInstance, domain.CmdSyncAppURL:
		if !cmd.HasRole(domain.RoleAdmin) {
			return domain.NewAuthorizationError("command %q requires the admin role", cmd.Type)
		}
		workspace, err := g.storage.Workspaces.FindByURL(ctx, cmd.RocketChatURL)
		if err != nil {
			return err
		}
		if workspace == nil {
			return domain.NewNotFoundError("workspace not found")
		}
		if cmd.CommandToken != workspace.CommandToken {
			return domain.NewAuthorizationError("invalid command token")
		}
		return nil

	default:
		return domain.NewValidationError("unknown command %q", cmd.Type)
	}
}

// verifyCredentials checks that the asserted Rocket.Chat id/token pair
// actually authenticates as the asserted email, so an agent cannot register
// credentials on another agent's behalf.
func (g *Guard) verifyCredentials(ctx context.Context, cmd *domain.Command) error {
	me, err := g.rocket.Me(ctx, repo.RocketChatCredentials{
		BaseURL: cmd.RocketChatURL,
		UserID:  cmd.RocketChatID,
		Token:   cmd.RocketChatToken,
	})
	if err != nil {
		return domain.NewAuthorizationError("could not verify Rocket.Chat credentials")
	}
	if !strings.EqualFold(me.Email, cmd.Email) {
		return domain.NewAuthorizationError("credentials do not belong to %s", cmd.Email)
	}
	return nil
}

// AuthorizeRocketWebhook gates an inbound livechat webhook and resolves the
// workspace, user and instance it belongs to. token is the value of the
// X-Rocketchat-Livechat-Token header.
func (g *Guard) AuthorizeRocketWebhook(ctx context.Context, token string, webhook *domain.RocketChatWebhook) (*ResolvedWebhook, error) {
	if token == "" {
		return nil, domain.NewAuthorizationError("X-Rocketchat-Livechat-Token header is missing")
	}
	if webhook.Agent.Email == "" || len(webhook.Messages) == 0 {
		return nil, domain.NewValidationError("invalid webhook format")
	}

	user, err := g.storage.Users.FindByEmail(ctx, webhook.Agent.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewNotFoundError("no user with such credentials")
	}

	workspace, err := g.storage.Workspaces.FindByID(ctx, user.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return nil, domain.NewNotFoundError("workspace not found")
	}
	if workspace.WebhookToken != token {
		return nil, domain.NewAuthorizationError("invalid webhook token")
	}

	instance, err := g.resolveInstance(ctx, workspace, user, webhook)
	if err != nil {
		return nil, err
	}

	return &ResolvedWebhook{Workspace: workspace, User: user, Instance: instance}, nil
}

// resolveInstance routes a webhook to its instance: the room mapping is
// authoritative when present, otherwise the visitor token's embedded
// instance identity is matched against the workspace's instances. A miss on
// both is a rejection, not a silent drop.
func (g *Guard) resolveInstance(ctx context.Context, workspace *domain.Workspace, user *domain.User, webhook *domain.RocketChatWebhook) (*domain.Instance, error) {
	roomID := webhook.Messages[0].Rid
	if roomID != "" {
		instance, err := g.storage.RoomMappings.FindInstance(ctx, roomID, user.ID)
		if err != nil {
			return nil, err
		}
		if instance != nil {
			return instance, nil
		}
	}

	// Visitor token format: "greenapi:<instance phone>:<sender phone>".
	parts := strings.Split(webhook.Visitor.Token, ":")
	if len(parts) >= 2 && parts[1] != "" {
		instance, err := g.storage.Instances.FindByWid(ctx, workspace.ID, parts[1]+"@c.us")
		if err != nil {
			return nil, err
		}
		if instance != nil {
			return instance, nil
		}
	}

	return nil, domain.NewNotFoundError("instance by phone number is not found")
}

// AuthorizeGreenAPIWebhook gates an inbound GREEN-API webhook and resolves
// the instance it came from. authHeader is the raw Authorization header; the
// bearer token must match the instance's webhookUrlToken when one is set.
func (g *Guard) AuthorizeGreenAPIWebhook(ctx context.Context, authHeader string, webhook *domain.GreenAPIWebhook) (*domain.Instance, error) {
	instance, err := g.storage.Instances.GetByIDInstance(ctx, webhook.InstanceData.IDInstance)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, domain.NewNotFoundError("unknown instance %d", webhook.InstanceData.IDInstance)
	}

	if expected := instance.Settings.WebhookURLToken; expected != "" {
		got := strings.TrimPrefix(authHeader, "Bearer ")
		if got != expected {
			return nil, domain.NewAuthorizationError("invalid webhook authorization token")
		}
	}
	return instance, nil
}
