package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
	"github.com/greenbridge/rocketchat-bridge/internal/biz/repo"
)

// Webhook paths the bridge exposes; commands point platform webhooks here.
const (
	GreenAPIWebhookPath   = "/api/webhook/green-api"
	RocketChatWebhookPath = "/api/webhook/rocket"
)

// RegisterWorkspaceResult carries the freshly generated workspace tokens back
// to the slash-command front end, which stores them in its app settings.
type RegisterWorkspaceResult struct {
	CommandToken string `json:"commandToken"`
	WebhookToken string `json:"webhookToken"`
}

// MessageResult is a plain in-band message outcome.
type MessageResult struct {
	Message string `json:"message"`
}

// InstanceResult references the instance a command acted on.
type InstanceResult struct {
	IDInstance int64 `json:"idInstance"`
}

// SyncFailure is one failed instance update inside a sync-app-url fan-out.
type SyncFailure struct {
	IDInstance int64  `json:"idInstance"`
	Error      string `json:"error"`
}

// SyncSummary reports the outcome of a sync-app-url fan-out. Partial failure
// degrades to this summary instead of failing the request.
type SyncSummary struct {
	Updated int           `json:"updated"`
	Failed  []SyncFailure `json:"failed,omitempty"`
}

// CommandDispatcher executes tenant/user/instance lifecycle commands. Each
// command is a single request/response transaction; authorization has already
// happened in the Guard.
type CommandDispatcher struct {
	storage repo.Storage
	green   repo.GreenAPIRepo
	rocket  repo.RocketChatRepo
	appURL  string
	log     zerolog.Logger
}

// NewCommandDispatcher creates a CommandDispatcher. appURL is the public base
// URL of this bridge, used when pointing platform webhooks back at it.
func NewCommandDispatcher(storage repo.Storage, green repo.GreenAPIRepo, rocket repo.RocketChatRepo, appURL string, log zerolog.Logger) *CommandDispatcher {
	return &CommandDispatcher{
		storage: storage,
		green:   green,
		rocket:  rocket,
		appURL:  strings.TrimSuffix(appURL, "/"),
		log:     log.With().Str("component", "commands").Logger(),
	}
}

// Handle dispatches a command to its handler.
func (d *CommandDispatcher) Handle(ctx context.Context, cmd *domain.Command) (any, error) {
	switch cmd.Type {
	case domain.CmdRegisterWorkspace:
		return d.registerWorkspace(ctx, cmd)
	case domain.CmdRegisterAgent:
		return d.registerAgent(ctx, cmd)
	case domain.CmdUpdateToken:
		return d.updateToken(ctx, cmd)
	case domain.CmdCreateInstance:
		return d.createInstance(ctx, cmd)
	case domain.CmdRemoveInstance:
		return d.removeInstance(ctx, cmd)
	case domain.CmdSyncAppURL:
		return d.syncAppURL(ctx, cmd)
	case domain.CmdListInstances:
		return d.listInstances(ctx, cmd)
	case domain.CmdListUsers:
		return d.listUsers(ctx, cmd)
	default:
		return nil, domain.NewValidationError("unknown command %q", cmd.Type)
	}
}

func (d *CommandDispatcher) registerWorkspace(ctx context.Context, cmd *domain.Command) (any, error) {
	if cmd.RocketChatURL == "" || cmd.RocketChatID == "" || cmd.RocketChatToken == "" {
		return nil, domain.NewValidationError("all fields are required")
	}

	existing, err := d.storage.Workspaces.FindByURL(ctx, cmd.RocketChatURL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewValidationError("workspace is already registered")
	}

	commandToken := generateToken(16)
	webhookToken := generateToken(20)

	// Remote registration comes first: if it fails, no local workspace record
	// may remain. A dangling remote webhook from the reverse failure is
	// harmless and overwritten by the next successful registration.
	err = d.rocket.RegisterWebhook(ctx, repo.RocketChatCredentials{
		BaseURL: cmd.RocketChatURL,
		UserID:  cmd.RocketChatID,
		Token:   cmd.RocketChatToken,
	}, repo.WebhookRegistration{
		WebhookURL:  d.appURL + RocketChatWebhookPath,
		SecretToken: webhookToken,
	})
	if err != nil {
		d.log.Error().Err(err).Str("workspace", cmd.RocketChatURL).Msg("rocket.chat webhook registration failed")
		return nil, err
	}

	if _, err := d.storage.Workspaces.Create(ctx, &domain.Workspace{
		URL:          cmd.RocketChatURL,
		CommandToken: commandToken,
		WebhookToken: webhookToken,
	}); err != nil {
		return nil, err
	}

	return &RegisterWorkspaceResult{CommandToken: commandToken, WebhookToken: webhookToken}, nil
}

func (d *CommandDispatcher) registerAgent(ctx context.Context, cmd *domain.Command) (any, error) {
	if cmd.Email == "" || cmd.RocketChatURL == "" || cmd.RocketChatID == "" || cmd.RocketChatToken == "" {
		return nil, domain.NewValidationError("all fields are required")
	}

	workspace, err := d.storage.Workspaces.FindByURL(ctx, cmd.RocketChatURL)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return nil, domain.NewNotFoundError("workspace not found")
	}

	existing, err := d.storage.Users.FindByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewValidationError("user %s is already registered", cmd.Email)
	}

	if _, err := d.storage.Users.Create(ctx, &domain.User{
		WorkspaceID:     workspace.ID,
		Email:           cmd.Email,
		RocketChatID:    cmd.RocketChatID,
		RocketChatToken: cmd.RocketChatToken,
	}); err != nil {
		return nil, err
	}

	return &MessageResult{Message: "success"}, nil
}

func (d *CommandDispatcher) updateToken(ctx context.Context, cmd *domain.Command) (any, error) {
	if cmd.Email == "" || cmd.RocketChatID == "" || cmd.RocketChatToken == "" {
		return nil, domain.NewValidationError("rocket.chat ID and rocket.chat token are required")
	}

	user, err := d.storage.Users.FindByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewNotFoundError("user not found")
	}

	if err := d.storage.Users.UpdateCredentials(ctx, cmd.Email, cmd.RocketChatID, cmd.RocketChatToken); err != nil {
		return nil, err
	}
	return &MessageResult{Message: "success"}, nil
}

func (d *CommandDispatcher) createInstance(ctx context.Context, cmd *domain.Command) (any, error) {
	if cmd.IDInstance == 0 || cmd.APITokenInstance == "" || cmd.Email == "" {
		return nil, domain.NewValidationError("instance ID and token are required")
	}

	existing, err := d.storage.Instances.GetByIDInstance(ctx, cmd.IDInstance)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewValidationError("instance already exists")
	}

	user, err := d.storage.Users.FindByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewNotFoundError("user not found")
	}

	waSettings, err := d.green.GetWaSettings(ctx, cmd.IDInstance, cmd.APITokenInstance)
	if err != nil {
		return nil, &domain.IntegrationError{
			Message: fmt.Sprintf("failed to get settings for instance %d: %v", cmd.IDInstance, err),
		}
	}

	settings := domain.InstanceSettings{
		WebhookURL:         d.appURL + GreenAPIWebhookPath,
		WebhookURLToken:    generateToken(16),
		IncomingWebhook:    "yes",
		PollMessageWebhook: "yes",
		StateWebhook:       "yes",
	}
	if waSettings.Phone != "" {
		settings.Wid = waSettings.Phone + "@c.us"
	}

	instance, err := d.storage.Instances.Create(ctx, &domain.Instance{
		IDInstance:       cmd.IDInstance,
		APITokenInstance: cmd.APITokenInstance,
		UserID:           user.ID,
		WorkspaceID:      user.WorkspaceID,
		Settings:         settings,
		StateInstance:    waSettings.StateInstance,
	})
	if err != nil {
		return nil, err
	}

	// Best effort: GREEN-API applies settings asynchronously anyway, so a
	// push failure is logged and the instance stays registered.
	if err := d.green.SetSettings(ctx, cmd.IDInstance, cmd.APITokenInstance, settings); err != nil {
		d.log.Warn().Err(err).Int64("idInstance", cmd.IDInstance).Msg("failed to push instance settings")
	}

	return &InstanceResult{IDInstance: instance.IDInstance}, nil
}

func (d *CommandDispatcher) removeInstance(ctx context.Context, cmd *domain.Command) (any, error) {
	if cmd.IDInstance == 0 {
		return nil, domain.NewValidationError("instance ID is required")
	}

	workspace, err := d.storage.Workspaces.FindByURL(ctx, cmd.RocketChatURL)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return nil, domain.NewNotFoundError("workspace not found")
	}

	instance, err := d.storage.Instances.GetByIDInstance(ctx, cmd.IDInstance)
	if err != nil {
		return nil, err
	}
	if instance == nil || instance.WorkspaceID != workspace.ID {
		return nil, domain.NewNotFoundError("instance not found")
	}

	if err := d.storage.Instances.Remove(ctx, cmd.IDInstance); err != nil {
		return nil, err
	}
	return &InstanceResult{IDInstance: cmd.IDInstance}, nil
}

// syncAppURL re-points every instance of the workspace at a new bridge base
// URL. The fan-out runs concurrently, collects every outcome and degrades to
// a summary; one failing instance never cancels its siblings.
func (d *CommandDispatcher) syncAppURL(ctx context.Context, cmd *domain.Command) (any, error) {
	if cmd.AppURL == "" {
		return nil, domain.NewValidationError("app URL is required")
	}

	workspace, err := d.storage.Workspaces.FindByURL(ctx, cmd.RocketChatURL)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return nil, domain.NewNotFoundError("workspace not found")
	}

	instances, err := d.storage.Instances.ListByWorkspace(ctx, workspace.ID)
	if err != nil {
		return nil, err
	}

	webhookURL := strings.TrimSuffix(cmd.AppURL, "/") + GreenAPIWebhookPath

	errs := make([]error, len(instances))
	var wg sync.WaitGroup
	for i, inst := range instances {
		wg.Add(1)
		go func(i int, inst *domain.Instance) {
			defer wg.Done()
			settings := inst.Settings
			settings.WebhookURL = webhookURL
			errs[i] = d.green.SetSettings(ctx, inst.IDInstance, inst.APITokenInstance, settings)
		}(i, inst)
	}
	wg.Wait()

	summary := &SyncSummary{}
	for i, inst := range instances {
		if errs[i] != nil {
			summary.Failed = append(summary.Failed, SyncFailure{
				IDInstance: inst.IDInstance,
				Error:      errs[i].Error(),
			})
			d.log.Warn().Err(errs[i]).Int64("idInstance", inst.IDInstance).Msg("sync-app-url update failed")
			continue
		}
		summary.Updated++
	}
	return summary, nil
}

func (d *CommandDispatcher) listInstances(ctx context.Context, cmd *domain.Command) (any, error) {
	workspace, err := d.storage.Workspaces.FindByURL(ctx, cmd.RocketChatURL)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return nil, domain.NewNotFoundError("workspace not found")
	}

	instances, err := d.storage.Instances.ListByWorkspace(ctx, workspace.ID)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return &MessageResult{Message: "No instances found in this workspace."}, nil
	}

	blocks := make([]string, 0, len(instances))
	for _, inst := range instances {
		email := ""
		if owner, err := d.storage.Users.FindByID(ctx, inst.UserID); err == nil && owner != nil {
			email = owner.Email
		}
		blocks = append(blocks, fmt.Sprintf("Instance ID: %d\nStatus: %s\nUser: %s\nCreated: %s",
			inst.IDInstance, inst.StateInstance, email, inst.CreatedAt.Format(time.DateTime)))
	}

	return &MessageResult{Message: fmt.Sprintf("Found %d instances in workspace:\n\n%s",
		len(instances), strings.Join(blocks, "\n\n"))}, nil
}

func (d *CommandDispatcher) listUsers(ctx context.Context, cmd *domain.Command) (any, error) {
	workspace, err := d.storage.Workspaces.FindByURL(ctx, cmd.RocketChatURL)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return nil, domain.NewNotFoundError("workspace not found")
	}

	users, err := d.storage.Users.ListByWorkspace(ctx, workspace.ID)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return &MessageResult{Message: "No users found in this workspace."}, nil
	}

	blocks := make([]string, 0, len(users))
	for _, user := range users {
		count, err := d.storage.Users.CountInstances(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, fmt.Sprintf("Email: %s\nRocketChat ID: %s\nCreated: %s\nActive Instances: %d",
			user.Email, user.RocketChatID, user.CreatedAt.Format(time.DateTime), count))
	}

	return &MessageResult{Message: fmt.Sprintf("Found %d users in workspace:\n\n%s",
		len(users), strings.Join(blocks, "\n\n"))}, nil
}

// generateToken returns a hex-encoded random token of n bytes.
func generateToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}
