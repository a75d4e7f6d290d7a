package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
)

func newDispatcher(t *testing.T) (*CommandDispatcher, *mockWorkspaceRepo, *mockUserRepo, *mockInstanceRepo, *mockGreenAPIRepo, *mockRocketChatRepo) {
	t.Helper()
	storage, workspaces, users, instances, _ := newMockStorage()
	green := &mockGreenAPIRepo{}
	rocket := &mockRocketChatRepo{}
	d := NewCommandDispatcher(storage, green, rocket, "https://bridge.example.com", testLog)
	return d, workspaces, users, instances, green, rocket
}

func TestRegisterWorkspaceMissingFields(t *testing.T) {
	d, _, _, _, _, _ := newDispatcher(t)

	_, err := d.Handle(context.Background(), &domain.Command{
		Type:          domain.CmdRegisterWorkspace,
		RocketChatURL: "https://chat.example.com",
	})
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRegisterWorkspace(t *testing.T) {
	d, workspaces, _, _, _, rocket := newDispatcher(t)

	result, err := d.Handle(context.Background(), &domain.Command{
		Type:            domain.CmdRegisterWorkspace,
		RocketChatURL:   "https://chat.example.com",
		RocketChatID:    "admin1",
		RocketChatToken: "admintok",
	})
	if err != nil {
		t.Fatalf("register-workspace failed: %v", err)
	}

	tokens, ok := result.(*RegisterWorkspaceResult)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if tokens.CommandToken == "" || tokens.WebhookToken == "" {
		t.Error("expected generated tokens")
	}

	if len(rocket.registered) != 1 {
		t.Fatalf("expected one webhook registration, got %d", len(rocket.registered))
	}
	reg := rocket.registered[0]
	if reg.WebhookURL != "https://bridge.example.com"+RocketChatWebhookPath {
		t.Errorf("unexpected webhook url: %q", reg.WebhookURL)
	}
	if reg.SecretToken != tokens.WebhookToken {
		t.Error("registered secret token does not match the returned one")
	}

	if len(workspaces.created) != 1 {
		t.Fatalf("expected one workspace, got %d", len(workspaces.created))
	}
	if workspaces.created[0].WebhookToken != tokens.WebhookToken {
		t.Error("persisted webhook token does not match the returned one")
	}
}

func TestRegisterWorkspaceRemoteFailureLeavesNoRecord(t *testing.T) {
	d, workspaces, _, _, _, rocket := newDispatcher(t)
	rocket.webhookErr = &domain.IntegrationError{Message: "rocket.chat returned an error", Status: 401}

	_, err := d.Handle(context.Background(), &domain.Command{
		Type:            domain.CmdRegisterWorkspace,
		RocketChatURL:   "https://chat.example.com",
		RocketChatID:    "admin1",
		RocketChatToken: "admintok",
	})
	if err == nil {
		t.Fatal("expected the remote failure to surface")
	}
	if len(workspaces.created) != 0 {
		t.Error("no workspace may be persisted when remote registration fails")
	}
}

func TestRegisterWorkspaceDuplicate(t *testing.T) {
	d, workspaces, _, _, _, _ := newDispatcher(t)
	workspaces.workspaces = append(workspaces.workspaces, &domain.Workspace{ID: 1, URL: "https://chat.example.com"})

	_, err := d.Handle(context.Background(), &domain.Command{
		Type:            domain.CmdRegisterWorkspace,
		RocketChatURL:   "https://chat.example.com",
		RocketChatID:    "admin1",
		RocketChatToken: "admintok",
	})
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRegisterAgent(t *testing.T) {
	d, workspaces, users, _, _, _ := newDispatcher(t)
	workspaces.workspaces = append(workspaces.workspaces, &domain.Workspace{ID: 1, URL: "https://chat.example.com"})

	cmd := &domain.Command{
		Type:            domain.CmdRegisterAgent,
		Email:           "agent@example.com",
		RocketChatURL:   "https://chat.example.com",
		RocketChatID:    "agent1",
		RocketChatToken: "tok",
	}
	if _, err := d.Handle(context.Background(), cmd); err != nil {
		t.Fatalf("register-agent failed: %v", err)
	}
	if len(users.users) != 1 || users.users[0].WorkspaceID != 1 {
		t.Fatalf("unexpected users: %+v", users.users)
	}

	_, err := d.Handle(context.Background(), cmd)
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError on duplicate, got %v", err)
	}
}

func TestRegisterAgentUnknownWorkspace(t *testing.T) {
	d, _, _, _, _, _ := newDispatcher(t)

	_, err := d.Handle(context.Background(), &domain.Command{
		Type:            domain.CmdRegisterAgent,
		Email:           "agent@example.com",
		RocketChatURL:   "https://nowhere.example.com",
		RocketChatID:    "agent1",
		RocketChatToken: "tok",
	})
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestUpdateToken(t *testing.T) {
	d, _, users, _, _, _ := newDispatcher(t)
	users.users = append(users.users, &domain.User{ID: 1, Email: "agent@example.com"})

	_, err := d.Handle(context.Background(), &domain.Command{
		Type:            domain.CmdUpdateToken,
		Email:           "agent@example.com",
		RocketChatID:    "agent1-new",
		RocketChatToken: "tok-new",
	})
	if err != nil {
		t.Fatalf("update-token failed: %v", err)
	}
	if users.users[0].RocketChatToken != "tok-new" {
		t.Errorf("token not updated: %+v", users.users[0])
	}
}

func TestUpdateTokenUnknownUser(t *testing.T) {
	d, _, _, _, _, _ := newDispatcher(t)

	_, err := d.Handle(context.Background(), &domain.Command{
		Type:            domain.CmdUpdateToken,
		Email:           "nobody@example.com",
		RocketChatID:    "x",
		RocketChatToken: "y",
	})
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestCreateInstance(t *testing.T) {
	d, _, users, instances, green, _ := newDispatcher(t)
	users.users = append(users.users, &domain.User{ID: 1, WorkspaceID: 1, Email: "agent@example.com"})

	result, err := d.Handle(context.Background(), &domain.Command{
		Type:             domain.CmdCreateInstance,
		Email:            "agent@example.com",
		IDInstance:       1101000001,
		APITokenInstance: "api-token",
	})
	if err != nil {
		t.Fatalf("create-instance failed: %v", err)
	}
	if res, ok := result.(*InstanceResult); !ok || res.IDInstance != 1101000001 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if len(instances.instances) != 1 {
		t.Fatalf("expected one instance, got %d", len(instances.instances))
	}
	inst := instances.instances[0]
	if inst.Settings.Wid != "79001112233@c.us" {
		t.Errorf("wid not derived from wa settings: %q", inst.Settings.Wid)
	}
	if inst.Settings.WebhookURL != "https://bridge.example.com"+GreenAPIWebhookPath {
		t.Errorf("unexpected webhook url: %q", inst.Settings.WebhookURL)
	}
	if inst.Settings.WebhookURLToken == "" {
		t.Error("expected a generated webhook token")
	}
	if inst.StateInstance != domain.StateAuthorized {
		t.Errorf("unexpected state: %q", inst.StateInstance)
	}

	if len(green.pushed) != 1 {
		t.Fatalf("expected settings push, got %d", len(green.pushed))
	}
}

func TestCreateInstanceDuplicate(t *testing.T) {
	d, _, users, instances, _, _ := newDispatcher(t)
	users.users = append(users.users, &domain.User{ID: 1, Email: "agent@example.com"})
	instances.instances = append(instances.instances, &domain.Instance{ID: 1, IDInstance: 1101000001})

	_, err := d.Handle(context.Background(), &domain.Command{
		Type:             domain.CmdCreateInstance,
		Email:            "agent@example.com",
		IDInstance:       1101000001,
		APITokenInstance: "api-token",
	})
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreateInstanceUpstreamFailure(t *testing.T) {
	d, _, users, instances, green, _ := newDispatcher(t)
	users.users = append(users.users, &domain.User{ID: 1, Email: "agent@example.com"})
	green.waSettingsErr = &domain.IntegrationError{Message: "green-api returned an error", Status: 403}

	_, err := d.Handle(context.Background(), &domain.Command{
		Type:             domain.CmdCreateInstance,
		Email:            "agent@example.com",
		IDInstance:       1101000001,
		APITokenInstance: "bad-token",
	})
	var integration *domain.IntegrationError
	if !errors.As(err, &integration) {
		t.Fatalf("expected IntegrationError, got %v", err)
	}
	if len(instances.instances) != 0 {
		t.Error("no instance may be persisted when settings cannot be fetched")
	}
}

func TestRemoveInstanceWorkspaceOwnership(t *testing.T) {
	d, workspaces, _, instances, _, _ := newDispatcher(t)
	workspaces.workspaces = append(workspaces.workspaces, &domain.Workspace{ID: 1, URL: "https://chat.example.com"})
	instances.instances = append(instances.instances, &domain.Instance{ID: 1, IDInstance: 1101000001, WorkspaceID: 2})

	_, err := d.Handle(context.Background(), &domain.Command{
		Type:          domain.CmdRemoveInstance,
		RocketChatURL: "https://chat.example.com",
		IDInstance:    1101000001,
	})
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("foreign instance must not be removable, got %v", err)
	}

	instances.instances[0].WorkspaceID = 1
	if _, err := d.Handle(context.Background(), &domain.Command{
		Type:          domain.CmdRemoveInstance,
		RocketChatURL: "https://chat.example.com",
		IDInstance:    1101000001,
	}); err != nil {
		t.Fatalf("remove-instance failed: %v", err)
	}
	if len(instances.removed) != 1 || instances.removed[0] != 1101000001 {
		t.Errorf("unexpected removals: %v", instances.removed)
	}
}

func TestSyncAppURLPartialFailure(t *testing.T) {
	d, workspaces, _, instances, green, _ := newDispatcher(t)
	workspaces.workspaces = append(workspaces.workspaces, &domain.Workspace{ID: 1, URL: "https://chat.example.com"})
	for i := int64(1); i <= 3; i++ {
		instances.instances = append(instances.instances, &domain.Instance{
			ID: i, IDInstance: 1101000000 + i, WorkspaceID: 1,
		})
	}
	green.failFor = map[int64]error{
		1101000002: &domain.IntegrationError{Message: "green-api returned an error", Status: 500},
	}

	result, err := d.Handle(context.Background(), &domain.Command{
		Type:          domain.CmdSyncAppURL,
		RocketChatURL: "https://chat.example.com",
		AppURL:        "https://new-bridge.example.com/",
	})
	if err != nil {
		t.Fatalf("sync-app-url must degrade, not fail: %v", err)
	}

	summary, ok := result.(*SyncSummary)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if summary.Updated != 2 {
		t.Errorf("expected 2 updated, got %d", summary.Updated)
	}
	if len(summary.Failed) != 1 || summary.Failed[0].IDInstance != 1101000002 {
		t.Errorf("unexpected failures: %+v", summary.Failed)
	}

	for _, pushed := range green.pushed {
		if pushed.WebhookURL != "https://new-bridge.example.com"+GreenAPIWebhookPath {
			t.Errorf("unexpected pushed webhook url: %q", pushed.WebhookURL)
		}
	}
}

func TestListInstancesEmpty(t *testing.T) {
	d, workspaces, _, _, _, _ := newDispatcher(t)
	workspaces.workspaces = append(workspaces.workspaces, &domain.Workspace{ID: 1, URL: "https://chat.example.com"})

	result, err := d.Handle(context.Background(), &domain.Command{
		Type:          domain.CmdListInstances,
		RocketChatURL: "https://chat.example.com",
	})
	if err != nil {
		t.Fatalf("list-instances failed: %v", err)
	}
	msg, ok := result.(*MessageResult)
	if !ok || msg.Message != "No instances found in this workspace." {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestListUsers(t *testing.T) {
	d, workspaces, users, _, _, _ := newDispatcher(t)
	workspaces.workspaces = append(workspaces.workspaces, &domain.Workspace{ID: 1, URL: "https://chat.example.com"})
	users.users = append(users.users, &domain.User{ID: 1, WorkspaceID: 1, Email: "agent@example.com", RocketChatID: "agent1"})

	result, err := d.Handle(context.Background(), &domain.Command{
		Type:          domain.CmdListUsers,
		RocketChatURL: "https://chat.example.com",
	})
	if err != nil {
		t.Fatalf("list-users failed: %v", err)
	}
	msg, ok := result.(*MessageResult)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if !strings.HasPrefix(msg.Message, "Found 1 users in workspace:") {
		t.Errorf("unexpected message: %q", msg.Message)
	}
	if !strings.Contains(msg.Message, "Email: agent@example.com") {
		t.Errorf("missing user block: %q", msg.Message)
	}
}

func TestUnknownCommand(t *testing.T) {
	d, _, _, _, _, _ := newDispatcher(t)

	_, err := d.Handle(context.Background(), &domain.Command{Type: "self-destruct"})
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
