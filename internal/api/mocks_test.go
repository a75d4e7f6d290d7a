package api

import (
	"context"
	"sync"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
	"github.com/greenbridge/rocketchat-bridge/internal/biz/repo"
)

// Mock implementations

type fakeWorkspaces struct {
	workspaces []*domain.Workspace
	nextID     int64
}

func (f *fakeWorkspaces) Create(ctx context.Context, ws *domain.Workspace) (*domain.Workspace, error) {
	f.nextID++
	created := *ws
	created.ID = f.nextID
	f.workspaces = append(f.workspaces, &created)
	return &created, nil
}

func (f *fakeWorkspaces) FindByURL(ctx context.Context, url string) (*domain.Workspace, error) {
	for _, ws := range f.workspaces {
		if ws.URL == url {
			return ws, nil
		}
	}
	return nil, nil
}

func (f *fakeWorkspaces) FindByID(ctx context.Context, id int64) (*domain.Workspace, error) {
	for _, ws := range f.workspaces {
		if ws.ID == id {
			return ws, nil
		}
	}
	return nil, nil
}

type fakeUsers struct {
	users  []*domain.User
	nextID int64
}

func (f *fakeUsers) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	f.nextID++
	created := *user
	created.ID = f.nextID
	f.users = append(f.users, &created)
	return &created, nil
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) FindByRocketChatID(ctx context.Context, rocketChatID string) (*domain.User, error) {
	for _, u := range f.users {
		if u.RocketChatID == rocketChatID {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) UpdateCredentials(ctx context.Context, email, rocketChatID, rocketChatToken string) error {
	return nil
}

func (f *fakeUsers) ListByWorkspace(ctx context.Context, workspaceID int64) ([]*domain.User, error) {
	return f.users, nil
}

func (f *fakeUsers) CountInstances(ctx context.Context, userID int64) (int, error) {
	return 0, nil
}

type fakeInstances struct {
	instances []*domain.Instance
	nextID    int64
}

func (f *fakeInstances) Create(ctx context.Context, inst *domain.Instance) (*domain.Instance, error) {
	f.nextID++
	created := *inst
	created.ID = f.nextID
	f.instances = append(f.instances, &created)
	return &created, nil
}

func (f *fakeInstances) GetByIDInstance(ctx context.Context, idInstance int64) (*domain.Instance, error) {
	for _, inst := range f.instances {
		if inst.IDInstance == idInstance {
			return inst, nil
		}
	}
	return nil, nil
}

func (f *fakeInstances) FindByWid(ctx context.Context, workspaceID int64, wid string) (*domain.Instance, error) {
	for _, inst := range f.instances {
		if inst.WorkspaceID == workspaceID && inst.Settings.Wid == wid {
			return inst, nil
		}
	}
	return nil, nil
}

func (f *fakeInstances) ListByWorkspace(ctx context.Context, workspaceID int64) ([]*domain.Instance, error) {
	return f.instances, nil
}

func (f *fakeInstances) UpdateState(ctx context.Context, idInstance int64, wid, stateInstance string) error {
	for _, inst := range f.instances {
		if inst.IDInstance == idInstance {
			inst.Settings.Wid = wid
			inst.StateInstance = stateInstance
		}
	}
	return nil
}

func (f *fakeInstances) Remove(ctx context.Context, idInstance int64) error {
	return nil
}

type fakeMappings struct{}

func (f *fakeMappings) Create(ctx context.Context, roomID string, userID, instanceID int64) error {
	return nil
}

func (f *fakeMappings) FindInstance(ctx context.Context, roomID string, userID int64) (*domain.Instance, error) {
	return nil, nil
}

type fakeRocket struct {
	mu         sync.Mutex
	registered []repo.WebhookRegistration
	sent       []string
	sentCh     chan string
}

func (f *fakeRocket) Me(ctx context.Context, creds repo.RocketChatCredentials) (*repo.WhoAmI, error) {
	return &repo.WhoAmI{ID: creds.UserID, Email: "agent@example.com"}, nil
}

func (f *fakeRocket) RegisterWebhook(ctx context.Context, creds repo.RocketChatCredentials, reg repo.WebhookRegistration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, reg)
	return nil
}

func (f *fakeRocket) CreateVisitor(ctx context.Context, creds repo.RocketChatCredentials, token, name, phone, username string) (*repo.Visitor, error) {
	return &repo.Visitor{ID: "v1", Token: token, Name: name}, nil
}

func (f *fakeRocket) CreateRoom(ctx context.Context, creds repo.RocketChatCredentials, visitorToken, agentID string) (*repo.Room, error) {
	return &repo.Room{RID: "room1"}, nil
}

func (f *fakeRocket) SendMessage(ctx context.Context, creds repo.RocketChatCredentials, visitorToken, rid, msg, id string) error {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	if f.sentCh != nil {
		f.sentCh <- msg
	}
	return nil
}

func (f *fakeRocket) UploadFile(ctx context.Context, creds repo.RocketChatCredentials, visitorToken, rid, url, fileName, caption string) error {
	return nil
}

type fakeGreen struct {
	mu    sync.Mutex
	texts []domain.TextDispatch
}

func (f *fakeGreen) GetWaSettings(ctx context.Context, idInstance int64, apiToken string) (*domain.WaSettings, error) {
	return &domain.WaSettings{Phone: "79001112233", StateInstance: domain.StateAuthorized}, nil
}

func (f *fakeGreen) SetSettings(ctx context.Context, idInstance int64, apiToken string, settings domain.InstanceSettings) error {
	return nil
}

func (f *fakeGreen) SendText(ctx context.Context, idInstance int64, apiToken string, msg domain.TextDispatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, msg)
	return nil
}

func (f *fakeGreen) SendFileByURL(ctx context.Context, idInstance int64, apiToken string, msg domain.FileDispatch) error {
	return nil
}
