package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
	"github.com/greenbridge/rocketchat-bridge/internal/biz/repo"
)

var testLog = zerolog.Nop()

// Mock implementations

type mockWorkspaceRepo struct {
	workspaces []*domain.Workspace
	created    []*domain.Workspace
	nextID     int64
}

func (m *mockWorkspaceRepo) Create(ctx context.Context, ws *domain.Workspace) (*domain.Workspace, error) {
	m.nextID++
	created := *ws
	created.ID = m.nextID
	m.workspaces = append(m.workspaces, &created)
	m.created = append(m.created, &created)
	return &created, nil
}

func (m *mockWorkspaceRepo) FindByURL(ctx context.Context, url string) (*domain.Workspace, error) {
	for _, ws := range m.workspaces {
		if ws.URL == url {
			return ws, nil
		}
	}
	return nil, nil
}

func (m *mockWorkspaceRepo) FindByID(ctx context.Context, id int64) (*domain.Workspace, error) {
	for _, ws := range m.workspaces {
		if ws.ID == id {
			return ws, nil
		}
	}
	return nil, nil
}

type mockUserRepo struct {
	users   []*domain.User
	updated [][3]string
	nextID  int64
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	m.nextID++
	created := *user
	created.ID = m.nextID
	m.users = append(m.users, &created)
	return &created, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByRocketChatID(ctx context.Context, rocketChatID string) (*domain.User, error) {
	for _, u := range m.users {
		if u.RocketChatID == rocketChatID {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) UpdateCredentials(ctx context.Context, email, rocketChatID, rocketChatToken string) error {
	m.updated = append(m.updated, [3]string{email, rocketChatID, rocketChatToken})
	for _, u := range m.users {
		if u.Email == email {
			u.RocketChatID = rocketChatID
			u.RocketChatToken = rocketChatToken
		}
	}
	return nil
}

func (m *mockUserRepo) ListByWorkspace(ctx context.Context, workspaceID int64) ([]*domain.User, error) {
	var users []*domain.User
	for _, u := range m.users {
		if u.WorkspaceID == workspaceID {
			users = append(users, u)
		}
	}
	return users, nil
}

func (m *mockUserRepo) CountInstances(ctx context.Context, userID int64) (int, error) {
	return 0, nil
}

type mockInstanceRepo struct {
	instances []*domain.Instance
	removed   []int64
	states    [][2]string
	nextID    int64
}

func (m *mockInstanceRepo) Create(ctx context.Context, inst *domain.Instance) (*domain.Instance, error) {
	m.nextID++
	created := *inst
	created.ID = m.nextID
	m.instances = append(m.instances, &created)
	return &created, nil
}

func (m *mockInstanceRepo) GetByIDInstance(ctx context.Context, idInstance int64) (*domain.Instance, error) {
	for _, inst := range m.instances {
		if inst.IDInstance == idInstance {
			return inst, nil
		}
	}
	return nil, nil
}

func (m *mockInstanceRepo) FindByWid(ctx context.Context, workspaceID int64, wid string) (*domain.Instance, error) {
	for _, inst := range m.instances {
		if inst.WorkspaceID == workspaceID && inst.Settings.Wid == wid {
			return inst, nil
		}
	}
	return nil, nil
}

func (m *mockInstanceRepo) ListByWorkspace(ctx context.Context, workspaceID int64) ([]*domain.Instance, error) {
	var instances []*domain.Instance
	for _, inst := range m.instances {
		if inst.WorkspaceID == workspaceID {
			instances = append(instances, inst)
		}
	}
	return instances, nil
}

func (m *mockInstanceRepo) UpdateState(ctx context.Context, idInstance int64, wid, stateInstance string) error {
	m.states = append(m.states, [2]string{wid, stateInstance})
	for _, inst := range m.instances {
		if inst.IDInstance == idInstance {
			inst.Settings.Wid = wid
			inst.StateInstance = stateInstance
		}
	}
	return nil
}

func (m *mockInstanceRepo) Remove(ctx context.Context, idInstance int64) error {
	m.removed = append(m.removed, idInstance)
	kept := m.instances[:0]
	for _, inst := range m.instances {
		if inst.IDInstance != idInstance {
			kept = append(kept, inst)
		}
	}
	m.instances = kept
	return nil
}

type mockRoomMappingRepo struct {
	mappings  map[string]int64 // roomID -> instance idInstance
	instances *mockInstanceRepo
	created   []string
}

func (m *mockRoomMappingRepo) Create(ctx context.Context, roomID string, userID, instanceID int64) error {
	m.created = append(m.created, roomID)
	return nil
}

func (m *mockRoomMappingRepo) FindInstance(ctx context.Context, roomID string, userID int64) (*domain.Instance, error) {
	if m.mappings == nil {
		return nil, nil
	}
	idInstance, ok := m.mappings[roomID]
	if !ok {
		return nil, nil
	}
	return m.instances.GetByIDInstance(ctx, idInstance)
}

func newMockStorage() (repo.Storage, *mockWorkspaceRepo, *mockUserRepo, *mockInstanceRepo, *mockRoomMappingRepo) {
	workspaces := &mockWorkspaceRepo{}
	users := &mockUserRepo{}
	instances := &mockInstanceRepo{}
	mappings := &mockRoomMappingRepo{instances: instances}
	storage := repo.Storage{
		Workspaces:   workspaces,
		Users:        users,
		Instances:    instances,
		RoomMappings: mappings,
	}
	return storage, workspaces, users, instances, mappings
}

type sentMessage struct {
	Rid string
	Msg string
	ID  string
}

type mockRocketChatRepo struct {
	mu sync.Mutex

	me         *repo.WhoAmI
	meErr      error
	webhookErr error
	sendErr    error
	uploadErr  error

	registered []repo.WebhookRegistration
	visitors   []string
	rooms      []string
	sent       []sentMessage
	uploads    []string
}

func (m *mockRocketChatRepo) Me(ctx context.Context, creds repo.RocketChatCredentials) (*repo.WhoAmI, error) {
	if m.meErr != nil {
		return nil, m.meErr
	}
	if m.me != nil {
		return m.me, nil
	}
	return &repo.WhoAmI{ID: creds.UserID, Email: "agent@example.com"}, nil
}

func (m *mockRocketChatRepo) RegisterWebhook(ctx context.Context, creds repo.RocketChatCredentials, reg repo.WebhookRegistration) error {
	if m.webhookErr != nil {
		return m.webhookErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered = append(m.registered, reg)
	return nil
}

func (m *mockRocketChatRepo) CreateVisitor(ctx context.Context, creds repo.RocketChatCredentials, token, name, phone, username string) (*repo.Visitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visitors = append(m.visitors, token)
	return &repo.Visitor{ID: "v1", Token: token, Name: name}, nil
}

func (m *mockRocketChatRepo) CreateRoom(ctx context.Context, creds repo.RocketChatCredentials, visitorToken, agentID string) (*repo.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms = append(m.rooms, visitorToken)
	return &repo.Room{RID: "room1"}, nil
}

func (m *mockRocketChatRepo) SendMessage(ctx context.Context, creds repo.RocketChatCredentials, visitorToken, rid, msg, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMessage{Rid: rid, Msg: msg, ID: id})
	return nil
}

func (m *mockRocketChatRepo) UploadFile(ctx context.Context, creds repo.RocketChatCredentials, visitorToken, rid, url, fileName, caption string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, url)
	return nil
}

type mockGreenAPIRepo struct {
	mu sync.Mutex

	waSettings    *domain.WaSettings
	waSettingsErr error
	setErr        error
	sendErr       error

	pushed    []domain.InstanceSettings
	texts     []domain.TextDispatch
	files     []domain.FileDispatch
	failFor   map[int64]error // per-instance SetSettings failures
	pushedFor []int64
}

func (m *mockGreenAPIRepo) GetWaSettings(ctx context.Context, idInstance int64, apiToken string) (*domain.WaSettings, error) {
	if m.waSettingsErr != nil {
		return nil, m.waSettingsErr
	}
	if m.waSettings != nil {
		return m.waSettings, nil
	}
	return &domain.WaSettings{Phone: "79001112233", StateInstance: domain.StateAuthorized}, nil
}

func (m *mockGreenAPIRepo) SetSettings(ctx context.Context, idInstance int64, apiToken string, settings domain.InstanceSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[idInstance]; ok {
		return err
	}
	if m.setErr != nil {
		return m.setErr
	}
	m.pushed = append(m.pushed, settings)
	m.pushedFor = append(m.pushedFor, idInstance)
	return nil
}

func (m *mockGreenAPIRepo) SendText(ctx context.Context, idInstance int64, apiToken string, msg domain.TextDispatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.texts = append(m.texts, msg)
	return nil
}

func (m *mockGreenAPIRepo) SendFileByURL(ctx context.Context, idInstance int64, apiToken string, msg domain.FileDispatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.files = append(m.files, msg)
	return nil
}
