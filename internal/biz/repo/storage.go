package repo

import (
	"context"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
)

// WorkspaceRepo persists tenants.
type WorkspaceRepo interface {
	// Create persists a new workspace and returns it with its id set.
	Create(ctx context.Context, ws *domain.Workspace) (*domain.Workspace, error)

	// FindByURL returns the workspace registered under url, or nil.
	FindByURL(ctx context.Context, url string) (*domain.Workspace, error)

	// FindByID returns the workspace with the given id, or nil.
	FindByID(ctx context.Context, id int64) (*domain.Workspace, error)
}

// UserRepo persists livechat agents.
type UserRepo interface {
	// Create persists a new user and returns it with its id set.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)

	// FindByEmail returns the user with the given email, or nil.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByID returns the user with the given id, or nil.
	FindByID(ctx context.Context, id int64) (*domain.User, error)

	// FindByRocketChatID returns the user bound to a Rocket.Chat account id, or nil.
	FindByRocketChatID(ctx context.Context, rocketChatID string) (*domain.User, error)

	// UpdateCredentials replaces the user's Rocket.Chat id/token pair.
	UpdateCredentials(ctx context.Context, email, rocketChatID, rocketChatToken string) error

	// ListByWorkspace returns all users of a workspace.
	ListByWorkspace(ctx context.Context, workspaceID int64) ([]*domain.User, error)

	// CountInstances returns the number of instances owned by a user.
	CountInstances(ctx context.Context, userID int64) (int, error)
}

// InstanceRepo persists GREEN-API account bindings.
type InstanceRepo interface {
	// Create persists a new instance and returns it with its id set.
	Create(ctx context.Context, inst *domain.Instance) (*domain.Instance, error)

	// GetByIDInstance returns the instance with the given GREEN-API id, or nil.
	GetByIDInstance(ctx context.Context, idInstance int64) (*domain.Instance, error)

	// FindByWid returns the workspace's instance bound to the given WhatsApp
	// identity, or nil.
	FindByWid(ctx context.Context, workspaceID int64, wid string) (*domain.Instance, error)

	// ListByWorkspace returns all instances of a workspace.
	ListByWorkspace(ctx context.Context, workspaceID int64) ([]*domain.Instance, error)

	// UpdateState updates the mirrored connectivity state and bound identity.
	UpdateState(ctx context.Context, idInstance int64, wid, stateInstance string) error

	// Remove deletes the instance with the given GREEN-API id.
	Remove(ctx context.Context, idInstance int64) error
}

// RoomMappingRepo persists livechat room routing records.
type RoomMappingRepo interface {
	// Create inserts a mapping. Inserting an existing (roomID, userID) pair
	// is a no-op, not an error.
	Create(ctx context.Context, roomID string, userID, instanceID int64) error

	// FindInstance resolves the instance a room was provisioned for, or nil.
	FindInstance(ctx context.Context, roomID string, userID int64) (*domain.Instance, error)
}

// Storage bundles the identity store repositories.
type Storage struct {
	Workspaces   WorkspaceRepo
	Users        UserRepo
	Instances    InstanceRepo
	RoomMappings RoomMappingRepo
}
