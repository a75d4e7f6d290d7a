package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
	"github.com/greenbridge/rocketchat-bridge/internal/biz/repo"
)

// roomMappingRepo implements the RoomMapping repository over sqlite.
type roomMappingRepo struct {
	db        *sql.DB
	instances repo.InstanceRepo
}

// NewRoomMappingRepo creates a RoomMapping repository. Instance resolution is
// delegated so settings decoding lives in one place.
func NewRoomMappingRepo(db *sql.DB, instances repo.InstanceRepo) repo.RoomMappingRepo {
	return &roomMappingRepo{db: db, instances: instances}
}

// Create inserts a mapping. Re-inserting an existing (room, user) pair keeps
// the original row; provisioning runs per message, so duplicates are the
// normal case.
func (r *roomMappingRepo) Create(ctx context.Context, roomID string, userID, instanceID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO room_mappings (room_id, user_id, instance_id, created_at)
		VALUES (?, ?, ?, ?)
	`, roomID, userID, instanceID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert room mapping: %w", err)
	}
	return nil
}

func (r *roomMappingRepo) FindInstance(ctx context.Context, roomID string, userID int64) (*domain.Instance, error) {
	var instanceID int64
	err := r.db.QueryRowContext(ctx, `
		SELECT instance_id FROM room_mappings WHERE room_id = ? AND user_id = ?
	`, roomID, userID).Scan(&instanceID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query room mapping: %w", err)
	}

	var idInstance int64
	err = r.db.QueryRowContext(ctx,
		`SELECT id_instance FROM instances WHERE id = ?`, instanceID).Scan(&idInstance)
	if err == sql.ErrNoRows {
		// Stale mapping, instance was removed.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mapped instance: %w", err)
	}
	return r.instances.GetByIDInstance(ctx, idInstance)
}
