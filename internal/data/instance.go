package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
	"github.com/greenbridge/rocketchat-bridge/internal/biz/repo"
)

// instanceRepo implements the Instance repository over sqlite. The settings
// blob is stored as JSON; the bound wid is mirrored into its own column so
// webhook routing can query it directly.
type instanceRepo struct {
	db *sql.DB
}

// NewInstanceRepo creates an Instance repository.
func NewInstanceRepo(db *sql.DB) repo.InstanceRepo {
	return &instanceRepo{db: db}
}

const instanceColumns = `id, id_instance, api_token_instance, user_id, workspace_id, settings, state_instance, created_at`

func (r *instanceRepo) Create(ctx context.Context, inst *domain.Instance) (*domain.Instance, error) {
	settings, err := json.Marshal(inst.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}

	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO instances (id_instance, api_token_instance, user_id, workspace_id, settings, wid, state_instance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, inst.IDInstance, inst.APITokenInstance, inst.UserID, inst.WorkspaceID, string(settings), inst.Settings.Wid, inst.StateInstance, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert instance: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read instance id: %w", err)
	}
	created := *inst
	created.ID = id
	created.CreatedAt = now
	return &created, nil
}

func (r *instanceRepo) GetByIDInstance(ctx context.Context, idInstance int64) (*domain.Instance, error) {
	return scanInstance(r.db.QueryRowContext(ctx,
		`SELECT `+instanceColumns+` FROM instances WHERE id_instance = ?`, idInstance))
}

func (r *instanceRepo) FindByWid(ctx context.Context, workspaceID int64, wid string) (*domain.Instance, error) {
	return scanInstance(r.db.QueryRowContext(ctx,
		`SELECT `+instanceColumns+` FROM instances WHERE workspace_id = ? AND wid = ?`, workspaceID, wid))
}

func (r *instanceRepo) ListByWorkspace(ctx context.Context, workspaceID int64) ([]*domain.Instance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+instanceColumns+` FROM instances WHERE workspace_id = ? ORDER BY id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	defer rows.Close()

	var instances []*domain.Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

func (r *instanceRepo) UpdateState(ctx context.Context, idInstance int64, wid, stateInstance string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE instances
		SET wid = ?, state_instance = ?, settings = json_set(settings, '$.wid', ?)
		WHERE id_instance = ?
	`, wid, stateInstance, wid, idInstance)
	if err != nil {
		return fmt.Errorf("failed to update instance state: %w", err)
	}
	return nil
}

func (r *instanceRepo) Remove(ctx context.Context, idInstance int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin remove: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM room_mappings WHERE instance_id IN (SELECT id FROM instances WHERE id_instance = ?)
	`, idInstance); err != nil {
		return fmt.Errorf("failed to remove room mappings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM instances WHERE id_instance = ?`, idInstance); err != nil {
		return fmt.Errorf("failed to remove instance: %w", err)
	}
	return tx.Commit()
}

func scanInstance(row rowScanner) (*domain.Instance, error) {
	var inst domain.Instance
	var settings string
	var createdAt int64
	err := row.Scan(&inst.ID, &inst.IDInstance, &inst.APITokenInstance, &inst.UserID, &inst.WorkspaceID, &settings, &inst.StateInstance, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query instance: %w", err)
	}
	if err := json.Unmarshal([]byte(settings), &inst.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	inst.CreatedAt = time.Unix(createdAt, 0)
	return &inst, nil
}
