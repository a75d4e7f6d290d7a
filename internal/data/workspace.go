package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
	"github.com/greenbridge/rocketchat-bridge/internal/biz/repo"
)

// workspaceRepo implements the Workspace repository over sqlite.
type workspaceRepo struct {
	db *sql.DB
}

// NewWorkspaceRepo creates a Workspace repository.
func NewWorkspaceRepo(db *sql.DB) repo.WorkspaceRepo {
	return &workspaceRepo{db: db}
}

func (r *workspaceRepo) Create(ctx context.Context, ws *domain.Workspace) (*domain.Workspace, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO workspaces (url, command_token, webhook_token, created_at)
		VALUES (?, ?, ?, ?)
	`, ws.URL, ws.CommandToken, ws.WebhookToken, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert workspace: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace id: %w", err)
	}
	created := *ws
	created.ID = id
	created.CreatedAt = now
	return &created, nil
}

func (r *workspaceRepo) FindByURL(ctx context.Context, url string) (*domain.Workspace, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, url, command_token, webhook_token, created_at
		FROM workspaces WHERE url = ?
	`, url))
}

func (r *workspaceRepo) FindByID(ctx context.Context, id int64) (*domain.Workspace, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, url, command_token, webhook_token, created_at
		FROM workspaces WHERE id = ?
	`, id))
}

func (r *workspaceRepo) scanOne(row *sql.Row) (*domain.Workspace, error) {
	var ws domain.Workspace
	var createdAt int64
	err := row.Scan(&ws.ID, &ws.URL, &ws.CommandToken, &ws.WebhookToken, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query workspace: %w", err)
	}
	ws.CreatedAt = time.Unix(createdAt, 0)
	return &ws, nil
}
