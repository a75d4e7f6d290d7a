package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
	"github.com/greenbridge/rocketchat-bridge/internal/biz/repo"
)

// userRepo implements the User repository over sqlite.
type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a User repository.
func NewUserRepo(db *sql.DB) repo.UserRepo {
	return &userRepo{db: db}
}

const userColumns = `id, workspace_id, email, rocket_chat_id, rocket_chat_token, created_at`

func (r *userRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (workspace_id, email, rocket_chat_id, rocket_chat_token, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.WorkspaceID, user.Email, user.RocketChatID, user.RocketChatToken, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}
	created := *user
	created.ID = id
	created.CreatedAt = now
	return &created, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *userRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *userRepo) FindByRocketChatID(ctx context.Context, rocketChatID string) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE rocket_chat_id = ?`, rocketChatID))
}

func (r *userRepo) UpdateCredentials(ctx context.Context, email, rocketChatID, rocketChatToken string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET rocket_chat_id = ?, rocket_chat_token = ? WHERE email = ?
	`, rocketChatID, rocketChatToken, email)
	if err != nil {
		return fmt.Errorf("failed to update credentials: %w", err)
	}
	return nil
}

func (r *userRepo) ListByWorkspace(ctx context.Context, workspaceID int64) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE workspace_id = ? ORDER BY id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepo) CountInstances(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM instances WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count instances: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var createdAt int64
	err := row.Scan(&user.ID, &user.WorkspaceID, &user.Email, &user.RocketChatID, &user.RocketChatToken, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	return &user, nil
}
