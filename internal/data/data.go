package data

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) the sqlite identity store at dbPath and applies the
// schema.
func Open(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS workspaces (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT NOT NULL UNIQUE,
			command_token TEXT NOT NULL,
			webhook_token TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			workspace_id INTEGER NOT NULL,
			email TEXT NOT NULL UNIQUE,
			rocket_chat_id TEXT NOT NULL,
			rocket_chat_token TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_workspace ON users(workspace_id)`,
		`CREATE TABLE IF NOT EXISTS instances (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			id_instance INTEGER NOT NULL UNIQUE,
			api_token_instance TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			workspace_id INTEGER NOT NULL,
			settings TEXT NOT NULL DEFAULT '{}',
			wid TEXT NOT NULL DEFAULT '',
			state_instance TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_instances_workspace ON instances(workspace_id)`,
		`CREATE INDEX IF NOT EXISTS idx_instances_wid ON instances(workspace_id, wid)`,
		`CREATE TABLE IF NOT EXISTS room_mappings (
			room_id TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			instance_id INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (room_id, user_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// NewStorage bundles the sqlite repositories over a shared connection.
func NewStorage(db *sql.DB) repo.Storage {
	instances := NewInstanceRepo(db)
	return repo.Storage{
		Workspaces:   NewWorkspaceRepo(db),
		Users:        NewUserRepo(db),
		Instances:    instances,
		RoomMappings: NewRoomMappingRepo(db, instances),
	}
}
