package repository

import (
	"context"
	"database/sql"
	"time"

	"soak_console/internal/models"
)

type Authorization interface {
	Create(username, hash string, role models.Role) (int, error)
	GetByUsername(username string) (*models.User, error)
	SetRole(username string, role models.Role) error
}

// SnapshotCache keeps the last polled state so a restart has something to show.
type SnapshotCache interface {
	Save(ctx context.Context, s models.CachedState) error
	Load(ctx context.Context) (models.CachedState, bool, error)
}

// CommandRepo is the local audit log of operator commands.
type CommandRepo interface {
	Append(ctx context.Context, e models.CommandEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.CommandEvent, error)
}

type Repository struct {
	Snapshots SnapshotCache
	Commands  CommandRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Snapshots: NewSnapshotSQLite(db),
		Commands:  NewCommandSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
