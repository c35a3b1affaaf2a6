package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/UnknownOlympus/haulage/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrProfileNotFound is returned when no pricing profile exists under the requested name.
var ErrProfileNotFound = errors.New("pricing profile not found")

// Database is the subset of *pgxpool.Pool used by the repository.
type Database interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

type Repository struct {
	db  Database
	log *slog.Logger
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
