package migration

import (
	"context"

	"hyperleaf/internal/errors"
	"hyperleaf/models"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the development prediction service schema
type MigrationRunner struct {
	version string
	seeds   []models.User
}

// NewRunner creates a runner that also inserts the given accounts
func NewRunner(seeds []models.User) *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
		seeds:   seeds,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createUsersTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create users table")
	}

	if err := r.createPredictionsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create predictions table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	if err := r.insertSeedUsers(ctx, db); err != nil {
		return errors.Wrap(err, "failed to insert seed users")
	}

	return nil
}

func (r *MigrationRunner) createUsersTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email VARCHAR(255) NOT NULL DEFAULT '',
			username VARCHAR(100) UNIQUE NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'farmer',
			preferred_language VARCHAR(10) NOT NULL DEFAULT 'en',
			token VARCHAR(255) UNIQUE NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createPredictionsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS predictions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			image_path TEXT NOT NULL DEFAULT '',
			payload JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_predictions_user_created ON predictions(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *MigrationRunner) insertSeedUsers(ctx context.Context, db *sqlx.DB) error {
	for _, u := range r.seeds {
		_, err := db.NamedExecContext(ctx, `
			INSERT INTO users (email, username, role, preferred_language, token, created_at)
			VALUES (:email, :username, :role, :preferred_language, :token, NOW())
			ON CONFLICT (username) DO NOTHING
		`, u)
		if err != nil {
			return errors.Wrapf(err, "seed user %s", u.Username)
		}
	}
	return nil
}
