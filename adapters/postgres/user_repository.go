package postgres

import (
	"context"
	"database/sql"
	"errors"

	apperrors "hyperleaf/internal/errors"
	"hyperleaf/models"
	"hyperleaf/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const userColumns = `id, email, username, role, preferred_language, token, created_at`

// UserRepositoryImpl implements UserRepository for PostgreSQL
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// GetUserByToken resolves a bearer token to its account
func (r *UserRepositoryImpl) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		SELECT `+userColumns+`
		FROM users
		WHERE token = $1
	`, token)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Unauthorized("unknown token")
	}
	if err != nil {
		return nil, apperrors.Database("get user by token", err)
	}
	return &user, nil
}

// ListUsersByRole returns accounts with the given role, oldest first
func (r *UserRepositoryImpl) ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	users := []*models.User{}
	err := r.db.SelectContext(ctx, &users, `
		SELECT `+userColumns+`
		FROM users
		WHERE role = $1
		ORDER BY created_at ASC, id ASC
	`, role)
	if err != nil {
		return nil, apperrors.Database("list users", err)
	}
	return users, nil
}

// CreateUser inserts a new account and assigns its ID
func (r *UserRepositoryImpl) CreateUser(ctx context.Context, user *models.User) error {
	rows, err := r.db.NamedQueryContext(ctx, `
		INSERT INTO users (email, username, role, preferred_language, token, created_at)
		VALUES (:email, :username, :role, :preferred_language, :token, NOW())
		RETURNING id, created_at
	`, user)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return apperrors.Conflict("user already exists: " + user.Username)
		}
		return apperrors.Database("create user", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&user.ID, &user.CreatedAt); err != nil {
			return apperrors.Database("create user", err)
		}
	}
	return rows.Err()
}
