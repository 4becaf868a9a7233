package ports

import (
	"context"

	"hyperleaf/models"
)

// UserRepository defines the account storage of the development prediction service
type UserRepository interface {
	// GetUserByToken resolves a bearer token
	GetUserByToken(ctx context.Context, token string) (*models.User, error)

	// ListUsersByRole returns accounts with the given role, oldest first
	ListUsersByRole(ctx context.Context, role models.Role) ([]*models.User, error)

	// CreateUser stores a new account and assigns its ID
	CreateUser(ctx context.Context, user *models.User) error
}

// PredictionRepository stores prediction payloads for history listing
type PredictionRepository interface {
	// SavePrediction assigns ID and CreatedAt and stores the payload
	SavePrediction(ctx context.Context, p *models.Prediction) error

	// ListPredictions returns newest first; a nil owner lists every account
	ListPredictions(ctx context.Context, ownerID *int64) ([]*models.Prediction, error)
}
