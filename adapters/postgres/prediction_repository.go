package postgres

import (
	"context"

	apperrors "hyperleaf/internal/errors"
	"hyperleaf/models"
	"hyperleaf/ports"

	"github.com/jmoiron/sqlx"
)

// PredictionRepositoryImpl stores prediction payloads as JSONB
type PredictionRepositoryImpl struct {
	db *sqlx.DB
}

// NewPredictionRepository creates a new PostgreSQL prediction repository
func NewPredictionRepository(db *sqlx.DB) ports.PredictionRepository {
	return &PredictionRepositoryImpl{db: db}
}

// SavePrediction inserts the payload and fills in ID and CreatedAt
func (r *PredictionRepositoryImpl) SavePrediction(ctx context.Context, p *models.Prediction) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO predictions (user_id, image_path, payload, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`, p.UserID, p.ImagePath, []byte(p.Payload)).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return apperrors.Database("save prediction", err)
	}
	return nil
}

// ListPredictions returns newest first; a nil owner lists every account
func (r *PredictionRepositoryImpl) ListPredictions(ctx context.Context, ownerID *int64) ([]*models.Prediction, error) {
	query := `
		SELECT id, user_id, image_path, payload, created_at
		FROM predictions`
	args := []interface{}{}
	if ownerID != nil {
		query += ` WHERE user_id = $1`
		args = append(args, *ownerID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	predictions := []*models.Prediction{}
	if err := r.db.SelectContext(ctx, &predictions, query, args...); err != nil {
		return nil, apperrors.Database("list predictions", err)
	}
	return predictions, nil
}
