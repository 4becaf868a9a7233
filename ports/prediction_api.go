package ports

import (
	"context"
	"io"

	"hyperleaf/domain/result"
	"hyperleaf/models"
)

// PredictRequest is one upload for analysis. Numeric fields are passed
// through as the user typed them after local validation.
type PredictRequest struct {
	FileName       string
	File           io.Reader
	FieldArea      string
	FertilizerRate string
}

// PredictionAPI is the remote inference and history service
type PredictionAPI interface {
	// Predict uploads an image and returns the raw prediction payload
	Predict(ctx context.Context, token string, req PredictRequest) (result.RawResult, error)

	// History lists past predictions in service order. A set scope is only
	// honoured by the service for admins.
	History(ctx context.Context, token string, scope models.HistoryScope) ([]result.RawResult, error)

	// Owners lists the accounts an admin can scope history to
	Owners(ctx context.Context, token string) ([]models.Owner, error)

	// Identify resolves a bearer token to its account
	Identify(ctx context.Context, token string) (*models.User, error)
}
