package models

import (
	"encoding/json"
	"time"
)

// Prediction is a stored analysis as kept by the prediction service. The
// payload is opaque JSON in whatever key shape the service produced.
type Prediction struct {
	ID        int64           `json:"id" db:"id"`
	UserID    int64           `json:"user_id" db:"user_id"`
	ImagePath string          `json:"image_path" db:"image_path"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
