package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"hyperleaf/internal/errors"
	"hyperleaf/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	admin := &models.User{Username: "admin", Role: models.RoleAdmin, Token: "a"}
	farmer := &models.User{Username: "asha", Role: models.RoleFarmer, Token: "f"}
	require.NoError(t, s.CreateUser(ctx, admin))
	require.NoError(t, s.CreateUser(ctx, farmer))
	assert.Equal(t, int64(1), admin.ID)
	assert.Equal(t, int64(2), farmer.ID)

	err := s.CreateUser(ctx, &models.User{Username: "asha"})
	assert.Equal(t, errors.CodeConflict, errors.GetCode(err))

	got, err := s.GetUserByToken(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, "asha", got.Username)

	_, err = s.GetUserByToken(ctx, "")
	assert.Equal(t, errors.CodeUnauthorized, errors.GetCode(err))

	farmers, err := s.ListUsersByRole(ctx, models.RoleFarmer)
	require.NoError(t, err)
	require.Len(t, farmers, 1)
	assert.Equal(t, "asha", farmers[0].Username)
}

func TestPredictionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	s := NewStore().WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	for _, owner := range []int64{1, 2, 1} {
		p := &models.Prediction{UserID: owner, Payload: json.RawMessage(`{}`)}
		require.NoError(t, s.SavePrediction(ctx, p))
	}

	all, err := s.ListPredictions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{all[0].ID, all[1].ID, all[2].ID})

	owner := int64(1)
	mine, err := s.ListPredictions(ctx, &owner)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, int64(3), mine[0].ID)
	assert.Equal(t, int64(1), mine[1].ID)
}
