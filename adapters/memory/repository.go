package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"hyperleaf/internal/errors"
	"hyperleaf/models"
	"hyperleaf/ports"
)

// Store keeps users and predictions in process memory. It backs the
// development prediction service when no database is configured.
type Store struct {
	mu          sync.RWMutex
	users       []*models.User
	predictions []*models.Prediction
	nextUser    int64
	nextPred    int64
	now         func() time.Time
}

var (
	_ ports.UserRepository       = (*Store)(nil)
	_ ports.PredictionRepository = (*Store)(nil)
)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{now: time.Now}
}

// WithClock replaces the timestamp source
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// GetUserByToken resolves a bearer token
func (s *Store) GetUserByToken(_ context.Context, token string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if token != "" {
		for _, u := range s.users {
			if u.Token == token {
				cp := *u
				return &cp, nil
			}
		}
	}
	return nil, errors.Unauthorized("unknown token")
}

// ListUsersByRole returns accounts with the given role, oldest first
func (s *Store) ListUsersByRole(_ context.Context, role models.Role) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.User{}
	for _, u := range s.users {
		if u.Role == role {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CreateUser stores a new account and assigns its ID
func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username || (user.Token != "" && u.Token == user.Token) {
			return errors.Conflict("user already exists: " + user.Username)
		}
	}
	s.nextUser++
	user.ID = s.nextUser
	user.CreatedAt = s.now()
	cp := *user
	s.users = append(s.users, &cp)
	return nil
}

// SavePrediction assigns ID and CreatedAt and stores the payload
func (s *Store) SavePrediction(_ context.Context, p *models.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPred++
	p.ID = s.nextPred
	p.CreatedAt = s.now()
	cp := *p
	cp.Payload = append([]byte(nil), p.Payload...)
	s.predictions = append(s.predictions, &cp)
	return nil
}

// ListPredictions returns newest first; a nil owner lists every account
func (s *Store) ListPredictions(_ context.Context, ownerID *int64) ([]*models.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.Prediction{}
	for _, p := range s.predictions {
		if ownerID != nil && p.UserID != *ownerID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
