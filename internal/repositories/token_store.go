package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/shared"
)

// TokenStore keeps at most one live session. Saving replaces whatever was stored before.
type TokenStore struct {
	repo *SessionRepository
}

// NewTokenStore wraps repo as a single-session store.
func NewTokenStore(repo *SessionRepository) *TokenStore {
	return &TokenStore{repo: repo}
}

// Load returns the live session, or nil with no error when nobody is logged in.
func (s *TokenStore) Load() (*models.Session, error) {
	sess, err := s.repo.Current()
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Save stores token as the current session, clearing any earlier one.
func (s *TokenStore) Save(email, token string) (*models.Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: empty token", shared.ErrNoToken)
	}
	if _, err := s.repo.ClearAll(); err != nil {
		return nil, err
	}

	sess := models.NewSession(0, email, token)
	if err := s.repo.Create(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Clear removes the stored session. Clearing an empty store is not an error.
func (s *TokenStore) Clear() error {
	_, err := s.repo.ClearAll()
	return err
}

// Touch marks the session as used.
func (s *TokenStore) Touch(sess *models.Session) error {
	if sess == nil || sess.ID() == "" {
		return nil
	}
	return s.repo.Touch(sess.ID())
}
