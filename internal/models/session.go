package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/beatmiles/internal/shared"
)

// Session is the persisted bearer token for the logged-in user.
type Session struct {
	id         string
	sequence   int
	email      string
	token      string
	createdAt  time.Time
	updatedAt  time.Time
	lastUsedAt *time.Time
	deletedAt  *time.Time
}

var _ Model = (*Session)(nil)

// NewSession creates a session for email holding token.
func NewSession(sequence int, email, token string) *Session {
	now := time.Now()
	return &Session{
		sequence:  sequence,
		email:     email,
		token:     token,
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Session) ID() string                { return s.id }
func (s *Session) Sequence() int             { return s.sequence }
func (s *Session) Email() string             { return s.email }
func (s *Session) Token() string             { return s.token }
func (s *Session) CreatedAt() time.Time      { return s.createdAt }
func (s *Session) UpdatedAt() time.Time      { return s.updatedAt }
func (s *Session) LastUsedAt() *time.Time    { return s.lastUsedAt }
func (s *Session) DeletedAt() *time.Time     { return s.deletedAt }
func (s *Session) SetID(id string)           { s.id = id }
func (s *Session) SetSequence(n int)         { s.sequence = n }
func (s *Session) SetCreatedAt(t time.Time)  { s.createdAt = t }
func (s *Session) SetUpdatedAt(t time.Time)  { s.updatedAt = t }
func (s *Session) SetLastUsedAt(t time.Time) { s.lastUsedAt = &t }
func (s *Session) SetDeletedAt(t *time.Time) { s.deletedAt = t }

// Valid reports whether the session carries a token that can be sent.
func (s *Session) Valid() bool {
	return s != nil && s.token != "" && s.deletedAt == nil
}

// Validate checks that the session has an ID and a token.
func (s *Session) Validate() error {
	if s.id == "" {
		return fmt.Errorf("%w: session id is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(s.token) == "" {
		return fmt.Errorf("%w: session token is required", shared.ErrInvalidInput)
	}
	return nil
}

// String masks the token so sessions are safe to log.
func (s *Session) String() string {
	if s == nil {
		return "<no session>"
	}
	masked := "****"
	if len(s.token) > 8 {
		masked = s.token[:4] + "…" + s.token[len(s.token)-4:]
	}
	return fmt.Sprintf("session(%s, %s)", s.email, masked)
}
