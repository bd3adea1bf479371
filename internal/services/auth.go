package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/shared"
)

// AuthService talks to the /auth endpoints.
type AuthService struct {
	api *APIService
}

// NewAuthService creates an [AuthService] over api.
func NewAuthService(api *APIService) *AuthService {
	return &AuthService{api: api}
}

type loginResponse struct {
	Token string `json:"token"`
}

// Register creates an account. Non-2xx responses are returned as [*APIError].
func (s *AuthService) Register(ctx context.Context, creds models.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	resp, err := s.api.Post(ctx, "/auth/register", nil, creds)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}

	s.api.logger.Info("registered account", "email", creds.Email)
	return nil
}

// Login exchanges credentials for a bearer token.
//
// A 2xx body without a usable token is reported as [shared.ErrDecode].
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}

	resp, err := s.api.Post(ctx, "/auth/login", nil, creds)
	if err != nil {
		return "", err
	}
	if err := resp.Err(); err != nil {
		return "", err
	}

	var body loginResponse
	if err := resp.Decode(&body); err != nil {
		return "", err
	}
	if strings.TrimSpace(body.Token) == "" {
		return "", fmt.Errorf("%w: login response has no token", shared.ErrDecode)
	}

	s.api.logger.Info("logged in", "email", creds.Email)
	return body.Token, nil
}
