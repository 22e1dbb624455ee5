package service

import (
	"fmt"
	"strings"

	"wiki-annotator/internal/domain"
)

type authService struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewAuthService validates bearer tokens against Supabase Auth.
func NewAuthService(
	supabaseClient domain.SupabaseClient,
	logger domain.Logger,
) domain.AuthService {
	return &authService{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// ValidateToken validates a token and returns the user it belongs to
func (s *authService) ValidateToken(token string) (*domain.SupabaseUser, error) {
	user, err := s.supabaseClient.ValidateToken(token)
	if err != nil {
		s.logger.Error("Failed to validate token with Supabase", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return user, nil
}

type localAuthService struct {
	logger domain.Logger
}

// NewLocalAuthService is used with the SQLite store. The bearer token itself
// names the user, so separate readers keep separate notes without an
// identity provider.
func NewLocalAuthService(logger domain.Logger) domain.AuthService {
	return &localAuthService{logger: logger}
}

func (s *localAuthService) ValidateToken(token string) (*domain.SupabaseUser, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrInvalidToken)
	}
	return &domain.SupabaseUser{ID: token}, nil
}
