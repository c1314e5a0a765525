package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// AuthService registers end-users and issues access tokens. It exists so
// every ticket carries a reporter that is a live user.
type AuthService struct {
	scopes repository.ScopeFactory
	tokens *auth.TokenManager
	cfg    config.AuthConfig
	logger *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(scopes repository.ScopeFactory, tokens *auth.TokenManager, cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	return &AuthService{scopes: scopes, tokens: tokens, cfg: cfg, logger: logger}
}

// Register creates an active end-user account.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email required", nil)
	}
	if len(password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	scope := s.scopes.NewScope()
	if existing, err := scope.Users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewValidationError("email already registered",
			map[string]any{"email": email})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hashed, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Status:       domain.UserStatusActive,
	}
	if err := scope.Users.Add(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	if _, err := scope.UnitOfWork.SaveChanges(ctx); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login verifies credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, time.Time, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	scope := s.scopes.NewScope()
	user, err := scope.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return "", time.Time{}, nil, apperrors.MapError(err)
	}
	if user.Status == domain.UserStatusSuspended {
		return "", time.Time{}, nil, apperrors.NewForbidden("account suspended")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return "", time.Time{}, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, domain.SubjectTypeUser)
	if err != nil {
		return "", time.Time{}, nil, apperrors.NewInternalError(err)
	}
	return token, expiresAt, user, nil
}

// AgentToken issues an access token for a registered agent. Agents have no
// credentials of their own here; tokens are minted by operators.
func (s *AuthService) AgentToken(ctx context.Context, agentID string) (string, time.Time, error) {
	scope := s.scopes.NewScope()
	if _, err := scope.Agents.GetByID(ctx, agentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		return "", time.Time{}, apperrors.MapError(err)
	}
	token, expiresAt, err := s.tokens.GenerateToken(agentID, domain.SubjectTypeAgent)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, expiresAt, nil
}
