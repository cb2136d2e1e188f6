// internal/service/auth/service.go
package auth

import (
	"context"
	"fmt"
	"time"

	"mealdesk-service/internal/domain/auth"
	xerrors "mealdesk-service/internal/pkg/errors"
	"mealdesk-service/internal/pkg/jwt"
	"mealdesk-service/internal/pkg/session"
	"mealdesk-service/internal/repository/postgres"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service handles staff login, token refresh and logout. Customers never log
// in; every customer-facing surface is addressed by order tokens.
type Service struct {
	repo        *postgres.AuthRepository
	jwtManager  *jwt.Manager
	sessions    *session.Manager
	rateLimiter *session.RateLimiter
	logger      *zap.Logger
}

func NewService(repo *postgres.AuthRepository, jwtManager *jwt.Manager, sessions *session.Manager, rateLimiter *session.RateLimiter, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		jwtManager:  jwtManager,
		sessions:    sessions,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// Login verifies credentials and mints an access/refresh token pair backed by
// a redis session.
func (s *Service) Login(ctx context.Context, req *auth.LoginRequest, ip, userAgent string) (*auth.LoginResponse, error) {
	allowed, _, err := s.rateLimiter.CheckLoginAttempt(ctx, ip, req.Email)
	if err != nil {
		s.logger.Warn("login rate limit check failed", zap.Error(err))
	} else if !allowed {
		return nil, xerrors.ErrRateLimited
	}

	identity, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		// Burn a comparison anyway so missing and wrong-password responses
		// take similar time.
		bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(req.Password))
		return nil, xerrors.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(req.Password)); err != nil {
		return nil, xerrors.ErrUnauthorized
	}

	accessToken, jti, err := s.jwtManager.Generator.GenerateAccessToken(identity.ID, identity.BranchID, identity.Roles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrInternal, err)
	}
	refreshToken, _, err := s.jwtManager.Generator.GenerateRefreshToken(identity.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrInternal, err)
	}

	now := time.Now()
	expiresAt := now.Add(s.jwtManager.Generator.Ttl)
	err = s.sessions.CreateSession(ctx, &session.SessionData{
		JTI:            jti,
		IdentityID:     identity.ID,
		BranchID:       identity.BranchID,
		Email:          identity.Email,
		Roles:          identity.Roles,
		IPAddress:      ip,
		UserAgent:      userAgent,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrInternal, err)
	}

	if err := s.rateLimiter.ResetLoginAttempts(ctx, ip, req.Email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}
	if err := s.repo.TouchLastLogin(ctx, identity.ID); err != nil {
		s.logger.Warn("failed to record last login", zap.Error(err))
	}

	s.logger.Info("staff logged in",
		zap.Int64("identity_id", identity.ID),
		zap.Int64("branch_id", identity.BranchID))

	return &auth.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		Identity:     profileOf(identity),
	}, nil
}

// Refresh trades a valid refresh token for a fresh access token and session.
func (s *Service) Refresh(ctx context.Context, req *auth.RefreshRequest, ip, userAgent string) (*auth.LoginResponse, error) {
	claims, err := s.jwtManager.Verifier.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, xerrors.ErrUnauthorized
	}

	blacklisted, err := s.sessions.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil || blacklisted {
		return nil, xerrors.ErrUnauthorized
	}

	identity, err := s.repo.FindByID(ctx, claims.IdentityID)
	if err != nil || !identity.IsActive {
		return nil, xerrors.ErrUnauthorized
	}

	accessToken, jti, err := s.jwtManager.Generator.GenerateAccessToken(identity.ID, identity.BranchID, identity.Roles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrInternal, err)
	}

	now := time.Now()
	expiresAt := now.Add(s.jwtManager.Generator.Ttl)
	err = s.sessions.CreateSession(ctx, &session.SessionData{
		JTI:            jti,
		IdentityID:     identity.ID,
		BranchID:       identity.BranchID,
		Email:          identity.Email,
		Roles:          identity.Roles,
		IPAddress:      ip,
		UserAgent:      userAgent,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrInternal, err)
	}

	return &auth.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: req.RefreshToken,
		ExpiresAt:    expiresAt,
		Identity:     profileOf(identity),
	}, nil
}

// Logout invalidates the current session and blacklists its token.
func (s *Service) Logout(ctx context.Context, identityID int64, jti string, tokenTTL time.Duration) error {
	if err := s.sessions.InvalidateSession(ctx, identityID, jti); err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrInternal, err)
	}
	if err := s.sessions.BlacklistToken(ctx, jti, tokenTTL); err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrInternal, err)
	}
	return nil
}

// Me returns the authenticated identity's profile.
func (s *Service) Me(ctx context.Context, identityID int64) (*auth.Profile, error) {
	identity, err := s.repo.FindByID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	return profileOf(identity), nil
}

func profileOf(identity *auth.StaffIdentity) *auth.Profile {
	return &auth.Profile{
		ID:       identity.ID,
		BranchID: identity.BranchID,
		Email:    identity.Email,
		Name:     identity.Name,
		Roles:    identity.Roles,
	}
}
