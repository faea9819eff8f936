package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/authservice/internal/config"
	"github.com/Skotchmaster/authservice/internal/hash"
	"github.com/Skotchmaster/authservice/internal/logging"
	"github.com/Skotchmaster/authservice/internal/models"
	"github.com/Skotchmaster/authservice/internal/repo"
	"github.com/Skotchmaster/authservice/internal/tokens"
)

type AuthService struct {
	Repo   Store
	Codec  *tokens.Codec
	Hasher *hash.Hasher
	Cfg    *config.Config
	Events *Events
	Now    func() time.Time
}

type LoginResult struct {
	Account      *models.Account
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

type RefreshResult struct {
	AccessToken string
	AccessExp   time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login checks credentials, then the active flag, then email verification.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = repo.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrValidation
	}

	acc, err := s.Repo.GetAccountByEmail(ctx, email)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		l.Error("login_failed", "status", 503, "error", err)
		return nil, err
	}
	if !s.Hasher.Verify(acc, password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
		return nil, ErrInvalidCredentials
	}
	if !acc.IsActive {
		l.Warn("login_failed", "status", 401, "reason", "account disabled", "user_id", acc.ID)
		return nil, ErrAccountDisabled
	}
	if !acc.IsEmailVerified {
		l.Warn("login_failed", "status", 401, "reason", "email not verified", "user_id", acc.ID)
		return nil, ErrEmailNotVerified
	}

	subject := acc.ID.String()
	accessToken, accessExp, err := s.Codec.Issue(subject, tokens.KindAccess, s.Cfg.AccessTTL)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign access token", "error", err)
		return nil, err
	}
	refreshToken, refreshExp, err := s.Codec.Issue(subject, tokens.KindRefresh, s.Cfg.RefreshTTL)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign refresh token", "error", err)
		return nil, err
	}

	s.Events.publish(ctx, "user_logged_in", acc)
	l.Info("login_successful", "user_id", acc.ID)

	return &LoginResult{
		Account:      acc,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

// Refresh mints a new access token from a refresh token. The refresh token
// itself is returned to the caller unchanged; there is no rotation.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		return nil, ErrMissingToken
	}

	claims, err := s.verify(refreshToken, tokens.KindRefresh)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "error", err)
		return nil, err
	}
	if err := s.checkBlacklist(ctx, refreshToken); err != nil {
		l.Warn("refresh_failed", "error", err)
		return nil, err
	}

	acc, err := s.loadAccount(ctx, claims.Subject)
	if err != nil {
		l.Warn("refresh_failed", "error", err)
		return nil, err
	}
	if !acc.IsActive {
		return nil, ErrAccountDisabled
	}

	accessToken, accessExp, err := s.Codec.Issue(acc.ID.String(), tokens.KindAccess, s.Cfg.AccessTTL)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot sign access token", "error", err)
		return nil, err
	}
	return &RefreshResult{AccessToken: accessToken, AccessExp: accessExp}, nil
}

// Logout blacklists whichever of the two tokens were presented. Missing
// tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	var errs []error
	for _, tok := range []string{accessToken, refreshToken} {
		if tok == "" {
			continue
		}
		if err := s.revoke(ctx, tok); err != nil {
			l.Error("logout_failed", "status", 503, "reason", "cannot blacklist token", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Authenticate resolves the account behind an access token. An empty token
// means anonymous and returns (nil, nil); any token that is present but
// unusable is an error.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.Account, error) {
	if accessToken == "" {
		return nil, nil
	}

	claims, err := s.verify(accessToken, tokens.KindAccess)
	if err != nil {
		return nil, err
	}
	if err := s.checkBlacklist(ctx, accessToken); err != nil {
		return nil, err
	}

	acc, err := s.loadAccount(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if !acc.IsActive {
		return nil, ErrAccountDisabled
	}
	return acc, nil
}

func (s *AuthService) verify(token string, want tokens.Kind) (*tokens.Claims, error) {
	claims, err := s.Codec.Verify(token)
	switch {
	case errors.Is(err, tokens.ErrExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	}
	if claims.Kind != want {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) checkBlacklist(ctx context.Context, token string) error {
	if !s.Cfg.BlacklistEnabled {
		return nil
	}
	blacklisted, err := s.Repo.IsBlacklisted(ctx, token)
	if err != nil {
		return err
	}
	if blacklisted {
		return ErrBlacklistedToken
	}
	return nil
}

func (s *AuthService) loadAccount(ctx context.Context, subject string) (*models.Account, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	acc, err := s.Repo.GetAccountByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// revoke blacklists a token presented by the current request until its own
// expiry. The expiry is read without verifying the signature; a token that
// can't be decoded is kept for BlacklistTTL.
func (s *AuthService) revoke(ctx context.Context, token string) error {
	if !s.Cfg.BlacklistEnabled {
		return nil
	}

	now := s.now()
	exp, err := s.Codec.ExpiryUnverified(token)
	if err != nil {
		exp = now.Add(s.Cfg.BlacklistTTL)
	}
	if !exp.After(now) {
		return nil
	}
	return s.Repo.Blacklist(ctx, token, exp)
}
