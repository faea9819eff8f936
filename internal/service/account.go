package service

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/Skotchmaster/authservice/internal/config"
	"github.com/Skotchmaster/authservice/internal/hash"
	"github.com/Skotchmaster/authservice/internal/logging"
	"github.com/Skotchmaster/authservice/internal/models"
	"github.com/Skotchmaster/authservice/internal/notify"
	"github.com/Skotchmaster/authservice/internal/repo"
)

const MinPasswordLength = 8

type AccountService struct {
	Repo     Store
	Hasher   *hash.Hasher
	Notifier notify.Notifier
	Auth     *AuthService
	Cfg      *config.Config
	Events   *Events
}

// Presented holds the tokens the caller sent with the current request.
type Presented struct {
	AccessToken  string
	RefreshToken string
}

func validateCredentials(email, password string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return fmt.Errorf("%w: email: %v", ErrValidation, err)
	}
	return validatePassword(password)
}

func validatePassword(password string) error {
	if err := validation.Validate(password, validation.Required, validation.Length(MinPasswordLength, 128), hash.FitsBcrypt); err != nil {
		return fmt.Errorf("%w: password: %v", ErrValidation, err)
	}
	return nil
}

// Register creates an active, unverified account and mails a verification
// link. When only the email fails the account is kept and
// ErrNotificationFailed is returned together with it.
func (s *AccountService) Register(ctx context.Context, email, password, confirm string) (*models.Account, error) {
	l := logging.FromContext(ctx).With("svc", "account.register")

	if password != confirm {
		return nil, ErrPasswordMismatch
	}
	email = repo.NormalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		l.Warn("register_failed", "status", 400, "error", err)
		return nil, err
	}

	passwordHash, err := s.Hasher.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash password", "error", err)
		return nil, err
	}

	acc := &models.Account{
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	if err := s.Repo.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			l.Warn("register_failed", "status", 400, "reason", "email taken")
			return nil, ErrEmailTaken
		}
		l.Error("register_failed", "status", 503, "error", err)
		return nil, err
	}

	s.Events.publish(ctx, "user_registered", acc)
	l.Info("user_registered", "user_id", acc.ID)

	token, err := s.Repo.PutSingleUse(ctx, models.PurposeEmailVerification, acc.ID, s.Cfg.EmailVerificationTTL)
	if err != nil {
		l.Error("register_failed", "status", 503, "reason", "cannot issue verification token", "error", err)
		return acc, err
	}
	if err := s.Notifier.Send(ctx, notify.VerificationEmail(s.Cfg.FrontendURL, acc.Email, token)); err != nil {
		l.Error("verification_email_failed", "user_id", acc.ID, "error", err)
		return acc, fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	return acc, nil
}

func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	l := logging.FromContext(ctx).With("svc", "account.verify_email")

	accountID, err := consumeErr(s.Repo.ConsumeEmailVerification(ctx, token))
	if err != nil {
		l.Warn("verify_email_failed", "error", err)
		return err
	}
	l.Info("email_verified", "user_id", accountID)
	return nil
}

// RequestPasswordReset answers the same way for known and unknown emails.
// Only store failures are reported.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "account.request_reset")

	email = repo.NormalizeEmail(email)
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return fmt.Errorf("%w: email: %v", ErrValidation, err)
	}

	acc, err := s.Repo.GetAccountByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		l.Info("password_reset_unknown_email")
		return nil
	}
	if err != nil {
		l.Error("password_reset_failed", "status", 503, "error", err)
		return err
	}

	token, err := s.Repo.PutSingleUse(ctx, models.PurposePasswordReset, acc.ID, s.Cfg.PasswordResetTTL)
	if err != nil {
		l.Error("password_reset_failed", "status", 503, "reason", "cannot issue reset token", "error", err)
		return err
	}
	msg := notify.PasswordResetEmail(s.Cfg.FrontendURL, acc.Email, token, s.Cfg.PasswordResetTTL)
	if err := s.Notifier.Send(ctx, msg); err != nil {
		l.Error("password_reset_email_failed", "user_id", acc.ID, "error", err)
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	l.Info("password_reset_requested", "user_id", acc.ID)
	return nil
}

// ResetPassword consumes the reset token and stores the new hash in one
// store call, so a failed update leaves the token usable. The tokens
// presented with the request are revoked afterwards; a failure there is
// logged and does not undo the reset.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword, confirm string, presented Presented) error {
	l := logging.FromContext(ctx).With("svc", "account.reset_password")

	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	passwordHash, err := s.Hasher.HashPassword(newPassword)
	if err != nil {
		l.Error("reset_password_failed", "status", 500, "reason", "cannot hash password", "error", err)
		return err
	}

	accountID, err := consumeErr(s.Repo.ConsumePasswordReset(ctx, token, passwordHash))
	if err != nil {
		l.Warn("reset_password_failed", "error", err)
		return err
	}

	if s.Auth != nil {
		if err := s.Auth.Logout(ctx, presented.AccessToken, presented.RefreshToken); err != nil {
			l.Warn("reset_password_revoke_failed", "user_id", accountID, "error", err)
		}
	}
	l.Info("password_reset", "user_id", accountID)
	return nil
}

func (s *AccountService) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	err := s.Repo.DeleteAccount(ctx, accountID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		logging.FromContext(ctx).Error("delete_account_failed", "svc", "account.delete", "user_id", accountID, "error", err)
		return err
	}
	return nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	acc, err := s.Repo.GetAccountByID(ctx, accountID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	return acc, err
}

// SetActive enables or disables an account. Authenticate and Refresh reload
// the account on every call, so a disabled account's outstanding tokens stop
// working immediately.
func (s *AccountService) SetActive(ctx context.Context, accountID uuid.UUID, active bool) (*models.Account, error) {
	l := logging.FromContext(ctx).With("svc", "account.set_active")

	err := s.Repo.SetActive(ctx, accountID, active)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		l.Error("set_active_failed", "status", 503, "user_id", accountID, "error", err)
		return nil, err
	}
	l.Info("account_active_changed", "user_id", accountID, "is_active", active)
	return s.GetAccount(ctx, accountID)
}

func consumeErr(accountID uuid.UUID, err error) (uuid.UUID, error) {
	if errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrExpired) {
		return uuid.Nil, ErrInvalidOrExpired
	}
	return accountID, err
}
