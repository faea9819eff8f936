package service

import "errors"

var (
	ErrValidation       = errors.New("validation error")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrEmailTaken       = errors.New("email already registered")
	ErrInvalidOrExpired = errors.New("invalid or expired token")

	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrAccountDisabled    = errors.New("user account is disabled")
	ErrEmailNotVerified   = errors.New("email address not verified")
	ErrMissingToken       = errors.New("token not provided")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrBlacklistedToken   = errors.New("token has been blacklisted")
	ErrAccountNotFound    = errors.New("user not found")

	// ErrNotificationFailed is returned alongside a committed state change:
	// the account or token exists, only the email could not be queued.
	ErrNotificationFailed = errors.New("operation succeeded but notification failed")
)

var authErrors = []error{
	ErrInvalidCredentials,
	ErrAccountDisabled,
	ErrEmailNotVerified,
	ErrMissingToken,
	ErrInvalidToken,
	ErrExpiredToken,
	ErrBlacklistedToken,
	ErrAccountNotFound,
}

// IsAuthFailure reports whether err should be answered with 401.
func IsAuthFailure(err error) bool {
	for _, target := range authErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrPasswordMismatch) || errors.Is(err, ErrEmailTaken)
}
