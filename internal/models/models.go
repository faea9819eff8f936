package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
)

func (p Purpose) Valid() bool {
	return p == PurposeEmailVerification || p == PurposePasswordReset
}

// Account flags are written explicitly on create; gorm would replace a false
// bool with a column default, so none are declared.
type Account struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"   json:"id"`
	Email           string     `gorm:"uniqueIndex;not null"   json:"email"`
	PasswordHash    string     `gorm:"not null"               json:"-"`
	IsActive        bool       `gorm:"not null"               json:"is_active"`
	IsEmailVerified bool       `gorm:"not null"               json:"is_email_verified"`
	IsAdmin         bool       `gorm:"not null"               json:"is_admin"`
	DateOfBirth     *time.Time `                              json:"date_of_birth"`
	CreatedAt       time.Time  `                              json:"created_at"`
	UpdatedAt       time.Time  `                              json:"updated_at"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// SingleUseToken backs email-verification and password-reset links.
// At most one row exists per (account, purpose).
type SingleUseToken struct {
	ID        uint      `gorm:"primaryKey"                                                    json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_single_use_owner_purpose"  json:"account_id"`
	Purpose   Purpose   `gorm:"type:varchar(32);not null;uniqueIndex:idx_single_use_owner_purpose" json:"purpose"`
	Token     string    `gorm:"type:varchar(128);not null;uniqueIndex"                         json:"-"`
	ExpiresAt time.Time `gorm:"not null;index"                                                json:"expires_at"`
	CreatedAt time.Time `                                                                     json:"created_at"`
}

// BlacklistedToken stores the sha256 of a revoked signed token, never the token itself.
type BlacklistedToken struct {
	ID        uint      `gorm:"primaryKey"                      json:"id"`
	TokenHash string    `gorm:"type:char(64);not null;uniqueIndex" json:"token_hash"`
	ExpiresAt time.Time `gorm:"not null;index"                  json:"expires_at"`
	CreatedAt time.Time `                                       json:"created_at"`
}

func All() []any {
	return []any{&Account{}, &SingleUseToken{}, &BlacklistedToken{}}
}
