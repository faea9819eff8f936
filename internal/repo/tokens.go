package repo

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/authservice/internal/models"
)

const singleUseTokenBytes = 48

func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// newOpaqueToken returns 64 URL-safe characters.
func newOpaqueToken() (string, error) {
	b := make([]byte, singleUseTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// PutSingleUse issues a fresh token for (account, purpose). The upsert on the
// unique (account_id, purpose) index replaces any previous token in one statement.
func (r *GormRepo) PutSingleUse(ctx context.Context, purpose models.Purpose, accountID uuid.UUID, ttl time.Duration) (string, error) {
	if !purpose.Valid() {
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive, got %s", ttl)
	}

	value, err := newOpaqueToken()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	now := r.now()
	row := models.SingleUseToken{
		AccountID: accountID,
		Purpose:   purpose,
		Token:     value,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	db, cancel := r.db(ctx)
	defer cancel()

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "purpose"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at", "created_at"}),
	}).Create(&row).Error
	if err != nil {
		return "", storeErr(err)
	}
	return value, nil
}

// consume looks the token up and deletes it in the same transaction. The
// delete is conditional on the row still existing, so of two concurrent
// consumers only one sees RowsAffected == 1. Expired rows are deleted too and
// reported as ErrExpired without calling apply. A failing apply rolls the
// delete back, leaving the token usable.
func (r *GormRepo) consume(ctx context.Context, purpose models.Purpose, value string, apply func(tx *gorm.DB, accountID uuid.UUID) error) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, ErrNotFound
	}

	db, cancel := r.db(ctx)
	defer cancel()

	var (
		accountID uuid.UUID
		expired   bool
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		var row models.SingleUseToken
		if err := tx.Where("token = ? AND purpose = ?", value, purpose).First(&row).Error; err != nil {
			return err
		}

		res := tx.Where("id = ? AND token = ?", row.ID, value).Delete(&models.SingleUseToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrNotFound
		}

		if !r.now().Before(row.ExpiresAt) {
			expired = true
			return nil
		}
		if apply != nil {
			if err := apply(tx, row.AccountID); err != nil {
				return err
			}
		}
		accountID = row.AccountID
		return nil
	})
	if err != nil {
		return uuid.Nil, storeErr(err)
	}
	if expired {
		return uuid.Nil, ErrExpired
	}
	return accountID, nil
}

// Blacklist records a revoked token until expiresAt. Inserting the same token
// twice is a no-op.
func (r *GormRepo) Blacklist(ctx context.Context, token string, expiresAt time.Time) error {
	if token == "" {
		return errors.New("empty token")
	}

	db, cancel := r.db(ctx)
	defer cancel()

	entry := models.BlacklistedToken{
		TokenHash: Sha256Hex(token),
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: r.now(),
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_hash"}},
		DoNothing: true,
	}).Create(&entry).Error
	return storeErr(err)
}

func (r *GormRepo) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	db, cancel := r.db(ctx)
	defer cancel()

	var count int64
	err := db.Model(&models.BlacklistedToken{}).
		Where("token_hash = ? AND expires_at > ?", Sha256Hex(token), r.now()).
		Count(&count).Error
	if err != nil {
		return false, storeErr(err)
	}
	return count > 0, nil
}

type PurgeResult struct {
	Blacklist int64
	SingleUse int64
}

// PurgeExpired only reclaims space: expired rows are already rejected by
// IsBlacklisted and the consume methods.
func (r *GormRepo) PurgeExpired(ctx context.Context) (PurgeResult, error) {
	db, cancel := r.db(ctx)
	defer cancel()

	now := r.now()
	var out PurgeResult

	res := db.Where("expires_at <= ?", now).Delete(&models.BlacklistedToken{})
	if res.Error != nil {
		return out, storeErr(res.Error)
	}
	out.Blacklist = res.RowsAffected

	res = db.Where("expires_at <= ?", now).Delete(&models.SingleUseToken{})
	if res.Error != nil {
		return out, storeErr(res.Error)
	}
	out.SingleUse = res.RowsAffected

	return out, nil
}
