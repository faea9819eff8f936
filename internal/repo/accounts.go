package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/authservice/internal/models"
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount inserts the account unless the email is already taken.
func (r *GormRepo) CreateAccount(ctx context.Context, a *models.Account) error {
	db, cancel := r.db(ctx)
	defer cancel()

	a.Email = NormalizeEmail(a.Email)
	tx := db.Where("email = ?", a.Email).FirstOrCreate(a)
	if tx.Error != nil {
		return storeErr(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *GormRepo) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	db, cancel := r.db(ctx)
	defer cancel()

	var acc models.Account
	if err := db.Where("email = ?", NormalizeEmail(email)).First(&acc).Error; err != nil {
		return nil, storeErr(err)
	}
	return &acc, nil
}

func (r *GormRepo) GetAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	db, cancel := r.db(ctx)
	defer cancel()

	var acc models.Account
	if err := db.Where("id = ?", id).First(&acc).Error; err != nil {
		return nil, storeErr(err)
	}
	return &acc, nil
}

// ConsumeEmailVerification spends a verification token and marks its account
// verified in one transaction.
func (r *GormRepo) ConsumeEmailVerification(ctx context.Context, token string) (uuid.UUID, error) {
	return r.consume(ctx, models.PurposeEmailVerification, token, func(tx *gorm.DB, id uuid.UUID) error {
		return updateAccount(tx, id, map[string]any{"is_email_verified": true})
	})
}

// ConsumePasswordReset spends a reset token and stores the new hash in one
// transaction.
func (r *GormRepo) ConsumePasswordReset(ctx context.Context, token, passwordHash string) (uuid.UUID, error) {
	return r.consume(ctx, models.PurposePasswordReset, token, func(tx *gorm.DB, id uuid.UUID) error {
		return updateAccount(tx, id, map[string]any{"password_hash": passwordHash})
	})
}

func (r *GormRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	db, cancel := r.db(ctx)
	defer cancel()

	return storeErr(updateAccount(db, id, map[string]any{"is_active": active}))
}

func updateAccount(db *gorm.DB, id uuid.UUID, fields map[string]any) error {
	res := db.Model(&models.Account{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAccount removes the account's single-use tokens before the account
// itself, in one transaction. No foreign key cascade is relied upon.
func (r *GormRepo) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	db, cancel := r.db(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", id).Delete(&models.SingleUseToken{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Account{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	return storeErr(err)
}
