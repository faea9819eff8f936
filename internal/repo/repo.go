package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrExpired          = errors.New("record expired")
	ErrConflict         = errors.New("record already exists")
	ErrStoreUnavailable = errors.New("store unavailable")
)

const defaultTimeout = 3 * time.Second

type GormRepo struct {
	DB      *gorm.DB
	Timeout time.Duration
	Now     func() time.Time
}

func New(db *gorm.DB, timeout time.Duration) *GormRepo {
	return &GormRepo{DB: db, Timeout: timeout}
}

func (r *GormRepo) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// db returns a session bound to a context with the store deadline applied.
func (r *GormRepo) db(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return r.DB.WithContext(ctx), cancel
}

// storeErr keeps domain errors as they are and turns everything else coming
// from the driver into ErrStoreUnavailable so callers can answer 5xx.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrExpired), errors.Is(err, ErrConflict):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
