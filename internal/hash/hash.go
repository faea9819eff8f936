package hash

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/authservice/internal/models"
)

// MaxPasswordBytes is the most input bcrypt accepts.
const MaxPasswordBytes = 72

var (
	ErrEmptyPassword   = errors.New("password is empty")
	ErrPasswordTooLong = errors.New("password is longer than 72 bytes")
)

// FitsBcrypt is a validation rule for password fields. Length rules count
// runes, so a short password of multibyte characters can still overflow.
var FitsBcrypt = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if len(s) > MaxPasswordBytes {
		return errors.New("the length must be no more than 72 bytes")
	}
	return nil
})

// Hasher wraps bcrypt. The dummy hash lets Verify spend the same work when
// no account matched, so response time doesn't reveal whether an email exists.
type Hasher struct {
	cost  int
	dummy []byte
}

func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		return nil, err
	}
	return &Hasher{cost: cost, dummy: dummy}, nil
}

func (h *Hasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashbytes), nil
}

func (h *Hasher) CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h *Hasher) Verify(account *models.Account, password string) bool {
	if account == nil || account.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
		return false
	}
	return h.CheckPassword(account.PasswordHash, password)
}
