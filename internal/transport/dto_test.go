package transport

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/authservice/internal/models"
)

func TestRegisterRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       RegisterRequest
		wantField string
	}{
		{name: "valid", req: RegisterRequest{Email: "a@example.com", Password: "password1", ConfirmPassword: "password1"}},
		{name: "missing email", req: RegisterRequest{Password: "password1", ConfirmPassword: "password1"}, wantField: "email"},
		{name: "bad email", req: RegisterRequest{Email: "nope", Password: "password1", ConfirmPassword: "password1"}, wantField: "email"},
		{name: "short password", req: RegisterRequest{Email: "a@example.com", Password: "short", ConfirmPassword: "short"}, wantField: "password"},
		{name: "missing confirm", req: RegisterRequest{Email: "a@example.com", Password: "password1"}, wantField: "confirm_password"},
		{name: "72 bytes", req: RegisterRequest{Email: "a@example.com", Password: strings.Repeat("a", 72), ConfirmPassword: "x"}},
		{name: "over 72 bytes", req: RegisterRequest{Email: "a@example.com", Password: strings.Repeat("a", 100), ConfirmPassword: "x"}, wantField: "password"},
		{name: "multibyte over 72 bytes", req: RegisterRequest{Email: "a@example.com", Password: strings.Repeat("é", 40), ConfirmPassword: "x"}, wantField: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var errs validation.Errors
			require.ErrorAs(t, err, &errs)
			assert.Contains(t, errs, tt.wantField)
		})
	}
}

func TestLoginRequest_Validate(t *testing.T) {
	assert.NoError(t, LoginRequest{Email: "a@example.com", Password: "x"}.Validate())
	assert.Error(t, LoginRequest{Email: "a@example.com"}.Validate())
	assert.Error(t, LoginRequest{Password: "x"}.Validate())
}

func TestPasswordResetRequests_Validate(t *testing.T) {
	assert.NoError(t, PasswordResetRequest{Email: "a@example.com"}.Validate())
	assert.Error(t, PasswordResetRequest{Email: "a"}.Validate())

	assert.NoError(t, PasswordResetConfirm{NewPassword: "password1", ConfirmPassword: "password2"}.Validate())
	assert.Error(t, PasswordResetConfirm{NewPassword: "short", ConfirmPassword: "short"}.Validate())
	assert.Error(t, PasswordResetConfirm{NewPassword: strings.Repeat("a", 100), ConfirmPassword: "x"}.Validate())
}

func TestSetActiveRequest_Validate(t *testing.T) {
	off := false
	assert.NoError(t, SetActiveRequest{IsActive: &off}.Validate())
	assert.Error(t, SetActiveRequest{}.Validate())
}

func TestNewUserResponse(t *testing.T) {
	dob := time.Date(1990, time.March, 4, 0, 0, 0, 0, time.UTC)
	acc := &models.Account{
		ID:              uuid.New(),
		Email:           "a@example.com",
		PasswordHash:    "secret-hash",
		IsActive:        true,
		IsEmailVerified: true,
		DateOfBirth:     &dob,
	}

	raw, err := json.Marshal(NewUserResponse(acc))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, acc.ID.String(), got["id"])
	assert.Equal(t, "1990-03-04", got["date_of_birth"])
	assert.Equal(t, true, got["is_email_verified"])
	assert.NotContains(t, got, "password_hash")
	assert.Len(t, got, 5)

	acc.DateOfBirth = nil
	raw, err = json.Marshal(NewUserResponse(acc))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"date_of_birth":null`)
}
