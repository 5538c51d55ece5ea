package entity

import (
	"strings"
	"testing"
	"time"

	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	coremocks "github.com/amirhossein-jamali/wallet-ledger/mocks/port/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	fixedTime := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	mockTime := coremocks.NewMockTimeProvider(t)
	mockTime.On("Now").Return(fixedTime).Maybe()

	t.Run("Valid user creation", func(t *testing.T) {
		user, err := NewUser(" user_2abc ", "ada@example.com", "ada", mockTime)

		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "user_2abc", user.ExternalID)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, "ada", user.DisplayName)
		assert.Equal(t, fixedTime, user.CreatedAt)
		assert.Equal(t, fixedTime, user.UpdatedAt)
		assert.Nil(t, user.PrimaryWallet())
	})

	t.Run("Email and display name are optional", func(t *testing.T) {
		user, err := NewUser("user_2abc", "", "", mockTime)
		require.NoError(t, err)
		assert.Empty(t, user.Email)
	})

	t.Run("Invalid input", func(t *testing.T) {
		tests := []struct {
			name        string
			externalID  string
			email       string
			displayName string
		}{
			{"missing external id", "  ", "a@b.c", "ada"},
			{"malformed email", "user_1", "not-an-email", "ada"},
			{"external id too long", strings.Repeat("x", MaxIdentityFieldLength+1), "", ""},
			{"display name too long", "user_1", "", strings.Repeat("x", MaxIdentityFieldLength+1)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				user, err := NewUser(tt.externalID, tt.email, tt.displayName, mockTime)
				assert.ErrorIs(t, err, errs.ErrInvalidInput)
				assert.Nil(t, user)
			})
		}
	})
}

func TestUserPrimaryWallet(t *testing.T) {
	first := RestoreWallet("w1", "u1", 0, time.Time{}, time.Time{})
	second := RestoreWallet("w2", "u1", 0, time.Time{}, time.Time{})
	user := &User{ID: "u1", Wallets: []*Wallet{first, second}}

	assert.Same(t, first, user.PrimaryWallet())
}
