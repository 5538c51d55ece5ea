package entity

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/google/uuid"
)

// MaxIdentityFieldLength bounds external id, email and display name
const MaxIdentityFieldLength = 255

// User is an identity imported from the external auth provider
type User struct {
	ID          string
	ExternalID  string // identifier issued by the auth provider, unique
	Email       string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Wallets     []*Wallet
}

// NewUser creates a new user without wallets
func NewUser(externalID, email, displayName string, timeProvider coreport.TimeProvider) (*User, error) {
	externalID = strings.TrimSpace(externalID)
	email = strings.TrimSpace(email)
	displayName = strings.TrimSpace(displayName)

	if externalID == "" {
		return nil, fmt.Errorf("%w: external id is required", errs.ErrInvalidInput)
	}
	for name, value := range map[string]string{
		"external id":  externalID,
		"email":        email,
		"display name": displayName,
	} {
		if utf8.RuneCountInString(value) > MaxIdentityFieldLength {
			return nil, fmt.Errorf("%w: %s longer than %d characters", errs.ErrInvalidInput, name, MaxIdentityFieldLength)
		}
	}
	if email != "" && !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: malformed email %q", errs.ErrInvalidInput, email)
	}

	now := timeProvider.Now().UTC().Truncate(time.Microsecond)
	return &User{
		ID:          uuid.NewString(),
		ExternalID:  externalID,
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// PrimaryWallet returns the first wallet created for the user, or nil
func (u *User) PrimaryWallet() *Wallet {
	if len(u.Wallets) == 0 {
		return nil
	}
	return u.Wallets[0]
}
