package entity

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	"github.com/google/uuid"
)

// TransactionKind is the direction of a balance-affecting event
type TransactionKind string

// Transaction kinds
const (
	KindSend    TransactionKind = "send"
	KindReceive TransactionKind = "receive"
)

// CategoryAdjustment labels the entries that record an administrative balance override
const CategoryAdjustment = "adjustment"

// MaxCategoryLength is the longest category label accepted, in characters
const MaxCategoryLength = 100

// ParseTransactionKind validates a wire value and returns the matching kind
func ParseTransactionKind(kind string) (TransactionKind, error) {
	k := TransactionKind(strings.ToLower(strings.TrimSpace(kind)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", errs.ErrInvalidKind, kind)
	}
	return k, nil
}

// IsValid reports whether k is send or receive
func (k TransactionKind) IsValid() bool {
	return k == KindSend || k == KindReceive
}

// Sign is +1 for receive and -1 for send
func (k TransactionKind) Sign() int64 {
	if k == KindReceive {
		return 1
	}
	return -1
}

// Transaction is an immutable record of one balance-affecting event on a wallet
type Transaction struct {
	ID        string
	WalletID  string
	Kind      TransactionKind
	Amount    int64 // minor units, always positive
	Category  string
	CreatedAt time.Time
}

// NewTransaction creates a new ledger entry with a fresh identifier
func NewTransaction(
	walletID string,
	kind TransactionKind,
	amount int64,
	category string,
	createdAt time.Time,
) (*Transaction, error) {
	if strings.TrimSpace(walletID) == "" {
		return nil, fmt.Errorf("%w: wallet id is required", errs.ErrInvalidInput)
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidKind, kind)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: must be greater than zero", errs.ErrInvalidAmount)
	}

	normalized, err := NormalizeCategory(category)
	if err != nil {
		return nil, err
	}

	return &Transaction{
		ID:        uuid.NewString(),
		WalletID:  walletID,
		Kind:      kind,
		Amount:    amount,
		Category:  normalized,
		CreatedAt: createdAt,
	}, nil
}

// Delta returns the signed effect of the transaction on the wallet balance
func (t *Transaction) Delta() int64 {
	return t.Kind.Sign() * t.Amount
}

// FormattedAmount returns the amount with two decimal places
func (t *Transaction) FormattedAmount() string {
	return FormatAmount(t.Amount)
}

// NormalizeCategory trims the label and enforces its maximum length
func NormalizeCategory(category string) (string, error) {
	category = strings.TrimSpace(category)
	if utf8.RuneCountInString(category) > MaxCategoryLength {
		return "", fmt.Errorf("%w: category longer than %d characters", errs.ErrInvalidInput, MaxCategoryLength)
	}
	return category, nil
}
