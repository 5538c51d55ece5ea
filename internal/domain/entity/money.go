package entity

import (
	"fmt"
	"math"
	"strings"

	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	"github.com/shopspring/decimal"
)

// MaxDecimalPlaces defines the maximum number of decimal places allowed for money amounts.
// Amounts are stored as int64 minor units (cents).
const MaxDecimalPlaces = 2

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// ParseAmount converts a decimal string such as "10.5" into minor units (1050).
// The amount must be strictly positive with at most two decimal places.
func ParseAmount(amount string) (int64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, fmt.Errorf("%w: empty value", errs.ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errs.ErrInvalidAmount, amount)
	}

	return AmountFromDecimal(d)
}

// AmountFromDecimal converts a strictly positive decimal into minor units
func AmountFromDecimal(d decimal.Decimal) (int64, error) {
	if d.Sign() <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", errs.ErrInvalidAmount)
	}
	return toMinorUnits(d)
}

// BalanceFromDecimal converts a non-negative decimal into minor units
func BalanceFromDecimal(d decimal.Decimal) (int64, error) {
	if d.Sign() < 0 {
		return 0, fmt.Errorf("%w: balance cannot be negative", errs.ErrInvalidAmount)
	}
	return toMinorUnits(d)
}

func toMinorUnits(d decimal.Decimal) (int64, error) {
	scaled := d.Shift(MaxDecimalPlaces)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: maximum %d decimal places allowed", errs.ErrInvalidAmount, MaxDecimalPlaces)
	}
	if scaled.Abs().GreaterThan(maxMinorUnits) {
		return 0, errs.ErrAmountOverflow
	}
	return scaled.IntPart(), nil
}

// FormatAmount renders minor units with exactly two decimal places, 1015 becomes "10.15"
func FormatAmount(minorUnits int64) string {
	return decimal.New(minorUnits, -MaxDecimalPlaces).StringFixed(MaxDecimalPlaces)
}

// addMinorUnits adds two amounts and reports overflow instead of wrapping
func addMinorUnits(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, errs.ErrAmountOverflow
	}
	return a + b, nil
}
