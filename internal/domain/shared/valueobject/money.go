package valueobject

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	IDR Currency = "IDR" // Indonesian Rupiah (default)
	USD Currency = "USD"
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = IDR

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// Money is a value object representing monetary amounts.
// It is immutable: all operations return new Money instances.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyIDR creates Money in Rupiah
func NewMoneyIDR(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: IDR}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// Add returns a new Money with the sum of both amounts.
// Returns error if currencies don't match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns a new Money with the difference.
// Returns error if currencies don't match.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot subtract money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Percentage returns pct percent of this Money
func (m Money) Percentage(pct decimal.Decimal) Money {
	return Money{amount: Percent(m.amount, pct), currency: m.currency}
}

// RoundUnit rounds to a whole currency unit, half up
func (m Money) RoundUnit() Money {
	return Money{amount: RoundHalfUp(m.amount), currency: m.currency}
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String renders the amount with Indonesian digit grouping, e.g. "Rp 1.250.000"
func (m Money) String() string {
	p := message.NewPrinter(language.Indonesian)
	symbol := string(m.currency)
	if m.currency == IDR {
		symbol = "Rp"
	}
	rounded := RoundHalfUp(m.amount)
	return p.Sprintf("%s %d", symbol, rounded.IntPart())
}

// RoundHalfUp rounds to zero decimal places, ties toward positive infinity
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

// Percent returns amount * pct / 100 without rounding
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

// AllocateByWeights splits a whole-unit total across weights.
// Each share is rounded half up; the last non-zero weight absorbs the remainder
// so the shares always sum to the total.
func AllocateByWeights(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(weights))
	if len(weights) == 0 {
		return shares
	}
	sum := decimal.Zero
	last := -1
	for i, w := range weights {
		shares[i] = decimal.Zero
		if w.IsPositive() {
			sum = sum.Add(w)
			last = i
		}
	}
	if last < 0 {
		shares[len(shares)-1] = total
		return shares
	}
	allocated := decimal.Zero
	for i, w := range weights {
		if i == last || !w.IsPositive() {
			continue
		}
		shares[i] = RoundHalfUp(total.Mul(w).Div(sum))
		allocated = allocated.Add(shares[i])
	}
	shares[last] = total.Sub(allocated)
	return shares
}
