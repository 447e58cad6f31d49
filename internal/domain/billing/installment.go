package billing

import (
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentLabel tags each payment event on a billing invoice
type InstallmentLabel string

const (
	LabelFullPay   InstallmentLabel = "full_pay"
	LabelFirstPay  InstallmentLabel = "first_pay"
	LabelSecondPay InstallmentLabel = "second_pay"
	LabelThirdPay  InstallmentLabel = "third_pay"
	LabelFinalPay  InstallmentLabel = "final_pay"
)

// IsTerminal reports whether the label closes the invoice
func (l InstallmentLabel) IsTerminal() bool {
	return l == LabelFullPay || l == LabelFinalPay
}

var partialLabels = []InstallmentLabel{LabelFirstPay, LabelSecondPay, LabelThirdPay}

// Installment errors
var (
	ErrAlreadyPaid          = shared.NewDomainError("ALREADY_PAID", "Billing has already been fully paid")
	ErrUseFullPayment       = shared.NewDomainError("USE_FULL_PAYMENT", "First payment equals the grand total; use Full Payment instead")
	ErrMinDownPayment       = shared.NewDomainError("MIN_DOWN_PAYMENT", "First payment is below the minimum down payment")
	ErrExceedsRemaining     = shared.NewDomainError("EXCEEDS_REMAINING", "Payment exceeds the remaining balance")
	ErrInstallmentLimit     = shared.NewDomainError("INSTALLMENT_LIMIT", "Maximum number of partial payments reached")
	ErrFinalPaymentMismatch = shared.NewDomainError("FINAL_PAYMENT_MISMATCH", "The last installment must settle the remaining balance exactly")
	ErrFullPaymentMismatch  = shared.NewDomainError("FULL_PAYMENT_MISMATCH", "Full Payment must equal the grand total")
	ErrPaymentInProgress    = shared.NewDomainError("PAYMENT_IN_PROGRESS", "Partial payments already recorded; continue with Partial Payment")
	ErrInvalidPaymentAmount = shared.NewDomainError("VALIDATION_PAYMENT_AMOUNT", "Payment amount must be greater than zero")
	ErrInvalidPaymentMethod = shared.NewDomainError("VALIDATION_PAYMENT_METHOD", "Payment method must be 'Full Payment' or 'Partial Payment'")
)

// PaymentEntry is one installment history record
type PaymentEntry struct {
	ID       uuid.UUID        `json:"id"`
	Label    InstallmentLabel `json:"label"`
	Amount   decimal.Decimal  `json:"amount"`
	Discount decimal.Decimal  `json:"discount"`
	PaidAt   time.Time        `json:"paid_at"`
}

// InstallmentRules bounds partial payment behaviour
type InstallmentRules struct {
	MinDownPaymentRatio decimal.Decimal
	MaxPartialPayments  int
}

// DefaultInstallmentRules returns a 10% minimum first payment and three partial payments
func DefaultInstallmentRules() InstallmentRules {
	return InstallmentRules{
		MinDownPaymentRatio: decimal.NewFromFloat(0.10),
		MaxPartialPayments:  3,
	}
}

// PaymentOutcome is what a successfully applied payment produced
type PaymentOutcome struct {
	Entry            PaymentEntry
	InstallmentCount int
	Remaining        decimal.Decimal
	Terms            TermsEvaluation
}

// IsFinal reports whether the payment settled the invoice
func (o PaymentOutcome) IsFinal() bool {
	return o.Entry.Label.IsTerminal()
}

// TotalPaid sums all recorded installments
func (b *BillingRecord) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range b.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

func (b *BillingRecord) hasTerminalPayment() bool {
	for _, p := range b.Payments {
		if p.Label.IsTerminal() {
			return true
		}
	}
	return false
}

func (b *BillingRecord) countLabel(label InstallmentLabel) int {
	n := 0
	for _, p := range b.Payments {
		if p.Label == label {
			n++
		}
	}
	return n
}

func (b *BillingRecord) discountTaken() bool {
	for _, p := range b.Payments {
		if p.Discount.IsPositive() {
			return true
		}
	}
	return false
}

// ApplyPayment records a payment on a billing invoice, labelling it according to
// the installment ledger rules, and evaluates the invoice's payment terms.
// The record's status, totals and version are updated in place.
func (b *BillingRecord) ApplyPayment(method PaymentMethod, amount decimal.Decimal, paidAt time.Time, rules InstallmentRules) (PaymentOutcome, error) {
	if b.Kind != KindInvoice {
		return PaymentOutcome{}, shared.ErrInvalidState
	}
	if !method.IsValid() {
		return PaymentOutcome{}, ErrInvalidPaymentMethod
	}
	if !amount.IsPositive() {
		return PaymentOutcome{}, ErrInvalidPaymentAmount
	}
	if b.Status == StatusCompleted || b.hasTerminalPayment() {
		return PaymentOutcome{}, ErrAlreadyPaid
	}

	var label InstallmentLabel
	var err error
	switch method {
	case PaymentFull:
		label, err = b.fullPaymentLabel(amount)
	default:
		label, err = b.partialPaymentLabel(amount, rules)
	}
	if err != nil {
		return PaymentOutcome{}, err
	}

	entry := PaymentEntry{
		ID:       uuid.New(),
		Label:    label,
		Amount:   amount,
		Discount: decimal.Zero,
		PaidAt:   paidAt,
	}

	eval := TermsEvaluation{}
	if terms, ok := ParseTerms(b.Terms); ok && b.InvoiceDate != nil {
		eval = terms.Evaluate(*b.InvoiceDate, paidAt, b.Total, EvaluationState{
			DiscountTaken: b.discountTaken(),
			ThirdPaid:     label == LabelThirdPay || b.countLabel(LabelThirdPay) > 0,
			Settled:       label.IsTerminal(),
		})
		entry.Discount = eval.Discount
	}

	b.Payments = append(b.Payments, entry)
	b.PaymentMethod = method
	b.PaidAmount = b.TotalPaid()
	b.RemainingBalance = b.GrandTotal.Sub(b.PaidAmount)
	if label.IsTerminal() {
		now := time.Now()
		b.Status = StatusCompleted
		b.CompletedAt = &now
	} else {
		b.Status = StatusPending
	}
	b.IncrementVersion()

	return PaymentOutcome{
		Entry:            entry,
		InstallmentCount: len(b.Payments),
		Remaining:        b.RemainingBalance,
		Terms:            eval,
	}, nil
}

func (b *BillingRecord) fullPaymentLabel(amount decimal.Decimal) (InstallmentLabel, error) {
	if b.HasPayments() {
		return "", ErrPaymentInProgress
	}
	if !amount.Equal(b.GrandTotal) {
		return "", ErrFullPaymentMismatch
	}
	return LabelFullPay, nil
}

func (b *BillingRecord) partialPaymentLabel(amount decimal.Decimal, rules InstallmentRules) (InstallmentLabel, error) {
	n := len(b.Payments)
	paid := b.TotalPaid()
	remaining := b.GrandTotal.Sub(paid)

	switch {
	case n == 0:
		if amount.Equal(b.GrandTotal) {
			return "", ErrUseFullPayment
		}
		if amount.LessThan(b.GrandTotal.Mul(rules.MinDownPaymentRatio)) {
			return "", ErrMinDownPayment
		}
		if amount.GreaterThan(b.GrandTotal) {
			return "", ErrExceedsRemaining
		}
		return LabelFirstPay, nil
	case n < rules.MaxPartialPayments:
		if amount.GreaterThan(remaining) {
			return "", ErrExceedsRemaining
		}
		if paid.Add(amount).Equal(b.GrandTotal) {
			return LabelFinalPay, nil
		}
		return partialLabels[min(n, len(partialLabels)-1)], nil
	case n == rules.MaxPartialPayments:
		if !paid.Add(amount).Equal(b.GrandTotal) {
			return "", ErrFinalPaymentMismatch
		}
		return LabelFinalPay, nil
	}
	return "", ErrInstallmentLimit
}
