package billing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/erp/procurement/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var termsPattern = regexp.MustCompile(`(\d+)/(\d+),\s*n/(\d+)`)

// Terms is a parsed "rate/discountDays, n/netDays" payment term, e.g. "2/10, n/30"
type Terms struct {
	DiscountRate decimal.Decimal
	DiscountDays int
	NetDays      int
}

// ParseTerms extracts the first terms expression from s
func ParseTerms(s string) (Terms, bool) {
	m := termsPattern.FindStringSubmatch(s)
	if m == nil {
		return Terms{}, false
	}
	rate, err := decimal.NewFromString(m[1])
	if err != nil {
		return Terms{}, false
	}
	discountDays, err := strconv.Atoi(m[2])
	if err != nil {
		return Terms{}, false
	}
	netDays, err := strconv.Atoi(m[3])
	if err != nil {
		return Terms{}, false
	}
	return Terms{DiscountRate: rate, DiscountDays: discountDays, NetDays: netDays}, true
}

// AlertKind classifies a terms alert surfaced to the payer
type AlertKind string

const (
	AlertDiscount AlertKind = "discount"
	AlertReminder AlertKind = "reminder"
	AlertOverdue  AlertKind = "overdue"
)

// Alert is a human-readable notice produced while evaluating terms
type Alert struct {
	Kind    AlertKind `json:"kind"`
	Message string    `json:"message"`
}

// EvaluationState is the part of the installment history that affects terms
type EvaluationState struct {
	DiscountTaken bool
	ThirdPaid     bool
	Settled       bool
}

// TermsEvaluation is the result of checking one payment against the terms
type TermsEvaluation struct {
	DiffDays int
	Discount decimal.Decimal
	Alerts   []Alert
}

// HasDiscount reports whether an early-payment discount applies to the payment
func (e TermsEvaluation) HasDiscount() bool {
	return e.Discount.IsPositive()
}

// DaysBetween returns the number of days from invoice to payment, rounded up
func DaysBetween(invoiceDate, paidAt time.Time) int {
	return int(math.Ceil(paidAt.Sub(invoiceDate).Hours() / 24))
}

// Evaluate checks a payment made at paidAt against the terms.
// Inside the discount window the payment earns total*rate/100, once per invoice.
// Outside it, an unsettled invoice gets a reminder, or an overdue warning once
// the third installment exists.
func (t Terms) Evaluate(invoiceDate, paidAt time.Time, total decimal.Decimal, st EvaluationState) TermsEvaluation {
	diff := DaysBetween(invoiceDate, paidAt)
	eval := TermsEvaluation{DiffDays: diff, Discount: decimal.Zero}

	if diff <= t.DiscountDays {
		if st.DiscountTaken {
			return eval
		}
		eval.Discount = valueobject.RoundHalfUp(valueobject.Percent(total, t.DiscountRate))
		eval.Alerts = append(eval.Alerts, Alert{
			Kind: AlertDiscount,
			Message: fmt.Sprintf("Paid within %d days: early payment discount of %s (%s%%) applied",
				t.DiscountDays, valueobject.NewMoneyIDR(eval.Discount), t.DiscountRate),
		})
		return eval
	}

	if st.Settled {
		return eval
	}
	if st.ThirdPaid {
		eval.Alerts = append(eval.Alerts, overdueAlert(t, diff))
		return eval
	}
	eval.Alerts = append(eval.Alerts, reminderAlert(t, diff))
	return eval
}

// DueAlert reports where an open invoice stands against its terms at asOf,
// without a payment being made. Completed invoices, invoices without parseable
// terms and invoices without an invoice date yield no alert.
func (b *BillingRecord) DueAlert(asOf time.Time) (Alert, bool) {
	if b.Kind != KindInvoice || b.Status == StatusCompleted || b.InvoiceDate == nil {
		return Alert{}, false
	}
	t, ok := ParseTerms(b.Terms)
	if !ok {
		return Alert{}, false
	}

	diff := DaysBetween(*b.InvoiceDate, asOf)
	switch {
	case diff <= t.DiscountDays && !b.discountTaken():
		discount := valueobject.RoundHalfUp(valueobject.Percent(b.Total, t.DiscountRate))
		return Alert{
			Kind: AlertDiscount,
			Message: fmt.Sprintf("Early payment discount of %s (%s%%) available for %d more days",
				valueobject.NewMoneyIDR(discount), t.DiscountRate, t.DiscountDays-diff),
		}, true
	case diff > t.DiscountDays && b.countLabel(LabelThirdPay) > 0:
		return overdueAlert(t, diff), true
	}
	return reminderAlert(t, diff), true
}

func overdueAlert(t Terms, diff int) Alert {
	msg := fmt.Sprintf("Discount window of %d days has passed after the third installment; the balance is overdue", t.DiscountDays)
	if diff > t.NetDays {
		msg = fmt.Sprintf("Payment is overdue by %d days past the net %d-day term", diff-t.NetDays, t.NetDays)
	}
	return Alert{Kind: AlertOverdue, Message: msg}
}

func reminderAlert(t Terms, diff int) Alert {
	remaining := t.NetDays - diff
	if remaining < 0 {
		remaining = 0
	}
	msg := fmt.Sprintf("%d days remain before the net %d-day due date", remaining, t.NetDays)
	if diff > t.DiscountDays {
		msg = fmt.Sprintf("Discount window of %d days has passed; %s", t.DiscountDays, msg)
	}
	return Alert{Kind: AlertReminder, Message: msg}
}
