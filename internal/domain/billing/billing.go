// Package billing models billing orders (down payments requested alongside a
// purchase request) and billing invoices (vendor invoices awaiting payment),
// including the installment ledger that governs partial payments.
package billing

import (
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind distinguishes the two billing record families
type Kind string

const (
	KindOrder   Kind = "billing_order"
	KindInvoice Kind = "billing_invoice"
)

// IsValid reports whether k is a billing kind
func (k Kind) IsValid() bool {
	return k == KindOrder || k == KindInvoice
}

// Prefix returns the display prefix for numbers of this kind
func (k Kind) Prefix() string {
	if k == KindOrder {
		return "BILORD"
	}
	return "BILINV"
}

// Status of a billing record
type Status string

const (
	StatusPending   Status = "Pending"   // billing order awaiting approval, or invoice with partial payments
	StatusUnpaid    Status = "Unpaid"    // invoice approved, no payment yet
	StatusCompleted Status = "Completed" // posted to the chart of accounts / fully paid
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusUnpaid, StatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// PaymentMethod is how a billing invoice is being settled
type PaymentMethod string

const (
	PaymentFull    PaymentMethod = "Full Payment"
	PaymentPartial PaymentMethod = "Partial Payment"
)

// IsValid reports whether m is a known payment method
func (m PaymentMethod) IsValid() bool {
	return m == PaymentFull || m == PaymentPartial
}

// BillingRecord is the aggregate root for both billing orders and billing invoices.
// Number is shared with the source document (request or invoice).
type BillingRecord struct {
	shared.BaseAggregateRoot
	Kind              Kind
	Number            int64
	SourceID          uuid.UUID
	VendorName        string
	InvoiceDate       *time.Time
	Terms             string
	TaxMethod         tax.Method
	PPNPercent        decimal.Decimal
	PPhPercent        decimal.Decimal
	Total             decimal.Decimal
	GrandTotal        decimal.Decimal
	DPP               decimal.Decimal
	PPN               decimal.Decimal
	PPh               decimal.Decimal
	InstallmentAmount decimal.Decimal
	PaidAmount        decimal.Decimal
	RemainingBalance  decimal.Decimal
	PaymentMethod     PaymentMethod
	Status            Status
	Payments          []PaymentEntry
	CompletedAt       *time.Time
}

// OrderParams carries the figures copied from an approved request
type OrderParams struct {
	Number            int64
	SourceID          uuid.UUID
	VendorName        string
	TaxMethod         tax.Method
	PPNPercent        decimal.Decimal
	PPhPercent        decimal.Decimal
	Total             decimal.Decimal
	GrandTotal        decimal.Decimal
	InstallmentAmount decimal.Decimal
}

// NewBillingOrder creates a Pending billing order for a request's down payment
func NewBillingOrder(p OrderParams) (*BillingRecord, error) {
	if !p.InstallmentAmount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_INSTALLMENT", "Installment amount must be greater than zero")
	}
	if !p.TaxMethod.IsValid() {
		return nil, tax.ErrInvalidMethod
	}
	return &BillingRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              KindOrder,
		Number:            p.Number,
		SourceID:          p.SourceID,
		VendorName:        p.VendorName,
		TaxMethod:         p.TaxMethod,
		PPNPercent:        p.PPNPercent,
		PPhPercent:        p.PPhPercent,
		Total:             p.Total,
		GrandTotal:        p.GrandTotal,
		InstallmentAmount: p.InstallmentAmount,
		PaidAmount:        decimal.Zero,
		RemainingBalance:  p.InstallmentAmount,
		Status:            StatusPending,
	}, nil
}

// InvoiceParams carries the figures copied from an approved invoice
type InvoiceParams struct {
	Number      int64
	SourceID    uuid.UUID
	VendorName  string
	InvoiceDate *time.Time
	Terms       string
	TaxMethod   tax.Method
	PPNPercent  decimal.Decimal
	PPhPercent  decimal.Decimal
	Total       decimal.Decimal
	GrandTotal  decimal.Decimal
	DPP         decimal.Decimal
	PPN         decimal.Decimal
	PPh         decimal.Decimal
}

// NewBillingInvoice creates an Unpaid billing invoice
func NewBillingInvoice(p InvoiceParams) (*BillingRecord, error) {
	if !p.GrandTotal.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_GRAND_TOTAL", "Grand total must be greater than zero")
	}
	return &BillingRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              KindInvoice,
		Number:            p.Number,
		SourceID:          p.SourceID,
		VendorName:        p.VendorName,
		InvoiceDate:       p.InvoiceDate,
		Terms:             p.Terms,
		TaxMethod:         p.TaxMethod,
		PPNPercent:        p.PPNPercent,
		PPhPercent:        p.PPhPercent,
		Total:             p.Total,
		GrandTotal:        p.GrandTotal,
		DPP:               p.DPP,
		PPN:               p.PPN,
		PPh:               p.PPh,
		PaidAmount:        decimal.Zero,
		RemainingBalance:  p.GrandTotal,
		Status:            StatusUnpaid,
	}, nil
}

// ApproveOrder posts a Pending billing order. paid is the policy amount from tax.PaidAmount.
func (b *BillingRecord) ApproveOrder(r tax.Result, paid decimal.Decimal) error {
	if b.Kind != KindOrder {
		return shared.ErrInvalidState
	}
	if b.Status != StatusPending {
		return shared.ErrNotActionable
	}
	now := time.Now()
	b.DPP = r.DPP
	b.PPN = r.PPN
	b.PPh = r.PPh
	b.PaidAmount = paid
	b.RemainingBalance = decimal.Zero
	b.Status = StatusCompleted
	b.CompletedAt = &now
	b.IncrementVersion()
	return nil
}

// DisplayNumber renders e.g. BILINV-00123
func (b *BillingRecord) DisplayNumber() string {
	return shared.FormatNumber(b.Kind.Prefix(), b.Number)
}

// IsCompleted reports whether the record reached its terminal status
func (b *BillingRecord) IsCompleted() bool {
	return b.Status == StatusCompleted
}

// HasPayments reports whether any installment has been recorded
func (b *BillingRecord) HasPayments() bool {
	return len(b.Payments) > 0
}
