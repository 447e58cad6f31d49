package models

import (
	"time"

	"github.com/erp/procurement/internal/domain/billing"
	"github.com/erp/procurement/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingRecordModel persists billing orders and billing invoices
type BillingRecordModel struct {
	AggregateModel
	Kind              string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_billing_kind_number,priority:1"`
	Number            int64     `gorm:"not null;uniqueIndex:idx_billing_kind_number,priority:2"`
	SourceID          uuid.UUID `gorm:"type:uuid;not null;index"`
	VendorName        string    `gorm:"type:varchar(200);not null"`
	InvoiceDate       *time.Time
	Terms             string `gorm:"type:varchar(100)"`
	TaxMethod         string `gorm:"type:varchar(20);not null"`
	PPNPercent        decimal.Decimal
	PPhPercent        decimal.Decimal
	Total             decimal.Decimal
	GrandTotal        decimal.Decimal
	DPP               decimal.Decimal `gorm:"column:dpp"`
	PPN               decimal.Decimal `gorm:"column:ppn"`
	PPh               decimal.Decimal `gorm:"column:pph"`
	InstallmentAmount decimal.Decimal
	PaidAmount        decimal.Decimal
	RemainingBalance  decimal.Decimal
	PaymentMethod     string `gorm:"type:varchar(30)"`
	Status            string `gorm:"type:varchar(20);not null;index"`
	CompletedAt       *time.Time
	Payments          []BillingPaymentModel `gorm:"foreignKey:BillingRecordID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (BillingRecordModel) TableName() string {
	return "billing_records"
}

// ToDomain converts the persistence model to a domain BillingRecord
func (m *BillingRecordModel) ToDomain() *billing.BillingRecord {
	b := &billing.BillingRecord{
		BaseAggregateRoot: m.Aggregate(),
		Kind:              billing.Kind(m.Kind),
		Number:            m.Number,
		SourceID:          m.SourceID,
		VendorName:        m.VendorName,
		InvoiceDate:       m.InvoiceDate,
		Terms:             m.Terms,
		TaxMethod:         tax.Method(m.TaxMethod),
		PPNPercent:        m.PPNPercent,
		PPhPercent:        m.PPhPercent,
		Total:             m.Total,
		GrandTotal:        m.GrandTotal,
		DPP:               m.DPP,
		PPN:               m.PPN,
		PPh:               m.PPh,
		InstallmentAmount: m.InstallmentAmount,
		PaidAmount:        m.PaidAmount,
		RemainingBalance:  m.RemainingBalance,
		PaymentMethod:     billing.PaymentMethod(m.PaymentMethod),
		Status:            billing.Status(m.Status),
		CompletedAt:       m.CompletedAt,
		Payments:          make([]billing.PaymentEntry, len(m.Payments)),
	}
	for i, p := range m.Payments {
		b.Payments[i] = p.ToDomain()
	}
	return b
}

// FromDomain populates the persistence model from a domain BillingRecord
func (m *BillingRecordModel) FromDomain(b *billing.BillingRecord) {
	m.SetAggregate(b.BaseAggregateRoot)
	m.Kind = string(b.Kind)
	m.Number = b.Number
	m.SourceID = b.SourceID
	m.VendorName = b.VendorName
	m.InvoiceDate = b.InvoiceDate
	m.Terms = b.Terms
	m.TaxMethod = string(b.TaxMethod)
	m.PPNPercent = b.PPNPercent
	m.PPhPercent = b.PPhPercent
	m.Total = b.Total
	m.GrandTotal = b.GrandTotal
	m.DPP = b.DPP
	m.PPN = b.PPN
	m.PPh = b.PPh
	m.InstallmentAmount = b.InstallmentAmount
	m.PaidAmount = b.PaidAmount
	m.RemainingBalance = b.RemainingBalance
	m.PaymentMethod = string(b.PaymentMethod)
	m.Status = string(b.Status)
	m.CompletedAt = b.CompletedAt
	m.Payments = make([]BillingPaymentModel, len(b.Payments))
	for i, p := range b.Payments {
		m.Payments[i] = BillingPaymentModelFromDomain(b.ID, i, p)
	}
}

// BillingRecordModelFromDomain creates a new persistence model from a domain BillingRecord
func BillingRecordModelFromDomain(b *billing.BillingRecord) *BillingRecordModel {
	m := &BillingRecordModel{}
	m.FromDomain(b)
	return m
}

// BillingPaymentModel is one installment history row. Rows are append-only.
type BillingPaymentModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	BillingRecordID uuid.UUID `gorm:"type:uuid;not null;index"`
	Sequence        int       `gorm:"not null"`
	Label           string    `gorm:"type:varchar(20);not null"`
	Amount          decimal.Decimal
	Discount        decimal.Decimal
	PaidAt          time.Time
}

// TableName returns the table name for GORM
func (BillingPaymentModel) TableName() string {
	return "billing_payments"
}

// ToDomain converts the row to a domain PaymentEntry
func (m BillingPaymentModel) ToDomain() billing.PaymentEntry {
	return billing.PaymentEntry{
		ID:       m.ID,
		Label:    billing.InstallmentLabel(m.Label),
		Amount:   m.Amount,
		Discount: m.Discount,
		PaidAt:   m.PaidAt,
	}
}

// BillingPaymentModelFromDomain creates a payment row at position seq
func BillingPaymentModelFromDomain(recordID uuid.UUID, seq int, p billing.PaymentEntry) BillingPaymentModel {
	return BillingPaymentModel{
		ID:              p.ID,
		BillingRecordID: recordID,
		Sequence:        seq,
		Label:           string(p.Label),
		Amount:          p.Amount,
		Discount:        p.Discount,
		PaidAt:          p.PaidAt,
	}
}
