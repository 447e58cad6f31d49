package models

import (
	"time"

	"github.com/erp/procurement/internal/domain/document"
	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentModel is the persistence model for all procurement document kinds.
// Decimal columns are NUMERIC in the SQL migrations.
type DocumentModel struct {
	AggregateModel
	Kind              string `gorm:"type:varchar(20);not null;uniqueIndex:idx_documents_kind_number,priority:1"`
	Number            int64  `gorm:"not null;uniqueIndex:idx_documents_kind_number,priority:2"`
	VendorName        string `gorm:"type:varchar(200);not null;index"`
	Description       string `gorm:"type:text"`
	RequestedBy       string `gorm:"type:varchar(100)"`
	DocumentDate      time.Time
	Status            string `gorm:"type:varchar(20);not null;index"`
	TaxMethod         string `gorm:"type:varchar(20);not null"`
	PPNPercent        decimal.Decimal
	PPhPercent        decimal.Decimal
	Total             decimal.Decimal
	DPP               decimal.Decimal `gorm:"column:dpp"`
	PPN               decimal.Decimal `gorm:"column:ppn"`
	PPh               decimal.Decimal `gorm:"column:pph"`
	GrandTotal        decimal.Decimal
	InstallmentAmount decimal.Decimal
	FreightIn         decimal.Decimal
	Insurance         decimal.Decimal
	GlobalDiscount    decimal.Decimal
	InvoiceDate       *time.Time
	Terms             string `gorm:"type:varchar(100)"`
	ApprovedBy        string `gorm:"type:varchar(100)"`
	ApprovedAt        *time.Time
	RejectedBy        string `gorm:"type:varchar(100)"`
	RejectedAt        *time.Time
	RejectReason      string                    `gorm:"type:text"`
	Items             []DocumentItemModel       `gorm:"foreignKey:DocumentID;references:ID;constraint:OnDelete:CASCADE"`
	Attachments       []DocumentAttachmentModel `gorm:"foreignKey:DocumentID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the persistence model to a domain Document
func (m *DocumentModel) ToDomain() *document.Document {
	d := &document.Document{
		BaseAggregateRoot: m.Aggregate(),
		Kind:              document.Kind(m.Kind),
		Number:            m.Number,
		VendorName:        m.VendorName,
		Description:       m.Description,
		RequestedBy:       m.RequestedBy,
		DocumentDate:      m.DocumentDate,
		Status:            document.Status(m.Status),
		TaxMethod:         tax.Method(m.TaxMethod),
		PPNPercent:        m.PPNPercent,
		PPhPercent:        m.PPhPercent,
		Total:             m.Total,
		DPP:               m.DPP,
		PPN:               m.PPN,
		PPh:               m.PPh,
		GrandTotal:        m.GrandTotal,
		InstallmentAmount: m.InstallmentAmount,
		FreightIn:         m.FreightIn,
		Insurance:         m.Insurance,
		GlobalDiscount:    m.GlobalDiscount,
		InvoiceDate:       m.InvoiceDate,
		Terms:             m.Terms,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		RejectedBy:        m.RejectedBy,
		RejectedAt:        m.RejectedAt,
		RejectReason:      m.RejectReason,
		Items:             make([]document.LineItem, len(m.Items)),
		Attachments:       make([]document.Attachment, len(m.Attachments)),
	}
	for i, it := range m.Items {
		d.Items[i] = it.ToDomain()
	}
	for i, a := range m.Attachments {
		d.Attachments[i] = a.ToDomain()
	}
	return d
}

// FromDomain populates the persistence model from a domain Document
func (m *DocumentModel) FromDomain(d *document.Document) {
	m.SetAggregate(d.BaseAggregateRoot)
	m.Kind = string(d.Kind)
	m.Number = d.Number
	m.VendorName = d.VendorName
	m.Description = d.Description
	m.RequestedBy = d.RequestedBy
	m.DocumentDate = d.DocumentDate
	m.Status = string(d.Status)
	m.TaxMethod = string(d.TaxMethod)
	m.PPNPercent = d.PPNPercent
	m.PPhPercent = d.PPhPercent
	m.Total = d.Total
	m.DPP = d.DPP
	m.PPN = d.PPN
	m.PPh = d.PPh
	m.GrandTotal = d.GrandTotal
	m.InstallmentAmount = d.InstallmentAmount
	m.FreightIn = d.FreightIn
	m.Insurance = d.Insurance
	m.GlobalDiscount = d.GlobalDiscount
	m.InvoiceDate = d.InvoiceDate
	m.Terms = d.Terms
	m.ApprovedBy = d.ApprovedBy
	m.ApprovedAt = d.ApprovedAt
	m.RejectedBy = d.RejectedBy
	m.RejectedAt = d.RejectedAt
	m.RejectReason = d.RejectReason
	m.Items = make([]DocumentItemModel, len(d.Items))
	for i, it := range d.Items {
		m.Items[i] = DocumentItemModelFromDomain(d.ID, i, it)
	}
	m.Attachments = make([]DocumentAttachmentModel, len(d.Attachments))
	for i, a := range d.Attachments {
		m.Attachments[i] = DocumentAttachmentModelFromDomain(d.ID, a)
	}
}

// DocumentModelFromDomain creates a new persistence model from a domain Document
func DocumentModelFromDomain(d *document.Document) *DocumentModel {
	m := &DocumentModel{}
	m.FromDomain(d)
	return m
}

// DocumentItemModel is one line item row
type DocumentItemModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Position     int       `gorm:"not null"`
	StockName    string    `gorm:"type:varchar(200);not null"`
	AccountCode  string    `gorm:"type:varchar(50)"`
	Description  string    `gorm:"type:text"`
	Quantity     decimal.Decimal
	ReturnUnit   decimal.Decimal
	Price        decimal.Decimal
	Discount     decimal.Decimal
	DiscountType string `gorm:"type:varchar(20)"`
	TotalPerItem decimal.Decimal
}

// TableName returns the table name for GORM
func (DocumentItemModel) TableName() string {
	return "document_items"
}

// ToDomain converts the row to a domain LineItem
func (m DocumentItemModel) ToDomain() document.LineItem {
	return document.LineItem{
		ID:           m.ID,
		StockName:    m.StockName,
		AccountCode:  m.AccountCode,
		Description:  m.Description,
		Quantity:     m.Quantity,
		ReturnUnit:   m.ReturnUnit,
		Price:        m.Price,
		Discount:     m.Discount,
		DiscountType: inventory.DiscountType(m.DiscountType),
		TotalPerItem: m.TotalPerItem,
	}
}

// DocumentItemModelFromDomain creates an item row at position
func DocumentItemModelFromDomain(documentID uuid.UUID, position int, it document.LineItem) DocumentItemModel {
	return DocumentItemModel{
		ID:           it.ID,
		DocumentID:   documentID,
		Position:     position,
		StockName:    it.StockName,
		AccountCode:  it.AccountCode,
		Description:  it.Description,
		Quantity:     it.Quantity,
		ReturnUnit:   it.ReturnUnit,
		Price:        it.Price,
		Discount:     it.Discount,
		DiscountType: string(it.DiscountType),
		TotalPerItem: it.TotalPerItem,
	}
}

// DocumentAttachmentModel references an uploaded blob
type DocumentAttachmentModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Path        string    `gorm:"type:varchar(500);not null"`
	FileName    string    `gorm:"type:varchar(255);not null"`
	ContentType string    `gorm:"type:varchar(100)"`
	Size        int64
}

// TableName returns the table name for GORM
func (DocumentAttachmentModel) TableName() string {
	return "document_attachments"
}

// ToDomain converts the row to a domain Attachment
func (m DocumentAttachmentModel) ToDomain() document.Attachment {
	return document.Attachment{
		ID:          m.ID,
		Path:        m.Path,
		FileName:    m.FileName,
		ContentType: m.ContentType,
		Size:        m.Size,
	}
}

// DocumentAttachmentModelFromDomain creates an attachment row
func DocumentAttachmentModelFromDomain(documentID uuid.UUID, a document.Attachment) DocumentAttachmentModel {
	return DocumentAttachmentModel{
		ID:          a.ID,
		DocumentID:  documentID,
		Path:        a.Path,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Size:        a.Size,
	}
}
