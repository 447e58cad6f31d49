package procurement

import (
	"time"

	"github.com/erp/procurement/internal/domain/billing"
	"github.com/erp/procurement/internal/domain/document"
	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/journal"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// LineItemInput is one line of a document payload
type LineItemInput struct {
	StockName    string          `json:"stock_name" binding:"required,max=200"`
	AccountCode  string          `json:"account_code" binding:"max=50"`
	Description  string          `json:"description" binding:"max=500"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	ReturnUnit   decimal.Decimal `json:"return_unit"`
	Price        decimal.Decimal `json:"price"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountType string          `json:"discount_type" binding:"omitempty,oneof=percentage nominal"`
}

// DocumentInput is the add/edit payload for every document kind
type DocumentInput struct {
	Number            int64           `json:"number" binding:"min=0"`
	VendorName        string          `json:"vendor_name" binding:"required,max=200"`
	Description       string          `json:"description" binding:"max=2000"`
	DocumentDate      string          `json:"document_date"`
	TaxMethod         string          `json:"tax_method" binding:"required"`
	PPNPercent        decimal.Decimal `json:"ppn_percent"`
	PPhPercent        decimal.Decimal `json:"pph_percent"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	FreightIn         decimal.Decimal `json:"freight_in"`
	Insurance         decimal.Decimal `json:"insurance"`
	Discount          decimal.Decimal `json:"discount"`
	InvoiceDate       string          `json:"invoice_date"`
	Terms             string          `json:"terms" binding:"max=100"`
	Items             []LineItemInput `json:"items" binding:"required,min=1,dive"`
}

// toDomain converts the payload; the caller supplies the requesting user
func (in DocumentInput) toDomain(requestedBy string) (document.Input, error) {
	method, err := tax.ParseMethod(in.TaxMethod)
	if err != nil {
		return document.Input{}, err
	}
	docDate, err := parseOptionalDate(in.DocumentDate, "document_date")
	if err != nil {
		return document.Input{}, err
	}
	invoiceDate, err := parseOptionalDate(in.InvoiceDate, "invoice_date")
	if err != nil {
		return document.Input{}, err
	}
	out := document.Input{
		Number:            in.Number,
		VendorName:        in.VendorName,
		Description:       in.Description,
		RequestedBy:       requestedBy,
		TaxMethod:         method,
		PPNPercent:        in.PPNPercent,
		PPhPercent:        in.PPhPercent,
		InstallmentAmount: in.InstallmentAmount,
		FreightIn:         in.FreightIn,
		Insurance:         in.Insurance,
		GlobalDiscount:    in.Discount,
		InvoiceDate:       invoiceDate,
		Terms:             in.Terms,
		Items:             make([]document.LineItem, len(in.Items)),
	}
	if docDate != nil {
		out.DocumentDate = *docDate
	}
	for i, it := range in.Items {
		out.Items[i] = document.LineItem{
			StockName:    it.StockName,
			AccountCode:  it.AccountCode,
			Description:  it.Description,
			Quantity:     it.Quantity,
			ReturnUnit:   it.ReturnUnit,
			Price:        it.Price,
			Discount:     it.Discount,
			DiscountType: inventory.DiscountType(it.DiscountType),
		}
	}
	return out, nil
}

func parseOptionalDate(s, field string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION_DATE", field+" must be formatted as YYYY-MM-DD")
	}
	return &t, nil
}

// DocumentResponse is the API view of a document
type DocumentResponse struct {
	ID                uuid.UUID             `json:"id"`
	Kind              document.Kind         `json:"kind"`
	Number            int64                 `json:"number"`
	DisplayNumber     string                `json:"display_number"`
	VendorName        string                `json:"vendor_name"`
	Description       string                `json:"description"`
	RequestedBy       string                `json:"requested_by"`
	DocumentDate      time.Time             `json:"document_date"`
	Status            document.Status       `json:"status"`
	TaxMethod         tax.Method            `json:"tax_method"`
	PPNPercent        decimal.Decimal       `json:"ppn_percent"`
	PPhPercent        decimal.Decimal       `json:"pph_percent"`
	Total             decimal.Decimal       `json:"total"`
	DPP               decimal.Decimal       `json:"dpp"`
	PPN               decimal.Decimal       `json:"ppn"`
	PPh               decimal.Decimal       `json:"pph"`
	GrandTotal        decimal.Decimal       `json:"grand_total"`
	InstallmentAmount decimal.Decimal       `json:"installment_amount"`
	FreightIn         decimal.Decimal       `json:"freight_in"`
	Insurance         decimal.Decimal       `json:"insurance"`
	Discount          decimal.Decimal       `json:"discount"`
	InvoiceDate       *time.Time            `json:"invoice_date,omitempty"`
	Terms             string                `json:"terms,omitempty"`
	Items             []document.LineItem   `json:"items"`
	Attachments       []document.Attachment `json:"attachments"`
	ApprovedBy        string                `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time            `json:"approved_at,omitempty"`
	RejectReason      string                `json:"reject_reason,omitempty"`
	Version           int                   `json:"version"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// ToDocumentResponse converts a domain document
func ToDocumentResponse(d *document.Document) DocumentResponse {
	attachments := d.Attachments
	if attachments == nil {
		attachments = []document.Attachment{}
	}
	return DocumentResponse{
		ID:                d.ID,
		Kind:              d.Kind,
		Number:            d.Number,
		DisplayNumber:     d.DisplayNumber(),
		VendorName:        d.VendorName,
		Description:       d.Description,
		RequestedBy:       d.RequestedBy,
		DocumentDate:      d.DocumentDate,
		Status:            d.Status,
		TaxMethod:         d.TaxMethod,
		PPNPercent:        d.PPNPercent,
		PPhPercent:        d.PPhPercent,
		Total:             d.Total,
		DPP:               d.DPP,
		PPN:               d.PPN,
		PPh:               d.PPh,
		GrandTotal:        d.GrandTotal,
		InstallmentAmount: d.InstallmentAmount,
		FreightIn:         d.FreightIn,
		Insurance:         d.Insurance,
		Discount:          d.GlobalDiscount,
		InvoiceDate:       d.InvoiceDate,
		Terms:             d.Terms,
		Items:             d.Items,
		Attachments:       attachments,
		ApprovedBy:        d.ApprovedBy,
		ApprovedAt:        d.ApprovedAt,
		RejectReason:      d.RejectReason,
		Version:           d.Version,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// BillingResponse is the API view of a billing record
type BillingResponse struct {
	ID                uuid.UUID              `json:"id"`
	Kind              billing.Kind           `json:"kind"`
	Number            int64                  `json:"number"`
	DisplayNumber     string                 `json:"display_number"`
	VendorName        string                 `json:"vendor_name"`
	Status            billing.Status         `json:"status"`
	TaxMethod         tax.Method             `json:"tax_method"`
	Total             decimal.Decimal        `json:"total"`
	GrandTotal        decimal.Decimal        `json:"grand_total"`
	DPP               decimal.Decimal        `json:"dpp"`
	PPN               decimal.Decimal        `json:"ppn"`
	PPh               decimal.Decimal        `json:"pph"`
	InstallmentAmount decimal.Decimal        `json:"installment_amount"`
	PaidAmount        decimal.Decimal        `json:"paid_amount"`
	RemainingBalance  decimal.Decimal        `json:"remaining_balance"`
	PaymentMethod     billing.PaymentMethod  `json:"payment_method,omitempty"`
	Terms             string                 `json:"terms,omitempty"`
	InvoiceDate       *time.Time             `json:"invoice_date,omitempty"`
	Payments          []billing.PaymentEntry `json:"payments"`
	Version           int                    `json:"version"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// ToBillingResponse converts a domain billing record
func ToBillingResponse(b *billing.BillingRecord) BillingResponse {
	payments := b.Payments
	if payments == nil {
		payments = []billing.PaymentEntry{}
	}
	return BillingResponse{
		ID:                b.ID,
		Kind:              b.Kind,
		Number:            b.Number,
		DisplayNumber:     b.DisplayNumber(),
		VendorName:        b.VendorName,
		Status:            b.Status,
		TaxMethod:         b.TaxMethod,
		Total:             b.Total,
		GrandTotal:        b.GrandTotal,
		DPP:               b.DPP,
		PPN:               b.PPN,
		PPh:               b.PPh,
		InstallmentAmount: b.InstallmentAmount,
		PaidAmount:        b.PaidAmount,
		RemainingBalance:  b.RemainingBalance,
		PaymentMethod:     b.PaymentMethod,
		Terms:             b.Terms,
		InvoiceDate:       b.InvoiceDate,
		Payments:          payments,
		Version:           b.Version,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// JournalResponse is the API view of a journal entry
type JournalResponse struct {
	ID                uuid.UUID          `json:"id"`
	TransactionNumber string             `json:"transaction_number"`
	SourceKind        journal.SourceKind `json:"source_kind"`
	SourceNumber      int64              `json:"source_number"`
	Description       string             `json:"description"`
	PostedAt          time.Time          `json:"posted_at"`
	TotalDebit        decimal.Decimal    `json:"total_debit"`
	TotalCredit       decimal.Decimal    `json:"total_credit"`
	Lines             []journal.Line     `json:"lines"`
}

// ToJournalResponse converts a domain journal entry
func ToJournalResponse(e *journal.Entry) JournalResponse {
	return JournalResponse{
		ID:                e.ID,
		TransactionNumber: e.TransactionNumber,
		SourceKind:        e.SourceKind,
		SourceNumber:      e.SourceNumber,
		Description:       e.Description,
		PostedAt:          e.PostedAt,
		TotalDebit:        e.TotalDebit(),
		TotalCredit:       e.TotalCredit(),
		Lines:             e.Lines,
	}
}

// LedgerResponse is the API view of an inventory ledger row
type LedgerResponse struct {
	ID               uuid.UUID              `json:"id"`
	StockName        string                 `json:"stock_name"`
	Month            string                 `json:"month"`
	TransactionDate  time.Time              `json:"transaction_date"`
	SourceNumber     int64                  `json:"source_number"`
	QuantityPurchase decimal.Decimal        `json:"quantity_purchase"`
	ReturnPurchase   decimal.Decimal        `json:"return_purchase"`
	PricePurchase    decimal.Decimal        `json:"price_purchase"`
	NettPurchase     decimal.Decimal        `json:"nett_purchase"`
	NettPriceItem    decimal.Decimal        `json:"nett_price_item"`
	QuantitySale     decimal.Decimal        `json:"quantity_sale"`
	PriceSale        decimal.Decimal        `json:"price_sale"`
	TotalSale        decimal.Decimal        `json:"total_sale"`
	TotalQty         decimal.Decimal        `json:"total_qty"`
	TotalStock       decimal.Decimal        `json:"total_stock"`
	AvgPerUnit       decimal.Decimal        `json:"avg_per_unit"`
	TotalCOGS        decimal.Decimal        `json:"total_cogs"`
	TotalNett        decimal.Decimal        `json:"total_nett"`
	Adjustments      []inventory.Adjustment `json:"adjustments"`
}

// ToLedgerResponse converts a domain ledger entry
func ToLedgerResponse(e *inventory.LedgerEntry) LedgerResponse {
	adjustments := e.Adjustments
	if adjustments == nil {
		adjustments = []inventory.Adjustment{}
	}
	return LedgerResponse{
		ID:               e.ID,
		StockName:        e.StockName,
		Month:            e.Month,
		TransactionDate:  e.TransactionDate,
		SourceNumber:     e.SourceNumber,
		QuantityPurchase: e.QuantityPurchase,
		ReturnPurchase:   e.ReturnPurchase,
		PricePurchase:    e.PricePurchase,
		NettPurchase:     e.NettPurchase,
		NettPriceItem:    e.NettPriceItem,
		QuantitySale:     e.QuantitySale,
		PriceSale:        e.PriceSale,
		TotalSale:        e.TotalSale,
		TotalQty:         e.TotalQty,
		TotalStock:       e.TotalStock,
		AvgPerUnit:       e.AvgPerUnit,
		TotalCOGS:        e.TotalCOGS,
		TotalNett:        e.TotalNett,
		Adjustments:      adjustments,
	}
}

// ApprovalResult reports what an approval produced
type ApprovalResult struct {
	Document          DocumentResponse  `json:"document"`
	Derived           *DocumentResponse `json:"derived,omitempty"`
	Billing           *BillingResponse  `json:"billing,omitempty"`
	TransactionNumber string            `json:"transaction_number,omitempty"`
	LedgerEntries     int               `json:"ledger_entries,omitempty"`
}

// RejectInput is the reject payload
type RejectInput struct {
	Reason string `json:"reason" binding:"max=500"`
}

// PaymentInput is the billing invoice payment payload
type PaymentInput struct {
	PaymentMethod string          `json:"payment_method" binding:"required,oneof='Full Payment' 'Partial Payment'"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate   string          `json:"payment_date"`
}

// PaymentResult reports the applied installment
type PaymentResult struct {
	Billing           BillingResponse          `json:"billing"`
	Label             billing.InstallmentLabel `json:"label"`
	InstallmentCount  int                      `json:"installment_count"`
	Remaining         decimal.Decimal          `json:"remaining_balance"`
	Discount          decimal.Decimal          `json:"discount"`
	Alerts            []billing.Alert          `json:"alerts"`
	TransactionNumber string                   `json:"transaction_number"`
}

// BillingOrderResult reports a posted billing order
type BillingOrderResult struct {
	Billing           BillingResponse `json:"billing"`
	TransactionNumber string          `json:"transaction_number"`
}

// AdjustStockInput is the stock correction payload
type AdjustStockInput struct {
	Month     string          `json:"month" binding:"required"`
	StockName string          `json:"stock_name" binding:"required"`
	Delta     decimal.Decimal `json:"delta" binding:"required"`
	Note      string          `json:"note" binding:"max=500"`
}

// AttachmentInput is an uploaded file
type AttachmentInput struct {
	FileName    string
	ContentType string
	Data        []byte
}
