// Package document holds the six procurement document kinds (request, order,
// quotation, offer, shipment, invoice) and their approval lifecycle.
package document

import (
	"strings"
	"time"

	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one priced line of a document
type LineItem struct {
	ID           uuid.UUID              `json:"id"`
	StockName    string                 `json:"stock_name"`
	AccountCode  string                 `json:"account_code"`
	Description  string                 `json:"description"`
	Quantity     decimal.Decimal        `json:"quantity"`
	ReturnUnit   decimal.Decimal        `json:"return_unit"`
	Price        decimal.Decimal        `json:"price"`
	Discount     decimal.Decimal        `json:"discount"`
	DiscountType inventory.DiscountType `json:"discount_type"`
	TotalPerItem decimal.Decimal        `json:"total_per_item"`
}

// Attachment references an uploaded blob
type Attachment struct {
	ID          uuid.UUID `json:"id"`
	Path        string    `json:"path"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
}

// Document is the aggregate root shared by all procurement kinds
type Document struct {
	shared.BaseAggregateRoot
	Kind              Kind
	Number            int64
	VendorName        string
	Description       string
	RequestedBy       string
	DocumentDate      time.Time
	Status            Status
	TaxMethod         tax.Method
	PPNPercent        decimal.Decimal
	PPhPercent        decimal.Decimal
	Total             decimal.Decimal
	DPP               decimal.Decimal
	PPN               decimal.Decimal
	PPh               decimal.Decimal
	GrandTotal        decimal.Decimal
	InstallmentAmount decimal.Decimal
	FreightIn         decimal.Decimal
	Insurance         decimal.Decimal
	GlobalDiscount    decimal.Decimal
	InvoiceDate       *time.Time
	Terms             string
	Items             []LineItem
	Attachments       []Attachment
	ApprovedBy        string
	ApprovedAt        *time.Time
	RejectedBy        string
	RejectedAt        *time.Time
	RejectReason      string
}

// Input is the editable content of a document
type Input struct {
	Number            int64
	VendorName        string
	Description       string
	RequestedBy       string
	DocumentDate      time.Time
	TaxMethod         tax.Method
	PPNPercent        decimal.Decimal
	PPhPercent        decimal.Decimal
	InstallmentAmount decimal.Decimal
	FreightIn         decimal.Decimal
	Insurance         decimal.Decimal
	GlobalDiscount    decimal.Decimal
	InvoiceDate       *time.Time
	Terms             string
	Items             []LineItem
}

// New creates a Pending document with computed totals
func New(kind Kind, in Input) (*Document, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_KIND", "Unknown document kind")
	}
	d := &Document{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		Status:            StatusPending,
	}
	if err := d.apply(in); err != nil {
		return nil, err
	}
	return d, nil
}

// Update replaces the editable content and recomputes totals
func (d *Document) Update(in Input) error {
	if err := d.apply(in); err != nil {
		return err
	}
	d.IncrementVersion()
	return nil
}

func (d *Document) apply(in Input) error {
	if in.Number <= 0 {
		return shared.NewDomainError("VALIDATION_NUMBER", "Document number must be a positive integer")
	}
	if strings.TrimSpace(in.VendorName) == "" {
		return shared.NewDomainError("VALIDATION_VENDOR", "Vendor name cannot be empty")
	}
	if !in.TaxMethod.IsValid() {
		return tax.ErrInvalidMethod
	}
	if len(in.Items) == 0 {
		return shared.NewDomainError("VALIDATION_ITEMS", "Document must have at least one line item")
	}
	if in.InstallmentAmount.IsNegative() || in.FreightIn.IsNegative() || in.Insurance.IsNegative() || in.GlobalDiscount.IsNegative() {
		return shared.NewDomainError("VALIDATION_AMOUNT", "Amounts cannot be negative")
	}

	items := make([]LineItem, len(in.Items))
	for i, it := range in.Items {
		if strings.TrimSpace(it.StockName) == "" {
			return shared.NewDomainError("VALIDATION_ITEM_NAME", "Line item stock name cannot be empty")
		}
		if !it.Quantity.IsPositive() {
			return shared.NewDomainError("VALIDATION_ITEM_QUANTITY", "Line item quantity must be greater than zero")
		}
		if it.Price.IsNegative() || it.Discount.IsNegative() || it.ReturnUnit.IsNegative() {
			return shared.NewDomainError("VALIDATION_ITEM_AMOUNT", "Line item amounts cannot be negative")
		}
		if it.ReturnUnit.GreaterThan(it.Quantity) {
			return shared.NewDomainError("VALIDATION_ITEM_RETURN", "Returned units cannot exceed quantity")
		}
		if !it.DiscountType.IsValid() {
			return shared.NewDomainError("VALIDATION_DISCOUNT_TYPE", "Discount type must be 'percentage' or 'nominal'")
		}
		if it.DiscountType == "" {
			it.DiscountType = inventory.DiscountPercentage
		}
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		items[i] = it
	}

	d.Number = in.Number
	d.VendorName = strings.TrimSpace(in.VendorName)
	d.Description = in.Description
	d.RequestedBy = in.RequestedBy
	d.DocumentDate = in.DocumentDate
	if d.DocumentDate.IsZero() {
		d.DocumentDate = time.Now()
	}
	d.TaxMethod = in.TaxMethod
	d.PPNPercent = in.PPNPercent
	d.PPhPercent = in.PPhPercent
	d.InstallmentAmount = in.InstallmentAmount
	d.FreightIn = in.FreightIn
	d.Insurance = in.Insurance
	d.GlobalDiscount = in.GlobalDiscount
	d.InvoiceDate = in.InvoiceDate
	d.Terms = in.Terms
	d.Items = items
	return d.Recalculate()
}

// Recalculate derives line totals, the document total and its tax figures.
// Before Calculate prices exclude VAT so PPN is added on top; After Calculate
// prices already include it.
func (d *Document) Recalculate() error {
	total := decimal.Zero
	for i := range d.Items {
		d.Items[i].TotalPerItem = d.Items[i].Quantity.Mul(d.Items[i].Price)
		total = total.Add(d.Items[i].TotalPerItem)
	}
	r, err := tax.Compute(total, d.TaxMethod, d.PPNPercent, d.PPhPercent)
	if err != nil {
		return err
	}
	d.Total = total
	d.DPP = r.DPP
	d.PPN = r.PPN
	d.PPh = r.PPh

	grand := total
	if d.TaxMethod == tax.MethodBefore {
		grand = grand.Add(r.PPN)
	}
	d.GrandTotal = grand.Add(d.FreightIn).Add(d.Insurance).Sub(d.GlobalDiscount)
	if d.InstallmentAmount.GreaterThan(d.GrandTotal) {
		return shared.NewDomainError("VALIDATION_INSTALLMENT", "Installment amount cannot exceed the grand total")
	}
	return nil
}

// DisplayNumber renders e.g. REQ-00123
func (d *Document) DisplayNumber() string {
	return shared.FormatNumber(d.Kind.Prefix(), d.Number)
}

// HasInstallment reports whether approving the document raises a billing order
func (d *Document) HasInstallment() bool {
	return d.Kind == KindRequest && d.InstallmentAmount.IsPositive()
}

// Approve advances the document one approval step and returns the new status
func (d *Document) Approve(actor string) (Status, error) {
	next, ok := NextOnApprove(d.Kind, d.Status)
	if !ok {
		return "", shared.ErrNotActionable
	}
	now := time.Now()
	d.Status = next
	d.ApprovedBy = actor
	d.ApprovedAt = &now
	d.IncrementVersion()
	return next, nil
}

// Reject moves a Pending or Received document to Rejected
func (d *Document) Reject(actor, reason string) error {
	if !CanReject(d.Status) {
		return shared.ErrNotActionable
	}
	now := time.Now()
	d.Status = StatusRejected
	d.RejectedBy = actor
	d.RejectedAt = &now
	d.RejectReason = reason
	d.IncrementVersion()
	return nil
}

// ResetToPending reopens a document after its downstream records were removed
func (d *Document) ResetToPending() {
	d.Status = StatusPending
	d.ApprovedBy = ""
	d.ApprovedAt = nil
}

// DeriveFor builds the document created on approval (order from request,
// offer from quotation). It shares number, vendor, items and tax settings;
// the installment stays on the billing order.
func (d *Document) DeriveFor(kind Kind) (*Document, error) {
	items := make([]LineItem, len(d.Items))
	for i, it := range d.Items {
		it.ID = uuid.New()
		items[i] = it
	}
	return New(kind, Input{
		Number:         d.Number,
		VendorName:     d.VendorName,
		Description:    d.Description,
		RequestedBy:    d.RequestedBy,
		DocumentDate:   time.Now(),
		TaxMethod:      d.TaxMethod,
		PPNPercent:     d.PPNPercent,
		PPhPercent:     d.PPhPercent,
		FreightIn:      d.FreightIn,
		Insurance:      d.Insurance,
		GlobalDiscount: d.GlobalDiscount,
		Items:          items,
	})
}

// LedgerDate is the date an invoice's ledger rows carry: the invoice date when
// set, otherwise the document date
func (d *Document) LedgerDate() time.Time {
	if d.InvoiceDate != nil {
		return *d.InvoiceDate
	}
	return d.DocumentDate
}

// PurchaseCosts maps an invoice onto the inventory costing input
func (d *Document) PurchaseCosts() inventory.InvoiceCosts {
	lines := make([]inventory.PurchaseLine, len(d.Items))
	for i, it := range d.Items {
		lines[i] = inventory.PurchaseLine{
			StockName:    it.StockName,
			AccountCode:  it.AccountCode,
			Quantity:     it.Quantity,
			ReturnUnit:   it.ReturnUnit,
			Price:        it.Price,
			Discount:     it.Discount,
			DiscountType: it.DiscountType,
		}
	}
	return inventory.InvoiceCosts{
		FreightIn:      d.FreightIn,
		Insurance:      d.Insurance,
		GlobalDiscount: d.GlobalDiscount,
		Lines:          lines,
	}
}

// AddAttachment records an uploaded blob reference
func (d *Document) AddAttachment(a Attachment) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	d.Attachments = append(d.Attachments, a)
	d.IncrementVersion()
}

// AttachmentPaths lists blob paths for removal
func (d *Document) AttachmentPaths() []string {
	paths := make([]string, 0, len(d.Attachments))
	for _, a := range d.Attachments {
		paths = append(paths, a.Path)
	}
	return paths
}
