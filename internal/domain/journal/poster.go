package journal

import (
	"time"

	"github.com/erp/procurement/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Accounts holds the chart-of-accounts codes the poster books against
type Accounts struct {
	Cash           string
	VATIn          string
	PrepaidPPh     string
	VendorPayable  string
	AdvancePayment string
	TaxClearing    string
	Inventory      string // used for lines without their own account
}

// Poster turns procurement events into balanced journal entries
type Poster struct {
	accounts Accounts
}

// NewPoster creates a poster over the given accounts
func NewPoster(accounts Accounts) *Poster {
	return &Poster{accounts: accounts}
}

// InventoryAccount returns code, or the default inventory account when code is empty
func (p *Poster) InventoryAccount(code string) string {
	if code == "" {
		return p.accounts.Inventory
	}
	return code
}

// Accounts returns the configured account codes
func (p *Poster) Accounts() Accounts {
	return p.accounts
}

// BillingOrderApproval books a down payment: installment and VAT-in against cash.
// Cash is credited with the recorded paid amount; any gap against the debit side
// goes to the tax clearing account so the entry stays balanced.
func (p *Poster) BillingOrderApproval(number int64, installment, ppn, paid decimal.Decimal, at time.Time) (*Entry, error) {
	e := newEntry(TransactionNumber("ORD", number), SourceBillingOrder, number, "Down payment posted from billing order", at)
	e.Debit(p.accounts.AdvancePayment, installment, "installment")
	e.Debit(p.accounts.VATIn, ppn, "PPN masukan")
	e.Credit(p.accounts.Cash, paid, "paid amount")
	e.post(p.accounts.TaxClearing, paid.Sub(installment.Add(ppn)), "paid amount difference")
	return e, e.Validate()
}

// PaymentParams describes a settled billing invoice payment
type PaymentParams struct {
	Number int64
	Count  int
	Amount decimal.Decimal
	PPN    decimal.Decimal
	// PPh is booked only when non-zero; callers pass it on full or final payments
	PPh    decimal.Decimal
	PaidAt time.Time
}

// FullPayment books a full settlement. PPh, when present, is a separate prepaid leg.
func (p *Poster) FullPayment(params PaymentParams) (*Entry, error) {
	return p.payment(params, "Full payment of billing invoice")
}

// PartialPayment books one installment with the same shape as a full payment
func (p *Poster) PartialPayment(params PaymentParams) (*Entry, error) {
	return p.payment(params, "Installment payment of billing invoice")
}

func (p *Poster) payment(params PaymentParams, description string) (*Entry, error) {
	e := newEntry(InstallmentTransactionNumber(params.Number, params.Count), SourceBillingInvoice, params.Number, description, params.PaidAt)
	e.Debit(p.accounts.VendorPayable, params.Amount, "vendor")
	e.Debit(p.accounts.VATIn, params.PPN, "PPN masukan")
	e.Credit(p.accounts.Cash, params.Amount.Add(params.PPN), "payment")
	if params.PPh.IsPositive() {
		e.Debit(p.accounts.PrepaidPPh, params.PPh, "PPh dibayar dimuka")
		e.Credit(p.accounts.Cash, params.PPh, "PPh")
	}
	return e, e.Validate()
}

// InventoryDebit is one invoice line's net cost on its inventory account
type InventoryDebit struct {
	AccountCode string
	Amount      decimal.Decimal
	Memo        string
}

// InvoiceApproval books received inventory: each line's inventory account is debited,
// down payments already posted are credited back from the advance account and the
// vendor is credited with the rest.
func (p *Poster) InvoiceApproval(number int64, lines []InventoryDebit, downPayments []decimal.Decimal, at time.Time) (*Entry, error) {
	e := newEntry(TransactionNumber("INV", number), SourceInvoice, number, "Inventory received on invoice", at)
	net := decimal.Zero
	for _, l := range lines {
		e.Debit(l.AccountCode, l.Amount, l.Memo)
		net = net.Add(l.Amount)
	}
	for _, dp := range downPayments {
		e.Credit(p.accounts.AdvancePayment, dp, "down payment applied")
		net = net.Sub(dp)
	}
	e.post(p.accounts.VendorPayable, net.Neg(), "vendor")
	return e, e.Validate()
}

// DiscountAllocation is an inventory account weighted by its net received quantity
type DiscountAllocation struct {
	AccountCode string
	Weight      decimal.Decimal
}

// AppendEarlyPaymentDiscount adds the early-payment discount lines to a payment entry:
// VAT-in is credited with ppn less its discount share, the discount is credited across
// the inventory accounts by quantity share, and cash is debited with both.
func (p *Poster) AppendEarlyPaymentDiscount(e *Entry, discount, ppn, rate decimal.Decimal, items []DiscountAllocation) error {
	vatPart := valueobject.RoundHalfUp(ppn.Sub(valueobject.Percent(ppn, rate)))
	weights := make([]decimal.Decimal, len(items))
	for i, it := range items {
		weights[i] = it.Weight
	}
	shares := valueobject.AllocateByWeights(discount, weights)

	e.Debit(p.accounts.Cash, discount.Add(vatPart), "early payment discount")
	e.Credit(p.accounts.VATIn, vatPart, "PPN masukan discount share")
	if len(items) == 0 {
		e.Credit(p.accounts.VendorPayable, discount, "early payment discount")
	}
	for i, it := range items {
		e.Credit(it.AccountCode, shares[i], "early payment discount")
	}
	return e.Validate()
}
