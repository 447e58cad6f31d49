package document

import (
	"github.com/erp/procurement/internal/domain/billing"
	"github.com/erp/procurement/internal/domain/shared"
)

// Cascade errors
var (
	ErrBillingInProgress = shared.NewDomainError("BILLING_IN_PROGRESS", "The invoice's billing has payments recorded and cannot be reopened")
	ErrBillingPosted     = shared.NewDomainError("BILLING_POSTED", "The request's billing order has been posted and cannot be reopened")
)

// Dependents describes the downstream records of a Completed document
type Dependents struct {
	Derived        *Document
	BillingOrder   *billing.BillingRecord
	BillingInvoice *billing.BillingRecord
}

// CascadePlan lists what has to be removed or reversed before a Completed
// document may be edited or deleted
type CascadePlan struct {
	DeleteDerived        *Document
	DeleteBillingOrder   *billing.BillingRecord
	DeleteBillingInvoice *billing.BillingRecord
	DeleteInvoiceJournal bool
	ReverseInventory     bool
	ResetToPending       bool
}

// IsEmpty reports whether the plan has nothing to do
func (p CascadePlan) IsEmpty() bool {
	return p.DeleteDerived == nil && p.DeleteBillingOrder == nil && p.DeleteBillingInvoice == nil &&
		!p.DeleteInvoiceJournal && !p.ReverseInventory && !p.ResetToPending
}

// PlanEdit decides the cascade for editing d.
//
//	invoice:  billing invoice must still be Unpaid; it and the invoice journal are
//	          removed, received stock is reversed and the invoice reopens as Pending
//	request:  billing order must not be Completed; the order and billing order are
//	          removed and the request reopens as Pending
func PlanEdit(d *Document, deps Dependents) (CascadePlan, error) {
	plan, err := plan(d, deps)
	if err != nil {
		return CascadePlan{}, err
	}
	if d.Status == StatusCompleted && (d.Kind == KindInvoice || d.Kind == KindRequest) {
		plan.ResetToPending = true
	}
	return plan, nil
}

// PlanDelete decides the cascade for deleting d. It follows PlanEdit and also
// removes the offer derived from a Completed quotation.
func PlanDelete(d *Document, deps Dependents) (CascadePlan, error) {
	p, err := plan(d, deps)
	if err != nil {
		return CascadePlan{}, err
	}
	if d.Status == StatusCompleted && d.Kind == KindQuotation {
		p.DeleteDerived = deps.Derived
	}
	return p, nil
}

func plan(d *Document, deps Dependents) (CascadePlan, error) {
	var p CascadePlan
	if d.Status != StatusCompleted {
		return p, nil
	}
	switch d.Kind {
	case KindInvoice:
		if bi := deps.BillingInvoice; bi != nil {
			if bi.Status != billing.StatusUnpaid {
				return p, ErrBillingInProgress
			}
			p.DeleteBillingInvoice = bi
		}
		p.DeleteInvoiceJournal = true
		p.ReverseInventory = true
	case KindRequest:
		if bo := deps.BillingOrder; bo != nil {
			if bo.Status == billing.StatusCompleted {
				return p, ErrBillingPosted
			}
			p.DeleteBillingOrder = bo
		}
		p.DeleteDerived = deps.Derived
	}
	return p, nil
}
