package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/erp/procurement/internal/domain/billing"
	"github.com/erp/procurement/internal/domain/document"
	"github.com/erp/procurement/internal/domain/identity"
	"github.com/erp/procurement/internal/domain/journal"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/domain/tax"
	"github.com/erp/procurement/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BillingService approves billing orders and settles billing invoices
type BillingService struct {
	uow      UnitOfWork
	poster   *journal.Poster
	settings Settings
	logger   *zap.Logger
	metrics  *telemetry.ProcurementMetrics
	now      func() time.Time
}

// NewBillingService creates a new BillingService
func NewBillingService(uow UnitOfWork, settings Settings, logger *zap.Logger) *BillingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.Installment.MaxPartialPayments == 0 {
		settings.Installment = billing.DefaultInstallmentRules()
	}
	return &BillingService{
		uow:      uow,
		poster:   journal.NewPoster(settings.Accounts),
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// SetMetrics sets the procurement metrics collector
func (s *BillingService) SetMetrics(m *telemetry.ProcurementMetrics) {
	s.metrics = m
}

// Get returns one billing record of kind
func (s *BillingService) Get(ctx context.Context, kind billing.Kind, id uuid.UUID) (*BillingResponse, error) {
	record, err := s.load(ctx, s.uow.Repositories(), kind, id)
	if err != nil {
		return nil, err
	}
	resp := ToBillingResponse(record)
	return &resp, nil
}

// List returns a page of billing records of kind
func (s *BillingService) List(ctx context.Context, kind billing.Kind, filter shared.Filter) (*shared.Paginated[BillingResponse], error) {
	records, total, err := s.uow.Repositories().Billing.FindAll(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	items := make([]BillingResponse, len(records))
	for i := range records {
		items[i] = ToBillingResponse(&records[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

// ApproveBillingOrder posts a Pending billing order: its taxes are computed on
// the installment amount, the policy paid amount is recorded and the down
// payment is journalled.
func (s *BillingService) ApproveBillingOrder(ctx context.Context, id uuid.UUID, p identity.Principal) (*BillingOrderResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "approve_order")
	defer span.End()

	result := &BillingOrderResult{}
	err := s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		record, err := repos.Billing.FindByID(ctx, id)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrNotActionable
		}
		if err != nil {
			return err
		}
		if record.Kind != billing.KindOrder || record.Status != billing.StatusPending {
			return shared.ErrNotActionable
		}

		r, err := tax.Compute(record.InstallmentAmount, record.TaxMethod, record.PPNPercent, record.PPhPercent)
		if err != nil {
			return err
		}
		paid := tax.PaidAmount(record.InstallmentAmount, record.TaxMethod, record.PPNPercent, r)
		if err := record.ApproveOrder(r, paid); err != nil {
			return err
		}
		if err := repos.Billing.SaveWithLock(ctx, record); err != nil {
			return err
		}

		entry, err := s.poster.BillingOrderApproval(record.Number, record.InstallmentAmount, r.PPN, paid, s.now())
		if err != nil {
			return err
		}
		if err := repos.Journal.Create(ctx, entry); err != nil {
			return err
		}
		result.Billing = ToBillingResponse(record)
		result.TransactionNumber = entry.TransactionNumber
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("billing order approved",
		zap.String("billing_number", result.Billing.DisplayNumber),
		zap.String("transaction_number", result.TransactionNumber),
		zap.String("paid_amount", result.Billing.PaidAmount.String()),
		zap.String("user_id", p.UserID))
	return result, nil
}

// PayBillingInvoice applies a full or partial payment, posts its journal entry
// and, inside the early-payment window, the discount lines.
func (s *BillingService) PayBillingInvoice(ctx context.Context, id uuid.UUID, p identity.Principal, in PaymentInput) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "pay_invoice")
	defer span.End()

	paidAt := s.now()
	if in.PaymentDate != "" {
		t, err := parseOptionalDate(in.PaymentDate, "payment_date")
		if err != nil {
			return nil, err
		}
		paidAt = *t
	}
	method := billing.PaymentMethod(in.PaymentMethod)

	result := &PaymentResult{}
	err := s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		record, err := repos.Billing.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if record.Kind != billing.KindInvoice {
			return shared.ErrNotFound
		}

		outcome, err := record.ApplyPayment(method, in.Amount, paidAt, s.settings.Installment)
		if err != nil {
			return err
		}
		if err := repos.Billing.SaveWithLock(ctx, record); err != nil {
			return err
		}

		entry, err := s.paymentEntry(record, method, in.Amount, outcome)
		if err != nil {
			return err
		}
		if outcome.Terms.HasDiscount() {
			if err := s.appendDiscount(ctx, repos, record, entry, outcome.Terms.Discount); err != nil {
				return err
			}
		}
		if err := repos.Journal.Create(ctx, entry); err != nil {
			return err
		}

		*result = PaymentResult{
			Billing:           ToBillingResponse(record),
			Label:             outcome.Entry.Label,
			InstallmentCount:  outcome.InstallmentCount,
			Remaining:         outcome.Remaining,
			Discount:          outcome.Entry.Discount,
			Alerts:            outcome.Terms.Alerts,
			TransactionNumber: entry.TransactionNumber,
		}
		if result.Alerts == nil {
			result.Alerts = []billing.Alert{}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordPayment(ctx, string(result.Label), string(method), in.Amount, result.Discount.IsPositive())
	}

	s.logger.Info("billing invoice payment applied",
		zap.String("billing_number", result.Billing.DisplayNumber),
		zap.String("label", string(result.Label)),
		zap.String("amount", in.Amount.String()),
		zap.String("remaining_balance", result.Remaining.String()),
		zap.String("transaction_number", result.TransactionNumber),
		zap.String("user_id", p.UserID))
	return result, nil
}

// paymentEntry builds the base payment entry. A full payment books the invoice's
// own PPN; an installment books the PPN computed on the amount paid. PPh is
// booked once, on the payment that settles the invoice.
func (s *BillingService) paymentEntry(record *billing.BillingRecord, method billing.PaymentMethod, amount decimal.Decimal, outcome billing.PaymentOutcome) (*journal.Entry, error) {
	params := journal.PaymentParams{
		Number: record.Number,
		Count:  outcome.InstallmentCount,
		Amount: amount,
		PPh:    decimal.Zero,
		PaidAt: outcome.Entry.PaidAt,
	}
	if outcome.IsFinal() {
		params.PPh = record.PPh
	}

	if method == billing.PaymentFull {
		params.Amount = record.Total
		params.PPN = record.PPN
		return s.poster.FullPayment(params)
	}

	r, err := tax.Compute(amount, record.TaxMethod, record.PPNPercent, record.PPhPercent)
	if err != nil {
		return nil, err
	}
	params.PPN = r.PPN
	return s.poster.PartialPayment(params)
}

// appendDiscount credits the early-payment discount across the invoice's
// inventory accounts, weighted by each line's net received quantity
func (s *BillingService) appendDiscount(ctx context.Context, repos Repositories, record *billing.BillingRecord, entry *journal.Entry, discount decimal.Decimal) error {
	terms, _ := billing.ParseTerms(record.Terms)

	var items []journal.DiscountAllocation
	doc, err := repos.Documents.FindByNumber(ctx, document.KindInvoice, record.Number)
	switch {
	case err == nil:
		for _, it := range doc.Items {
			items = append(items, journal.DiscountAllocation{
				AccountCode: s.poster.InventoryAccount(it.AccountCode),
				Weight:      it.Quantity.Sub(it.ReturnUnit),
			})
		}
	case !errors.Is(err, shared.ErrNotFound):
		return err
	}
	return s.poster.AppendEarlyPaymentDiscount(entry, discount, record.PPN, terms.DiscountRate, items)
}

// DueNotice is an open billing invoice's standing against its terms
type DueNotice struct {
	BillingID        uuid.UUID       `json:"billing_id"`
	DisplayNumber    string          `json:"display_number"`
	VendorName       string          `json:"vendor_name"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Alert            billing.Alert   `json:"alert"`
}

// DueNotices evaluates every open billing invoice with payment terms at asOf
func (s *BillingService) DueNotices(ctx context.Context, asOf time.Time) ([]DueNotice, error) {
	var notices []DueNotice
	for _, status := range []billing.Status{billing.StatusUnpaid, billing.StatusPending} {
		filter := shared.DefaultFilter()
		filter.PageSize = 100
		filter.Filters["status"] = string(status)
		for {
			records, total, err := s.uow.Repositories().Billing.FindAll(ctx, billing.KindInvoice, filter)
			if err != nil {
				return nil, err
			}
			for i := range records {
				alert, ok := records[i].DueAlert(asOf)
				if !ok {
					continue
				}
				notices = append(notices, DueNotice{
					BillingID:        records[i].ID,
					DisplayNumber:    records[i].DisplayNumber(),
					VendorName:       records[i].VendorName,
					RemainingBalance: records[i].RemainingBalance,
					Alert:            alert,
				})
			}
			if int64(filter.Page*filter.PageSize) >= total {
				break
			}
			filter.Page++
		}
	}
	return notices, nil
}

// SweepDueInvoices logs the due notices for today. It runs as a scheduled job.
func (s *BillingService) SweepDueInvoices(ctx context.Context) error {
	notices, err := s.DueNotices(ctx, s.now())
	if err != nil {
		return err
	}
	overdue := 0
	for _, n := range notices {
		fields := []zap.Field{
			zap.String("billing_number", n.DisplayNumber),
			zap.String("vendor_name", n.VendorName),
			zap.String("remaining_balance", n.RemainingBalance.String()),
			zap.String("alert", string(n.Alert.Kind)),
		}
		if s.metrics != nil {
			s.metrics.RecordDueNotice(ctx, string(n.Alert.Kind))
		}
		if n.Alert.Kind == billing.AlertOverdue {
			overdue++
			s.logger.Warn(n.Alert.Message, fields...)
			continue
		}
		s.logger.Info(n.Alert.Message, fields...)
	}
	s.logger.Info("billing due sweep finished",
		zap.Int("open_with_terms", len(notices)),
		zap.Int("overdue", overdue))
	return nil
}

func (s *BillingService) load(ctx context.Context, repos Repositories, kind billing.Kind, id uuid.UUID) (*billing.BillingRecord, error) {
	record, err := repos.Billing.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Kind != kind {
		return nil, shared.ErrNotFound
	}
	return record, nil
}
