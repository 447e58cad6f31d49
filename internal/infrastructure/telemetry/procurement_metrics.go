package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when procurement metrics are built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// ProcurementMetrics counts approvals, installment payments and the ledger
// rows and due notices they produce.
type ProcurementMetrics struct {
	approvalTotal    *Counter
	approvalDuration *Histogram
	ledgerRowsTotal  *Counter
	paymentTotal     *Counter
	paymentAmount    *Counter
	dueNoticeTotal   *Counter
}

// NewProcurementMetrics creates the procurement instruments on meter
func NewProcurementMetrics(meter metric.Meter) (*ProcurementMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	pm := &ProcurementMetrics{}
	var err error

	if pm.approvalTotal, err = NewCounter(meter,
		"procurement_document_approval_total",
		"Document approvals by kind and resulting status",
		"{approvals}",
	); err != nil {
		return nil, err
	}
	if pm.approvalDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "procurement_document_approval_duration_seconds",
		Description: "Time spent applying an approval and its side effects",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if pm.ledgerRowsTotal, err = NewCounter(meter,
		"procurement_ledger_rows_total",
		"Inventory ledger rows appended by invoice approvals",
		"{rows}",
	); err != nil {
		return nil, err
	}
	if pm.paymentTotal, err = NewCounter(meter,
		"procurement_installment_payment_total",
		"Billing invoice payments by installment label",
		"{payments}",
	); err != nil {
		return nil, err
	}
	if pm.paymentAmount, err = NewCounter(meter,
		"procurement_installment_amount_total",
		"Amount paid on billing invoices in whole rupiah",
		"{IDR}",
	); err != nil {
		return nil, err
	}
	if pm.dueNoticeTotal, err = NewCounter(meter,
		"procurement_due_notice_total",
		"Terms notices raised by the due sweep",
		"{notices}",
	); err != nil {
		return nil, err
	}
	return pm, nil
}

// RecordApproval records one approval of kind that left the document in status
func (pm *ProcurementMetrics) RecordApproval(ctx context.Context, kind, status string, ledgerRows int, d time.Duration) {
	pm.approvalTotal.Inc(ctx, AttrDocumentKind.String(kind), AttrDocumentStatus.String(status))
	pm.approvalDuration.RecordDuration(ctx, d, AttrDocumentKind.String(kind))
	if ledgerRows > 0 {
		pm.ledgerRowsTotal.Add(ctx, int64(ledgerRows), AttrDocumentKind.String(kind))
	}
}

// RecordPayment records one installment payment
func (pm *ProcurementMetrics) RecordPayment(ctx context.Context, label, method string, amount decimal.Decimal, discounted bool) {
	pm.paymentTotal.Inc(ctx,
		AttrInstallmentLabel.String(label),
		AttrPaymentMethod.String(method),
		AttrDiscountApplied.Bool(discounted),
	)
	pm.paymentAmount.Add(ctx, amount.IntPart(), AttrInstallmentLabel.String(label))
}

// RecordDueNotice records one notice of kind raised by the due sweep
func (pm *ProcurementMetrics) RecordDueNotice(ctx context.Context, kind string) {
	pm.dueNoticeTotal.Inc(ctx, AttrAlertKind.String(kind))
}
