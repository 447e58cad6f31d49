// Package journal builds balanced double-entry journal entries for the
// accounting events of the procurement flow.
package journal

import (
	"fmt"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SourceKind identifies the document family that produced an entry
type SourceKind string

const (
	SourceBillingOrder   SourceKind = "billing_order"
	SourceBillingInvoice SourceKind = "billing_invoice"
	SourceInvoice        SourceKind = "invoice"
)

// ErrUnbalanced is returned when debits and credits differ
var ErrUnbalanced = shared.NewDomainError("UNBALANCED_JOURNAL", "Journal entry debits do not equal credits")

// Line is one debit or credit posting. Exactly one of Debit/Credit is non-zero.
type Line struct {
	ID          uuid.UUID       `json:"id"`
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Memo        string          `json:"memo,omitempty"`
}

// Entry is a dated set of lines under one transaction number
type Entry struct {
	shared.BaseEntity
	TransactionNumber string
	SourceKind        SourceKind
	SourceNumber      int64
	Description       string
	PostedAt          time.Time
	Lines             []Line
}

func newEntry(txn string, kind SourceKind, number int64, description string, postedAt time.Time) *Entry {
	return &Entry{
		BaseEntity:        shared.NewBaseEntity(),
		TransactionNumber: txn,
		SourceKind:        kind,
		SourceNumber:      number,
		Description:       description,
		PostedAt:          postedAt,
	}
}

// Debit appends a debit line; zero amounts are skipped
func (e *Entry) Debit(account string, amount decimal.Decimal, memo string) {
	e.post(account, amount, memo)
}

// Credit appends a credit line; zero amounts are skipped
func (e *Entry) Credit(account string, amount decimal.Decimal, memo string) {
	e.post(account, amount.Neg(), memo)
}

// post books a signed amount: positive debits, negative credits
func (e *Entry) post(account string, signed decimal.Decimal, memo string) {
	if signed.IsZero() {
		return
	}
	l := Line{ID: uuid.New(), AccountCode: account, Debit: decimal.Zero, Credit: decimal.Zero, Memo: memo}
	if signed.IsPositive() {
		l.Debit = signed
	} else {
		l.Credit = signed.Neg()
	}
	e.Lines = append(e.Lines, l)
}

// TotalDebit sums all debit lines
func (e *Entry) TotalDebit() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range e.Lines {
		sum = sum.Add(l.Debit)
	}
	return sum
}

// TotalCredit sums all credit lines
func (e *Entry) TotalCredit() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range e.Lines {
		sum = sum.Add(l.Credit)
	}
	return sum
}

// IsBalanced reports whether debits equal credits
func (e *Entry) IsBalanced() bool {
	return e.TotalDebit().Equal(e.TotalCredit())
}

// Validate checks the entry can be persisted
func (e *Entry) Validate() error {
	if e.TransactionNumber == "" {
		return shared.NewDomainError("VALIDATION_TRANSACTION_NUMBER", "Transaction number cannot be empty")
	}
	if len(e.Lines) == 0 {
		return shared.NewDomainError("VALIDATION_JOURNAL_LINES", "Journal entry must have at least one line")
	}
	if !e.IsBalanced() {
		return ErrUnbalanced
	}
	return nil
}

// TransactionNumber renders PREFIX-00123
func TransactionNumber(prefix string, number int64) string {
	return shared.FormatNumber(prefix, number)
}

// InstallmentTransactionNumber renders BILINV-00123-<count>
func InstallmentTransactionNumber(number int64, count int) string {
	return fmt.Sprintf("%s-%d", shared.FormatNumber("BILINV", number), count)
}
