package models

import (
	"time"

	"github.com/erp/procurement/internal/domain/journal"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalEntryModel is the header row of a posted journal entry
type JournalEntryModel struct {
	BaseModel
	TransactionNumber string                  `gorm:"type:varchar(50);not null;uniqueIndex"`
	SourceKind        string                  `gorm:"type:varchar(20);not null;index:idx_journal_source,priority:1"`
	SourceNumber      int64                   `gorm:"not null;index:idx_journal_source,priority:2"`
	Description       string                  `gorm:"type:text"`
	PostedAt          time.Time               `gorm:"not null;index"`
	Lines             []JournalEntryLineModel `gorm:"foreignKey:EntryID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// ToDomain converts the persistence model to a domain Entry
func (m *JournalEntryModel) ToDomain() *journal.Entry {
	e := &journal.Entry{
		BaseEntity:        m.Entity(),
		TransactionNumber: m.TransactionNumber,
		SourceKind:        journal.SourceKind(m.SourceKind),
		SourceNumber:      m.SourceNumber,
		Description:       m.Description,
		PostedAt:          m.PostedAt,
		Lines:             make([]journal.Line, len(m.Lines)),
	}
	for i, l := range m.Lines {
		e.Lines[i] = journal.Line{
			ID:          l.ID,
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Memo:        l.Memo,
		}
	}
	return e
}

// JournalEntryModelFromDomain creates a persistence model from a domain Entry
func JournalEntryModelFromDomain(e *journal.Entry) *JournalEntryModel {
	m := &JournalEntryModel{
		TransactionNumber: e.TransactionNumber,
		SourceKind:        string(e.SourceKind),
		SourceNumber:      e.SourceNumber,
		Description:       e.Description,
		PostedAt:          e.PostedAt,
		Lines:             make([]JournalEntryLineModel, len(e.Lines)),
	}
	m.SetEntity(e.BaseEntity)
	for i, l := range e.Lines {
		m.Lines[i] = JournalEntryLineModel{
			ID:          l.ID,
			EntryID:     e.ID,
			Position:    i,
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Memo:        l.Memo,
		}
	}
	return m
}

// JournalEntryLineModel is one debit or credit line
type JournalEntryLineModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	EntryID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Position    int       `gorm:"not null"`
	AccountCode string    `gorm:"type:varchar(50);not null;index"`
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Memo        string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (JournalEntryLineModel) TableName() string {
	return "journal_entry_lines"
}
