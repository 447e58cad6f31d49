package journal

import (
	"context"

	"github.com/erp/procurement/internal/domain/shared"
)

// Repository defines persistence for journal entries
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	FindByTransactionNumber(ctx context.Context, txn string) (*Entry, error)
	// FindAll lists entries; Filter.Search matches a transaction number prefix
	FindAll(ctx context.Context, filter shared.Filter) ([]Entry, int64, error)
	// DeleteBySource removes every entry posted for a source document
	DeleteBySource(ctx context.Context, kind SourceKind, number int64) (int64, error)
}
