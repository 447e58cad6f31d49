package billing

import (
	"context"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines persistence for billing records
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BillingRecord, error)
	// FindByNumber returns the record of kind sharing its number with a source document
	FindByNumber(ctx context.Context, kind Kind, number int64) (*BillingRecord, error)
	FindAll(ctx context.Context, kind Kind, filter shared.Filter) ([]BillingRecord, int64, error)
	Create(ctx context.Context, record *BillingRecord) error
	// SaveWithLock updates the record where version = record.Version-1 and
	// inserts payment entries not yet stored
	SaveWithLock(ctx context.Context, record *BillingRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
}
