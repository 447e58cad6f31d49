package document

import (
	"context"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines persistence for procurement documents.
// (kind, number) is unique; stores reject duplicates with shared.ErrDuplicateNumber.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)
	FindByNumber(ctx context.Context, kind Kind, number int64) (*Document, error)
	ExistsByNumber(ctx context.Context, kind Kind, number int64, excludeID uuid.UUID) (bool, error)
	FindAll(ctx context.Context, kind Kind, filter shared.Filter) ([]Document, int64, error)
	// NextNumber returns one past the highest number used for kind
	NextNumber(ctx context.Context, kind Kind) (int64, error)
	Create(ctx context.Context, doc *Document) error
	// SaveWithLock updates where version = doc.Version-1 and replaces items and attachments
	SaveWithLock(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, id uuid.UUID) error
}
