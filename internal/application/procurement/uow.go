package procurement

import (
	"context"

	"github.com/erp/procurement/internal/domain/billing"
	"github.com/erp/procurement/internal/domain/document"
	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/journal"
)

// Repositories groups the repositories bound to one database session.
// Inside UnitOfWork.Do they all share the same transaction.
type Repositories struct {
	Documents document.Repository
	Billing   billing.Repository
	Journal   journal.Repository
	Inventory inventory.Repository
}

// UnitOfWork runs a function inside a database transaction.
// If fn returns an error the transaction is rolled back, otherwise it is committed.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	// Repositories returns non-transactional repositories for reads
	Repositories() Repositories
}

// BlobStorage stores document attachments
type BlobStorage interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	Remove(ctx context.Context, paths []string) error
}

// Settings holds the accounting configuration used by approvals
type Settings struct {
	Accounts    journal.Accounts
	Installment billing.InstallmentRules
}
