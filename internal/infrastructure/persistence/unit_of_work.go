package persistence

import (
	"context"

	"github.com/erp/procurement/internal/application/procurement"
	"gorm.io/gorm"
)

// GormUnitOfWork implements procurement.UnitOfWork using GORM transactions.
// Every repository handed to fn shares the same transaction.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Do runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
// If fn succeeds, the transaction is committed.
func (u *GormUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos procurement.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, repositoriesFor(tx))
	})
}

// Repositories returns repositories bound to the root connection for reads
func (u *GormUnitOfWork) Repositories() procurement.Repositories {
	return repositoriesFor(u.db)
}

func repositoriesFor(db *gorm.DB) procurement.Repositories {
	return procurement.Repositories{
		Documents: NewGormDocumentRepository(db),
		Billing:   NewGormBillingRepository(db),
		Journal:   NewGormJournalRepository(db),
		Inventory: NewGormInventoryRepository(db),
	}
}

// Ensure GormUnitOfWork implements procurement.UnitOfWork
var _ procurement.UnitOfWork = (*GormUnitOfWork)(nil)
