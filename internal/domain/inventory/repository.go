package inventory

import (
	"context"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LedgerFilter narrows ledger listings
type LedgerFilter struct {
	shared.Filter
	StockName string
	Month     string
}

// Repository defines persistence for the stock master and ledger
type Repository interface {
	// EnsureStockItem inserts the stock master row unless the name already exists
	EnsureStockItem(ctx context.Context, item *StockItem) error
	FindStockItems(ctx context.Context, filter shared.Filter) ([]StockItem, int64, error)
	// LatestInMonth returns the row appended last in the month, or shared.ErrNotFound
	LatestInMonth(ctx context.Context, stockName, month string) (*LedgerEntry, error)
	SumSaleInMonth(ctx context.Context, stockName, month string) (decimal.Decimal, error)
	Create(ctx context.Context, entry *LedgerEntry) error
	Update(ctx context.Context, entry *LedgerEntry) error
	FindAll(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, int64, error)
}
