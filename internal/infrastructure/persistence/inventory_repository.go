package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryRepository implements inventory.Repository using GORM
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewGormInventoryRepository creates a new GormInventoryRepository
func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// EnsureStockItem inserts the stock master row unless the name already exists
func (r *GormInventoryRepository) EnsureStockItem(ctx context.Context, item *inventory.StockItem) error {
	m := models.StockItemModelFromDomain(item)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(m).Error
}

// FindStockItems lists the stock master. Filter.Search matches the name.
func (r *GormInventoryRepository) FindStockItems(ctx context.Context, filter shared.Filter) ([]inventory.StockItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockItemModel{})
	if filter.Search != "" {
		query = query.Where("name LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StockItemModel
	err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, StockItemSortFields, "name")).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	items := make([]inventory.StockItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, total, nil
}

// LatestInMonth returns the row of the month that was appended last
func (r *GormInventoryRepository) LatestInMonth(ctx context.Context, stockName, month string) (*inventory.LedgerEntry, error) {
	var m models.LedgerEntryModel
	err := r.db.WithContext(ctx).
		Where("stock_name = ? AND month = ?", stockName, month).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain()
}

// SumSaleInMonth sums total_sale over the month. The sum is taken in Go so
// every driver returns an exact decimal.
func (r *GormInventoryRepository) SumSaleInMonth(ctx context.Context, stockName, month string) (decimal.Decimal, error) {
	var sales []string
	err := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("stock_name = ? AND month = ?", stockName, month).
		Pluck("total_sale", &sales).Error
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, raw := range sales {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(v)
	}
	return sum, nil
}

// Create appends a ledger row
func (r *GormInventoryRepository) Create(ctx context.Context, entry *inventory.LedgerEntry) error {
	m, err := models.LedgerEntryModelFromDomain(entry)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// Update rewrites the running balance and adjustment history of a ledger row
func (r *GormInventoryRepository) Update(ctx context.Context, entry *inventory.LedgerEntry) error {
	m, err := models.LedgerEntryModelFromDomain(entry)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("id = ?", entry.ID).
		Updates(map[string]any{
			"total_qty":    m.TotalQty,
			"total_stock":  m.TotalStock,
			"avg_per_unit": m.AvgPerUnit,
			"total_cogs":   m.TotalCOGS,
			"total_nett":   m.TotalNett,
			"adjustments":  m.Adjustments,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindAll lists ledger rows, narrowed by stock name and month
func (r *GormInventoryRepository) FindAll(ctx context.Context, filter inventory.LedgerFilter) ([]inventory.LedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{})
	if filter.StockName != "" {
		query = query.Where("stock_name = ?", filter.StockName)
	}
	if filter.Month != "" {
		query = query.Where("month = ?", filter.Month)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.LedgerEntryModel
	err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, LedgerSortFields, "transaction_date")).
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	entries := make([]inventory.LedgerEntry, 0, len(rows))
	for i := range rows {
		e, err := rows[i].ToDomain()
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *e)
	}
	return entries, total, nil
}

// Ensure GormInventoryRepository implements inventory.Repository
var _ inventory.Repository = (*GormInventoryRepository)(nil)
