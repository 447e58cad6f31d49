package persistence

import (
	"context"
	"errors"

	"github.com/erp/procurement/internal/domain/journal"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormJournalRepository implements journal.Repository using GORM
type GormJournalRepository struct {
	db *gorm.DB
}

// NewGormJournalRepository creates a new GormJournalRepository
func NewGormJournalRepository(db *gorm.DB) *GormJournalRepository {
	return &GormJournalRepository{db: db}
}

// Create inserts a journal entry with its lines
func (r *GormJournalRepository) Create(ctx context.Context, entry *journal.Entry) error {
	m := models.JournalEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(m).Error
}

// FindByTransactionNumber finds an entry by its transaction number
func (r *GormJournalRepository) FindByTransactionNumber(ctx context.Context, txn string) (*journal.Entry, error) {
	var m models.JournalEntryModel
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("transaction_number = ?", txn).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindAll lists entries, newest first by default
func (r *GormJournalRepository) FindAll(ctx context.Context, filter shared.Filter) ([]journal.Entry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.JournalEntryModel{})
	if filter.Search != "" {
		query = query.Where("transaction_number LIKE ?", filter.Search+"%")
	}
	if source, ok := filter.Filters["source_kind"].(string); ok && source != "" {
		query = query.Where("source_kind = ?", source)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.JournalEntryModel
	err := query.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order(orderClause(filter.OrderBy, filter.OrderDir, JournalSortFields, "posted_at")).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	entries := make([]journal.Entry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, total, nil
}

// DeleteBySource removes every entry posted for a source document and returns
// how many entries were deleted.
func (r *GormJournalRepository) DeleteBySource(ctx context.Context, kind journal.SourceKind, number int64) (int64, error) {
	db := r.db.WithContext(ctx)

	var ids []uuid.UUID
	if err := db.Model(&models.JournalEntryModel{}).
		Where("source_kind = ? AND source_number = ?", string(kind), number).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := db.Where("entry_id IN ?", ids).Delete(&models.JournalEntryLineModel{}).Error; err != nil {
		return 0, err
	}
	result := db.Where("id IN ?", ids).Delete(&models.JournalEntryModel{})
	return result.RowsAffected, result.Error
}

// Ensure GormJournalRepository implements journal.Repository
var _ journal.Repository = (*GormJournalRepository)(nil)
