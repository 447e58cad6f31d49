package persistence

import (
	"context"
	"errors"

	"github.com/erp/procurement/internal/domain/billing"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBillingRepository implements billing.Repository using GORM
type GormBillingRepository struct {
	db *gorm.DB
}

// NewGormBillingRepository creates a new GormBillingRepository
func NewGormBillingRepository(db *gorm.DB) *GormBillingRepository {
	return &GormBillingRepository{db: db}
}

func (r *GormBillingRepository) withPayments(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") })
}

// FindByID finds a billing record with its payment history
func (r *GormBillingRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.BillingRecord, error) {
	var m models.BillingRecordModel
	if err := r.withPayments(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByNumber finds the billing record of kind with the given number
func (r *GormBillingRepository) FindByNumber(ctx context.Context, kind billing.Kind, number int64) (*billing.BillingRecord, error) {
	var m models.BillingRecordModel
	if err := r.withPayments(ctx).Where("kind = ? AND number = ?", string(kind), number).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindAll lists billing records of kind. Filter.Search matches vendor name,
// Filters["status"] narrows by status.
func (r *GormBillingRepository) FindAll(ctx context.Context, kind billing.Kind, filter shared.Filter) ([]billing.BillingRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BillingRecordModel{}).Where("kind = ?", string(kind))
	if filter.Search != "" {
		query = query.Where("vendor_name LIKE ?", "%"+filter.Search+"%")
	}
	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.BillingRecordModel
	err := query.
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Order(orderClause(filter.OrderBy, filter.OrderDir, BillingSortFields, "created_at")).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	records := make([]billing.BillingRecord, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records, total, nil
}

// Create inserts a billing record and any payments it already carries
func (r *GormBillingRepository) Create(ctx context.Context, record *billing.BillingRecord) error {
	m := models.BillingRecordModelFromDomain(record)
	return translateWriteError(r.db.WithContext(ctx).Create(m).Error)
}

// SaveWithLock updates the record where version = record.Version-1 and appends
// payment rows beyond those already stored.
func (r *GormBillingRepository) SaveWithLock(ctx context.Context, record *billing.BillingRecord) error {
	m := models.BillingRecordModelFromDomain(record)
	db := r.db.WithContext(ctx)

	result := db.Model(&models.BillingRecordModel{}).
		Where("id = ? AND version = ?", record.ID, record.Version-1).
		Updates(map[string]any{
			"vendor_name":        m.VendorName,
			"invoice_date":       m.InvoiceDate,
			"terms":              m.Terms,
			"tax_method":         m.TaxMethod,
			"ppn_percent":        m.PPNPercent,
			"pph_percent":        m.PPhPercent,
			"total":              m.Total,
			"grand_total":        m.GrandTotal,
			"dpp":                m.DPP,
			"ppn":                m.PPN,
			"pph":                m.PPh,
			"installment_amount": m.InstallmentAmount,
			"paid_amount":        m.PaidAmount,
			"remaining_balance":  m.RemainingBalance,
			"payment_method":     m.PaymentMethod,
			"status":             m.Status,
			"completed_at":       m.CompletedAt,
			"version":            m.Version,
			"updated_at":         m.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	var stored int64
	if err := db.Model(&models.BillingPaymentModel{}).
		Where("billing_record_id = ?", record.ID).
		Count(&stored).Error; err != nil {
		return err
	}
	if int(stored) < len(m.Payments) {
		fresh := m.Payments[stored:]
		if err := db.Create(&fresh).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a billing record and its payment history
func (r *GormBillingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("billing_record_id = ?", id).Delete(&models.BillingPaymentModel{}).Error; err != nil {
		return err
	}
	result := db.Where("id = ?", id).Delete(&models.BillingRecordModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormBillingRepository implements billing.Repository
var _ billing.Repository = (*GormBillingRepository)(nil)
