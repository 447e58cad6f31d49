package persistence

import (
	"context"
	"errors"

	"github.com/erp/procurement/internal/domain/document"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentRepository implements document.Repository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

func (r *GormDocumentRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Attachments")
}

// FindByID finds a document with its items and attachments
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	var m models.DocumentModel
	if err := r.withChildren(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByNumber finds a document by its kind and number
func (r *GormDocumentRepository) FindByNumber(ctx context.Context, kind document.Kind, number int64) (*document.Document, error) {
	var m models.DocumentModel
	if err := r.withChildren(ctx).Where("kind = ? AND number = ?", string(kind), number).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// ExistsByNumber checks whether another document of kind already uses number
func (r *GormDocumentRepository) ExistsByNumber(ctx context.Context, kind document.Kind, number int64, excludeID uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.DocumentModel{}).
		Where("kind = ? AND number = ?", string(kind), number)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll lists documents of kind. Filter.Search matches vendor name or description,
// Filters["status"] narrows by status.
func (r *GormDocumentRepository) FindAll(ctx context.Context, kind document.Kind, filter shared.Filter) ([]document.Document, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DocumentModel{}).Where("kind = ?", string(kind))
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("vendor_name LIKE ? OR description LIKE ?", like, like)
	}
	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.DocumentModel
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Attachments").
		Order(orderClause(filter.OrderBy, filter.OrderDir, DocumentSortFields, "created_at")).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	docs := make([]document.Document, len(rows))
	for i := range rows {
		docs[i] = *rows[i].ToDomain()
	}
	return docs, total, nil
}

// NextNumber returns one past the highest number used for kind
func (r *GormDocumentRepository) NextNumber(ctx context.Context, kind document.Kind) (int64, error) {
	var maxNumber int64
	err := r.db.WithContext(ctx).Model(&models.DocumentModel{}).
		Where("kind = ?", string(kind)).
		Select("COALESCE(MAX(number), 0)").
		Scan(&maxNumber).Error
	if err != nil {
		return 0, err
	}
	return maxNumber + 1, nil
}

// Create inserts a document together with its items and attachments
func (r *GormDocumentRepository) Create(ctx context.Context, doc *document.Document) error {
	m := models.DocumentModelFromDomain(doc)
	return translateWriteError(r.db.WithContext(ctx).Create(m).Error)
}

// SaveWithLock updates the header where version = doc.Version-1 and replaces
// the item and attachment rows.
func (r *GormDocumentRepository) SaveWithLock(ctx context.Context, doc *document.Document) error {
	m := models.DocumentModelFromDomain(doc)
	db := r.db.WithContext(ctx)

	result := db.Model(&models.DocumentModel{}).
		Where("id = ? AND version = ?", doc.ID, doc.Version-1).
		Updates(map[string]any{
			"number":             m.Number,
			"vendor_name":        m.VendorName,
			"description":        m.Description,
			"requested_by":       m.RequestedBy,
			"document_date":      m.DocumentDate,
			"status":             m.Status,
			"tax_method":         m.TaxMethod,
			"ppn_percent":        m.PPNPercent,
			"pph_percent":        m.PPhPercent,
			"total":              m.Total,
			"dpp":                m.DPP,
			"ppn":                m.PPN,
			"pph":                m.PPh,
			"grand_total":        m.GrandTotal,
			"installment_amount": m.InstallmentAmount,
			"freight_in":         m.FreightIn,
			"insurance":          m.Insurance,
			"global_discount":    m.GlobalDiscount,
			"invoice_date":       m.InvoiceDate,
			"terms":              m.Terms,
			"approved_by":        m.ApprovedBy,
			"approved_at":        m.ApprovedAt,
			"rejected_by":        m.RejectedBy,
			"rejected_at":        m.RejectedAt,
			"reject_reason":      m.RejectReason,
			"version":            m.Version,
			"updated_at":         m.UpdatedAt,
		})
	if result.Error != nil {
		return translateWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	if err := db.Where("document_id = ?", doc.ID).Delete(&models.DocumentItemModel{}).Error; err != nil {
		return err
	}
	if len(m.Items) > 0 {
		if err := db.Create(&m.Items).Error; err != nil {
			return err
		}
	}
	if err := db.Where("document_id = ?", doc.ID).Delete(&models.DocumentAttachmentModel{}).Error; err != nil {
		return err
	}
	if len(m.Attachments) > 0 {
		if err := db.Create(&m.Attachments).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a document and its child rows
func (r *GormDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("document_id = ?", id).Delete(&models.DocumentItemModel{}).Error; err != nil {
		return err
	}
	if err := db.Where("document_id = ?", id).Delete(&models.DocumentAttachmentModel{}).Error; err != nil {
		return err
	}
	result := db.Where("id = ?", id).Delete(&models.DocumentModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormDocumentRepository implements document.Repository
var _ document.Repository = (*GormDocumentRepository)(nil)
