package models

import (
	"time"

	"github.com/erp/procurement/internal/domain/activity"
)

// ActivityLogModel is one API call record
type ActivityLogModel struct {
	BaseModel
	UserID       string    `gorm:"type:varchar(100);index"`
	EndpointName string    `gorm:"type:varchar(255);not null"`
	HTTPMethod   string    `gorm:"type:varchar(10);not null"`
	StatusCode   int       `gorm:"not null"`
	Timestamp    time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ActivityLogModel) TableName() string {
	return "activity_logs"
}

// ActivityLogModelFromDomain creates a persistence model from an activity entry
func ActivityLogModelFromDomain(e *activity.Entry) *ActivityLogModel {
	m := &ActivityLogModel{
		UserID:       e.UserID,
		EndpointName: e.EndpointName,
		HTTPMethod:   e.HTTPMethod,
		StatusCode:   e.StatusCode,
		Timestamp:    e.Timestamp,
	}
	m.SetEntity(e.BaseEntity)
	return m
}

// UserRoleModel maps a user to the comma-separated role list the auth layer resolves
type UserRoleModel struct {
	UserID    string `gorm:"type:varchar(100);primaryKey"`
	Roles     string `gorm:"type:varchar(255);not null"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (UserRoleModel) TableName() string {
	return "user_roles"
}

// All returns every model, in dependency order, for AutoMigrate in tests
func All() []any {
	return []any{
		&DocumentModel{},
		&DocumentItemModel{},
		&DocumentAttachmentModel{},
		&BillingRecordModel{},
		&BillingPaymentModel{},
		&JournalEntryModel{},
		&JournalEntryLineModel{},
		&StockItemModel{},
		&LedgerEntryModel{},
		&ActivityLogModel{},
		&UserRoleModel{},
	}
}
