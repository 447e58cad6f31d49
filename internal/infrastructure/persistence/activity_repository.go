package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/erp/procurement/internal/domain/activity"
	"github.com/erp/procurement/internal/domain/identity"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormActivitySink implements activity.Sink using GORM
type GormActivitySink struct {
	db *gorm.DB
}

// NewGormActivitySink creates a new GormActivitySink
func NewGormActivitySink(db *gorm.DB) *GormActivitySink {
	return &GormActivitySink{db: db}
}

// Record appends an activity log row
func (s *GormActivitySink) Record(ctx context.Context, entry *activity.Entry) error {
	return s.db.WithContext(ctx).Create(models.ActivityLogModelFromDomain(entry)).Error
}

// GormRoleLookup implements identity.RoleLookup against the user_roles table
type GormRoleLookup struct {
	db *gorm.DB
}

// NewGormRoleLookup creates a new GormRoleLookup
func NewGormRoleLookup(db *gorm.DB) *GormRoleLookup {
	return &GormRoleLookup{db: db}
}

// RolesFor returns the raw comma-separated role list of a user, or
// shared.ErrNotFound when the user has no row.
func (l *GormRoleLookup) RolesFor(ctx context.Context, userID string) (string, error) {
	var m models.UserRoleModel
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return m.Roles, nil
}

// AssignRoles upserts the role list of a user
func (l *GormRoleLookup) AssignRoles(ctx context.Context, userID string, roles identity.RoleSet) error {
	m := models.UserRoleModel{
		UserID:    userID,
		Roles:     strings.Join(roles.Strings(), ","),
		UpdatedAt: time.Now(),
	}
	return l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"roles", "updated_at"}),
	}).Create(&m).Error
}

var (
	_ activity.Sink       = (*GormActivitySink)(nil)
	_ identity.RoleLookup = (*GormRoleLookup)(nil)
)
