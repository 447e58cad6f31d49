// Package activity records who called which endpoint. Recording is best effort.
package activity

import (
	"context"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
)

// Entry is one activity log record
type Entry struct {
	shared.BaseEntity
	UserID       string
	EndpointName string
	HTTPMethod   string
	StatusCode   int
	Timestamp    time.Time
}

// NewEntry creates an activity log record stamped now
func NewEntry(userID, endpoint, method string, status int) *Entry {
	return &Entry{
		BaseEntity:   shared.NewBaseEntity(),
		UserID:       userID,
		EndpointName: endpoint,
		HTTPMethod:   method,
		StatusCode:   status,
		Timestamp:    time.Now(),
	}
}

// Sink appends activity records
type Sink interface {
	Record(ctx context.Context, entry *Entry) error
}
