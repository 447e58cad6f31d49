package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name     string
		orderBy  string
		orderDir string
		allowed  map[string]bool
		fallback string
		want     string
	}{
		{"defaults", "", "", DocumentSortFields, "created_at", "created_at DESC"},
		{"document number ascending", "number", "asc", DocumentSortFields, "created_at", "number ASC"},
		{"padded input", "  grand_total ", " ASC ", DocumentSortFields, "created_at", "grand_total ASC"},
		{"billing remaining balance", "remaining_balance", "desc", BillingSortFields, "created_at", "remaining_balance DESC"},
		{"billing rejects ledger column", "stock_name", "asc", BillingSortFields, "created_at", "created_at ASC"},
		{"journal posted_at", "posted_at", "", JournalSortFields, "created_at", "posted_at DESC"},
		{"ledger month", "month", "asc", LedgerSortFields, "transaction_date", "month ASC"},
		{"stock name", "name", "asc", StockItemSortFields, "created_at", "name ASC"},
		{"case sensitive field", "VENDOR_NAME", "asc", DocumentSortFields, "created_at", "created_at ASC"},
		{"injected field", "number; DROP TABLE procurement_documents;--", "asc", DocumentSortFields, "created_at", "created_at ASC"},
		{"injected direction", "number", "ASC, (SELECT 1)", DocumentSortFields, "created_at", "number DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderClause(tt.orderBy, tt.orderDir, tt.allowed, tt.fallback))
		})
	}
}

func TestSortWhitelistsShareAuditColumns(t *testing.T) {
	for name, fields := range map[string]map[string]bool{
		"documents": DocumentSortFields,
		"billing":   BillingSortFields,
		"journal":   JournalSortFields,
		"ledger":    LedgerSortFields,
		"stocks":    StockItemSortFields,
	} {
		assert.True(t, fields["created_at"], "%s should sort by created_at", name)
		assert.False(t, fields["deleted_at"], "%s must not expose deleted_at", name)
	}
}
