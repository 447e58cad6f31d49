package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// orderClause builds a whitelisted ORDER BY fragment
func orderClause(orderBy, orderDir string, allowed map[string]bool, defaultField string) string {
	return ValidateSortField(orderBy, allowed, defaultField) + " " + ValidateSortOrder(orderDir)
}

// DocumentSortFields contains allowed sort fields for procurement documents
var DocumentSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"number":        true,
	"vendor_name":   true,
	"document_date": true,
	"status":        true,
	"grand_total":   true,
}

// BillingSortFields contains allowed sort fields for billing records
var BillingSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"number":            true,
	"vendor_name":       true,
	"status":            true,
	"grand_total":       true,
	"paid_amount":       true,
	"remaining_balance": true,
	"invoice_date":      true,
}

// JournalSortFields contains allowed sort fields for journal entries
var JournalSortFields = map[string]bool{
	"created_at":         true,
	"posted_at":          true,
	"transaction_number": true,
	"source_number":      true,
}

// LedgerSortFields contains allowed sort fields for inventory ledger rows
var LedgerSortFields = map[string]bool{
	"created_at":       true,
	"transaction_date": true,
	"stock_name":       true,
	"month":            true,
}

// StockItemSortFields contains allowed sort fields for the stock master
var StockItemSortFields = map[string]bool{
	"created_at": true,
	"name":       true,
}
