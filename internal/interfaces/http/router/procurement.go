package router

import (
	"github.com/erp/procurement/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// ProcurementRoutes builds the document, billing, journal and inventory
// groups. approveGuard runs in front of every approve route; pass nil to
// disable idempotent retries.
func ProcurementRoutes(h *handler.ProcurementHandler, approveGuard gin.HandlerFunc) []*DomainGroup {
	approve := func(next gin.HandlerFunc) []gin.HandlerFunc {
		if approveGuard == nil {
			return []gin.HandlerFunc{next}
		}
		return []gin.HandlerFunc{approveGuard, next}
	}

	documents := NewDomainGroup("documents", "/documents")
	documents.GET("/:kind", h.ListDocuments).
		GET("/:kind/:id", h.GetDocument).
		POST("/:kind", h.CreateDocument).
		PUT("/:kind/:id", h.UpdateDocument).
		DELETE("/:kind/:id", h.DeleteDocument).
		POST("/:kind/:id/approve", approve(h.ApproveDocument)...).
		POST("/:kind/:id/reject", h.RejectDocument).
		POST("/:kind/:id/attachments", h.UploadAttachment)

	billing := NewDomainGroup("billing", "/billing")
	billing.GET("/:kind", h.ListBilling).
		GET("/:kind/:id", h.GetBilling).
		POST("/:kind/:id/approve", approve(h.ApproveBilling)...)

	journal := NewDomainGroup("journal", "/journal-entries")
	journal.GET("", h.ListJournalEntries)

	inventory := NewDomainGroup("inventory", "/inventory")
	inventory.GET("/ledger", h.ListLedger).
		GET("/stocks", h.ListStocks).
		POST("/adjustments", h.AdjustStock)

	return []*DomainGroup{documents, billing, journal, inventory}
}
