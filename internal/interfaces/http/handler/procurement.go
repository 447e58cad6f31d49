package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/billing"
	"github.com/erp/procurement/internal/domain/document"
	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/erp/procurement/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DefaultMaxUploadSize caps attachment uploads when no limit is configured
const DefaultMaxUploadSize int64 = 5 << 20

// ProcurementHandler exposes documents, billing, journal and inventory
// endpoints. Each handler binds the request and hands it to the dispatcher,
// which owns the role check.
type ProcurementHandler struct {
	BaseHandler
	dispatcher    *procurement.Dispatcher
	maxUploadSize int64
}

// NewProcurementHandler creates a new ProcurementHandler
func NewProcurementHandler(dispatcher *procurement.Dispatcher, maxUploadSize int64) *ProcurementHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &ProcurementHandler{
		dispatcher:    dispatcher,
		maxUploadSize: maxUploadSize,
	}
}

// ListDocuments lists documents of the :kind path parameter
func (h *ProcurementHandler) ListDocuments(c *gin.Context) {
	kind, ok := h.documentKind(c)
	if !ok {
		return
	}
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	h.dispatch(c, kind, procurement.VerbList, procurement.Request{Filter: filter})
}

// GetDocument returns one document
func (h *ProcurementHandler) GetDocument(c *gin.Context) {
	kind, ok := h.documentKind(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	h.dispatch(c, kind, procurement.VerbGet, procurement.Request{ID: id})
}

// CreateDocument adds a document
func (h *ProcurementHandler) CreateDocument(c *gin.Context) {
	kind, ok := h.documentKind(c)
	if !ok {
		return
	}
	var req procurement.DocumentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	h.dispatch(c, kind, procurement.VerbAdd, procurement.Request{Payload: req})
}

// UpdateDocument edits a document, applying the edit cascade when it was completed
func (h *ProcurementHandler) UpdateDocument(c *gin.Context) {
	kind, ok := h.documentKind(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req procurement.DocumentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	h.dispatch(c, kind, procurement.VerbEdit, procurement.Request{ID: id, Payload: req})
}

// DeleteDocument deletes a document and its dependents
func (h *ProcurementHandler) DeleteDocument(c *gin.Context) {
	kind, ok := h.documentKind(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	h.dispatch(c, kind, procurement.VerbDelete, procurement.Request{ID: id})
}

// ApproveDocument approves a pending document
func (h *ProcurementHandler) ApproveDocument(c *gin.Context) {
	kind, ok := h.documentKind(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	h.dispatch(c, kind, procurement.VerbApprove, procurement.Request{ID: id})
}

// RejectDocument rejects a pending document. The body is optional.
func (h *ProcurementHandler) RejectDocument(c *gin.Context) {
	kind, ok := h.documentKind(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req procurement.RejectInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}
	h.dispatch(c, kind, procurement.VerbReject, procurement.Request{ID: id, Payload: req})
}

// UploadAttachment stores the multipart "file" field and links it to the document
func (h *ProcurementHandler) UploadAttachment(c *gin.Context) {
	kind, ok := h.documentKind(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A file is required in the 'file' form field")
		return
	}
	if fileHeader.Size > h.maxUploadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge,
			fmt.Sprintf("File exceeds the %d byte upload limit", h.maxUploadSize))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Failed to open uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read uploaded file")
		return
	}
	if int64(len(data)) > h.maxUploadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge,
			fmt.Sprintf("File exceeds the %d byte upload limit", h.maxUploadSize))
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	h.dispatch(c, kind, procurement.VerbUpload, procurement.Request{
		ID: id,
		Payload: procurement.AttachmentInput{
			FileName:    filepath.Base(fileHeader.Filename),
			ContentType: contentType,
			Data:        data,
		},
	})
}

// ListBilling lists billing orders or invoices
func (h *ProcurementHandler) ListBilling(c *gin.Context) {
	kind, ok := h.billingKind(c)
	if !ok {
		return
	}
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	h.dispatch(c, string(kind), procurement.VerbList, procurement.Request{Filter: filter})
}

// GetBilling returns one billing record
func (h *ProcurementHandler) GetBilling(c *gin.Context) {
	kind, ok := h.billingKind(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	h.dispatch(c, string(kind), procurement.VerbGet, procurement.Request{ID: id})
}

// ApproveBilling sends a billing order to the chart of accounts, or applies
// a payment to a billing invoice.
func (h *ProcurementHandler) ApproveBilling(c *gin.Context) {
	kind, ok := h.billingKind(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	req := procurement.Request{ID: id}
	if kind == billing.KindInvoice {
		var payment procurement.PaymentInput
		if err := c.ShouldBindJSON(&payment); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
		req.Payload = payment
	}
	h.dispatch(c, string(kind), procurement.VerbApprove, req)
}

// ListJournalEntries lists journal entries. search is a transaction number prefix.
func (h *ProcurementHandler) ListJournalEntries(c *gin.Context) {
	var req dto.JournalListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter := toFilter(req.ListRequest)
	if req.SourceKind != "" {
		filter.Filters["source_kind"] = req.SourceKind
	}
	h.dispatch(c, procurement.ResourceJournal, procurement.VerbList, procurement.Request{Filter: filter})
}

// ListLedger lists inventory ledger rows by stock name and month
func (h *ProcurementHandler) ListLedger(c *gin.Context) {
	var req dto.LedgerListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	h.dispatch(c, procurement.ResourceLedger, procurement.VerbList, procurement.Request{
		Filter: toFilter(req.ListRequest),
		Payload: inventory.LedgerFilter{
			StockName: req.StockName,
			Month:     req.Month,
		},
	})
}

// ListStocks lists the stock master
func (h *ProcurementHandler) ListStocks(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	h.dispatch(c, procurement.ResourceStock, procurement.VerbList, procurement.Request{Filter: filter})
}

// AdjustStock applies a manual stock correction to a ledger month
func (h *ProcurementHandler) AdjustStock(c *gin.Context) {
	var req procurement.AdjustStockInput
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	h.dispatch(c, procurement.ResourceAdjustment, procurement.VerbAdd, procurement.Request{Payload: req})
}

// dispatch attaches the authenticated principal and writes the action result
func (h *ProcurementHandler) dispatch(c *gin.Context, resource string, verb procurement.Verb, req procurement.Request) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	req.Principal = principal
	if req.Filter.Filters == nil {
		req.Filter = shared.DefaultFilter()
	}

	result, err := h.dispatcher.Dispatch(c.Request.Context(), procurement.ActionKey{Resource: resource, Verb: verb}, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	switch {
	case verb == procurement.VerbDelete:
		h.NoContent(c)
	case result.Created:
		h.Created(c, result.Data)
	default:
		h.Success(c, result.Data)
	}
}

func (h *ProcurementHandler) documentKind(c *gin.Context) (string, bool) {
	kind, ok := document.ParseKind(c.Param("kind"))
	if !ok {
		h.NotFound(c, fmt.Sprintf("Unknown document kind %q", c.Param("kind")))
		return "", false
	}
	return kind.String(), true
}

func (h *ProcurementHandler) billingKind(c *gin.Context) (billing.Kind, bool) {
	kind := billing.Kind(c.Param("kind"))
	if !kind.IsValid() {
		h.NotFound(c, fmt.Sprintf("Unknown billing kind %q", c.Param("kind")))
		return "", false
	}
	return kind, true
}

func (h *ProcurementHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ProcurementHandler) bindFilter(c *gin.Context) (shared.Filter, bool) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return shared.Filter{}, false
	}
	return toFilter(req), true
}

// toFilter converts query parameters; an empty order_by lets the repository pick its default
func toFilter(req dto.ListRequest) shared.Filter {
	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if req.Status != "" {
		filter.Filters["status"] = req.Status
	}
	return filter
}
