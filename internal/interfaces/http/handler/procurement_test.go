package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/billing"
	"github.com/erp/procurement/internal/domain/identity"
	"github.com/erp/procurement/internal/domain/journal"
	"github.com/erp/procurement/internal/infrastructure/persistence"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/erp/procurement/internal/infrastructure/storage"
	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/erp/procurement/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testRolesHeader = "X-Test-Roles"

type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

type testServer struct {
	engine  *gin.Engine
	storage *storage.MemoryBlobStorage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	blobs := storage.NewMemoryBlobStorage()
	uow := persistence.NewGormUnitOfWork(db)
	settings := procurement.Settings{
		Accounts: journal.Accounts{
			Cash:           "1-10001",
			VATIn:          "1-10501",
			PrepaidPPh:     "1-10502",
			VendorPayable:  "2-20100",
			AdvancePayment: "1-10401",
			TaxClearing:    "2-20900",
			Inventory:      "1-10301",
		},
		Installment: billing.DefaultInstallmentRules(),
	}
	dispatcher := procurement.NewDispatcher(procurement.Services{
		Documents: procurement.NewDocumentService(uow, blobs, settings, nil),
		Billing:   procurement.NewBillingService(uow, settings, nil),
		Inventory: procurement.NewInventoryService(uow, nil),
		Journal:   procurement.NewJournalService(uow),
	})
	h := NewProcurementHandler(dispatcher, 1024)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		if roles := c.GetHeader(testRolesHeader); roles != "" {
			c.Set(middleware.PrincipalKey, identity.Principal{UserID: "user-1", Roles: identity.ParseRoles(roles)})
		}
		c.Next()
	})
	api := engine.Group("/api/v1")
	api.GET("/documents/:kind", h.ListDocuments)
	api.GET("/documents/:kind/:id", h.GetDocument)
	api.POST("/documents/:kind", h.CreateDocument)
	api.PUT("/documents/:kind/:id", h.UpdateDocument)
	api.DELETE("/documents/:kind/:id", h.DeleteDocument)
	api.POST("/documents/:kind/:id/approve", h.ApproveDocument)
	api.POST("/documents/:kind/:id/reject", h.RejectDocument)
	api.POST("/documents/:kind/:id/attachments", h.UploadAttachment)
	api.GET("/billing/:kind", h.ListBilling)
	api.GET("/billing/:kind/:id", h.GetBilling)
	api.POST("/billing/:kind/:id/approve", h.ApproveBilling)
	api.GET("/journal-entries", h.ListJournalEntries)
	api.GET("/inventory/ledger", h.ListLedger)
	api.GET("/inventory/stocks", h.ListStocks)
	api.POST("/inventory/adjustments", h.AdjustStock)

	return &testServer{engine: engine, storage: blobs}
}

func (s *testServer) do(method, path, roles string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if roles != "" {
		req.Header.Set(testRolesHeader, roles)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func documentBody(vendor string) gin.H {
	return gin.H{
		"vendor_name": vendor,
		"tax_method":  "Before Calculate",
		"ppn_percent": "11",
		"items": []gin.H{
			{"stock_name": "Paper A4", "quantity": "10", "price": "50000"},
		},
	}
}

func (s *testServer) createDocument(t *testing.T, kind string) procurement.DocumentResponse {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/documents/"+kind, "purchasing", documentBody("PT Sumber Makmur"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[procurement.DocumentResponse](t, w).Data
}

func TestProcurementHandler_DocumentLifecycle(t *testing.T) {
	s := newTestServer(t)

	created := s.createDocument(t, "request")
	assert.Equal(t, "Pending", string(created.Status))
	assert.Equal(t, int64(1), created.Number)
	assert.True(t, created.Total.Equal(created.Items[0].Quantity.Mul(created.Items[0].Price)))

	w := s.do(http.MethodGet, "/api/v1/documents/request/"+created.ID.String(), "viewer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[procurement.DocumentResponse](t, w).Data.ID)

	w = s.do(http.MethodGet, "/api/v1/documents/request?status=Pending", "viewer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]procurement.DocumentResponse](t, w)
	require.Len(t, list.Data, 1)
	require.NotNil(t, list.Meta)
	assert.Equal(t, int64(1), list.Meta.Total)

	w = s.do(http.MethodPost, "/api/v1/documents/request/"+created.ID.String()+"/approve", "approver", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	approval := decode[procurement.ApprovalResult](t, w).Data
	assert.Equal(t, "Completed", string(approval.Document.Status))
	require.NotNil(t, approval.Derived)
	assert.Equal(t, "order", string(approval.Derived.Kind))

	w = s.do(http.MethodPost, "/api/v1/documents/request/"+created.ID.String()+"/approve", "approver", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotActionable, decode[any](t, w).Error.Code)

	w = s.do(http.MethodGet, "/api/v1/documents/order", "viewer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]procurement.DocumentResponse](t, w).Data, 1)
}

func TestProcurementHandler_EditAndDelete(t *testing.T) {
	s := newTestServer(t)
	created := s.createDocument(t, "quotation")

	body := documentBody("CV Baru")
	w := s.do(http.MethodPut, "/api/v1/documents/quotation/"+created.ID.String(), "purchasing", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "CV Baru", decode[procurement.DocumentResponse](t, w).Data.VendorName)

	w = s.do(http.MethodDelete, "/api/v1/documents/quotation/"+created.ID.String(), "admin", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/v1/documents/quotation/"+created.ID.String(), "viewer", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProcurementHandler_Reject(t *testing.T) {
	s := newTestServer(t)
	created := s.createDocument(t, "order")

	w := s.do(http.MethodPost, "/api/v1/documents/order/"+created.ID.String()+"/reject", "approver", gin.H{"reason": "over budget"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	doc := decode[procurement.DocumentResponse](t, w).Data
	assert.Equal(t, "Rejected", string(doc.Status))
	assert.Equal(t, "over budget", doc.RejectReason)
}

func TestProcurementHandler_Rejections(t *testing.T) {
	s := newTestServer(t)
	created := s.createDocument(t, "request")

	tests := []struct {
		name     string
		method   string
		path     string
		roles    string
		body     any
		wantCode int
		wantErr  string
	}{
		{"no principal", http.MethodGet, "/api/v1/documents/request", "", nil, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"unknown kind", http.MethodGet, "/api/v1/documents/memo", "admin", nil, http.StatusNotFound, dto.ErrCodeNotFound},
		{"unknown billing kind", http.MethodGet, "/api/v1/billing/receipt", "admin", nil, http.StatusNotFound, dto.ErrCodeNotFound},
		{"bad id", http.MethodGet, "/api/v1/documents/request/not-a-uuid", "admin", nil, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"missing document", http.MethodGet, "/api/v1/documents/request/" + uuid.NewString(), "admin", nil, http.StatusNotFound, dto.ErrCodeNotFound},
		{"viewer cannot add", http.MethodPost, "/api/v1/documents/request", "viewer", documentBody("X"), http.StatusForbidden, dto.ErrCodeForbidden},
		{"purchasing cannot approve", http.MethodPost, "/api/v1/documents/request/" + created.ID.String() + "/approve", "purchasing", nil, http.StatusForbidden, dto.ErrCodeForbidden},
		{"missing vendor", http.MethodPost, "/api/v1/documents/request", "purchasing", gin.H{"tax_method": "Before Calculate", "items": []gin.H{{"stock_name": "A", "quantity": "1"}}}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"bad tax method", http.MethodPost, "/api/v1/documents/request", "purchasing", gin.H{"vendor_name": "X", "tax_method": "Sometimes", "items": []gin.H{{"stock_name": "A", "quantity": "1"}}}, http.StatusBadRequest, dto.ErrCodeInvalidTaxMethod},
		{"bad page size", http.MethodGet, "/api/v1/documents/request?page_size=1000", "admin", nil, http.StatusBadRequest, dto.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.path, tt.roles, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			env := decode[any](t, w)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantErr, env.Error.Code)
		})
	}
}

func TestProcurementHandler_DuplicateNumber(t *testing.T) {
	s := newTestServer(t)
	body := documentBody("PT A")
	body["number"] = 7

	w := s.do(http.MethodPost, "/api/v1/documents/invoice", "purchasing", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/documents/invoice", "purchasing", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeDuplicateNumber, decode[any](t, w).Error.Code)
}

func multipartUpload(t *testing.T, fileName string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestProcurementHandler_UploadAttachment(t *testing.T) {
	s := newTestServer(t)
	created := s.createDocument(t, "invoice")

	body, contentType := multipartUpload(t, "receipt.pdf", []byte("%PDF-1.4 test"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/invoice/"+created.ID.String()+"/attachments", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(testRolesHeader, "purchasing")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	doc := decode[procurement.DocumentResponse](t, w).Data
	require.Len(t, doc.Attachments, 1)
	assert.Equal(t, "receipt.pdf", doc.Attachments[0].FileName)

	paths := s.storage.Paths()
	require.Len(t, paths, 1)
	assert.Equal(t, doc.Attachments[0].Path, paths[0])

	w = s.do(http.MethodDelete, "/api/v1/documents/invoice/"+created.ID.String(), "purchasing", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, s.storage.Paths())
}

func TestProcurementHandler_UploadAttachment_Rejections(t *testing.T) {
	s := newTestServer(t)
	created := s.createDocument(t, "invoice")
	path := "/api/v1/documents/invoice/" + created.ID.String() + "/attachments"

	t.Run("missing file field", func(t *testing.T) {
		w := s.do(http.MethodPost, path, "purchasing", gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("too large", func(t *testing.T) {
		body, contentType := multipartUpload(t, "big.bin", bytes.Repeat([]byte("x"), 2048))
		req := httptest.NewRequest(http.MethodPost, path, body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set(testRolesHeader, "purchasing")
		w := httptest.NewRecorder()
		s.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, dto.ErrCodeRequestTooLarge, decode[any](t, w).Error.Code)
		assert.Empty(t, s.storage.Paths())
	})
}

func TestProcurementHandler_InvoiceToPayment(t *testing.T) {
	s := newTestServer(t)
	invoice := s.createDocument(t, "invoice")

	w := s.do(http.MethodPost, "/api/v1/documents/invoice/"+invoice.ID.String()+"/approve", "approver", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	approval := decode[procurement.ApprovalResult](t, w).Data
	require.NotNil(t, approval.Billing)
	assert.NotEmpty(t, approval.TransactionNumber)

	w = s.do(http.MethodGet, "/api/v1/inventory/ledger?stock_name=Paper+A4", "viewer", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode[[]procurement.LedgerResponse](t, w).Data)

	w = s.do(http.MethodGet, "/api/v1/billing/billing_invoice/"+approval.Billing.ID.String(), "finance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	record := decode[procurement.BillingResponse](t, w).Data

	payment := gin.H{"payment_method": "Full Payment", "amount": record.GrandTotal.String()}
	w = s.do(http.MethodPost, "/api/v1/billing/billing_invoice/"+record.ID.String()+"/approve", "approver", payment)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/v1/billing/billing_invoice/"+record.ID.String()+"/approve", "finance", payment)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paid := decode[procurement.PaymentResult](t, w).Data
	assert.True(t, paid.Remaining.IsZero())
	assert.NotEmpty(t, paid.TransactionNumber)

	w = s.do(http.MethodPost, "/api/v1/billing/billing_invoice/"+record.ID.String()+"/approve", "finance", payment)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeAlreadyPaid, decode[any](t, w).Error.Code)

	w = s.do(http.MethodGet, "/api/v1/journal-entries", "viewer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]procurement.JournalResponse](t, w).Data
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.True(t, e.TotalDebit.Equal(e.TotalCredit), e.TransactionNumber)
	}
}

func TestProcurementHandler_BillingPaymentValidation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/billing/billing_invoice/"+uuid.NewString()+"/approve", "finance",
		gin.H{"payment_method": "Cash", "amount": "10"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decode[any](t, w).Error.Code)

	w = s.do(http.MethodPost, "/api/v1/billing/billing_order/"+uuid.NewString()+"/approve", "finance", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProcurementHandler_StocksAndAdjustment(t *testing.T) {
	s := newTestServer(t)
	invoice := s.createDocument(t, "invoice")
	w := s.do(http.MethodPost, "/api/v1/documents/invoice/"+invoice.ID.String()+"/approve", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/inventory/stocks", "viewer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w).Data, 1)

	month := invoice.DocumentDate.Format("2006-01")
	adjust := gin.H{"month": month, "stock_name": "Paper A4", "delta": "-2", "note": "damaged"}

	w = s.do(http.MethodPost, "/api/v1/inventory/adjustments", "purchasing", adjust)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/v1/inventory/adjustments", "finance", adjust)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	row := decode[procurement.LedgerResponse](t, w).Data
	assert.Equal(t, "Paper A4", row.StockName)
	assert.NotEmpty(t, row.Adjustments)
}
