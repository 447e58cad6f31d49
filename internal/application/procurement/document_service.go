// Package procurement orchestrates the procurement back office: document
// lifecycle, approvals with their accounting side effects, billing payments
// and inventory corrections. Every mutation runs in one unit of work.
package procurement

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/erp/procurement/internal/domain/billing"
	"github.com/erp/procurement/internal/domain/document"
	"github.com/erp/procurement/internal/domain/identity"
	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/journal"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/domain/shared/valueobject"
	"github.com/erp/procurement/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DocumentService manages procurement documents and their approvals
type DocumentService struct {
	uow      UnitOfWork
	storage  BlobStorage
	poster   *journal.Poster
	settings Settings
	logger   *zap.Logger
	metrics  *telemetry.ProcurementMetrics
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(uow UnitOfWork, storage BlobStorage, settings Settings, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		uow:      uow,
		storage:  storage,
		poster:   journal.NewPoster(settings.Accounts),
		settings: settings,
		logger:   logger,
	}
}

// SetMetrics sets the procurement metrics collector
func (s *DocumentService) SetMetrics(m *telemetry.ProcurementMetrics) {
	s.metrics = m
}

// Get returns one document of kind
func (s *DocumentService) Get(ctx context.Context, kind document.Kind, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.load(ctx, s.uow.Repositories(), kind, id)
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// List returns a page of documents of kind
func (s *DocumentService) List(ctx context.Context, kind document.Kind, filter shared.Filter) (*shared.Paginated[DocumentResponse], error) {
	docs, total, err := s.uow.Repositories().Documents.FindAll(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	items := make([]DocumentResponse, len(docs))
	for i := range docs {
		items[i] = ToDocumentResponse(&docs[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

// Add creates a Pending document. A zero number takes the next free number.
func (s *DocumentService) Add(ctx context.Context, kind document.Kind, p identity.Principal, in DocumentInput) (*DocumentResponse, error) {
	input, err := in.toDomain(p.UserID)
	if err != nil {
		return nil, err
	}

	var created *document.Document
	err = s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		if input.Number == 0 {
			next, err := repos.Documents.NextNumber(ctx, kind)
			if err != nil {
				return err
			}
			input.Number = next
		}
		exists, err := repos.Documents.ExistsByNumber(ctx, kind, input.Number, uuid.Nil)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrDuplicateNumber
		}
		doc, err := document.New(kind, input)
		if err != nil {
			return err
		}
		if err := repos.Documents.Create(ctx, doc); err != nil {
			return err
		}
		created = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document added",
		zap.String("kind", kind.String()),
		zap.String("document_number", created.DisplayNumber()),
		zap.String("user_id", p.UserID))
	resp := ToDocumentResponse(created)
	return &resp, nil
}

// Edit replaces a document's content. Editing a Completed request or invoice
// first removes the records its approval produced and reopens it as Pending.
func (s *DocumentService) Edit(ctx context.Context, kind document.Kind, id uuid.UUID, p identity.Principal, in DocumentInput) (*DocumentResponse, error) {
	input, err := in.toDomain(p.UserID)
	if err != nil {
		return nil, err
	}

	var doc *document.Document
	err = s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		doc, err = s.load(ctx, repos, kind, id)
		if err != nil {
			return err
		}
		if input.Number == 0 {
			input.Number = doc.Number
		}
		if input.Number != doc.Number {
			exists, err := repos.Documents.ExistsByNumber(ctx, kind, input.Number, doc.ID)
			if err != nil {
				return err
			}
			if exists {
				return shared.ErrDuplicateNumber
			}
		}
		if input.RequestedBy == "" || doc.RequestedBy != "" {
			input.RequestedBy = doc.RequestedBy
		}

		deps, err := s.dependents(ctx, repos, doc)
		if err != nil {
			return err
		}
		plan, err := document.PlanEdit(doc, deps)
		if err != nil {
			return err
		}
		if err := s.executeCascade(ctx, repos, doc, plan); err != nil {
			return err
		}

		if err := doc.Update(input); err != nil {
			return err
		}
		if plan.ResetToPending {
			doc.ResetToPending()
		}
		return repos.Documents.SaveWithLock(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// Delete removes a document and, for Completed documents, its downstream records.
// Attachment blobs are removed after the transaction commits.
func (s *DocumentService) Delete(ctx context.Context, kind document.Kind, id uuid.UUID) error {
	var blobs []string
	err := s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		doc, err := s.load(ctx, repos, kind, id)
		if err != nil {
			return err
		}
		deps, err := s.dependents(ctx, repos, doc)
		if err != nil {
			return err
		}
		plan, err := document.PlanDelete(doc, deps)
		if err != nil {
			return err
		}
		if err := s.executeCascade(ctx, repos, doc, plan); err != nil {
			return err
		}
		blobs = doc.AttachmentPaths()
		return repos.Documents.Delete(ctx, doc.ID)
	})
	if err != nil {
		return err
	}

	if len(blobs) > 0 && s.storage != nil {
		if err := s.storage.Remove(ctx, blobs); err != nil {
			s.logger.Warn("failed to remove attachment blobs", zap.Strings("paths", blobs), zap.Error(err))
		}
	}
	return nil
}

// Approve advances a document one step and creates what the approval implies:
// request -> order (+ billing order), quotation -> offer, invoice -> stock ledger
// rows, journal entry and an Unpaid billing invoice.
func (s *DocumentService) Approve(ctx context.Context, kind document.Kind, id uuid.UUID, p identity.Principal) (*ApprovalResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "approve")
	defer span.End()
	telemetry.SetAttributes(span, "document_kind", kind.String(), "document_id", id.String())
	start := time.Now()

	result := &ApprovalResult{}
	err := s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		doc, err := s.load(ctx, repos, kind, id)
		if err != nil {
			return err
		}
		status, err := doc.Approve(p.UserID)
		if err != nil {
			return err
		}
		if err := repos.Documents.SaveWithLock(ctx, doc); err != nil {
			return err
		}
		result.Document = ToDocumentResponse(doc)
		if status != document.StatusCompleted {
			return nil
		}

		switch doc.Kind {
		case document.KindRequest, document.KindQuotation:
			return s.createDerived(ctx, repos, doc, result)
		case document.KindInvoice:
			return s.receiveInvoice(ctx, repos, doc, result)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordApproval(ctx, kind.String(), result.Document.Status.String(), result.LedgerEntries, time.Since(start))
	}

	s.logger.Info("document approved",
		zap.String("kind", kind.String()),
		zap.String("document_number", result.Document.DisplayNumber),
		zap.String("status", result.Document.Status.String()),
		zap.String("transaction_number", result.TransactionNumber),
		zap.String("user_id", p.UserID))
	return result, nil
}

func (s *DocumentService) createDerived(ctx context.Context, repos Repositories, doc *document.Document, result *ApprovalResult) error {
	derivedKind, _ := doc.Kind.Derived()
	derived, err := doc.DeriveFor(derivedKind)
	if err != nil {
		return err
	}
	if err := repos.Documents.Create(ctx, derived); err != nil {
		return fmt.Errorf("create %s: %w", derivedKind, err)
	}
	resp := ToDocumentResponse(derived)
	result.Derived = &resp

	if !doc.HasInstallment() {
		return nil
	}
	bo, err := billing.NewBillingOrder(billing.OrderParams{
		Number:            doc.Number,
		SourceID:          doc.ID,
		VendorName:        doc.VendorName,
		TaxMethod:         doc.TaxMethod,
		PPNPercent:        doc.PPNPercent,
		PPhPercent:        doc.PPhPercent,
		Total:             doc.Total,
		GrandTotal:        doc.GrandTotal,
		InstallmentAmount: doc.InstallmentAmount,
	})
	if err != nil {
		return err
	}
	if err := repos.Billing.Create(ctx, bo); err != nil {
		return fmt.Errorf("create billing order: %w", err)
	}
	br := ToBillingResponse(bo)
	result.Billing = &br
	return nil
}

func (s *DocumentService) receiveInvoice(ctx context.Context, repos Repositories, doc *document.Document, result *ApprovalResult) error {
	engine := inventory.NewCostEngine(repos.Inventory)
	entries, costs, err := engine.PostPurchase(ctx, doc.Number, doc.LedgerDate(), doc.PurchaseCosts())
	if err != nil {
		return err
	}
	result.LedgerEntries = len(entries)

	var downPayments []decimal.Decimal
	bo, err := repos.Billing.FindByNumber(ctx, billing.KindOrder, doc.Number)
	switch {
	case err == nil:
		if bo.IsCompleted() {
			downPayments = append(downPayments, bo.InstallmentAmount)
		}
	case !errors.Is(err, shared.ErrNotFound):
		return err
	}

	debits := make([]journal.InventoryDebit, len(costs))
	for i, c := range costs {
		debits[i] = journal.InventoryDebit{
			AccountCode: s.poster.InventoryAccount(c.Line.AccountCode),
			Amount:      valueobject.RoundHalfUp(c.Net),
			Memo:        c.Line.StockName,
		}
	}
	entry, err := s.poster.InvoiceApproval(doc.Number, debits, downPayments, time.Now())
	if err != nil {
		return err
	}
	if err := repos.Journal.Create(ctx, entry); err != nil {
		return fmt.Errorf("create journal entry: %w", err)
	}
	result.TransactionNumber = entry.TransactionNumber

	bi, err := billing.NewBillingInvoice(billing.InvoiceParams{
		Number:      doc.Number,
		SourceID:    doc.ID,
		VendorName:  doc.VendorName,
		InvoiceDate: doc.InvoiceDate,
		Terms:       doc.Terms,
		TaxMethod:   doc.TaxMethod,
		PPNPercent:  doc.PPNPercent,
		PPhPercent:  doc.PPhPercent,
		Total:       doc.Total,
		GrandTotal:  doc.GrandTotal,
		DPP:         doc.DPP,
		PPN:         doc.PPN,
		PPh:         doc.PPh,
	})
	if err != nil {
		return err
	}
	if err := repos.Billing.Create(ctx, bi); err != nil {
		return fmt.Errorf("create billing invoice: %w", err)
	}
	br := ToBillingResponse(bi)
	result.Billing = &br
	return nil
}

// Reject moves a Pending or Received document to Rejected
func (s *DocumentService) Reject(ctx context.Context, kind document.Kind, id uuid.UUID, p identity.Principal, in RejectInput) (*DocumentResponse, error) {
	var doc *document.Document
	err := s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		var err error
		doc, err = s.load(ctx, repos, kind, id)
		if err != nil {
			return err
		}
		if err := doc.Reject(p.UserID, in.Reason); err != nil {
			return err
		}
		return repos.Documents.SaveWithLock(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// AddAttachment uploads a file and records it on the document
func (s *DocumentService) AddAttachment(ctx context.Context, kind document.Kind, id uuid.UUID, in AttachmentInput) (*DocumentResponse, error) {
	if s.storage == nil {
		return nil, shared.NewDomainError("STORAGE_DISABLED", "Attachment storage is not configured")
	}
	if len(in.Data) == 0 {
		return nil, shared.NewDomainError("VALIDATION_FILE", "Attachment cannot be empty")
	}
	doc, err := s.load(ctx, s.uow.Repositories(), kind, id)
	if err != nil {
		return nil, err
	}

	blobPath := path.Join(string(kind), doc.DisplayNumber(), uuid.NewString()+"-"+path.Base(in.FileName))
	if err := s.storage.Upload(ctx, blobPath, in.Data, in.ContentType); err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}

	err = s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		fresh, err := s.load(ctx, repos, kind, id)
		if err != nil {
			return err
		}
		fresh.AddAttachment(document.Attachment{
			Path:        blobPath,
			FileName:    in.FileName,
			ContentType: in.ContentType,
			Size:        int64(len(in.Data)),
		})
		doc = fresh
		return repos.Documents.SaveWithLock(ctx, fresh)
	})
	if err != nil {
		if rmErr := s.storage.Remove(ctx, []string{blobPath}); rmErr != nil {
			s.logger.Warn("failed to remove orphaned attachment", zap.String("path", blobPath), zap.Error(rmErr))
		}
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// load fetches a document and checks it belongs to kind
func (s *DocumentService) load(ctx context.Context, repos Repositories, kind document.Kind, id uuid.UUID) (*document.Document, error) {
	doc, err := repos.Documents.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Kind != kind {
		return nil, shared.ErrNotFound
	}
	return doc, nil
}

// dependents loads the downstream records a Completed document may have
func (s *DocumentService) dependents(ctx context.Context, repos Repositories, doc *document.Document) (document.Dependents, error) {
	var deps document.Dependents
	if doc.Status != document.StatusCompleted {
		return deps, nil
	}
	if derivedKind, ok := doc.Kind.Derived(); ok {
		derived, err := repos.Documents.FindByNumber(ctx, derivedKind, doc.Number)
		if err := ignoreNotFound(err); err != nil {
			return deps, err
		}
		deps.Derived = derived
	}
	switch doc.Kind {
	case document.KindRequest:
		bo, err := repos.Billing.FindByNumber(ctx, billing.KindOrder, doc.Number)
		if err := ignoreNotFound(err); err != nil {
			return deps, err
		}
		deps.BillingOrder = bo
	case document.KindInvoice:
		bi, err := repos.Billing.FindByNumber(ctx, billing.KindInvoice, doc.Number)
		if err := ignoreNotFound(err); err != nil {
			return deps, err
		}
		deps.BillingInvoice = bi
	}
	return deps, nil
}

// executeCascade applies a cascade plan against the document's current content
func (s *DocumentService) executeCascade(ctx context.Context, repos Repositories, doc *document.Document, plan document.CascadePlan) error {
	if plan.IsEmpty() {
		return nil
	}
	if plan.DeleteDerived != nil {
		if err := repos.Documents.Delete(ctx, plan.DeleteDerived.ID); err != nil {
			return fmt.Errorf("delete %s: %w", plan.DeleteDerived.Kind, err)
		}
	}
	if plan.DeleteBillingOrder != nil {
		if err := repos.Billing.Delete(ctx, plan.DeleteBillingOrder.ID); err != nil {
			return fmt.Errorf("delete billing order: %w", err)
		}
	}
	if plan.DeleteBillingInvoice != nil {
		if err := repos.Billing.Delete(ctx, plan.DeleteBillingInvoice.ID); err != nil {
			return fmt.Errorf("delete billing invoice: %w", err)
		}
		if _, err := repos.Journal.DeleteBySource(ctx, journal.SourceBillingInvoice, doc.Number); err != nil {
			return err
		}
	}
	if plan.DeleteInvoiceJournal {
		if _, err := repos.Journal.DeleteBySource(ctx, journal.SourceInvoice, doc.Number); err != nil {
			return err
		}
	}
	if plan.ReverseInventory {
		engine := inventory.NewCostEngine(repos.Inventory)
		if _, err := engine.ReversePurchase(ctx, doc.Number, doc.LedgerDate(), doc.PurchaseCosts()); err != nil {
			return err
		}
	}
	s.logger.Info("document cascade applied",
		zap.String("document_number", doc.DisplayNumber()),
		zap.Bool("reset_to_pending", plan.ResetToPending))
	return nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	return err
}
