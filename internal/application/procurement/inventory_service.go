package procurement

import (
	"context"

	"github.com/erp/procurement/internal/domain/identity"
	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockItemResponse is the API view of a stock master row
type StockItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	AccountCode string    `json:"account_code"`
}

// InventoryService exposes the stock ledger and manual corrections
type InventoryService struct {
	uow    UnitOfWork
	logger *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(uow UnitOfWork, logger *zap.Logger) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{uow: uow, logger: logger}
}

// ListLedger lists ledger rows, optionally narrowed to one stock name and month
func (s *InventoryService) ListLedger(ctx context.Context, filter inventory.LedgerFilter) (*shared.Paginated[LedgerResponse], error) {
	entries, total, err := s.uow.Repositories().Inventory.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]LedgerResponse, len(entries))
	for i := range entries {
		items[i] = ToLedgerResponse(&entries[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

// ListStocks lists the stock master
func (s *InventoryService) ListStocks(ctx context.Context, filter shared.Filter) (*shared.Paginated[StockItemResponse], error) {
	stocks, total, err := s.uow.Repositories().Inventory.FindStockItems(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]StockItemResponse, len(stocks))
	for i, st := range stocks {
		items[i] = StockItemResponse{ID: st.ID, Name: st.Name, AccountCode: st.AccountCode}
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

// AdjustStock corrects the stock value of the latest ledger row of a month
func (s *InventoryService) AdjustStock(ctx context.Context, p identity.Principal, in AdjustStockInput) (*LedgerResponse, error) {
	var adjusted *inventory.LedgerEntry
	err := s.uow.Do(ctx, func(ctx context.Context, repos Repositories) error {
		var err error
		adjusted, err = inventory.NewCostEngine(repos.Inventory).AdjustStock(ctx, in.Month, in.StockName, in.Delta, in.Note)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("stock adjusted",
		zap.String("stock_name", in.StockName),
		zap.String("month", in.Month),
		zap.String("delta", in.Delta.String()),
		zap.String("user_id", p.UserID))
	resp := ToLedgerResponse(adjusted)
	return &resp, nil
}
