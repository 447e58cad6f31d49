package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CostEngine posts purchases into the moving-average ledger
type CostEngine struct {
	repo Repository
	now  func() time.Time
}

// NewCostEngine creates a cost engine over a ledger repository
func NewCostEngine(repo Repository) *CostEngine {
	return &CostEngine{repo: repo, now: time.Now}
}

// movement is what one ledger row adds to the month's position. A reversal
// carries the purchase with its quantities and value negated.
type movement struct {
	quantity     decimal.Decimal
	returned     decimal.Decimal
	price        decimal.Decimal
	nett         decimal.Decimal
	nettPrice    decimal.Decimal
	quantitySale decimal.Decimal
	returnSale   decimal.Decimal
}

func purchaseMovement(pc PurchaseCost) movement {
	return movement{
		quantity:  pc.Line.Quantity,
		returned:  pc.Line.ReturnUnit,
		price:     pc.Line.Price,
		nett:      pc.NettPurchase,
		nettPrice: pc.NettPriceItem,
	}
}

// PostPurchase appends one ledger row per invoice line and returns the rows with
// the landed-cost breakdown used to build them.
func (e *CostEngine) PostPurchase(ctx context.Context, sourceNumber int64, date time.Time, costs InvoiceCosts) ([]LedgerEntry, []PurchaseCost, error) {
	breakdown := costs.Compute()
	entries := make([]LedgerEntry, 0, len(breakdown))
	for _, pc := range breakdown {
		entry, err := e.post(ctx, pc.Line, sourceNumber, date, purchaseMovement(pc))
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, breakdown, nil
}

// ReversePurchase appends compensating rows that take an earlier purchase back out
// of the running position. The original rows are left untouched. date should be
// the date the purchase was posted with, so the rows land in the same month.
func (e *CostEngine) ReversePurchase(ctx context.Context, sourceNumber int64, date time.Time, costs InvoiceCosts) ([]LedgerEntry, error) {
	entries := make([]LedgerEntry, 0, len(costs.Lines))
	for _, pc := range costs.Compute() {
		mv := purchaseMovement(pc)
		mv.quantity, mv.returned, mv.nett = mv.quantity.Neg(), mv.returned.Neg(), mv.nett.Neg()
		entry, err := e.post(ctx, pc.Line, sourceNumber, date, mv)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (e *CostEngine) post(ctx context.Context, line PurchaseLine, sourceNumber int64, date time.Time, mv movement) (*LedgerEntry, error) {
	if line.StockName == "" {
		return nil, shared.NewDomainError("VALIDATION_STOCK_NAME", "Stock name cannot be empty")
	}
	if err := e.repo.EnsureStockItem(ctx, NewStockItem(line.StockName, line.AccountCode)); err != nil {
		return nil, fmt.Errorf("ensure stock item %q: %w", line.StockName, err)
	}

	// The first row of a month starts from an empty position and prices sales
	// at the purchase price; later rows carry the month's latest position.
	month := MonthOf(date)
	prevQty, prevStock, priceSale := decimal.Zero, decimal.Zero, mv.price
	prev, err := e.repo.LatestInMonth(ctx, line.StockName, month)
	switch {
	case err == nil:
		prevQty, prevStock, priceSale = prev.TotalQty, prev.TotalStock, prev.AvgPerUnit
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}
	totalSale := priceSale.Mul(mv.quantitySale.Sub(mv.returnSale))

	monthSales, err := e.repo.SumSaleInMonth(ctx, line.StockName, month)
	if err != nil {
		return nil, err
	}

	totalQty := prevQty.Add(mv.quantity).Sub(mv.returned).Sub(mv.quantitySale.Sub(mv.returnSale))
	totalStock := prevStock.Add(mv.nett).Sub(totalSale)

	entry := &LedgerEntry{
		BaseEntity:       shared.NewBaseEntity(),
		StockName:        line.StockName,
		Month:            month,
		TransactionDate:  date,
		SourceNumber:     sourceNumber,
		QuantityPurchase: mv.quantity,
		ReturnPurchase:   mv.returned,
		PricePurchase:    mv.price,
		NettPurchase:     mv.nett,
		NettPriceItem:    mv.nettPrice,
		QuantitySale:     mv.quantitySale,
		ReturnSale:       mv.returnSale,
		PriceSale:        priceSale,
		TotalSale:        totalSale,
		TotalQty:         totalQty,
		TotalStock:       totalStock,
		AvgPerUnit:       AveragePerUnit(totalStock, totalQty),
		TotalCOGS:        monthSales.Add(totalSale),
		TotalNett:        decimal.Zero,
	}
	if err := e.repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}
	return entry, nil
}

// AdjustStock applies a manual value correction to the latest row of the month
func (e *CostEngine) AdjustStock(ctx context.Context, month, stockName string, delta decimal.Decimal, note string) (*LedgerEntry, error) {
	if _, err := time.Parse(MonthLayout, month); err != nil {
		return nil, shared.NewDomainError("VALIDATION_MONTH", "Month must be formatted as YYYY-MM")
	}
	if delta.IsZero() {
		return nil, shared.NewDomainError("VALIDATION_DELTA", "Adjustment delta cannot be zero")
	}
	entry, err := e.repo.LatestInMonth(ctx, stockName, month)
	if err != nil {
		return nil, err
	}
	entry.Adjust(delta, note, e.now())
	if err := e.repo.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("update ledger entry: %w", err)
	}
	return entry, nil
}
