// Package inventory keeps the monthly moving-average stock ledger fed by
// approved purchase invoices.
package inventory

import (
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MonthLayout formats ledger month keys
const MonthLayout = "2006-01"

// MonthOf returns the ledger month key for t
func MonthOf(t time.Time) string {
	return t.Format(MonthLayout)
}

// StockItem is the stock master record, one per stock name
type StockItem struct {
	shared.BaseEntity
	Name        string
	AccountCode string
}

// NewStockItem creates a stock master record
func NewStockItem(name, accountCode string) *StockItem {
	return &StockItem{BaseEntity: shared.NewBaseEntity(), Name: name, AccountCode: accountCode}
}

// Adjustment annotates a manual correction applied to a ledger row
type Adjustment struct {
	Delta              decimal.Decimal `json:"delta"`
	PreviousTotalStock decimal.Decimal `json:"previous_total_stock"`
	PreviousAvgPerUnit decimal.Decimal `json:"previous_avg_per_unit"`
	Note               string          `json:"note,omitempty"`
	AdjustedAt         time.Time       `json:"adjusted_at"`
}

// LedgerEntry is one movement row with the running position after it.
// The running position restarts with the first row of each month.
type LedgerEntry struct {
	shared.BaseEntity
	StockName        string
	Month            string
	TransactionDate  time.Time
	SourceNumber     int64
	QuantityPurchase decimal.Decimal
	ReturnPurchase   decimal.Decimal
	PricePurchase    decimal.Decimal
	NettPurchase     decimal.Decimal
	NettPriceItem    decimal.Decimal
	QuantitySale     decimal.Decimal
	ReturnSale       decimal.Decimal
	PriceSale        decimal.Decimal
	TotalSale        decimal.Decimal
	TotalQty         decimal.Decimal
	TotalStock       decimal.Decimal
	AvgPerUnit       decimal.Decimal
	TotalCOGS        decimal.Decimal
	TotalNett        decimal.Decimal
	Adjustments      []Adjustment
}

// NetQuantity is the purchased quantity less returned units
func (e *LedgerEntry) NetQuantity() decimal.Decimal {
	return e.QuantityPurchase.Sub(e.ReturnPurchase)
}

// AveragePerUnit returns stock/qty, or zero when qty is zero
func AveragePerUnit(totalStock, totalQty decimal.Decimal) decimal.Decimal {
	if totalQty.IsZero() {
		return decimal.Zero
	}
	return totalStock.Div(totalQty)
}

// Adjust moves the running stock value by delta and records the correction
func (e *LedgerEntry) Adjust(delta decimal.Decimal, note string, at time.Time) {
	e.Adjustments = append(e.Adjustments, Adjustment{
		Delta:              delta,
		PreviousTotalStock: e.TotalStock,
		PreviousAvgPerUnit: e.AvgPerUnit,
		Note:               note,
		AdjustedAt:         at,
	})
	e.TotalStock = e.TotalStock.Add(delta)
	e.TotalNett = e.TotalNett.Add(delta)
	e.AvgPerUnit = AveragePerUnit(e.TotalStock, e.TotalQty)
	e.Touch()
}
