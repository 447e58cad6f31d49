package inventory

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// memoryLedger is an in-memory Repository keeping insertion order
type memoryLedger struct {
	items   map[string]StockItem
	entries []*LedgerEntry
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{items: map[string]StockItem{}}
}

func (m *memoryLedger) EnsureStockItem(_ context.Context, item *StockItem) error {
	if _, ok := m.items[item.Name]; !ok {
		m.items[item.Name] = *item
	}
	return nil
}

func (m *memoryLedger) FindStockItems(_ context.Context, _ shared.Filter) ([]StockItem, int64, error) {
	out := make([]StockItem, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (m *memoryLedger) LatestInMonth(_ context.Context, stockName, month string) (*LedgerEntry, error) {
	var found *LedgerEntry
	for _, e := range m.entries {
		if e.StockName == stockName && e.Month == month {
			found = e
		}
	}
	if found == nil {
		return nil, shared.ErrNotFound
	}
	return found, nil
}

func (m *memoryLedger) SumSaleInMonth(_ context.Context, stockName, month string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range m.entries {
		if e.StockName == stockName && e.Month == month {
			sum = sum.Add(e.TotalSale)
		}
	}
	return sum, nil
}

func (m *memoryLedger) Create(_ context.Context, entry *LedgerEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryLedger) Update(_ context.Context, _ *LedgerEntry) error {
	return nil
}

func (m *memoryLedger) FindAll(_ context.Context, f LedgerFilter) ([]LedgerEntry, int64, error) {
	var out []LedgerEntry
	for _, e := range m.entries {
		if (f.StockName == "" || strings.EqualFold(e.StockName, f.StockName)) && (f.Month == "" || e.Month == f.Month) {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func line(name, qty, price string) PurchaseLine {
	return PurchaseLine{StockName: name, AccountCode: "1-10301", Quantity: dec(qty), ReturnUnit: decimal.Zero, Price: dec(price), Discount: decimal.Zero, DiscountType: DiscountPercentage}
}

func TestInvoiceCosts_Compute(t *testing.T) {
	t.Run("freight and insurance are shared per unit", func(t *testing.T) {
		costs := InvoiceCosts{
			FreightIn: dec("1000"),
			Insurance: dec("500"),
			Lines:     []PurchaseLine{line("Bolt", "6", "1000"), line("Nut", "4", "500")},
		}
		out := costs.Compute()
		require.Len(t, out, 2)
		assert.True(t, out[0].FreightShare.Equal(dec("100")))
		assert.True(t, out[0].InsuranceShare.Equal(dec("50")))
		assert.True(t, out[0].NettPurchase.Equal(dec("6900")), "%s", out[0].NettPurchase)
		assert.True(t, out[1].NettPurchase.Equal(dec("2600")), "%s", out[1].NettPurchase)
		assert.True(t, out[0].Net.Equal(dec("6900")))
	})

	t.Run("percentage discount with returns", func(t *testing.T) {
		l := line("Bolt", "10", "1000")
		l.ReturnUnit = dec("2")
		l.Discount = dec("10")
		out := InvoiceCosts{Lines: []PurchaseLine{l}}.Compute()
		assert.True(t, out[0].Gross.Equal(dec("9000")))
		assert.True(t, out[0].ReturnAmount.Equal(dec("1800")))
		assert.True(t, out[0].Net.Equal(dec("7200")))
		assert.True(t, out[0].NettPurchase.Equal(dec("7000")))
		assert.True(t, out[0].NettPriceItem.Equal(dec("875")))
	})

	t.Run("nominal discount is per unit", func(t *testing.T) {
		l := line("Bolt", "10", "1000")
		l.ReturnUnit = dec("2")
		l.Discount = dec("50")
		l.DiscountType = DiscountNominal
		out := InvoiceCosts{Lines: []PurchaseLine{l}}.Compute()
		assert.True(t, out[0].Gross.Equal(dec("9500")))
		assert.True(t, out[0].NettPurchase.Equal(dec("7500")))
	})

	t.Run("global discount is allocated by quantity", func(t *testing.T) {
		costs := InvoiceCosts{
			GlobalDiscount: dec("1000"),
			Lines:          []PurchaseLine{line("Bolt", "3", "1000"), line("Nut", "1", "1000")},
		}
		out := costs.Compute()
		assert.True(t, out[0].GlobalShare.Equal(dec("750")))
		assert.True(t, out[0].NettPurchase.Equal(dec("2250")))
		assert.True(t, out[1].NettPurchase.Equal(dec("750")))
	})

	t.Run("fully returned line has zero unit price", func(t *testing.T) {
		l := line("Bolt", "2", "1000")
		l.ReturnUnit = dec("2")
		out := InvoiceCosts{Lines: []PurchaseLine{l}}.Compute()
		assert.True(t, out[0].NettPriceItem.IsZero())
	})
}

func TestCostEngine_PostPurchase(t *testing.T) {
	ctx := context.Background()

	t.Run("two purchases in a month average their cost", func(t *testing.T) {
		repo := newMemoryLedger()
		engine := NewCostEngine(repo)

		first, _, err := engine.PostPurchase(ctx, 1, day("2025-01-05"), InvoiceCosts{Lines: []PurchaseLine{line("Bolt", "10", "1000")}})
		require.NoError(t, err)
		require.Len(t, first, 1)
		assert.True(t, first[0].TotalQty.Equal(dec("10")))
		assert.True(t, first[0].AvgPerUnit.Equal(dec("1000")))
		assert.True(t, first[0].PriceSale.Equal(dec("1000")))
		assert.True(t, first[0].QuantitySale.IsZero())

		second, _, err := engine.PostPurchase(ctx, 2, day("2025-01-20"), InvoiceCosts{Lines: []PurchaseLine{line("Bolt", "5", "1300")}})
		require.NoError(t, err)
		assert.True(t, second[0].TotalQty.Equal(dec("15")))
		assert.True(t, second[0].TotalStock.Equal(dec("16500")))
		assert.True(t, second[0].AvgPerUnit.Equal(dec("1100")))
		assert.True(t, second[0].PriceSale.Equal(dec("1000")), "price sale carries previous average")
		assert.True(t, second[0].TotalCOGS.IsZero())

		assert.Len(t, repo.items, 1)
	})

	t.Run("each month starts from its own purchases", func(t *testing.T) {
		repo := newMemoryLedger()
		engine := NewCostEngine(repo)

		_, _, err := engine.PostPurchase(ctx, 1, day("2025-01-10"), InvoiceCosts{Lines: []PurchaseLine{line("Bolt", "10", "1000")}})
		require.NoError(t, err)

		first, _, err := engine.PostPurchase(ctx, 2, day("2025-02-05"), InvoiceCosts{Lines: []PurchaseLine{line("Bolt", "5", "1200")}})
		require.NoError(t, err)
		assert.Equal(t, "2025-02", first[0].Month)
		assert.True(t, first[0].TotalQty.Equal(dec("5")), "qty %s", first[0].TotalQty)
		assert.True(t, first[0].TotalStock.Equal(dec("6000")), "stock %s", first[0].TotalStock)
		assert.True(t, first[0].PriceSale.Equal(dec("1200")), "first row of the month prices at purchase price")

		second, _, err := engine.PostPurchase(ctx, 3, day("2025-02-05"), InvoiceCosts{Lines: []PurchaseLine{line("Bolt", "5", "1400")}})
		require.NoError(t, err)
		assert.True(t, second[0].TotalQty.Equal(dec("10")), "qty %s", second[0].TotalQty)
		assert.True(t, second[0].TotalStock.Equal(dec("13000")), "stock %s", second[0].TotalStock)
		assert.True(t, second[0].AvgPerUnit.Equal(dec("1300")), "avg %s", second[0].AvgPerUnit)
		assert.True(t, second[0].PriceSale.Equal(dec("1200")))
	})

	t.Run("ledger row keeps gross quantity and returns apart", func(t *testing.T) {
		engine := NewCostEngine(newMemoryLedger())
		l := line("Bolt", "10", "1000")
		l.ReturnUnit = dec("2")

		rows, _, err := engine.PostPurchase(ctx, 1, day("2025-03-03"), InvoiceCosts{FreightIn: dec("500"), Lines: []PurchaseLine{l}})
		require.NoError(t, err)
		assert.True(t, rows[0].QuantityPurchase.Equal(dec("10")))
		assert.True(t, rows[0].ReturnPurchase.Equal(dec("2")))
		assert.True(t, rows[0].PricePurchase.Equal(dec("1000")))
		assert.True(t, rows[0].NettPurchase.Equal(dec("8500")), "nett %s", rows[0].NettPurchase)
		assert.True(t, rows[0].NettPriceItem.Equal(dec("1062.5")), "nett price %s", rows[0].NettPriceItem)
		assert.True(t, rows[0].TotalQty.Equal(dec("8")))
		assert.True(t, rows[0].NetQuantity().Equal(dec("8")))
	})

	t.Run("reversal dated in the purchase month leaves later months alone", func(t *testing.T) {
		repo := newMemoryLedger()
		engine := NewCostEngine(repo)
		jan := InvoiceCosts{Lines: []PurchaseLine{line("Bolt", "10", "1000")}}

		_, _, err := engine.PostPurchase(ctx, 1, day("2025-01-10"), jan)
		require.NoError(t, err)
		_, _, err = engine.PostPurchase(ctx, 2, day("2025-02-05"), InvoiceCosts{Lines: []PurchaseLine{line("Bolt", "4", "1500")}})
		require.NoError(t, err)

		rev, err := engine.ReversePurchase(ctx, 1, day("2025-01-10"), jan)
		require.NoError(t, err)
		assert.Equal(t, "2025-01", rev[0].Month)
		assert.True(t, rev[0].TotalQty.IsZero(), "qty %s", rev[0].TotalQty)

		feb, err := repo.LatestInMonth(ctx, "Bolt", "2025-02")
		require.NoError(t, err)
		assert.True(t, feb.TotalQty.Equal(dec("4")))
		assert.True(t, feb.AvgPerUnit.Equal(dec("1500")))
	})

	t.Run("reversal restores the prior position", func(t *testing.T) {
		repo := newMemoryLedger()
		engine := NewCostEngine(repo)
		costs := InvoiceCosts{Lines: []PurchaseLine{line("Bolt", "10", "1000")}}

		_, _, err := engine.PostPurchase(ctx, 1, day("2025-01-05"), costs)
		require.NoError(t, err)
		rev, err := engine.ReversePurchase(ctx, 1, day("2025-01-06"), costs)
		require.NoError(t, err)
		assert.True(t, rev[0].QuantityPurchase.Equal(dec("-10")))
		assert.True(t, rev[0].TotalQty.IsZero())
		assert.True(t, rev[0].AvgPerUnit.IsZero())
		assert.Len(t, repo.entries, 2)
	})

	t.Run("requires a stock name", func(t *testing.T) {
		engine := NewCostEngine(newMemoryLedger())
		_, _, err := engine.PostPurchase(ctx, 1, day("2025-01-05"), InvoiceCosts{Lines: []PurchaseLine{line("", "1", "1")}})
		assert.Error(t, err)
	})
}

func TestCostEngine_AdjustStock(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryLedger()
	engine := NewCostEngine(repo)
	_, _, err := engine.PostPurchase(ctx, 1, day("2025-01-05"), InvoiceCosts{Lines: []PurchaseLine{line("Bolt", "10", "1000")}})
	require.NoError(t, err)

	t.Run("patches the latest row", func(t *testing.T) {
		entry, err := engine.AdjustStock(ctx, "2025-01", "Bolt", dec("500"), "count correction")
		require.NoError(t, err)
		assert.True(t, entry.TotalStock.Equal(dec("10500")))
		assert.True(t, entry.AvgPerUnit.Equal(dec("1050")))
		assert.True(t, entry.TotalNett.Equal(dec("500")))
		require.Len(t, entry.Adjustments, 1)
		assert.True(t, entry.Adjustments[0].PreviousTotalStock.Equal(dec("10000")))
		assert.Len(t, repo.entries, 1)
	})

	t.Run("unknown month", func(t *testing.T) {
		_, err := engine.AdjustStock(ctx, "2025-03", "Bolt", dec("500"), "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := engine.AdjustStock(ctx, "January", "Bolt", dec("500"), "")
		assert.Error(t, err)
		_, err = engine.AdjustStock(ctx, "2025-01", "Bolt", decimal.Zero, "")
		assert.Error(t, err)
	})
}
