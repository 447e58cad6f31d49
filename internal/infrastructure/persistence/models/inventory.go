package models

import (
	"encoding/json"
	"time"

	"github.com/erp/procurement/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// StockItemModel is the stock master row
type StockItemModel struct {
	BaseModel
	Name        string `gorm:"type:varchar(200);not null;uniqueIndex"`
	AccountCode string `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (StockItemModel) TableName() string {
	return "stock_items"
}

// ToDomain converts the persistence model to a domain StockItem
func (m *StockItemModel) ToDomain() *inventory.StockItem {
	return &inventory.StockItem{
		BaseEntity:  m.Entity(),
		Name:        m.Name,
		AccountCode: m.AccountCode,
	}
}

// StockItemModelFromDomain creates a persistence model from a domain StockItem
func StockItemModelFromDomain(s *inventory.StockItem) *StockItemModel {
	m := &StockItemModel{Name: s.Name, AccountCode: s.AccountCode}
	m.SetEntity(s.BaseEntity)
	return m
}

// LedgerEntryModel is one perpetual weighted-average ledger row
type LedgerEntryModel struct {
	BaseModel
	StockName        string    `gorm:"type:varchar(200);not null;index:idx_ledger_stock_month,priority:1"`
	Month            string    `gorm:"type:char(7);not null;index:idx_ledger_stock_month,priority:2"`
	TransactionDate  time.Time `gorm:"not null;index"`
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
	TotalCOGS        decimal.Decimal `gorm:"column:total_cogs"`
	TotalNett        decimal.Decimal
	Adjustments      datatypes.JSON
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "inventory_ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry
func (m *LedgerEntryModel) ToDomain() (*inventory.LedgerEntry, error) {
	e := &inventory.LedgerEntry{
		BaseEntity:       m.Entity(),
		StockName:        m.StockName,
		Month:            m.Month,
		TransactionDate:  m.TransactionDate,
		SourceNumber:     m.SourceNumber,
		QuantityPurchase: m.QuantityPurchase,
		ReturnPurchase:   m.ReturnPurchase,
		PricePurchase:    m.PricePurchase,
		NettPurchase:     m.NettPurchase,
		NettPriceItem:    m.NettPriceItem,
		QuantitySale:     m.QuantitySale,
		ReturnSale:       m.ReturnSale,
		PriceSale:        m.PriceSale,
		TotalSale:        m.TotalSale,
		TotalQty:         m.TotalQty,
		TotalStock:       m.TotalStock,
		AvgPerUnit:       m.AvgPerUnit,
		TotalCOGS:        m.TotalCOGS,
		TotalNett:        m.TotalNett,
	}
	if len(m.Adjustments) > 0 {
		if err := json.Unmarshal(m.Adjustments, &e.Adjustments); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// LedgerEntryModelFromDomain creates a persistence model from a domain LedgerEntry
func LedgerEntryModelFromDomain(e *inventory.LedgerEntry) (*LedgerEntryModel, error) {
	m := &LedgerEntryModel{
		StockName:        e.StockName,
		Month:            e.Month,
		TransactionDate:  e.TransactionDate,
		SourceNumber:     e.SourceNumber,
		QuantityPurchase: e.QuantityPurchase,
		ReturnPurchase:   e.ReturnPurchase,
		PricePurchase:    e.PricePurchase,
		NettPurchase:     e.NettPurchase,
		NettPriceItem:    e.NettPriceItem,
		QuantitySale:     e.QuantitySale,
		ReturnSale:       e.ReturnSale,
		PriceSale:        e.PriceSale,
		TotalSale:        e.TotalSale,
		TotalQty:         e.TotalQty,
		TotalStock:       e.TotalStock,
		AvgPerUnit:       e.AvgPerUnit,
		TotalCOGS:        e.TotalCOGS,
		TotalNett:        e.TotalNett,
	}
	m.SetEntity(e.BaseEntity)
	if len(e.Adjustments) > 0 {
		raw, err := json.Marshal(e.Adjustments)
		if err != nil {
			return nil, err
		}
		m.Adjustments = datatypes.JSON(raw)
	}
	return m, nil
}
