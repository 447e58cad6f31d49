package inventory

import (
	"github.com/shopspring/decimal"
)

// DiscountType selects how a line discount is expressed
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountNominal    DiscountType = "nominal"
)

// IsValid reports whether t is known; empty is treated as percentage
func (t DiscountType) IsValid() bool {
	return t == "" || t == DiscountPercentage || t == DiscountNominal
}

var hundred = decimal.NewFromInt(100)

// PurchaseLine is one received invoice line
type PurchaseLine struct {
	StockName    string
	AccountCode  string
	Quantity     decimal.Decimal
	ReturnUnit   decimal.Decimal
	Price        decimal.Decimal
	Discount     decimal.Decimal
	DiscountType DiscountType
}

// NetQuantity is quantity less returned units
func (l PurchaseLine) NetQuantity() decimal.Decimal {
	return l.Quantity.Sub(l.ReturnUnit)
}

// InvoiceCosts is the invoice-level input to costing
type InvoiceCosts struct {
	FreightIn      decimal.Decimal
	Insurance      decimal.Decimal
	GlobalDiscount decimal.Decimal
	Lines          []PurchaseLine
}

// PurchaseCost is the landed-cost breakdown for one line
type PurchaseCost struct {
	Line           PurchaseLine
	FreightShare   decimal.Decimal // per unit
	InsuranceShare decimal.Decimal // per unit
	GlobalShare    decimal.Decimal // whole line
	Gross          decimal.Decimal
	ReturnAmount   decimal.Decimal
	Net            decimal.Decimal
	NettPurchase   decimal.Decimal
	NettPriceItem  decimal.Decimal
}

// TotalQuantity sums line quantities before returns
func (c InvoiceCosts) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Quantity)
	}
	return total
}

// Compute spreads freight, insurance and the global discount over units and
// returns each line's landed cost. Freight and insurance shares are per unit of
// the invoice's total quantity; returns are valued at the discounted unit price.
func (c InvoiceCosts) Compute() []PurchaseCost {
	totalQty := c.TotalQuantity()
	freightShare, insuranceShare := decimal.Zero, decimal.Zero
	if totalQty.IsPositive() {
		freightShare = c.FreightIn.Div(totalQty)
		insuranceShare = c.Insurance.Div(totalQty)
	}

	out := make([]PurchaseCost, 0, len(c.Lines))
	for _, l := range c.Lines {
		globalShare := decimal.Zero
		if totalQty.IsPositive() {
			globalShare = c.GlobalDiscount.Mul(l.Quantity).Div(totalQty)
		}

		var unitDiscount decimal.Decimal
		if l.DiscountType == DiscountNominal {
			unitDiscount = l.Discount
		} else {
			unitDiscount = l.Price.Mul(l.Discount).Div(hundred)
		}
		unitLanded := l.Price.Sub(unitDiscount).Add(freightShare).Add(insuranceShare)

		gross := unitLanded.Mul(l.Quantity)
		returnAmount := unitLanded.Mul(l.ReturnUnit)
		discPerItem := unitDiscount.Mul(l.Quantity)

		nett := l.NetQuantity().Mul(l.Price).
			Sub(discPerItem).
			Add(freightShare.Mul(l.Quantity)).
			Add(insuranceShare.Mul(l.Quantity)).
			Sub(globalShare)

		priceItem := decimal.Zero
		if l.NetQuantity().IsPositive() {
			priceItem = nett.Div(l.NetQuantity())
		}

		out = append(out, PurchaseCost{
			Line:           l,
			FreightShare:   freightShare,
			InsuranceShare: insuranceShare,
			GlobalShare:    globalShare,
			Gross:          gross,
			ReturnAmount:   returnAmount,
			Net:            gross.Sub(returnAmount).Sub(globalShare),
			NettPurchase:   nett,
			NettPriceItem:  priceItem,
		})
	}
	return out
}
