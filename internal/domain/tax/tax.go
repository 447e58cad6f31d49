// Package tax computes the Indonesian VAT (PPN) and withholding (PPh) figures
// carried by every procurement document.
package tax

import (
	"strings"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Method selects how the taxable base (DPP) is derived from an amount
type Method string

const (
	MethodBefore Method = "Before Calculate"
	MethodAfter  Method = "After Calculate"
)

// ErrInvalidMethod is returned for any method other than Before/After Calculate
var ErrInvalidMethod = shared.NewDomainError("INVALID_TAX_METHOD", "Tax method must be 'Before Calculate' or 'After Calculate'")

var (
	eleven  = decimal.NewFromInt(11)
	twelve  = decimal.NewFromInt(12)
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// ParseMethod parses the stored or submitted method label
func ParseMethod(s string) (Method, error) {
	switch Method(strings.TrimSpace(s)) {
	case MethodBefore:
		return MethodBefore, nil
	case MethodAfter:
		return MethodAfter, nil
	}
	return "", ErrInvalidMethod
}

// IsValid reports whether m is a known method
func (m Method) IsValid() bool {
	return m == MethodBefore || m == MethodAfter
}

// String returns the stored label
func (m Method) String() string {
	return string(m)
}

// Result holds the tax figures for one base amount.
// DPP is kept unrounded; PPN and PPh are whole rupiah.
type Result struct {
	DPP decimal.Decimal
	PPN decimal.Decimal
	PPh decimal.Decimal
}

// Compute derives DPP, PPN and PPh for base.
//
//	Before Calculate: vat 11 -> dpp = base; vat 12 and others -> dpp = base*11/12
//	After Calculate:  vat 12 -> dpp = base*11/12; vat 11 and others -> dpp = base/(1+vat/100)
//	ppn = round(dpp*vat/100), pph = round(dpp*wh/100)
func Compute(base decimal.Decimal, method Method, vatPercent, whPercent decimal.Decimal) (Result, error) {
	if !method.IsValid() {
		return Result{}, ErrInvalidMethod
	}
	dpp := taxableBase(base, method, vatPercent)
	return Result{
		DPP: dpp,
		PPN: valueobject.RoundHalfUp(valueobject.Percent(dpp, vatPercent)),
		PPh: valueobject.RoundHalfUp(valueobject.Percent(dpp, whPercent)),
	}, nil
}

func taxableBase(base decimal.Decimal, method Method, vat decimal.Decimal) decimal.Decimal {
	elevenTwelfths := base.Mul(eleven).Div(twelve)
	switch method {
	case MethodBefore:
		if vat.Equal(eleven) {
			return base
		}
		return elevenTwelfths
	default:
		if vat.Equal(twelve) {
			return elevenTwelfths
		}
		return base.Div(one.Add(vat.Div(hundred)))
	}
}

// PaidAmount returns the amount recorded as paid when a billing order is approved.
// The branches are an inherited policy table, kept as-is:
//
//	Before, vat 11 or 12  -> round(dpp - ppn)
//	Before, other vat     -> round(base + ppn)
//	After,  vat 12        -> round(base - ppn)
//	After,  vat 11/other  -> round(dpp - ppn)
func PaidAmount(base decimal.Decimal, method Method, vatPercent decimal.Decimal, r Result) decimal.Decimal {
	var v decimal.Decimal
	switch method {
	case MethodBefore:
		if vatPercent.Equal(eleven) || vatPercent.Equal(twelve) {
			v = r.DPP.Sub(r.PPN)
		} else {
			v = base.Add(r.PPN)
		}
	default:
		if vatPercent.Equal(twelve) {
			v = base.Sub(r.PPN)
		} else {
			v = r.DPP.Sub(r.PPN)
		}
	}
	return valueobject.RoundHalfUp(v)
}
