package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("Before Calculate")
	require.NoError(t, err)
	assert.Equal(t, MethodBefore, m)

	m, err = ParseMethod(" After Calculate ")
	require.NoError(t, err)
	assert.Equal(t, MethodAfter, m)

	_, err = ParseMethod("Gross Up")
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		method Method
		vat    string
		wh     string
		dpp    string
		ppn    string
		pph    string
	}{
		{"before 11 keeps base", "1000000", MethodBefore, "11", "2", "1000000", "110000", "20000"},
		{"before 12 uses eleven twelfths", "1200000", MethodBefore, "12", "0", "1100000", "132000", "0"},
		{"before other vat falls back to eleven twelfths", "1200000", MethodBefore, "10", "0", "1100000", "110000", "0"},
		{"after 12 uses eleven twelfths", "1200000", MethodAfter, "12", "0", "1100000", "132000", "0"},
		{"after 11 grosses down", "1110000", MethodAfter, "11", "2", "1000000", "110000", "20000"},
		{"after other vat grosses down", "1100000", MethodAfter, "10", "0", "1000000", "100000", "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Compute(dec(tc.base), tc.method, dec(tc.vat), dec(tc.wh))
			require.NoError(t, err)
			assert.True(t, r.DPP.Equal(dec(tc.dpp)), "dpp %s", r.DPP)
			assert.True(t, r.PPN.Equal(dec(tc.ppn)), "ppn %s", r.PPN)
			assert.True(t, r.PPh.Equal(dec(tc.pph)), "pph %s", r.PPh)
		})
	}
}

func TestCompute_AfterElevenMatchesGrossDown(t *testing.T) {
	base := dec("1000000")
	r, err := Compute(base, MethodAfter, dec("11"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.DPP.Equal(base.Div(dec("1.11"))))
	assert.True(t, r.PPN.Equal(dec("99099")), "ppn %s", r.PPN)
}

func TestCompute_InvalidMethod(t *testing.T) {
	_, err := Compute(dec("100"), Method("Gross"), dec("11"), decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestPaidAmount(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		method   Method
		vat      string
		expected string
	}{
		{"before 11 is base minus ppn", "1000000", MethodBefore, "11", "890000"},
		{"before 12 is dpp minus ppn", "1200000", MethodBefore, "12", "968000"},
		{"before fallback is base plus ppn", "1200000", MethodBefore, "10", "1310000"},
		{"after 12 is base minus ppn", "1200000", MethodAfter, "12", "1068000"},
		{"after 11 is dpp minus ppn", "1110000", MethodAfter, "11", "890000"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Compute(dec(tc.base), tc.method, dec(tc.vat), decimal.Zero)
			require.NoError(t, err)
			got := PaidAmount(dec(tc.base), tc.method, dec(tc.vat), r)
			assert.True(t, got.Equal(dec(tc.expected)), "paid %s", got)
		})
	}
}
