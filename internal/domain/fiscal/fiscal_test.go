package fiscal_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/audita-nfe/internal/domain/fiscal"
)

// ── IsCorrectlyTaxed ─────────────────────────────────────────────────────────

func TestIsCorrectlyTaxed(t *testing.T) {
	cases := []struct {
		cfop, csosn string
		want        bool
	}{
		{"5405", "500", true},
		{"5102", "101", false},
		{"5405", "102", false},
		{"5102", "500", false},
		{"", "", false},
		{"5405 ", "500", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, fiscal.IsCorrectlyTaxed(c.cfop, c.csosn), "%q/%q", c.cfop, c.csosn)
	}
}

func TestHasTaxCodes(t *testing.T) {
	assert.True(t, fiscal.HasTaxCodes("5102", "101"))
	assert.False(t, fiscal.HasTaxCodes("5102", ""))
	assert.False(t, fiscal.HasTaxCodes(" ", "500"))
}

// ── ParseMoney ───────────────────────────────────────────────────────────────

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"1.234,56", "1234.56"},
		{"R$ 1.234,56", "1234.56"},
		{"R$\u00a01.234,56", "1234.56"},
		{"100,00", "100"},
		{"100.50", "100.5"},
		{"1,234,567.89", "1234567.89"},
		{"1.234.567", "1234567"},
		{" 42 ", "42"},
		{"abc", "0"},
		{"", "0"},
		{nil, "0"},
		{12.5, "12.5"},
		{7, "7"},
		{math.NaN(), "0"},
		{math.Inf(1), "0"},
		{decimal.RequireFromString("3.14"), "3.14"},
		{struct{}{}, "0"},
	}
	for _, c := range cases {
		got := fiscal.ParseMoney(c.in)
		assert.Equal(t, c.want, got.String(), "entrada %#v", c.in)
	}
}

// ParseMoney es idempotente sobre su propia salida canónica.
func TestParseMoney_Idempotent(t *testing.T) {
	inputs := []any{"1.234,56", "R$ 99,9", "0,01", "1,234,567.89", 1500.75, "lixo", "-3,5"}
	for _, in := range inputs {
		first := fiscal.ParseMoney(in)
		again := fiscal.ParseMoney(first.String())
		assert.True(t, first.Equal(again), "entrada %#v: %s != %s", in, first, again)
	}
}

// ── ParsePercent ─────────────────────────────────────────────────────────────

func TestParsePercent(t *testing.T) {
	want := decimal.RequireFromString("0.08")

	for _, in := range []any{8, 0.08, "8", "8%", "0,08", "8,0"} {
		got := fiscal.ParsePercent(in)
		require.NotNil(t, got, "entrada %#v", in)
		assert.True(t, want.Equal(*got), "entrada %#v: %s", in, got)
	}

	assert.Nil(t, fiscal.ParsePercent(nil))
	assert.Nil(t, fiscal.ParsePercent((*decimal.Decimal)(nil)))
	assert.Nil(t, fiscal.ParsePercent("sem taxa"))

	zero := fiscal.ParsePercent(0)
	require.NotNil(t, zero, "cero informado es distinto de ausente")
	assert.True(t, zero.IsZero())

	ten := fiscal.ParsePercent("10")
	require.NotNil(t, ten)
	assert.Equal(t, "0.1", ten.String())
}

// ── NormalizePaidTax ─────────────────────────────────────────────────────────

func TestNormalizePaidTax(t *testing.T) {
	revenue := decimal.NewFromInt(1000)
	factor := decimal.NewFromInt(3)

	paid, corrected := fiscal.NormalizePaidTax(decimal.NewFromInt(8000), revenue, factor)
	assert.True(t, corrected)
	assert.Equal(t, "80", paid.String())

	paid, corrected = fiscal.NormalizePaidTax(decimal.NewFromInt(3000), revenue, factor)
	assert.False(t, corrected, "igual al límite no se corrige")
	assert.Equal(t, "3000", paid.String())

	paid, corrected = fiscal.NormalizePaidTax(decimal.NewFromInt(8000), revenue, decimal.Zero)
	assert.False(t, corrected, "factor 0 desactiva la heurística")
	assert.Equal(t, "8000", paid.String())

	_, corrected = fiscal.NormalizePaidTax(decimal.NewFromInt(8000), decimal.Zero, factor)
	assert.False(t, corrected, "sin faturamento no hay referencia")
}

func TestFormatBRL(t *testing.T) {
	cases := map[string]string{
		"0":        "R$ 0,00",
		"12.5":     "R$ 12,50",
		"1234.567": "R$ 1.234,57",
		"1000000":  "R$ 1.000.000,00",
		"-25000.1": "-R$ 25.000,10",
	}
	for in, want := range cases {
		assert.Equal(t, want, fiscal.FormatBRL(decimal.RequireFromString(in)), in)
	}
	assert.Equal(t, "3,65%", fiscal.FormatPercent(decimal.RequireFromString("0.0365")))
}
