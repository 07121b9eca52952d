// Package audit acumula los resultados de una corrida de auditoría monofásica y
// calcula la base y el impuesto corregidos.
package audit

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/fiscal"
)

// TaxInput parámetros opcionales del cálculo. Rate ya es fracción (0.08).
// Con ambos informados gana Rate.
type TaxInput struct {
	Rate        *decimal.Decimal
	PaidTax     *decimal.Decimal
	CentsFactor decimal.Decimal // ver fiscal.NormalizePaidTax; cero la desactiva
}

const (
	moneyPlaces = 2
	ratePlaces  = 6
)

// ComputeTax calcula el resumen tributario.
//
//	alícuota:     base_actual = faturamento*alícuota; corrigido = base*alícuota
//	imposto pago: alícuota implícita = pago/faturamento; corrigido = base*implícita
//	ninguno:      impuestos en cero
//
// La economía nunca es negativa. base = faturamento - receita excluída.
func ComputeTax(revenue, excluded decimal.Decimal, in TaxInput) entity.TaxSummary {
	revenue = revenue.Round(moneyPlaces)
	excluded = excluded.Round(moneyPlaces)

	ts := entity.TaxSummary{
		Mode:             entity.TaxModeNone,
		Revenue:          revenue,
		ExcludedRevenue:  excluded,
		CorrectedBase:    revenue.Sub(excluded),
		BaselineTax:      decimal.Zero,
		CorrectedTax:     decimal.Zero,
		EstimatedSavings: decimal.Zero,
		RateUsed:         decimal.Zero,
		PaidTax:          decimal.Zero,
	}
	if in.PaidTax != nil {
		informed := *in.PaidTax
		ts.PaidTaxInformed = &informed
	}

	switch {
	case in.Rate != nil:
		rate := *in.Rate
		ts.Mode = entity.TaxModeRate
		ts.RateUsed = rate.Round(ratePlaces)
		ts.BaselineTax = revenue.Mul(rate).Round(moneyPlaces)
		ts.CorrectedTax = ts.CorrectedBase.Mul(rate).Round(moneyPlaces)
		ts.EstimatedSavings = nonNegative(ts.BaselineTax.Sub(ts.CorrectedTax))
		ts.PaidTax = ts.BaselineTax

	case in.PaidTax != nil:
		paid, corrected := fiscal.NormalizePaidTax(*in.PaidTax, revenue, in.CentsFactor)
		ts.Mode = entity.TaxModePaid
		ts.PaidTaxCentsCorrected = corrected
		ts.PaidTax = paid.Round(moneyPlaces)
		ts.BaselineTax = ts.PaidTax
		implied := decimal.Zero
		if revenue.IsPositive() {
			implied = paid.Div(revenue)
		}
		ts.RateUsed = implied.Round(ratePlaces)
		ts.CorrectedTax = ts.CorrectedBase.Mul(implied).Round(moneyPlaces)
		ts.EstimatedSavings = nonNegative(ts.PaidTax.Sub(ts.CorrectedTax))
	}
	return ts
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
