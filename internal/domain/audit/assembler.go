package audit

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/audita-nfe/internal/domain/entity"
)

// NoDatePeriod agrupa los ítems de documentos sin fecha de emisión.
const NoDatePeriod = "sem-data"

// PeriodGroup receita excluída de un mes (YYYY-MM).
type PeriodGroup struct {
	Period string
	Items  int
	Value  decimal.Decimal
}

// Assemble redondea los montos y ordena la lista deduplicada por valor
// descendente (empates por descripción y código, para un orden estable).
func Assemble(t entity.AnalysisTotals, dedup []entity.DedupItem) *entity.AnalysisTotals {
	t.TotalValue = t.TotalValue.Round(moneyPlaces)
	t.ExcludedRevenue = t.ExcludedRevenue.Round(moneyPlaces)
	t.STCorrectValue = t.STCorrectValue.Round(moneyPlaces)

	byCat := make(map[string]decimal.Decimal, len(t.ExcludedByCategory))
	for k, v := range t.ExcludedByCategory {
		byCat[k] = v.Round(moneyPlaces)
	}
	t.ExcludedByCategory = byCat

	for i := range dedup {
		dedup[i].TotalValue = dedup[i].TotalValue.Round(moneyPlaces)
	}
	sort.SliceStable(dedup, func(i, j int) bool {
		if c := dedup[i].TotalValue.Cmp(dedup[j].TotalValue); c != 0 {
			return c > 0
		}
		if dedup[i].Description != dedup[j].Description {
			return dedup[i].Description < dedup[j].Description
		}
		return dedup[i].ProductCode < dedup[j].ProductCode
	})
	if dedup == nil {
		dedup = []entity.DedupItem{}
	}
	t.Deduplicated = dedup
	return &t
}

// GroupExcludedByPeriod agrupa los ítems excluidos por mes de emisión. Los meses
// salen en orden cronológico y los ítems sin fecha al final.
func GroupExcludedByPeriod(items []entity.ItemRecord) []PeriodGroup {
	groups := make(map[string]*PeriodGroup)
	for _, it := range items {
		key := NoDatePeriod
		if it.IssuedAt != nil {
			key = it.IssuedAt.Format("2006-01")
		}
		g, ok := groups[key]
		if !ok {
			g = &PeriodGroup{Period: key, Value: decimal.Zero}
			groups[key] = g
		}
		g.Items++
		g.Value = g.Value.Add(it.TotalValue)
	}

	out := make([]PeriodGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Period == NoDatePeriod {
			return false
		}
		if out[j].Period == NoDatePeriod {
			return true
		}
		return out[i].Period < out[j].Period
	})
	return out
}
