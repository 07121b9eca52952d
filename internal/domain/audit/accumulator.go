package audit

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/audita-nfe/internal/domain/classifier"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/fiscal"
	"github.com/jhoicas/audita-nfe/pkg/nfe"
)

// Classifier lo que el acumulador necesita del diccionario.
type Classifier interface {
	ClassifyItem(description, ncm string) entity.ClassificationResult
	ValidateCode(ncm, category string) bool
}

type dedupKey struct {
	code string
	desc string
}

// Accumulator estado de una corrida. Una instancia por análisis; no es seguro para
// uso concurrente.
type Accumulator struct {
	cls    Classifier
	totals entity.AnalysisTotals
	dedup  map[dedupKey]*entity.DedupItem
}

// NewAccumulator crea un acumulador vacío.
func NewAccumulator(cls Classifier) *Accumulator {
	return &Accumulator{
		cls: cls,
		totals: entity.AnalysisTotals{
			TotalValue:         decimal.Zero,
			ExcludedRevenue:    decimal.Zero,
			STCorrectValue:     decimal.Zero,
			ExcludedByCategory: map[string]decimal.Decimal{},
			Products:           []entity.ItemRecord{},
			Excluded:           []entity.ItemRecord{},
			DocumentSummaries:  []entity.DocumentSummary{},
			SkippedEntries:     []string{},
		},
		dedup: make(map[dedupKey]*entity.DedupItem),
	}
}

// AddDocument suma un documento parseado y todos sus ítems.
func (a *Accumulator) AddDocument(doc *entity.InvoiceDocument) {
	t := &a.totals
	t.Documents++
	t.TotalValue = t.TotalValue.Add(doc.TotalValue)

	if doc.IssuedAt != nil {
		issued := *doc.IssuedAt
		if t.PeriodStart == nil || issued.Before(*t.PeriodStart) {
			t.PeriodStart = &issued
		}
		if t.PeriodEnd == nil || issued.After(*t.PeriodEnd) {
			end := issued
			t.PeriodEnd = &end
		}
	}

	t.DocumentSummaries = append(t.DocumentSummaries, entity.DocumentSummary{
		EntryName:  doc.EntryName,
		Number:     doc.Number,
		Key:        doc.Key,
		KeyValid:   nfe.ValidAccessKey(doc.Key),
		IssuedAt:   doc.IssuedAt,
		TotalValue: doc.TotalValue.Round(moneyPlaces),
		Items:      len(doc.Items),
		Digest:     doc.Digest,
	})

	for _, it := range doc.Items {
		a.addItem(doc, it)
	}
}

// Skip registra una entrada del ZIP que no entró en los contadores.
func (a *Accumulator) Skip(entryName string) {
	a.totals.SkippedEntries = append(a.totals.SkippedEntries, entryName)
}

func (a *Accumulator) addItem(doc *entity.InvoiceDocument, it entity.LineItem) {
	t := &a.totals
	t.Items++

	res := a.cls.ClassifyItem(it.Description, it.NCM)
	single := res.Found() && res.SinglePhase
	stCorrect := single && fiscal.IsCorrectlyTaxed(it.CFOP, it.TaxSituation)

	rec := entity.ItemRecord{
		Description: it.Description,
		ProductCode: it.ProductCode,
		NCM:         it.NCM,
		CFOP:        it.CFOP,
		CSOSN:       it.TaxSituation,
		Quantity:    it.Quantity,
		UnitValue:   it.UnitValue,
		TotalValue:  it.TotalValue,
		DocNumber:   doc.Number,
		DocKey:      doc.Key,
		IssuedAt:    doc.IssuedAt,
		Category:    res.Category,
		Score:       res.Score,
		SinglePhase: single,
		STCorrect:   stCorrect,
	}

	if single {
		t.SinglePhaseTotal++
		if res.Score == 100 {
			t.SinglePhaseByKeyword++
		} else {
			t.SinglePhaseByFuzzy++
		}
		if !nfe.ValidNCM(it.NCM) {
			t.SinglePhaseWithoutNCM++
		}
		if !fiscal.HasTaxCodes(it.CFOP, it.TaxSituation) {
			t.SinglePhaseWithoutCFOPCSOSN++
		}

		if stCorrect {
			t.STCorrect++
			t.STCorrectValue = t.STCorrectValue.Add(it.TotalValue)
		} else {
			t.STIncorrect++
			t.ExcludedRevenue = t.ExcludedRevenue.Add(it.TotalValue)
			t.ExcludedByCategory[res.Category] = t.ExcludedByCategory[res.Category].Add(it.TotalValue)
			t.Excluded = append(t.Excluded, rec)
		}
		a.addDedup(it, res.Category)
	}

	if res.Found() && !a.cls.ValidateCode(it.NCM, res.Category) {
		t.NCMCategoryMismatches++
	}

	t.Products = append(t.Products, rec)
}

func (a *Accumulator) addDedup(it entity.LineItem, category string) {
	k := dedupKey{code: it.ProductCode, desc: classifier.Normalize(it.Description)}
	d, ok := a.dedup[k]
	if !ok {
		d = &entity.DedupItem{
			ProductCode: it.ProductCode,
			Description: it.Description,
			Category:    category,
			TotalValue:  decimal.Zero,
		}
		a.dedup[k] = d
	}
	d.Occurrences++
	d.TotalValue = d.TotalValue.Add(it.TotalValue)
}

// Finish calcula impuestos, ensambla y devuelve el resultado. El acumulador no
// debe usarse después.
func (a *Accumulator) Finish(in TaxInput) *entity.AnalysisTotals {
	t := a.totals
	t.Tax = ComputeTax(t.TotalValue, t.ExcludedRevenue, in)
	return Assemble(t, a.dedupItems())
}

func (a *Accumulator) dedupItems() []entity.DedupItem {
	out := make([]entity.DedupItem, 0, len(a.dedup))
	for _, d := range a.dedup {
		out = append(out, *d)
	}
	return out
}
