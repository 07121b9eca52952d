package audit_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/audita-nfe/internal/domain/audit"
	"github.com/jhoicas/audita-nfe/internal/domain/classifier"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/pkg/nfe"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func newClassifier(t *testing.T) *classifier.Classifier {
	t.Helper()
	c, err := classifier.New([]entity.CategoryRule{
		{Category: "cerveja", Keywords: []string{"cerveja", "heineken", "skol"}, NCMPrefixes: []string{"2203"}, SinglePhase: true},
		{Category: "refrigerante", Keywords: []string{"refrigerante", "coca-cola"}, NCMPrefixes: []string{"2202"}, SinglePhase: true},
		{Category: "papelaria", Keywords: []string{"caderno"}, NCMPrefixes: []string{"4820"}},
	}, classifier.Options{})
	require.NoError(t, err)
	return c
}

func item(desc, code, ncm, cfop, csosn, value string) entity.LineItem {
	return entity.LineItem{
		Description:  desc,
		ProductCode:  code,
		NCM:          ncm,
		CFOP:         cfop,
		TaxSituation: csosn,
		TotalValue:   dec(value),
	}
}

func document(total string, issued *time.Time, items ...entity.LineItem) *entity.InvoiceDocument {
	return &entity.InvoiceDocument{Number: "1", TotalValue: dec(total), IssuedAt: issued, Items: items}
}

func at(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

// ── Escenarios de tributación ────────────────────────────────────────────────

func TestAccumulator_IncorrectlyTaxedSinglePhase(t *testing.T) {
	acc := audit.NewAccumulator(newClassifier(t))
	acc.AddDocument(document("100.00", nil, item("Cerveja Heineken 600ml", "1", "22030000", "5102", "101", "100.00")))
	res := acc.Finish(audit.TaxInput{})

	assert.Equal(t, 1, res.Documents)
	assert.Equal(t, 1, res.Items)
	assert.Equal(t, 1, res.SinglePhaseTotal)
	assert.Equal(t, 1, res.SinglePhaseByKeyword)
	assert.Equal(t, 1, res.STIncorrect)
	assert.Equal(t, 0, res.STCorrect)
	assert.Equal(t, 0, res.NCMCategoryMismatches)
	assert.True(t, dec("100").Equal(res.ExcludedRevenue))
	assert.True(t, res.STCorrectValue.IsZero())
	assert.True(t, dec("100").Equal(res.ExcludedByCategory["cerveja"]))
	require.Len(t, res.Excluded, 1)
	assert.Equal(t, "cerveja", res.Excluded[0].Category)
	assert.Equal(t, entity.TaxModeNone, res.Tax.Mode)
	assert.True(t, res.Tax.CorrectedBase.IsZero())
}

func TestAccumulator_CorrectlyTaxedSinglePhase(t *testing.T) {
	acc := audit.NewAccumulator(newClassifier(t))
	acc.AddDocument(document("100.00", nil, item("Cerveja Heineken 600ml", "1", "22030000", "5405", "500", "100.00")))
	res := acc.Finish(audit.TaxInput{})

	assert.Equal(t, 1, res.STCorrect)
	assert.Equal(t, 0, res.STIncorrect)
	assert.True(t, res.ExcludedRevenue.IsZero())
	assert.True(t, dec("100").Equal(res.STCorrectValue))
	assert.Empty(t, res.Excluded)
	assert.True(t, dec("100").Equal(res.Tax.CorrectedBase))
}

// Cada ítem monofásico suma en receita excluída o en valor ST correcto, nunca en ambos.
func TestAccumulator_ExcludedOrCorrectNeverBoth(t *testing.T) {
	items := []entity.LineItem{
		item("Cerveja Skol lata", "1", "22030000", "5405", "500", "10.00"),
		item("Cerveja Skol lata", "1", "22030000", "5102", "102", "20.00"),
		item("Coca-Cola 2L", "2", "22021000", "5405", "102", "30.00"),
		item("Coca-Cola 2L", "2", "22021000", "5403", "500", "40.00"),
		item("Caderno espiral", "3", "48201000", "5102", "102", "50.00"),
	}
	acc := audit.NewAccumulator(newClassifier(t))
	acc.AddDocument(document("150.00", nil, items...))
	res := acc.Finish(audit.TaxInput{})

	assert.Equal(t, 4, res.SinglePhaseTotal)
	assert.Equal(t, res.SinglePhaseTotal, res.STCorrect+res.STIncorrect)
	assert.True(t, dec("10").Equal(res.STCorrectValue))
	assert.True(t, dec("90").Equal(res.ExcludedRevenue))
	assert.True(t, res.ExcludedRevenue.Add(res.STCorrectValue).Equal(dec("100")), "el caderno no es monofásico")
	assert.Len(t, res.Products, 5)
	assert.True(t, res.Tax.CorrectedBase.Add(res.Tax.ExcludedRevenue).Equal(res.Tax.Revenue))
}

func TestAccumulator_FiscalIndicators(t *testing.T) {
	acc := audit.NewAccumulator(newClassifier(t))
	acc.AddDocument(document("60.00", nil,
		item("Cerveja Skol", "1", "2203", "5102", "102", "10.00"),          // NCM inválida
		item("Cerveja Skol", "1", "22021000", "5102", "102", "10.00"),      // NCM de otra categoría
		item("Refrigerante guaraná", "2", "22021000", "5102", "", "10.00"), // sin CSOSN
		item("Heinekn", "3", "22030000", "5405", "500", "10.00"),           // difuso
		item("Caderno", "4", "12345678", "5102", "102", "10.00"),           // no monofásico pero NCM incoherente
		item("Parafuso", "5", "", "5102", "102", "10.00"),                  // sin categoría
	))
	res := acc.Finish(audit.TaxInput{})

	assert.Equal(t, 6, res.Items)
	assert.Equal(t, 4, res.SinglePhaseTotal)
	assert.Equal(t, 3, res.SinglePhaseByKeyword)
	assert.Equal(t, 1, res.SinglePhaseByFuzzy)
	assert.Equal(t, 1, res.SinglePhaseWithoutNCM)
	assert.Equal(t, 1, res.SinglePhaseWithoutCFOPCSOSN)
	assert.Equal(t, 2, res.NCMCategoryMismatches, "22021000 para cerveja y 12345678 para papelaria")
}

func TestAccumulator_AmbiguousBrandUsesItemNCM(t *testing.T) {
	c, err := classifier.New([]entity.CategoryRule{
		{Category: "cerveja", Keywords: []string{"cerveja", "antarctica"}, NCMPrefixes: []string{"2203"}, SinglePhase: true},
		{Category: "refrigerante", Keywords: []string{"guarana"}, NCMPrefixes: []string{"2202"}, SinglePhase: true},
	}, classifier.Options{})
	require.NoError(t, err)

	acc := audit.NewAccumulator(c)
	acc.AddDocument(document("10.00", nil,
		item("Guaraná Antarctica lata 350ml", "1", "22021000", "5102", "102", "10.00"),
	))
	res := acc.Finish(audit.TaxInput{})

	assert.Equal(t, 0, res.NCMCategoryMismatches)
	require.Len(t, res.ExcludedByCategory, 1)
	assert.True(t, dec("10").Equal(res.ExcludedByCategory["refrigerante"]))
}

func TestAccumulator_PeriodAndSummaries(t *testing.T) {
	key43 := "3524031122233300018155001000000123100000012"
	dv, err := nfe.ComputeAccessKeyDigit(key43)
	require.NoError(t, err)

	acc := audit.NewAccumulator(newClassifier(t))
	d1 := document("10.00", at("2024-03-10"))
	d1.Key = key43 + string(dv)
	d1.EntryName = "a.xml"
	acc.AddDocument(d1)
	acc.AddDocument(document("20.00", at("2024-01-05")))
	acc.AddDocument(document("30.00", nil))
	acc.Skip("rota.xml")
	res := acc.Finish(audit.TaxInput{})

	assert.Equal(t, 3, res.Documents)
	assert.True(t, dec("60").Equal(res.TotalValue))
	require.NotNil(t, res.PeriodStart)
	require.NotNil(t, res.PeriodEnd)
	assert.Equal(t, "2024-01-05", res.PeriodStart.Format("2006-01-02"))
	assert.Equal(t, "2024-03-10", res.PeriodEnd.Format("2006-01-02"))
	assert.Equal(t, []string{"rota.xml"}, res.SkippedEntries)

	require.Len(t, res.DocumentSummaries, 3)
	assert.True(t, res.DocumentSummaries[0].KeyValid)
	assert.Equal(t, "a.xml", res.DocumentSummaries[0].EntryName)
	assert.False(t, res.DocumentSummaries[1].KeyValid)
}

// ── Deduplicación ────────────────────────────────────────────────────────────

func TestAccumulator_Dedup(t *testing.T) {
	acc := audit.NewAccumulator(newClassifier(t))
	acc.AddDocument(document("0", nil,
		item("Cerveja Skol", "10", "22030000", "5102", "102", "50.00"),
		item("CERVEJA  SKOL", "10", "22030000", "5405", "500", "70.00"),
		item("Cerveja Skol", "11", "22030000", "5102", "102", "5.00"),
		item("Coca-Cola 2L", "20", "22021000", "5102", "102", "300.00"),
		item("Caderno", "30", "48201000", "5102", "102", "999.00"),
	))
	res := acc.Finish(audit.TaxInput{})

	require.Len(t, res.Deduplicated, 3, "el caderno no entra y el código distinto separa")
	assert.Equal(t, "20", res.Deduplicated[0].ProductCode)
	assert.Equal(t, "10", res.Deduplicated[1].ProductCode)
	assert.Equal(t, 2, res.Deduplicated[1].Occurrences)
	assert.True(t, dec("120").Equal(res.Deduplicated[1].TotalValue))
	assert.Equal(t, "11", res.Deduplicated[2].ProductCode)
}

func TestAssemble_EmptyRun(t *testing.T) {
	res := audit.NewAccumulator(newClassifier(t)).Finish(audit.TaxInput{Rate: decPtr("0.1")})

	assert.NotNil(t, res.Deduplicated)
	assert.NotNil(t, res.Excluded)
	assert.NotNil(t, res.Products)
	assert.NotNil(t, res.ExcludedByCategory)
	assert.True(t, res.Tax.EstimatedSavings.IsZero())
	assert.Nil(t, res.PeriodStart)
}

// ── Cálculo tributario ───────────────────────────────────────────────────────

func TestComputeTax_RateMode(t *testing.T) {
	ts := audit.ComputeTax(dec("1000"), dec("200"), audit.TaxInput{Rate: decPtr("0.10")})

	assert.Equal(t, entity.TaxModeRate, ts.Mode)
	assert.True(t, dec("800").Equal(ts.CorrectedBase))
	assert.True(t, dec("100").Equal(ts.BaselineTax))
	assert.True(t, dec("80").Equal(ts.CorrectedTax))
	assert.True(t, dec("20").Equal(ts.EstimatedSavings))
	assert.True(t, dec("0.1").Equal(ts.RateUsed))
	assert.True(t, dec("100").Equal(ts.PaidTax))
}

func TestComputeTax_RateWinsOverPaid(t *testing.T) {
	ts := audit.ComputeTax(dec("1000"), dec("200"), audit.TaxInput{Rate: decPtr("0.10"), PaidTax: decPtr("999")})
	assert.Equal(t, entity.TaxModeRate, ts.Mode)
	require.NotNil(t, ts.PaidTaxInformed)
	assert.True(t, dec("999").Equal(*ts.PaidTaxInformed))
}

func TestComputeTax_PaidMode(t *testing.T) {
	ts := audit.ComputeTax(dec("1000"), dec("200"), audit.TaxInput{PaidTax: decPtr("50"), CentsFactor: dec("3")})

	assert.Equal(t, entity.TaxModePaid, ts.Mode)
	assert.True(t, dec("0.05").Equal(ts.RateUsed))
	assert.True(t, dec("40").Equal(ts.CorrectedTax))
	assert.True(t, dec("10").Equal(ts.EstimatedSavings))
	assert.False(t, ts.PaidTaxCentsCorrected)
}

func TestComputeTax_PaidModeCentsCorrection(t *testing.T) {
	ts := audit.ComputeTax(dec("1000"), dec("200"), audit.TaxInput{PaidTax: decPtr("5000"), CentsFactor: dec("3")})

	assert.True(t, ts.PaidTaxCentsCorrected)
	assert.True(t, dec("50").Equal(ts.PaidTax))
	assert.True(t, dec("10").Equal(ts.EstimatedSavings))
	require.NotNil(t, ts.PaidTaxInformed)
	assert.True(t, dec("5000").Equal(*ts.PaidTaxInformed), "se conserva el valor informado")

	off := audit.ComputeTax(dec("1000"), dec("200"), audit.TaxInput{PaidTax: decPtr("5000")})
	assert.False(t, off.PaidTaxCentsCorrected, "sin factor no se corrige")
	assert.True(t, dec("5000").Equal(off.PaidTax))
}

func TestComputeTax_PaidModeZeroRevenue(t *testing.T) {
	ts := audit.ComputeTax(decimal.Zero, decimal.Zero, audit.TaxInput{PaidTax: decPtr("50"), CentsFactor: dec("3")})

	assert.True(t, ts.RateUsed.IsZero())
	assert.True(t, ts.CorrectedTax.IsZero())
	assert.True(t, dec("50").Equal(ts.EstimatedSavings))
}

func TestComputeTax_SavingsNeverNegative(t *testing.T) {
	ts := audit.ComputeTax(dec("1000"), dec("200"), audit.TaxInput{PaidTax: decPtr("-10")})
	assert.True(t, ts.EstimatedSavings.IsZero())
}

func TestComputeTax_NoInput(t *testing.T) {
	ts := audit.ComputeTax(dec("1000"), dec("200"), audit.TaxInput{})

	assert.Equal(t, entity.TaxModeNone, ts.Mode)
	assert.True(t, dec("800").Equal(ts.CorrectedBase))
	assert.True(t, ts.CorrectedTax.IsZero())
	assert.True(t, ts.BaselineTax.IsZero())
	assert.True(t, ts.EstimatedSavings.IsZero())
	assert.True(t, ts.RateUsed.IsZero())
	assert.True(t, ts.PaidTax.IsZero())
	assert.Nil(t, ts.PaidTaxInformed)
}

// ── Agrupación por período ───────────────────────────────────────────────────

func TestGroupExcludedByPeriod(t *testing.T) {
	groups := audit.GroupExcludedByPeriod([]entity.ItemRecord{
		{TotalValue: dec("10"), IssuedAt: at("2024-03-01")},
		{TotalValue: dec("5")},
		{TotalValue: dec("20"), IssuedAt: at("2024-01-31")},
		{TotalValue: dec("1.5"), IssuedAt: at("2024-03-30")},
	})

	require.Len(t, groups, 3)
	assert.Equal(t, "2024-01", groups[0].Period)
	assert.Equal(t, "2024-03", groups[1].Period)
	assert.Equal(t, 2, groups[1].Items)
	assert.True(t, dec("11.5").Equal(groups[1].Value))
	assert.Equal(t, audit.NoDatePeriod, groups[2].Period)
}
