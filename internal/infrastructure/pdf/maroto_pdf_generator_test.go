package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/audita-nfe/internal/application/ports"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/pdf"
)

func sampleTotals() *entity.AnalysisTotals {
	issued := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	d := decimal.RequireFromString
	excluded := entity.ItemRecord{
		Description: "Refrigerante cola 2L", ProductCode: "2", NCM: "22021000", CFOP: "5102", CSOSN: "102",
		TotalValue: d("40"), DocNumber: "1", IssuedAt: &issued, Category: "refrigerante", Score: 100, SinglePhase: true,
	}
	return &entity.AnalysisTotals{
		RunID:             "run-1",
		Documents:         1,
		Items:             3,
		TotalValue:        d("1000"),
		PeriodStart:       &issued,
		PeriodEnd:         &issued,
		DictionaryVersion: "abc123",
		SinglePhaseTotal:  2,
		STCorrect:         1,
		STIncorrect:       1,
		ExcludedRevenue:   d("40"),
		Tax: entity.TaxSummary{
			Mode: entity.TaxModeRate, Revenue: d("1000"), CorrectedBase: d("960"), ExcludedRevenue: d("40"),
			BaselineTax: d("60"), CorrectedTax: d("57.6"), EstimatedSavings: d("2.4"), RateUsed: d("0.06"),
		},
		Deduplicated: []entity.DedupItem{
			{ProductCode: "1", Description: "Cerveja Pilsen 350ml", Category: "cerveja", Occurrences: 1, TotalValue: d("100")},
			{ProductCode: "2", Description: "Refrigerante cola 2L", Category: "refrigerante", Occurrences: 1, TotalValue: d("40")},
		},
		Excluded: []entity.ItemRecord{excluded},
	}
}

func TestGenerateAnalysisReport(t *testing.T) {
	g := pdf.NewMarotoPDFGenerator()
	out, err := g.GenerateAnalysisReport(context.Background(), ports.ReportData{
		Company:  &entity.Company{Name: "Contábil", CNPJ: "11222333000181"},
		Client:   &entity.Client{Name: "Mercado", CNPJ: "11444777000161"},
		Upload:   &entity.Upload{Filename: "marco.zip"},
		Analysis: &entity.Analysis{ID: "an-1", Status: entity.AnalysisStatusDone, Totals: sampleTotals()},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateAnalysisReport_WithoutContext(t *testing.T) {
	totals := sampleTotals()
	totals.Tax = entity.TaxSummary{Mode: entity.TaxModeNone}
	totals.Excluded = nil
	totals.PeriodStart, totals.PeriodEnd = nil, nil

	out, err := pdf.NewMarotoPDFGenerator().GenerateAnalysisReport(context.Background(), ports.ReportData{
		Analysis: &entity.Analysis{Totals: totals},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestGenerateAnalysisReport_NoTotals(t *testing.T) {
	_, err := pdf.NewMarotoPDFGenerator().GenerateAnalysisReport(context.Background(), ports.ReportData{
		Analysis: &entity.Analysis{Status: entity.AnalysisStatusFailed},
	})
	assert.Error(t, err)
}
