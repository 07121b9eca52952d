package analysis_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/audita-nfe/internal/application/analysis"
	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/domain/classifier"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/nfe"
	"github.com/jhoicas/audita-nfe/pkg/logger"
)

const nfeTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe">
  <NFe><infNFe Id="NFe%s">
    <ide><nNF>%s</nNF><dhEmi>%s</dhEmi></ide>
    %s
    <total><ICMSTot><vNF>%s</vNF></ICMSTot></total>
  </infNFe></NFe>
</nfeProc>`

const detTemplate = `<det><prod><cProd>%s</cProd><xProd>%s</xProd><NCM>%s</NCM><CFOP>%s</CFOP><vProd>%s</vProd></prod>
<imposto><ICMS><ICMSSN%[6]s><CSOSN>%[6]s</CSOSN></ICMSSN%[6]s></ICMS></imposto></det>`

func det(code, desc, ncm, cfop, value, csosn string) string {
	return fmt.Sprintf(detTemplate, code, desc, ncm, cfop, value, csosn)
}

func nfeXML(number, issued, total string, dets ...string) []byte {
	items := ""
	for _, d := range dets {
		items += d
	}
	return []byte(fmt.Sprintf(nfeTemplate, "35240311222333000181550010000000011000000120", number, issued, items, total))
}

func newEngine(t *testing.T, cfg analysis.EngineConfig) (*analysis.Engine, *classifier.Store) {
	t.Helper()
	c, err := classifier.New([]entity.CategoryRule{
		{Category: "cerveja", Keywords: []string{"cerveja"}, NCMPrefixes: []string{"2203"}, SinglePhase: true},
		{Category: "papelaria", Keywords: []string{"caderno"}},
	}, classifier.Options{})
	require.NoError(t, err)
	store := classifier.NewStaticStore(c)
	return analysis.NewEngine(store, cfg, logger.Nop()), store
}

func sampleArchive(t *testing.T, extra ...nfe.Entry) []byte {
	t.Helper()
	entries := []nfe.Entry{{
		Name: "nota1.xml",
		Data: nfeXML("1", "2024-03-15T10:00:00-03:00", "1000.00",
			det("1", "Cerveja Pilsen 350ml", "22030000", "5102", "100.00", "101"),
			det("2", "Caderno universitário", "48202000", "5102", "900.00", "102"),
		),
	}}
	data, err := nfe.BuildArchive(append(entries, extra...))
	require.NoError(t, err)
	return data
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ── Corrida completa ─────────────────────────────────────────────────────────

func TestAnalyze_RateAsPercentage(t *testing.T) {
	eng, store := newEngine(t, analysis.EngineConfig{})
	res, err := eng.Analyze(context.Background(), sampleArchive(t), analysis.Input{Rate: "10"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, store.Current().Fingerprint(), res.DictionaryVersion)
	assert.Equal(t, 1, res.Documents)
	assert.Equal(t, 2, res.Items)
	assert.Equal(t, 1, res.STIncorrect)
	assert.True(t, dec("100").Equal(res.ExcludedRevenue))

	assert.Equal(t, entity.TaxModeRate, res.Tax.Mode)
	assert.True(t, dec("0.1").Equal(res.Tax.RateUsed))
	assert.True(t, dec("900").Equal(res.Tax.CorrectedBase))
	assert.True(t, dec("100").Equal(res.Tax.BaselineTax))
	assert.True(t, dec("90").Equal(res.Tax.CorrectedTax))
	assert.True(t, dec("10").Equal(res.Tax.EstimatedSavings))
}

func TestAnalyze_PaidTaxInCents(t *testing.T) {
	eng, _ := newEngine(t, analysis.EngineConfig{CentsFactor: dec("3")})
	res, err := eng.Analyze(context.Background(), sampleArchive(t), analysis.Input{PaidTax: "R$ 5.000,00"})
	require.NoError(t, err)

	assert.Equal(t, entity.TaxModePaid, res.Tax.Mode)
	assert.True(t, res.Tax.PaidTaxCentsCorrected)
	assert.True(t, dec("50").Equal(res.Tax.PaidTax))
	assert.True(t, dec("45").Equal(res.Tax.CorrectedTax))
	assert.True(t, dec("5").Equal(res.Tax.EstimatedSavings))
}

func TestAnalyze_NoTaxInput(t *testing.T) {
	eng, _ := newEngine(t, analysis.EngineConfig{})
	res, err := eng.Analyze(context.Background(), sampleArchive(t), analysis.Input{PaidTax: "  "})
	require.NoError(t, err)
	assert.Equal(t, entity.TaxModeNone, res.Tax.Mode)
	assert.True(t, res.Tax.EstimatedSavings.IsZero())
}

// ── Errores ──────────────────────────────────────────────────────────────────

func TestAnalyze_CorruptArchive(t *testing.T) {
	eng, _ := newEngine(t, analysis.EngineConfig{})
	_, err := eng.Analyze(context.Background(), []byte("PK nada"), analysis.Input{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrArchiveCorrupt))
	assert.True(t, analysis.IsInputError(err))
}

func TestAnalyze_UnparsableEntrySkipped(t *testing.T) {
	eng, _ := newEngine(t, analysis.EngineConfig{})
	data := sampleArchive(t,
		nfe.Entry{Name: "quebrado.xml", Data: []byte("<nfeProc><NFe>")},
		nfe.Entry{Name: "evento.xml", Data: []byte(`<procEventoNFe xmlns="http://www.portalfiscal.inf.br/nfe"/>`)},
	)
	res, err := eng.Analyze(context.Background(), data, analysis.Input{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Documents)
	assert.ElementsMatch(t, []string{"quebrado.xml", "evento.xml"}, res.SkippedEntries)
}

func TestAnalyze_EmptyArchive(t *testing.T) {
	eng, _ := newEngine(t, analysis.EngineConfig{})
	data, err := nfe.BuildArchive(nil)
	require.NoError(t, err)

	res, err := eng.Analyze(context.Background(), data, analysis.Input{Rate: 0.08})
	require.NoError(t, err)
	assert.Zero(t, res.Documents)
	assert.True(t, res.Tax.EstimatedSavings.IsZero())
	assert.NotNil(t, res.Deduplicated)
}

func TestAnalyze_CancelledContext(t *testing.T) {
	eng, _ := newEngine(t, analysis.EngineConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := eng.Analyze(ctx, sampleArchive(t), analysis.Input{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_UsesSnapshotOfCurrentDictionary(t *testing.T) {
	eng, store := newEngine(t, analysis.EngineConfig{})
	first, err := eng.Analyze(context.Background(), sampleArchive(t), analysis.Input{})
	require.NoError(t, err)

	c, err := classifier.New([]entity.CategoryRule{
		{Category: "cerveja", Keywords: []string{"cerveja"}, SinglePhase: true},
		{Category: "papelaria", Keywords: []string{"caderno"}, SinglePhase: true},
	}, classifier.Options{})
	require.NoError(t, err)
	store.Swap(c)

	second, err := eng.Analyze(context.Background(), sampleArchive(t), analysis.Input{})
	require.NoError(t, err)
	assert.NotEqual(t, first.DictionaryVersion, second.DictionaryVersion)
	assert.Equal(t, 1, first.SinglePhaseTotal)
	assert.Equal(t, 2, second.SinglePhaseTotal)
}
