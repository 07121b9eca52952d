package analytics_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/audita-nfe/internal/application/analysis"
	"github.com/jhoicas/audita-nfe/internal/application/analytics"
	"github.com/jhoicas/audita-nfe/internal/application/dto"
	"github.com/jhoicas/audita-nfe/internal/application/usecase"
	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/domain/classifier"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/sqlite"
	"github.com/jhoicas/audita-nfe/pkg/logger"
)

func nota(number, issued string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe"><NFe><infNFe Id="NFe35240311222333000181550010000000011000000120">
<ide><nNF>%s</nNF><dhEmi>%s</dhEmi></ide>
<det><prod><cProd>1</cProd><xProd>Cerveja Pilsen 350ml</xProd><NCM>22030000</NCM><CFOP>5405</CFOP><vProd>100.00</vProd></prod>
<imposto><ICMS><ICMSSN500><CSOSN>500</CSOSN></ICMSSN500></ICMS></imposto></det>
<det><prod><cProd>2</cProd><xProd>Refrigerante cola 2L</xProd><NCM>22021000</NCM><CFOP>5102</CFOP><vProd>40.00</vProd></prod>
<imposto><ICMS><ICMSSN102><CSOSN>102</CSOSN></ICMSSN102></ICMS></imposto></det>
<det><prod><cProd>3</cProd><xProd>Caderno universitário</xProd><NCM>48202000</NCM><CFOP>5102</CFOP><vProd>860.00</vProd></prod></det>
<total><ICMSTot><vNF>1000.00</vNF></ICMSTot></total>
</infNFe></NFe></nfeProc>`, number, issued))
}

type fixture struct {
	store     *sqlite.Store
	dashboard *analytics.DashboardUseCase
	uploads   *usecase.UploadUseCase
	analyses  *usecase.AnalysisUseCase
	clientID  string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "audita.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Now()
	require.NoError(t, store.Companies().Create(&entity.Company{ID: "co-1", Name: "Contábil", CNPJ: "11222333000181",
		Status: "active", CreatedAt: now, UpdatedAt: now}))
	client, err := usecase.NewClientUseCase(store.Clients()).Create("co-1", dto.CreateClientRequest{Name: "Mercado", CNPJ: "11444777000161"})
	require.NoError(t, err)

	c, err := classifier.New([]entity.CategoryRule{
		{Category: "cerveja", Keywords: []string{"cerveja"}, NCMPrefixes: []string{"2203"}, SinglePhase: true},
		{Category: "refrigerante", Keywords: []string{"refrigerante"}, NCMPrefixes: []string{"2202"}, SinglePhase: true},
	}, classifier.Options{})
	require.NoError(t, err)
	engine := analysis.NewEngine(classifier.NewStaticStore(c), analysis.EngineConfig{}, logger.Nop())

	analyses := usecase.NewAnalysisUseCase(store.Uploads(), store.Analyses(), store.Archives(), engine, store, logger.Nop())
	return &fixture{
		store:     store,
		dashboard: analytics.NewDashboardUseCase(store.Analytics(), store.Clients(), store.Uploads(), analyses),
		uploads:   usecase.NewUploadUseCase(store.Clients(), store.Uploads(), store.Archives(), store.AuditLogs()),
		analyses:  analyses,
		clientID:  client.ID,
	}
}

func (f *fixture) upload(t *testing.T, files ...dto.UploadFile) string {
	t.Helper()
	up, err := f.uploads.Upload(context.Background(), "co-1", "u-1", f.clientID, files)
	require.NoError(t, err)
	return up.ID
}

func TestGetClientDashboard_RunsAnalysisOnDemand(t *testing.T) {
	f := setup(t)
	f.upload(t,
		dto.UploadFile{Name: "jan.xml", Data: nota("1", "2024-01-10T10:00:00-03:00")},
		dto.UploadFile{Name: "mar.xml", Data: nota("2", "2024-03-20T10:00:00-03:00")},
	)

	out, err := f.dashboard.GetClientDashboard(context.Background(), "co-1", "u-1", f.clientID, "")
	require.NoError(t, err)

	assert.NotEmpty(t, out.AnalysisID)
	assert.Equal(t, 2, out.Cards.Documents)
	assert.Equal(t, 4, out.Cards.SinglePhaseItems)
	assert.True(t, decimal.RequireFromString("80").Equal(out.Cards.ExcludedRevenue), "sólo lo tributado sin ST")
	assert.Equal(t, "Janeiro 2024 - Março 2024", out.PeriodLabel)
	assert.Equal(t, 2, out.FiscalErrors.STIncorrect, "refrigerante con CFOP 5102")

	require.Len(t, out.ByCategory, 1)
	assert.Equal(t, "refrigerante", out.ByCategory[0].Category)
	assert.True(t, decimal.RequireFromString("80").Equal(out.ByCategory[0].Revenue))

	require.Len(t, out.TopProducts, 2)
	assert.Equal(t, "1", out.TopProducts[0].ProductCode)
	assert.Equal(t, 2, out.TopProducts[0].Occurrences)

	// la segunda consulta reutiliza la corrida
	again, err := f.dashboard.GetClientDashboard(context.Background(), "co-1", "u-1", f.clientID, "")
	require.NoError(t, err)
	assert.Equal(t, out.AnalysisID, again.AnalysisID)
}

func TestGetClientDashboard_NotFound(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.dashboard.GetClientDashboard(ctx, "co-1", "u-1", f.clientID, "")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "cliente sin uploads")

	_, err = f.dashboard.GetClientDashboard(ctx, "co-2", "u-1", f.clientID, "")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "cliente de otra empresa")
}

func TestGetOverview(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	uploadID := f.upload(t, dto.UploadFile{Name: "jan.xml", Data: nota("1", "2024-01-10T10:00:00-03:00")})

	_, err := f.analyses.Run(ctx, "co-1", "u-1", dto.RunAnalysisRequest{UploadID: uploadID, Aliquota: "6"})
	require.NoError(t, err)

	out, err := f.dashboard.GetOverview(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, out.Clients, 1)
	row := out.Clients[0]
	assert.Equal(t, 1, row.Uploads)
	assert.Equal(t, 1, row.Analyses)
	assert.NotNil(t, row.LastAnalysisAt)
	assert.True(t, decimal.RequireFromString("40").Equal(row.ExcludedRevenue))
	assert.True(t, decimal.RequireFromString("2.4").Equal(row.EstimatedSavings))
	assert.True(t, row.EstimatedSavings.Equal(out.TotalEstimatedSavings))
}

func TestPeriodLabel(t *testing.T) {
	jan := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	janEnd := time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "Sem data", analytics.PeriodLabel(nil, &jan))
	assert.Equal(t, "Janeiro 2024", analytics.PeriodLabel(&jan, &janEnd))
	assert.Equal(t, "Janeiro 2024 - Dezembro 2024", analytics.PeriodLabel(&jan, &dec))
}
