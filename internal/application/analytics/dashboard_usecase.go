// Package analytics contiene los casos de uso del panel: tarjetas de un cliente y
// resumen general de la oficina.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/audita-nfe/internal/application/dto"
	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

const dashboardTopProducts = 10 // productos monofásicos en el widget del panel

// AnalysisSource corridas terminadas de un upload. Lo implementa *usecase.AnalysisUseCase,
// que ejecuta la corrida si todavía no existe.
type AnalysisSource interface {
	LatestDone(ctx context.Context, companyID, userID, uploadID string) (*entity.Analysis, error)
}

// DashboardUseCase arma el panel a partir de corridas persistidas.
//
// Fuente de datos: AnalyticsRepository (consultas read-only) para el resumen de la
// oficina; para un cliente, la última corrida terminada del upload indicado.
type DashboardUseCase struct {
	analyticsRepo repository.AnalyticsRepository
	clients       repository.ClientRepository
	uploads       repository.UploadRepository
	analyses      AnalysisSource
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(
	analyticsRepo repository.AnalyticsRepository,
	clients repository.ClientRepository,
	uploads repository.UploadRepository,
	analyses AnalysisSource,
) *DashboardUseCase {
	return &DashboardUseCase{analyticsRepo: analyticsRepo, clients: clients, uploads: uploads, analyses: analyses}
}

// GetClientDashboard panel de un cliente. Sin uploadID usa el último upload del cliente.
func (uc *DashboardUseCase) GetClientDashboard(
	ctx context.Context,
	companyID, userID, clientID, uploadID string,
) (*dto.DashboardDTO, error) {
	client, err := uc.clients.GetByID(clientID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: obtener cliente: %w", err)
	}
	if client == nil || client.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}

	// ── Upload ─────────────────────────────────────────────────────────────────
	var upload *entity.Upload
	if uploadID != "" {
		upload, err = uc.uploads.GetByID(uploadID)
	} else {
		upload, err = uc.uploads.LatestByClient(clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("dashboard: obtener upload: %w", err)
	}
	if upload == nil || upload.ClientID != clientID {
		return nil, fmt.Errorf("%w: el cliente no tiene uploads", domain.ErrNotFound)
	}

	// ── Corrida ────────────────────────────────────────────────────────────────
	a, err := uc.analyses.LatestDone(ctx, companyID, userID, upload.ID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: corrida: %w", err)
	}
	if a == nil || a.Totals == nil {
		return nil, fmt.Errorf("dashboard: corrida %s sin totales", upload.ID)
	}
	t := a.Totals

	// ── Construir DTO ──────────────────────────────────────────────────────────
	return &dto.DashboardDTO{
		ClientID:   clientID,
		UploadID:   upload.ID,
		AnalysisID: a.ID,
		Cards: dto.DashboardCardsDTO{
			Documents:        t.Documents,
			Items:            t.Items,
			TotalValue:       t.TotalValue,
			SinglePhaseItems: t.SinglePhaseTotal,
			ExcludedRevenue:  t.ExcludedRevenue,
			EstimatedSavings: t.Tax.EstimatedSavings,
			PeriodStart:      t.PeriodStart,
			PeriodEnd:        t.PeriodEnd,
		},
		FiscalErrors: dto.FiscalErrorsDTO{
			STIncorrect:           t.STIncorrect,
			WithoutNCM:            t.SinglePhaseWithoutNCM,
			WithoutCFOPCSOSN:      t.SinglePhaseWithoutCFOPCSOSN,
			NCMCategoryMismatches: t.NCMCategoryMismatches,
			MatchedByFuzzy:        t.SinglePhaseByFuzzy,
			SkippedEntries:        len(t.SkippedEntries),
		},
		Tax:         t.Tax,
		TopProducts: TopProducts(t.Deduplicated, dashboardTopProducts),
		ByCategory:  byCategory(t.ExcludedByCategory),
		PeriodLabel: PeriodLabel(t.PeriodStart, t.PeriodEnd),
		Dictionary:  t.DictionaryVersion,
	}, nil
}

// GetOverview resumen de todos los clientes de la oficina.
func (uc *DashboardUseCase) GetOverview(ctx context.Context, companyID string) (*dto.OverviewDTO, error) {
	rows, err := uc.analyticsRepo.GetClientOverview(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: resumen de clientes: %w", err)
	}
	out := &dto.OverviewDTO{
		Clients:               make([]dto.ClientOverviewDTO, 0, len(rows)),
		TotalExcludedRevenue:  decimal.Zero,
		TotalEstimatedSavings: decimal.Zero,
	}
	for _, r := range rows {
		out.Clients = append(out.Clients, dto.ClientOverviewDTO{
			ClientID:         r.ClientID,
			ClientName:       r.ClientName,
			CNPJ:             r.CNPJ,
			Uploads:          r.Uploads,
			Analyses:         r.Analyses,
			LastAnalysisAt:   r.LastAnalysisAt,
			ExcludedRevenue:  r.ExcludedRevenue.Round(2),
			EstimatedSavings: r.EstimatedSavings.Round(2),
		})
		out.TotalExcludedRevenue = out.TotalExcludedRevenue.Add(r.ExcludedRevenue)
		out.TotalEstimatedSavings = out.TotalEstimatedSavings.Add(r.EstimatedSavings)
	}
	out.TotalExcludedRevenue = out.TotalExcludedRevenue.Round(2)
	out.TotalEstimatedSavings = out.TotalEstimatedSavings.Round(2)
	return out, nil
}

// TopProducts los n productos deduplicados de mayor valor (empate: código).
func TopProducts(items []entity.DedupItem, n int) []entity.DedupItem {
	sorted := append([]entity.DedupItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := sorted[i].TotalValue.Cmp(sorted[j].TotalValue); c != 0 {
			return c > 0
		}
		return sorted[i].ProductCode < sorted[j].ProductCode
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func byCategory(m map[string]decimal.Decimal) []dto.CategoryTotalDTO {
	out := make([]dto.CategoryTotalDTO, 0, len(m))
	for cat, v := range m {
		out = append(out, dto.CategoryTotalDTO{Category: cat, Revenue: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// PeriodLabel etiqueta legible del período, ej: "Janeiro 2024 - Março 2024".
func PeriodLabel(start, end *time.Time) string {
	if start == nil || end == nil {
		return "Sem data"
	}
	a, b := monthLabel(*start), monthLabel(*end)
	if a == b {
		return a
	}
	return a + " - " + b
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Fevereiro 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
		"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
