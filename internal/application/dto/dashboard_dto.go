package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/audita-nfe/internal/domain/entity"
)

// DashboardDTO respuesta de GET /api/dashboard para un cliente.
type DashboardDTO struct {
	ClientID   string `json:"client_id"`
	UploadID   string `json:"upload_id"`
	AnalysisID string `json:"analysis_id"`

	Cards        DashboardCardsDTO  `json:"cards"`
	FiscalErrors FiscalErrorsDTO    `json:"fiscal_errors"`
	Tax          entity.TaxSummary  `json:"tax"`
	TopProducts  []entity.DedupItem `json:"top_products"` // monofásicos con más facturación
	ByCategory   []CategoryTotalDTO `json:"by_category"`  // receita excluída por categoría
	PeriodLabel  string             `json:"period_label"` // ej: "Janeiro 2024 - Março 2024"
	Dictionary   string             `json:"dictionary"`   // versión usada en la corrida
}

// DashboardCardsDTO tarjetas principales.
type DashboardCardsDTO struct {
	Documents        int             `json:"documents"`
	Items            int             `json:"items"`
	TotalValue       decimal.Decimal `json:"total_value"`
	SinglePhaseItems int             `json:"single_phase_items"`
	ExcludedRevenue  decimal.Decimal `json:"excluded_revenue"`
	EstimatedSavings decimal.Decimal `json:"estimated_savings"`
	PeriodStart      *time.Time      `json:"period_start,omitempty"`
	PeriodEnd        *time.Time      `json:"period_end,omitempty"`
}

// FiscalErrorsDTO bloque de indicadores fiscales.
type FiscalErrorsDTO struct {
	STIncorrect           int `json:"st_incorrect"`
	WithoutNCM            int `json:"without_ncm"`
	WithoutCFOPCSOSN      int `json:"without_cfop_csosn"`
	NCMCategoryMismatches int `json:"ncm_category_mismatches"`
	MatchedByFuzzy        int `json:"matched_by_fuzzy"`
	SkippedEntries        int `json:"skipped_entries"`
}

// CategoryTotalDTO receita excluída de una categoría.
type CategoryTotalDTO struct {
	Category string          `json:"category"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// ClientOverviewDTO fila del panel general de la oficina.
type ClientOverviewDTO struct {
	ClientID         string          `json:"client_id"`
	ClientName       string          `json:"client_name"`
	CNPJ             string          `json:"cnpj"`
	Uploads          int             `json:"uploads"`
	Analyses         int             `json:"analyses"`
	LastAnalysisAt   *time.Time      `json:"last_analysis_at,omitempty"`
	ExcludedRevenue  decimal.Decimal `json:"excluded_revenue"`
	EstimatedSavings decimal.Decimal `json:"estimated_savings"`
}

// OverviewDTO respuesta de GET /api/dashboard/overview.
type OverviewDTO struct {
	Clients               []ClientOverviewDTO `json:"clients"`
	TotalExcludedRevenue  decimal.Decimal     `json:"total_excluded_revenue"`
	TotalEstimatedSavings decimal.Decimal     `json:"total_estimated_savings"`
}
