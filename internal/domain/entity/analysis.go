package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una corrida de análisis persistida.
const (
	AnalysisStatusProcessing = "processing"
	AnalysisStatusDone       = "done"
	AnalysisStatusFailed     = "failed"
)

// Modos de cálculo tributario.
const (
	TaxModeRate = "aliquota"
	TaxModePaid = "imposto_pago"
	TaxModeNone = "nenhum"
)

// AnalysisTotals acumulador y resultado final de una corrida del motor.
// Se serializa tal cual en la columna JSON de analyses.
type AnalysisTotals struct {
	RunID string `json:"run_id"`

	Documents         int             `json:"documents"`
	Items             int             `json:"items"`
	TotalValue        decimal.Decimal `json:"total_value"`
	PeriodStart       *time.Time      `json:"period_start,omitempty"`
	PeriodEnd         *time.Time      `json:"period_end,omitempty"`
	DictionaryVersion string          `json:"dictionary_version"`

	// Indicadores fiscales
	SinglePhaseTotal            int `json:"single_phase_total"`
	SinglePhaseByKeyword        int `json:"single_phase_by_keyword"`
	SinglePhaseByFuzzy          int `json:"single_phase_by_fuzzy"`
	SinglePhaseWithoutNCM       int `json:"single_phase_without_ncm"`
	SinglePhaseWithoutCFOPCSOSN int `json:"single_phase_without_cfop_csosn"`
	STCorrect                   int `json:"st_correct"`
	STIncorrect                 int `json:"st_incorrect"`
	NCMCategoryMismatches       int `json:"ncm_category_mismatches"`

	ExcludedRevenue    decimal.Decimal            `json:"excluded_revenue"`
	ExcludedByCategory map[string]decimal.Decimal `json:"excluded_by_category"`
	STCorrectValue     decimal.Decimal            `json:"st_correct_value"`

	Tax TaxSummary `json:"tax_summary"`

	Products          []ItemRecord      `json:"products"`
	Deduplicated      []DedupItem       `json:"deduplicated"`
	Excluded          []ItemRecord      `json:"excluded"`
	DocumentSummaries []DocumentSummary `json:"document_summaries"`
	SkippedEntries    []string          `json:"skipped_entries"`
}

// TaxSummary resultado del cálculo tributario.
type TaxSummary struct {
	Mode                  string           `json:"mode"`
	Revenue               decimal.Decimal  `json:"revenue"`
	CorrectedBase         decimal.Decimal  `json:"corrected_base"`
	ExcludedRevenue       decimal.Decimal  `json:"excluded_revenue"`
	BaselineTax           decimal.Decimal  `json:"baseline_tax"`
	CorrectedTax          decimal.Decimal  `json:"corrected_tax"`
	EstimatedSavings      decimal.Decimal  `json:"estimated_savings"`
	RateUsed              decimal.Decimal  `json:"rate_used"`
	PaidTax               decimal.Decimal  `json:"paid_tax"`
	PaidTaxInformed       *decimal.Decimal `json:"paid_tax_informed,omitempty"`
	PaidTaxCentsCorrected bool             `json:"paid_tax_cents_corrected"`
}

// ItemRecord una línea con el contexto de su documento y su clasificación.
type ItemRecord struct {
	Description string           `json:"description"`
	ProductCode string           `json:"product_code"`
	NCM         string           `json:"ncm"`
	CFOP        string           `json:"cfop"`
	CSOSN       string           `json:"csosn"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	UnitValue   *decimal.Decimal `json:"unit_value,omitempty"`
	TotalValue  decimal.Decimal  `json:"total_value"`
	DocNumber   string           `json:"doc_number"`
	DocKey      string           `json:"doc_key"`
	IssuedAt    *time.Time       `json:"issued_at,omitempty"`
	Category    string           `json:"category,omitempty"`
	Score       int              `json:"score"`
	SinglePhase bool             `json:"single_phase"`
	STCorrect   bool             `json:"st_correct"`
}

// DedupItem producto monofásico agrupado por (código, descripción normalizada).
type DedupItem struct {
	ProductCode string          `json:"product_code"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Occurrences int             `json:"occurrences"`
	TotalValue  decimal.Decimal `json:"total_value"`
}

// DocumentSummary resumen de cada NF-e procesada.
type DocumentSummary struct {
	EntryName  string          `json:"entry_name"`
	Number     string          `json:"number"`
	Key        string          `json:"key"`
	KeyValid   bool            `json:"key_valid"`
	IssuedAt   *time.Time      `json:"issued_at,omitempty"`
	TotalValue decimal.Decimal `json:"total_value"`
	Items      int             `json:"items"`
	Digest     string          `json:"digest"`
}

// Analysis corrida persistida del motor sobre un upload.
type Analysis struct {
	ID         string
	CompanyID  string
	ClientID   string
	UploadID   string
	Status     string // processing, done, failed
	Rate       *decimal.Decimal
	PaidTax    *decimal.Decimal
	Totals     *AnalysisTotals
	Error      string
	CreatedAt  time.Time
	FinishedAt *time.Time
}
