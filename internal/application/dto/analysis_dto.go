package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/audita-nfe/internal/domain/entity"
)

// RunAnalysisRequest entrada de POST /api/analyses. Aliquota e ImpostoPago aceptan
// número o texto ("8,5", "R$ 1.234,56"); vacíos = no informado.
type RunAnalysisRequest struct {
	UploadID    string `json:"upload_id" validate:"required"`
	Aliquota    any    `json:"aliquota"`
	ImpostoPago any    `json:"imposto_pago"`
}

// AnalysisResponse una corrida. Totals sólo viene en el detalle.
type AnalysisResponse struct {
	ID         string                 `json:"id"`
	ClientID   string                 `json:"client_id"`
	UploadID   string                 `json:"upload_id"`
	Status     string                 `json:"status"`
	Rate       *decimal.Decimal       `json:"rate,omitempty"`
	PaidTax    *decimal.Decimal       `json:"paid_tax,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Totals     *entity.AnalysisTotals `json:"totals,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	FinishedAt *time.Time             `json:"finished_at,omitempty"`
}

// AnalysisListResponse lista paginada de corridas.
type AnalysisListResponse struct {
	Items []AnalysisResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// AuditLogResponse un registro del log de acciones.
type AuditLogResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditLogListResponse lista paginada del log.
type AuditLogListResponse struct {
	Items []AuditLogResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
