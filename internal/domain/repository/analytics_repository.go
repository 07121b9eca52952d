package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ClientOverviewResult resumen por cliente para el panel de la oficina contable.
// Lo produce la DB; el use case lo convierte en DTO.
type ClientOverviewResult struct {
	ClientID         string
	ClientName       string
	CNPJ             string
	Uploads          int
	Analyses         int
	LastAnalysisAt   *time.Time
	ExcludedRevenue  decimal.Decimal // suma sobre la última corrida terminada de cada upload
	EstimatedSavings decimal.Decimal
}

// AnalyticsRepository consultas de lectura para el panel. Read-only.
type AnalyticsRepository interface {
	// GetClientOverview agrega uploads y corridas terminadas por cliente de la empresa.
	GetClientOverview(ctx context.Context, companyID string) ([]ClientOverviewResult, error)
}
