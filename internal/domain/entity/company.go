package entity

import "time"

// Company oficina contable que usa el sistema (tenant).
type Company struct {
	ID        string
	Name      string // razón social
	TradeName string
	CNPJ      string
	Status    string // active, suspended, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}
