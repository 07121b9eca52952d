package entity

import "time"

// Client contribuyente auditado (el comercio dueño de las NF-e).
type Client struct {
	ID        string
	CompanyID string
	Name      string
	CNPJ      string // sólo dígitos
	Email     string
	Phone     string
	Address   string
	Regime    string // simples, presumido, real
	CreatedAt time.Time
	UpdatedAt time.Time
}
