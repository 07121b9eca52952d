package dto

import "time"

// CreateCompanyRequest entrada para crear una oficina contable.
type CreateCompanyRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=200"`
	TradeName string `json:"trade_name"`
	CNPJ      string `json:"cnpj" validate:"required"`
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TradeName string    `json:"trade_name"`
	CNPJ      string    `json:"cnpj"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
