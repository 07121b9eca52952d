package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceDocument una NF-e leída del ZIP. Inmutable después del parseo.
type InvoiceDocument struct {
	EntryName  string // nombre de la entrada dentro del ZIP
	IssuedAt   *time.Time
	TotalValue decimal.Decimal // ICMSTot/vNF
	Number     string          // nNF (o cNF si falta)
	Key        string          // chave de acesso, puede venir vacía
	Namespace  string          // namespace declarado en la raíz
	Digest     string          // SHA-256 hex del XML canónico (trazabilidad)
	Items      []LineItem
}

// LineItem una línea <det> de la NF-e.
type LineItem struct {
	Description  string // xProd
	ProductCode  string // cProd
	NCM          string // vacío u 8 dígitos; otro valor se reporta como NCM inválida
	CFOP         string
	TaxSituation string // CSOSN (Simples Nacional) o CST
	Quantity     *decimal.Decimal
	UnitValue    *decimal.Decimal
	TotalValue   decimal.Decimal // vProd, nunca negativo
}
