// Package nfe contiene catálogos y validaciones del leiaute da NF-e (modelo 55/65)
// usados por el motor de auditoría monofásica.
package nfe

import "strings"

// =============================================================================
// CFOP - Código Fiscal de Operações e Prestações (Ajuste SINIEF 07/01)
// Sólo los códigos relevantes para la sustitución tributaria en ventas internas.
// =============================================================================

const (
	CFOPVendaMercadoria   = "5102" // Venda de mercadoria adquirida de terceiros
	CFOPVendaST           = "5405" // Venda de mercadoria com ST, contribuinte substituído
	CFOPVendaSTSubstituto = "5403" // Venda com ST, contribuinte substituto
	CFOPVendaForaEstado   = "6102"
)

// =============================================================================
// CSOSN - Código de Situação da Operação no Simples Nacional (Anexo 4 do leiaute)
// =============================================================================

const (
	CSOSNComCredito           = "101"
	CSOSNSemCredito           = "102"
	CSOSNIsencaoFaixa         = "103"
	CSOSNComCreditoST         = "201"
	CSOSNSemCreditoST         = "202"
	CSOSNIsencaoST            = "203"
	CSOSNImune                = "300"
	CSOSNNaoTributada         = "400"
	CSOSNCobradoAnteriormente = "500" // ICMS cobrado anteriormente por ST ou antecipação
	CSOSNOutros               = "900"
)

// ICMSGroupPriority orden en que se consultan los grupos de <ICMS> para extraer
// CSOSN/CST. Primero los del Simples Nacional, luego el régimen normal.
var ICMSGroupPriority = []string{
	"ICMSSN101", "ICMSSN102", "ICMSSN201", "ICMSSN202", "ICMSSN500", "ICMSSN900",
	"ICMS00", "ICMS10", "ICMS20", "ICMS30", "ICMS40", "ICMS51", "ICMS60",
	"ICMS61", "ICMS70", "ICMS90", "ICMSST", "ICMSPart",
}

// NCMLength cantidad de dígitos de una NCM completa.
const NCMLength = 8

// ValidNCM indica si el código tiene exactamente 8 dígitos.
func ValidNCM(ncm string) bool {
	ncm = strings.TrimSpace(ncm)
	if len(ncm) != NCMLength {
		return false
	}
	return allDigits(ncm)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
