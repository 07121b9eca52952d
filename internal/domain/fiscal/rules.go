// Package fiscal reglas fiscales puras del motor de auditoría: sustitución tributaria
// de productos monofásicos y normalización de montos en formato brasileño.
package fiscal

import (
	"strings"

	"github.com/jhoicas/audita-nfe/pkg/nfe"
)

// IsCorrectlyTaxed indica si un ítem monofásico fue emitido con el par CFOP/CSOSN
// de reventa con ST (5405 / 500). Cualquier otra combinación es tributación incorrecta.
func IsCorrectlyTaxed(cfop, csosn string) bool {
	return cfop == nfe.CFOPVendaST && csosn == nfe.CSOSNCobradoAnteriormente
}

// HasTaxCodes indica si el ítem trae CFOP y CSOSN/CST informados.
func HasTaxCodes(cfop, csosn string) bool {
	return strings.TrimSpace(cfop) != "" && strings.TrimSpace(csosn) != ""
}
