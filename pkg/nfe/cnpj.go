package nfe

import (
	"fmt"
	"unicode"
)

// pesos del módulo 11 para los dos dígitos verificadores del CNPJ.
var (
	cnpjWeights1 = [12]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = [13]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// AccessKeyLength dígitos de la chave de acesso (44, el último es verificador).
const AccessKeyLength = 44

// NormalizeCNPJ deja sólo los dígitos ("11.222.333/0001-81" -> "11222333000181").
func NormalizeCNPJ(cnpj string) string {
	return string(extractDigits(cnpj))
}

// FormatCNPJ aplica la máscara 00.000.000/0000-00; si no tiene 14 dígitos lo devuelve tal cual.
func FormatCNPJ(cnpj string) string {
	d := extractDigits(cnpj)
	if len(d) != 14 {
		return cnpj
	}
	return fmt.Sprintf("%s.%s.%s/%s-%s", d[0:2], d[2:5], d[5:8], d[8:12], d[12:14])
}

// ValidateCNPJ valida el CNPJ (con o sin máscara) según el módulo 11 de la Receita Federal.
func ValidateCNPJ(cnpj string) error {
	digits := extractDigits(cnpj)
	if len(digits) != 14 {
		return fmt.Errorf("nfe: CNPJ debe tener 14 dígitos, se encontraron %d", len(digits))
	}
	if repeated(digits) {
		return fmt.Errorf("nfe: CNPJ con dígitos repetidos no es válido")
	}
	d1 := mod11(digits[:12], cnpjWeights1[:])
	d2 := mod11(append(append([]byte{}, digits[:12]...), d1), cnpjWeights2[:])
	if digits[12] != d1 || digits[13] != d2 {
		return fmt.Errorf("nfe: dígitos verificadores del CNPJ inválidos: esperado %c%c, recibido %c%c",
			d1, d2, digits[12], digits[13])
	}
	return nil
}

// ComputeAccessKeyDigit calcula el dígito verificador de los 43 primeros dígitos
// de la chave de acesso (pesos 2..9 de derecha a izquierda).
func ComputeAccessKeyDigit(key43 string) (byte, error) {
	digits := extractDigits(key43)
	if len(digits) != AccessKeyLength-1 {
		return 0, fmt.Errorf("nfe: se requieren 43 dígitos para el verificador, se encontraron %d", len(digits))
	}
	var sum, w int = 0, 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * w
		w++
		if w > 9 {
			w = 2
		}
	}
	r := sum % 11
	if r < 2 {
		return '0', nil
	}
	return byte('0' + (11 - r)), nil
}

// ValidAccessKey indica si la chave tiene 44 dígitos y verificador correcto.
func ValidAccessKey(key string) bool {
	if len(key) != AccessKeyLength || !allDigits(key) {
		return false
	}
	dv, err := ComputeAccessKeyDigit(key[:AccessKeyLength-1])
	return err == nil && dv == key[AccessKeyLength-1]
}

func mod11(digits []byte, weights []int) byte {
	var sum int
	for i, d := range digits {
		sum += int(d-'0') * weights[i]
	}
	r := sum % 11
	if r < 2 {
		return '0'
	}
	return byte('0' + (11 - r))
}

func repeated(d []byte) bool {
	for _, c := range d[1:] {
		if c != d[0] {
			return false
		}
	}
	return true
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) && r < 128 {
			out = append(out, byte(r))
		}
	}
	return out
}
