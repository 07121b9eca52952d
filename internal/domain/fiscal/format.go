package fiscal

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL formato brasileño: R$ 1.234,56
func FormatBRL(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	out := "R$ " + formatThousands(intPart) + "," + frac
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}

// FormatPercent 0.0365 → "3,65%".
func FormatPercent(rate decimal.Decimal) string {
	return strings.Replace(rate.Shift(2).StringFixed(2), ".", ",", 1) + "%"
}

// formatThousands inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
