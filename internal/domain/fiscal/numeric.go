package fiscal

import (
	"encoding/json"
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseMoney convierte un valor monetario a decimal. Nunca falla: lo que no se
// puede interpretar vale 0.
//
// Strings: se quitan "R$", espacios y NBSP. Con exactamente una coma, la coma es el
// separador decimal y los puntos son de miles ("1.234,56"). Sin coma y con varios
// puntos, los puntos son de miles ("1.234.567"). Con varias comas, las comas son de
// miles ("1,234,567.89").
func ParseMoney(v any) decimal.Decimal {
	d, ok := toDecimal(v)
	if !ok {
		return decimal.Zero
	}
	return d
}

// ParsePercent convierte una alícuota a fracción. nil (o ilegible) devuelve nil,
// que es distinto de cero. Valores con magnitud >= 1 se tratan como porcentaje
// (8 -> 0.08); los menores a 1 ya son fracción.
func ParsePercent(v any) *decimal.Decimal {
	d, ok := toDecimal(v)
	if !ok {
		return nil
	}
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1)) {
		d = d.Div(hundred)
	}
	return &d
}

// NormalizePaidTax corrige un imposto pago informado en centavos: si supera
// factor × faturamento se divide por 100. factor <= 0 desactiva la corrección.
// Es una heurística sobre datos mal cargados; quien llama debe registrar cuando corrige.
func NormalizePaidTax(paid, revenue, factor decimal.Decimal) (decimal.Decimal, bool) {
	if !factor.IsPositive() || !revenue.IsPositive() {
		return paid, false
	}
	if paid.GreaterThan(revenue.Mul(factor)) {
		return paid.Div(hundred), true
	}
	return paid, false
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return x, true
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, false
		}
		return *x, true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt32(x), true
	case int64:
		return decimal.NewFromInt(x), true
	case uint:
		return decimal.NewFromUint64(uint64(x)), true
	case uint64:
		return decimal.NewFromUint64(x), true
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case *float64:
		if x == nil {
			return decimal.Zero, false
		}
		return fromFloat(*x)
	case json.Number:
		return parseLocalized(string(x))
	case string:
		return parseLocalized(x)
	case *string:
		if x == nil {
			return decimal.Zero, false
		}
		return parseLocalized(*x)
	case []byte:
		return parseLocalized(string(x))
	default:
		return decimal.Zero, false
	}
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

func parseLocalized(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, "r$", "")
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, false
	}

	switch commas := strings.Count(s, ","); {
	case commas == 1:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
