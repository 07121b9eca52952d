package classifier

import (
	"math"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// TokenSortRatio similitud 0..100 entre dos textos ignorando el orden de las palabras:
// ordena los tokens de ambos y calcula la similitud Indel sobre el resultado.
func TokenSortRatio(a, b string) float64 {
	return indelRatio(sortedTokens(a), sortedTokens(b))
}

// indelRatio = 100 * (1 - indel/(len1+len2)). LCSEditDistance es la distancia
// Indel (sólo inserciones y borrados), contada en runas.
func indelRatio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	d := edlib.LCSEditDistance(a, b)
	return 100 * (1 - float64(d)/float64(total))
}

// score convierte la similitud a entero truncando, para que un score aceptado
// nunca quede por debajo del umbral al reportarlo.
func score(r float64) int {
	return int(math.Floor(r + 1e-9))
}
