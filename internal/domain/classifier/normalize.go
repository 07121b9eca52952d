package classifier

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize deja el texto en minúsculas, sin acentos y con espacios simples.
// "Cerveja  PÍLSEN" -> "cerveja pilsen".
func Normalize(s string) string {
	// transform.Chain guarda estado: uno nuevo por llamada.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.M)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// sortedTokens separa por espacios, ordena y vuelve a unir.
func sortedTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}
