// Package classifier clasifica descripciones de productos contra el diccionario
// de categorías monofásicas: primero coincidencia de palabra completa, después
// similitud difusa con umbral alto.
package classifier

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jhoicas/audita-nfe/internal/domain/entity"
)

const (
	// DefaultThreshold score mínimo para aceptar una coincidencia difusa.
	DefaultThreshold = 88
	// palabras más cortas no se usan como token exacto ni como candidato difuso.
	minTokenKeyword = 3
	minFuzzyKeyword = 4
)

// Options parámetros de compilación del clasificador.
type Options struct {
	Threshold int // 0 = DefaultThreshold
}

type tokenKeyword struct {
	category string
	keyword  string
	re       *regexp.Regexp
}

type fuzzyKeyword struct {
	category string
	keyword  string
	sorted   string
}

// Classifier diccionario compilado e inmutable. Seguro para uso concurrente.
type Classifier struct {
	rules       map[string]entity.CategoryRule
	categories  []string
	tokens      []tokenKeyword
	fuzzy       []fuzzyKeyword
	threshold   int
	fingerprint string
}

// New compila las reglas. Categorías repetidas se fusionan; keywords y prefijos se
// normalizan y deduplican. El orden de evaluación es alfabético (categoría, keyword)
// para que los empates se resuelvan siempre igual.
func New(rules []entity.CategoryRule, opts Options) (*Classifier, error) {
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("classifier: umbral fuera de rango (0..100): %d", threshold)
	}

	merged := make(map[string]entity.CategoryRule, len(rules))
	for _, r := range rules {
		cat := Normalize(r.Category)
		if cat == "" {
			return nil, fmt.Errorf("classifier: regla sin nombre de categoría")
		}
		cur, ok := merged[cat]
		if !ok {
			cur = entity.CategoryRule{Category: cat, SinglePhase: r.SinglePhase, UpdatedAt: r.UpdatedAt}
		}
		cur.SinglePhase = cur.SinglePhase || r.SinglePhase
		for _, k := range r.Keywords {
			cur.Keywords = append(cur.Keywords, Normalize(k))
		}
		for _, p := range r.NCMPrefixes {
			cur.NCMPrefixes = append(cur.NCMPrefixes, strings.TrimSpace(p))
		}
		if r.UpdatedAt.After(cur.UpdatedAt) {
			cur.UpdatedAt = r.UpdatedAt
		}
		merged[cat] = cur
	}

	c := &Classifier{rules: make(map[string]entity.CategoryRule, len(merged)), threshold: threshold}
	for cat, r := range merged {
		r.Keywords = uniqueSorted(r.Keywords)
		r.NCMPrefixes = uniqueSorted(r.NCMPrefixes)
		c.rules[cat] = r
		c.categories = append(c.categories, cat)
	}
	sort.Strings(c.categories)

	h := sha256.New()
	for _, cat := range c.categories {
		r := c.rules[cat]
		fmt.Fprintf(h, "%s|%t|%s|%s\n", cat, r.SinglePhase,
			strings.Join(r.Keywords, ","), strings.Join(r.NCMPrefixes, ","))

		for _, kw := range r.Keywords {
			n := len([]rune(kw))
			if n >= minTokenKeyword {
				re, err := wordRegexp(kw)
				if err != nil {
					return nil, fmt.Errorf("classifier: keyword %q: %w", kw, err)
				}
				c.tokens = append(c.tokens, tokenKeyword{category: cat, keyword: kw, re: re})
			}
			if n >= minFuzzyKeyword {
				c.fuzzy = append(c.fuzzy, fuzzyKeyword{category: cat, keyword: kw, sorted: sortedTokens(kw)})
			}
		}
	}
	c.fingerprint = hex.EncodeToString(h.Sum(nil))[:16]
	return c, nil
}

// wordRegexp coincide con la keyword sólo como palabra completa
// ("agua" no coincide dentro de "aguardente").
func wordRegexp(kw string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(kw) + `(?:[^\p{L}\p{N}]|$)`)
}

// Classify devuelve la categoría de la descripción. Sin coincidencia devuelve un
// resultado vacío (Found() == false).
func (c *Classifier) Classify(description string) entity.ClassificationResult {
	return c.ClassifyItem(description, "")
}

// ClassifyItem igual que Classify, pero si varias keywords coinciden como palabra
// completa usa la NCM del ítem para desempatar: primero la categoría cuyos prefijos
// contienen la NCM, después la keyword más larga, después el orden alfabético.
// "Refrigerante Guaraná Antarctica" con NCM 2202... queda en refrigerante aunque
// alguna marca también figure en otra categoría.
func (c *Classifier) ClassifyItem(description, ncm string) entity.ClassificationResult {
	text := Normalize(description)
	if text == "" {
		return entity.ClassificationResult{}
	}
	ncm = strings.TrimSpace(ncm)

	var (
		hit      *tokenKeyword
		hitNCM   bool
		hitRunes int
	)
	for i := range c.tokens {
		tk := &c.tokens[i]
		if !tk.re.MatchString(text) {
			continue
		}
		byNCM := c.matchesPrefix(ncm, tk.category)
		n := utf8.RuneCountInString(tk.keyword)
		if hit == nil || (byNCM && !hitNCM) || (byNCM == hitNCM && n > hitRunes) {
			hit, hitNCM, hitRunes = tk, byNCM, n
		}
	}
	if hit != nil {
		return c.result(hit.category, hit.keyword, 100)
	}

	sorted := sortedTokens(text)
	var (
		best     float64
		bestCat  string
		bestWord string
	)
	for _, fk := range c.fuzzy {
		r := indelRatio(sorted, fk.sorted)
		if r > best {
			best, bestCat, bestWord = r, fk.category, fk.keyword
		}
	}
	if bestCat == "" || score(best) < c.threshold {
		return entity.ClassificationResult{}
	}
	return c.result(bestCat, bestWord, score(best))
}

// matchesPrefix true sólo si la categoría tiene prefijos y la NCM empieza por uno.
func (c *Classifier) matchesPrefix(ncm, category string) bool {
	if ncm == "" {
		return false
	}
	for _, p := range c.rules[category].NCMPrefixes {
		if strings.HasPrefix(ncm, p) {
			return true
		}
	}
	return false
}

func (c *Classifier) result(category, keyword string, s int) entity.ClassificationResult {
	return entity.ClassificationResult{
		Category:    category,
		Keyword:     keyword,
		Score:       s,
		SinglePhase: c.rules[category].SinglePhase,
	}
}

// ValidateCode indica si la NCM es coherente con la categoría. Categoría sin
// prefijos configurados (o desconocida) se considera válida para no generar
// falsas alarmas con entradas del diccionario sin mantenimiento.
func (c *Classifier) ValidateCode(ncm, category string) bool {
	r, ok := c.rules[category]
	if !ok || len(r.NCMPrefixes) == 0 {
		return true
	}
	ncm = strings.TrimSpace(ncm)
	for _, p := range r.NCMPrefixes {
		if strings.HasPrefix(ncm, p) {
			return true
		}
	}
	return false
}

// Rule devuelve la regla de una categoría; ok=false si no existe.
func (c *Classifier) Rule(category string) (entity.CategoryRule, bool) {
	r, ok := c.rules[Normalize(category)]
	if !ok {
		return entity.CategoryRule{}, false
	}
	return cloneRule(r), true
}

// Rules copia de todas las reglas en orden alfabético.
func (c *Classifier) Rules() []entity.CategoryRule {
	out := make([]entity.CategoryRule, 0, len(c.categories))
	for _, cat := range c.categories {
		out = append(out, cloneRule(c.rules[cat]))
	}
	return out
}

// Threshold umbral difuso efectivo.
func (c *Classifier) Threshold() int { return c.threshold }

// Fingerprint identifica el contenido del diccionario (16 hex de SHA-256).
func (c *Classifier) Fingerprint() string { return c.fingerprint }

// Stats cantidad de categorías y keywords.
func (c *Classifier) Stats() (categories, keywords int) {
	for _, r := range c.rules {
		keywords += len(r.Keywords)
	}
	return len(c.rules), keywords
}

func cloneRule(r entity.CategoryRule) entity.CategoryRule {
	r.Keywords = append([]string(nil), r.Keywords...)
	r.NCMPrefixes = append([]string(nil), r.NCMPrefixes...)
	return r
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
