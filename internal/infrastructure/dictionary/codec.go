// Package dictionary lee y escribe el diccionario de productos monofásicos.
//
// Formatos aceptados:
//
//	JSON simple:  {"cerveja": ["heineken", "skol"], ...}  (todas monofásicas)
//	JSON completo: {"version": 1, "categories": [{"category": ..., "keywords": [...], "ncm_prefixes": [...]}]}
//	TOML:         [[category]] name = "...", keywords = [...], ncm_prefixes = [...]
//
// Al escribir siempre se usa el formato completo.
package dictionary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jhoicas/audita-nfe/internal/domain/entity"
)

// Format formato de archivo del diccionario.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// versión del formato completo
const schemaVersion = 1

// FormatFromPath deduce el formato por la extensión; por defecto JSON.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatJSON
}

type document struct {
	Version    int           `json:"version" toml:"version"`
	Categories []categoryDoc `json:"categories" toml:"category"`
}

type categoryDoc struct {
	Name        string     `json:"category" toml:"name"`
	Keywords    []string   `json:"keywords" toml:"keywords"`
	NCMPrefixes []string   `json:"ncm_prefixes,omitempty" toml:"ncm_prefixes,omitempty"`
	SinglePhase *bool      `json:"single_phase,omitempty" toml:"single_phase,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" toml:"updated_at,omitempty"`
}

// Decode interpreta el contenido de un diccionario.
func Decode(data []byte, format Format) ([]entity.CategoryRule, error) {
	switch format {
	case FormatTOML:
		var doc document
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("dictionary: TOML inválido: %w", err)
		}
		return fromDocument(doc)
	case FormatJSON, "":
		return decodeJSON(data)
	default:
		return nil, fmt.Errorf("dictionary: formato desconocido %q", format)
	}
}

func decodeJSON(data []byte) ([]entity.CategoryRule, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("dictionary: JSON inválido: %w", err)
	}
	if _, ok := top["categories"]; ok {
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("dictionary: JSON inválido: %w", err)
		}
		return fromDocument(doc)
	}

	// formato simple: categoría -> palabras
	rules := make([]entity.CategoryRule, 0, len(top))
	for cat, raw := range top {
		var words []string
		if err := json.Unmarshal(raw, &words); err != nil {
			return nil, fmt.Errorf("dictionary: categoría %q: se esperaba una lista de palabras: %w", cat, err)
		}
		rules = append(rules, entity.CategoryRule{Category: cat, Keywords: words, SinglePhase: true})
	}
	sortRules(rules)
	return rules, nil
}

func fromDocument(doc document) ([]entity.CategoryRule, error) {
	if doc.Version > schemaVersion {
		return nil, fmt.Errorf("dictionary: versión %d no soportada", doc.Version)
	}
	rules := make([]entity.CategoryRule, 0, len(doc.Categories))
	for i, c := range doc.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("dictionary: categoría #%d sin nombre", i+1)
		}
		r := entity.CategoryRule{
			Category:    c.Name,
			Keywords:    c.Keywords,
			NCMPrefixes: c.NCMPrefixes,
			SinglePhase: c.SinglePhase == nil || *c.SinglePhase,
		}
		if c.UpdatedAt != nil {
			r.UpdatedAt = *c.UpdatedAt
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Encode serializa las reglas en formato completo.
func Encode(rules []entity.CategoryRule, format Format) ([]byte, error) {
	doc := document{Version: schemaVersion, Categories: make([]categoryDoc, 0, len(rules))}
	sorted := append([]entity.CategoryRule(nil), rules...)
	sortRules(sorted)
	for _, r := range sorted {
		sp := r.SinglePhase
		c := categoryDoc{
			Name:        r.Category,
			Keywords:    r.Keywords,
			NCMPrefixes: r.NCMPrefixes,
			SinglePhase: &sp,
		}
		if c.Keywords == nil {
			c.Keywords = []string{}
		}
		if !r.UpdatedAt.IsZero() {
			ts := r.UpdatedAt.UTC()
			c.UpdatedAt = &ts
		}
		doc.Categories = append(doc.Categories, c)
	}

	switch format {
	case FormatTOML:
		return toml.Marshal(doc)
	case FormatJSON, "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("dictionary: formato desconocido %q", format)
	}
}

// ApplyNCMCatalog agrega prefijos NCM desde un catálogo {"22030000": "cerveja"}.
// Códigos de categorías que no están en las reglas se ignoran.
func ApplyNCMCatalog(rules []entity.CategoryRule, data []byte) ([]entity.CategoryRule, error) {
	var catalog map[string]string
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("dictionary: catálogo NCM inválido: %w", err)
	}
	idx := make(map[string]int, len(rules))
	for i, r := range rules {
		idx[strings.ToLower(strings.TrimSpace(r.Category))] = i
	}
	codes := make([]string, 0, len(catalog))
	for code := range catalog {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		i, ok := idx[strings.ToLower(strings.TrimSpace(catalog[code]))]
		if !ok {
			continue
		}
		rules[i].NCMPrefixes = append(rules[i].NCMPrefixes, strings.TrimSpace(code))
	}
	return rules, nil
}

func sortRules(rules []entity.CategoryRule) {
	sort.Slice(rules, func(i, j int) bool { return rules[i].Category < rules[j].Category })
}
