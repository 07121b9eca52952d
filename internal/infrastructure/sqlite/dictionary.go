package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/audita-nfe/internal/domain/classifier"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

var (
	_ repository.DictionaryRepository = (*DictionaryStore)(nil)
	_ classifier.Loader               = (*DictionaryStore)(nil)
)

// DictionaryStore diccionario monofásico en la tabla dictionary_categories.
// Las listas se guardan como arreglos JSON.
type DictionaryStore struct {
	db *sql.DB
}

// Load lee todas las categorías en orden alfabético.
func (s *DictionaryStore) Load(ctx context.Context) ([]entity.CategoryRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, keywords, ncm_prefixes, single_phase, updated_at
		FROM dictionary_categories ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	defer rows.Close()

	var rules []entity.CategoryRule
	for rows.Next() {
		var (
			rule               entity.CategoryRule
			keywords, prefixes string
		)
		if err := rows.Scan(&rule.Category, &keywords, &prefixes, &rule.SinglePhase, &rule.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan dictionary: %w", err)
		}
		if err := json.Unmarshal([]byte(keywords), &rule.Keywords); err != nil {
			return nil, fmt.Errorf("decode keywords %s: %w", rule.Category, err)
		}
		if err := json.Unmarshal([]byte(prefixes), &rule.NCMPrefixes); err != nil {
			return nil, fmt.Errorf("decode ncm_prefixes %s: %w", rule.Category, err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// Count cantidad de categorías guardadas.
func (s *DictionaryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dictionary_categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count dictionary: %w", err)
	}
	return n, nil
}

// Save reemplaza el diccionario completo en una transacción.
func (s *DictionaryStore) Save(ctx context.Context, rules []entity.CategoryRule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dictionary_categories`); err != nil {
		return fmt.Errorf("clear dictionary: %w", err)
	}
	now := time.Now().UTC()
	for _, rule := range rules {
		keywords, err := jsonList(rule.Keywords)
		if err != nil {
			return err
		}
		prefixes, err := jsonList(rule.NCMPrefixes)
		if err != nil {
			return err
		}
		updated := rule.UpdatedAt
		if updated.IsZero() {
			updated = now
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO dictionary_categories (category, keywords, ncm_prefixes, single_phase, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			rule.Category, keywords, prefixes, rule.SinglePhase, updated.UTC(),
		); err != nil {
			return fmt.Errorf("insert category %s: %w", rule.Category, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func jsonList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}
