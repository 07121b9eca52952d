package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/audita-nfe/internal/domain/classifier"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
)

var (
	_ repository.DictionaryRepository = (*DictionaryRepo)(nil)
	_ classifier.Loader               = (*DictionaryRepo)(nil)
)

// DictionaryRepo diccionario monofásico en la tabla dictionary_categories.
type DictionaryRepo struct {
	pool *pgxpool.Pool
}

// NewDictionaryRepository construye el adaptador.
func NewDictionaryRepository(pool *pgxpool.Pool) *DictionaryRepo {
	return &DictionaryRepo{pool: pool}
}

// Load lee todas las categorías en orden alfabético.
func (r *DictionaryRepo) Load(ctx context.Context) ([]entity.CategoryRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT category, keywords, ncm_prefixes, single_phase, updated_at
		FROM dictionary_categories ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	defer rows.Close()

	var rules []entity.CategoryRule
	for rows.Next() {
		var rule entity.CategoryRule
		if err := rows.Scan(&rule.Category, &rule.Keywords, &rule.NCMPrefixes, &rule.SinglePhase, &rule.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan dictionary: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// Count cantidad de categorías guardadas; cero indica que hay que sembrar el diccionario.
func (r *DictionaryRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM dictionary_categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count dictionary: %w", err)
	}
	return n, nil
}

// Save reemplaza el diccionario completo en una transacción.
func (r *DictionaryRepo) Save(ctx context.Context, rules []entity.CategoryRule) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM dictionary_categories`); err != nil {
		return fmt.Errorf("clear dictionary: %w", err)
	}
	for _, rule := range rules {
		keywords := rule.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		prefixes := rule.NCMPrefixes
		if prefixes == nil {
			prefixes = []string{}
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO dictionary_categories (category, keywords, ncm_prefixes, single_phase, updated_at)
			VALUES ($1, $2, $3, $4, COALESCE($5, now()))`,
			rule.Category, keywords, prefixes, rule.SinglePhase, nullTime(rule),
		); err != nil {
			return fmt.Errorf("insert category %s: %w", rule.Category, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func nullTime(rule entity.CategoryRule) any {
	if rule.UpdatedAt.IsZero() {
		return nil
	}
	return rule.UpdatedAt
}
