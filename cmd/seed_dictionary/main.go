// seed_dictionary carga el diccionario monofásico en la base configurada
// (PostgreSQL si hay DATABASE_URL o DB_HOST, SQLite si no).
//
// Uso: go run ./cmd/seed_dictionary [ruta/diccionario.json|.toml]
// Sin argumento siembra el diccionario embebido sólo si la tabla está vacía.
// Con archivo reemplaza el diccionario completo. Los archivos en ISO-8859-1
// (exportaciones de planillas) se convierten a UTF-8 antes de decodificar.
package main

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/repository"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/dictionary"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/postgres"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/sqlite"
	"github.com/jhoicas/audita-nfe/pkg/config"
	"github.com/jhoicas/audita-nfe/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	ctx := context.Background()

	repo, closeRepo, err := openDictionary(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir base")
	}
	defer closeRepo()

	if len(os.Args) < 2 {
		n, err := dictionary.SeedDefault(ctx, repo)
		if err != nil {
			log.Fatal().Err(err).Msg("sembrar diccionario embebido")
		}
		if n == 0 {
			log.Info().Msg("la tabla ya tiene categorías, nada que sembrar")
			return
		}
		log.Info().Int("categories", n).Msg("diccionario embebido cargado")
		return
	}

	path := os.Args[1]
	rules, err := readRules(path, cfg.Audit.NCMCatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("leer diccionario")
	}
	if err := repo.Save(ctx, rules); err != nil {
		log.Fatal().Err(err).Msg("guardar diccionario")
	}
	log.Info().Str("path", path).Int("categories", len(rules)).Msg("diccionario reemplazado")
}

func openDictionary(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.DictionaryRepository, func(), error) {
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB, log)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewDictionaryRepository(pool), pool.Close, nil
	}
	s, err := sqlite.NewStore(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	return s.Dictionary(), func() { _ = s.Close() }, nil
}

func readRules(path, catalog string) ([]entity.CategoryRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if data, err = toUTF8(data); err != nil {
		return nil, err
	}
	rules, err := dictionary.Decode(data, dictionary.FormatFromPath(path))
	if err != nil {
		return nil, err
	}
	if catalog == "" {
		return rules, nil
	}
	raw, err := os.ReadFile(catalog)
	if err != nil {
		return nil, fmt.Errorf("catálogo NCM: %w", err)
	}
	if raw, err = toUTF8(raw); err != nil {
		return nil, err
	}
	return dictionary.ApplyNCMCatalog(rules, raw)
}

// toUTF8 asume ISO-8859-1 cuando el contenido no es UTF-8 válido.
func toUTF8(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("convertir ISO-8859-1: %w", err)
	}
	return out, nil
}
