// Package analysis orquesta una corrida de auditoría: lee el ZIP, parsea cada NF-e,
// clasifica los ítems contra el diccionario vigente y devuelve los totales.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/domain/audit"
	"github.com/jhoicas/audita-nfe/internal/domain/classifier"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/fiscal"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/nfe"
	"github.com/jhoicas/audita-nfe/pkg/logger"
)

// Input parámetros tributarios tal como llegan del usuario: números o strings en
// formato brasileño ("8,5", "R$ 1.234,56"). nil significa no informado.
type Input struct {
	Rate    any
	PaidTax any
}

// Parsed normaliza la alícuota (fracción) y el imposto pago; nil = no informado.
func (in Input) Parsed() (rate, paidTax *decimal.Decimal) {
	return fiscal.ParsePercent(in.Rate), optionalMoney(in.PaidTax)
}

// EngineConfig ajustes del motor.
type EngineConfig struct {
	CentsFactor  decimal.Decimal // 0 desactiva la corrección de centavos
	MaxEntrySize int64           // 0 = nfe.DefaultMaxEntrySize
	Digest       bool            // calcular el digest canónico de cada NF-e
}

// Engine motor de análisis. Sin estado entre corridas: cada Analyze crea su propio
// acumulador, así que puede llamarse desde varias goroutines.
type Engine struct {
	dict   *classifier.Store
	parser *nfe.Parser
	cfg    EngineConfig
	log    *logger.Logger
}

// NewEngine construye el motor sobre el store del diccionario.
func NewEngine(dict *classifier.Store, cfg EngineConfig, log *logger.Logger) *Engine {
	if cfg.MaxEntrySize <= 0 {
		cfg.MaxEntrySize = nfe.DefaultMaxEntrySize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{dict: dict, parser: nfe.NewParser(cfg.Digest), cfg: cfg, log: log}
}

// Analyze procesa un ZIP completo. Devuelve domain.ErrArchiveCorrupt si el ZIP no se
// puede abrir; las entradas ilegibles se saltan y quedan en SkippedEntries.
func (e *Engine) Analyze(ctx context.Context, archive []byte, in Input) (*entity.AnalysisTotals, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := e.log.With().Str("run_id", runID).Logger()

	zr, err := nfe.OpenArchiveLimit(archive, e.cfg.MaxEntrySize)
	if err != nil {
		return nil, err
	}

	// una sola instantánea por corrida: una recarga a mitad no mezcla diccionarios
	cls := e.dict.Current()
	if cls == nil {
		return nil, fmt.Errorf("analysis: diccionario no cargado")
	}
	acc := audit.NewAccumulator(cls)

	for entry, ok := zr.Next(); ok; entry, ok = zr.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := e.parser.Parse(entry.Data)
		if err != nil {
			zr.Skip(entry.Name, err)
			continue
		}
		doc.EntryName = entry.Name
		acc.AddDocument(doc)
	}
	for _, s := range zr.Skipped() {
		log.Warn().Str("entry", s.Name).Err(s.Err).Msg("entrada del ZIP ignorada")
		acc.Skip(s.Name)
	}

	rate, paid := in.Parsed()
	tax := audit.TaxInput{Rate: rate, PaidTax: paid, CentsFactor: e.cfg.CentsFactor}
	totals := acc.Finish(tax)
	totals.RunID = runID
	totals.DictionaryVersion = cls.Fingerprint()

	if totals.Tax.PaidTaxCentsCorrected {
		log.Warn().
			Str("informed", totals.Tax.PaidTaxInformed.String()).
			Str("used", totals.Tax.PaidTax.String()).
			Msg("imposto pago parece estar en centavos; se dividió por 100")
	}
	log.Info().
		Int("documents", totals.Documents).
		Int("items", totals.Items).
		Int("single_phase", totals.SinglePhaseTotal).
		Int("skipped", len(totals.SkippedEntries)).
		Str("mode", totals.Tax.Mode).
		Str("dictionary", totals.DictionaryVersion).
		Dur("elapsed", time.Since(start)).
		Msg("análisis terminado")
	return totals, nil
}

// IsInputError indica si el error de Analyze se debe al archivo recibido y no al servidor.
func IsInputError(err error) bool {
	return errors.Is(err, domain.ErrArchiveCorrupt)
}

// optionalMoney nil o string vacío = no informado; cualquier otro valor pasa por ParseMoney.
func optionalMoney(v any) *decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(x) == "" {
			return nil
		}
	case *decimal.Decimal:
		if x == nil {
			return nil
		}
	}
	d := fiscal.ParseMoney(v)
	return &d
}
