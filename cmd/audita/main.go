// audita analiza ZIPs de NF-e desde la línea de comandos, sin servidor ni base.
//
// Uso:
//
//	audita analyze notas_marco.zip --aliquota 8,5 --pdf informe.pdf
//	audita batch ./clientes --aliquota 6 --out ./informes
//	audita dictionary check "COCA COLA LATA 350ML"
//
// Configuración: las mismas variables de entorno que la API (AUDIT_DICTIONARY_PATH,
// AUDIT_FUZZY_THRESHOLD, ...); los flags tienen prioridad.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jhoicas/audita-nfe/internal/application/analysis"
	"github.com/jhoicas/audita-nfe/internal/domain/classifier"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/dictionary"
	"github.com/jhoicas/audita-nfe/pkg/config"
	"github.com/jhoicas/audita-nfe/pkg/logger"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "audita",
		Short:         "Auditoria PIS/COFINS monofásico em NF-e do Simples Nacional",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("dictionary", "", "arquivo do dicionário (JSON ou TOML); vazio = embutido")
	pf.String("ncm-catalog", "", "catálogo NCM opcional {\"22030000\": \"cerveja\"}")
	pf.Int("fuzzy-threshold", 88, "similaridade mínima (0..100) para o casamento aproximado")
	pf.Float64("cents-factor", 3, "fator da correção de centavos do imposto pago (0 desativa)")
	pf.String("log-level", "info", "nível de log (debug, info, warn, error)")

	_ = v.BindPFlag("AUDIT_DICTIONARY_PATH", pf.Lookup("dictionary"))
	_ = v.BindPFlag("AUDIT_NCM_CATALOG_PATH", pf.Lookup("ncm-catalog"))
	_ = v.BindPFlag("AUDIT_FUZZY_THRESHOLD", pf.Lookup("fuzzy-threshold"))
	_ = v.BindPFlag("AUDIT_CENTS_FACTOR", pf.Lookup("cents-factor"))
	_ = v.BindPFlag("LOG_LEVEL", pf.Lookup("log-level"))
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	root.AddCommand(newAnalyzeCmd(v))
	root.AddCommand(newBatchCmd(v))
	root.AddCommand(newDictionaryCmd(v))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		os.Exit(1)
	}
}

// runtime lo que comparten los subcomandos: configuración, log y motor.
type runtime struct {
	cfg    *config.Config
	log    *logger.Logger
	dict   *classifier.Store
	engine *analysis.Engine
}

func newRuntime(ctx context.Context, v *viper.Viper) (*runtime, error) {
	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, err
	}
	// stdout queda libre para el JSON y los informes
	log := logger.New(logger.Config{Env: "development", Level: cfg.App.LogLevel, Out: os.Stderr})

	var loader classifier.Loader = dictionary.Embedded()
	if cfg.Audit.DictionaryPath != "" {
		loader = dictionary.NewFileSource(cfg.Audit.DictionaryPath, cfg.Audit.NCMCatalogPath)
	}
	dict, err := classifier.NewStore(ctx, loader, classifier.Options{Threshold: cfg.Audit.FuzzyThreshold})
	if err != nil {
		return nil, fmt.Errorf("carregar dicionário: %w", err)
	}
	engine := analysis.NewEngine(dict, analysis.EngineConfig{
		CentsFactor: decimal.NewFromFloat(cfg.Audit.CentsFactor),
		Digest:      true,
	}, log)
	return &runtime{cfg: cfg, log: log, dict: dict, engine: engine}, nil
}
