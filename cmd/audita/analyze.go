package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jhoicas/audita-nfe/internal/application/analysis"
	"github.com/jhoicas/audita-nfe/internal/application/ports"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/fiscal"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/nfe"
	infrapdf "github.com/jhoicas/audita-nfe/internal/infrastructure/pdf"
)

var zipMagic = []byte("PK\x03\x04")

type taxFlags struct {
	rate    string
	paidTax string
}

func (f *taxFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.rate, "aliquota", "", `alíquota do Simples ("8,5" ou "0.085")`)
	cmd.Flags().StringVar(&f.paidTax, "imposto-pago", "", `imposto pago no período ("R$ 1.234,56")`)
}

func (f *taxFlags) input() analysis.Input {
	in := analysis.Input{}
	if f.rate != "" {
		in.Rate = f.rate
	}
	if f.paidTax != "" {
		in.PaidTax = f.paidTax
	}
	return in
}

func newAnalyzeCmd(v *viper.Viper) *cobra.Command {
	var (
		tax     taxFlags
		pdfPath string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <arquivo.zip | nota.xml | diretório>",
		Short: "Analisa um ZIP de NF-e (ou XMLs soltos) e mostra o resumo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), v)
			if err != nil {
				return err
			}
			name, data, err := readInput(args[0])
			if err != nil {
				return err
			}
			in := tax.input()
			totals, err := rt.engine.Analyze(cmd.Context(), data, in)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(totals); err != nil {
					return err
				}
			} else {
				printSummary(out, name, totals)
			}
			if pdfPath != "" {
				if err := writeReport(cmd.Context(), pdfPath, name, in, totals); err != nil {
					return err
				}
				rt.log.Info().Str("path", pdfPath).Msg("informe gerado")
			}
			return nil
		},
	}
	tax.register(cmd)
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "grava o relatório PDF neste caminho")
	cmd.Flags().BoolVar(&asJSON, "json", false, "imprime os totais completos em JSON")
	return cmd
}

// readInput lee un ZIP tal cual; un .xml o un directorio de .xml se empaquetan en un ZIP.
func readInput(path string) (string, []byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, err
	}
	if info.IsDir() {
		matches, err := filepath.Glob(filepath.Join(path, "*.xml"))
		if err != nil {
			return "", nil, err
		}
		upper, _ := filepath.Glob(filepath.Join(path, "*.XML"))
		matches = append(matches, upper...)
		if len(matches) == 0 {
			return "", nil, fmt.Errorf("%s: nenhum XML encontrado", path)
		}
		sort.Strings(matches)
		entries := make([]nfe.Entry, 0, len(matches))
		for i, m := range matches {
			// en sistemas de archivos sin distinción de mayúsculas los dos globs coinciden
			if i > 0 && matches[i-1] == m {
				continue
			}
			data, err := os.ReadFile(m)
			if err != nil {
				return "", nil, err
			}
			entries = append(entries, nfe.Entry{Name: filepath.Base(m), Data: data})
		}
		data, err := nfe.BuildArchive(entries)
		return filepath.Base(filepath.Clean(path)) + ".zip", data, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	if bytes.HasPrefix(data, zipMagic) {
		return filepath.Base(path), data, nil
	}
	if !strings.EqualFold(filepath.Ext(path), ".xml") {
		return "", nil, fmt.Errorf("%s: esperado um ZIP ou um XML", path)
	}
	packed, err := nfe.BuildArchive([]nfe.Entry{{Name: filepath.Base(path), Data: data}})
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".zip", packed, err
}

func printSummary(w io.Writer, name string, t *entity.AnalysisTotals) {
	fmt.Fprintf(w, "%s\n", name)
	fmt.Fprintf(w, "  Documentos:           %d\n", t.Documents)
	fmt.Fprintf(w, "  Itens:                %d\n", t.Items)
	fmt.Fprintf(w, "  Faturamento:          %s\n", fiscal.FormatBRL(t.TotalValue))
	fmt.Fprintf(w, "  Itens monofásicos:    %d (ST correta %d, incorreta %d)\n", t.SinglePhaseTotal, t.STCorrect, t.STIncorrect)
	fmt.Fprintf(w, "  Sem NCM:              %d\n", t.SinglePhaseWithoutNCM)
	fmt.Fprintf(w, "  Sem CFOP/CSOSN:       %d\n", t.SinglePhaseWithoutCFOPCSOSN)
	fmt.Fprintf(w, "  Receita excluída:     %s\n", fiscal.FormatBRL(t.ExcludedRevenue))
	if t.Tax.Mode != entity.TaxModeNone {
		fmt.Fprintf(w, "  Alíquota:             %s\n", fiscal.FormatPercent(t.Tax.RateUsed))
		fmt.Fprintf(w, "  Economia estimada:    %s\n", fiscal.FormatBRL(t.Tax.EstimatedSavings))
	}
	if len(t.SkippedEntries) > 0 {
		fmt.Fprintf(w, "  Entradas ignoradas:   %d\n", len(t.SkippedEntries))
	}
	fmt.Fprintf(w, "  Dicionário:           %s\n", t.DictionaryVersion)
}

func writeReport(ctx context.Context, path, name string, in analysis.Input, t *entity.AnalysisTotals) error {
	rate, paid := in.Parsed()
	now := time.Now()
	pdf, err := infrapdf.NewMarotoPDFGenerator().GenerateAnalysisReport(ctx, ports.ReportData{
		Upload: &entity.Upload{Filename: name, UploadedAt: now},
		Analysis: &entity.Analysis{
			ID:         t.RunID,
			Status:     entity.AnalysisStatusDone,
			Rate:       rate,
			PaidTax:    paid,
			Totals:     t,
			CreatedAt:  now,
			FinishedAt: &now,
		},
	})
	if err != nil {
		return fmt.Errorf("gerar PDF: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, pdf, 0o644)
}
