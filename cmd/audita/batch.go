package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	goruntime "runtime"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jhoicas/audita-nfe/internal/application/analysis"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/fiscal"
)

type batchResult struct {
	name   string
	totals *entity.AnalysisTotals
	err    error
}

func newBatchCmd(v *viper.Viper) *cobra.Command {
	var (
		tax     taxFlags
		outDir  string
		withPDF bool
		workers int
		quiet   bool
	)
	cmd := &cobra.Command{
		Use:   "batch <diretório>",
		Short: "Analisa todos os ZIPs de um diretório",
		Long: `Analisa cada .zip do diretório com os mesmos parâmetros tributários.
Com --out grava <nome>.json (e <nome>.pdf com --pdf) para cada arquivo.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), v)
			if err != nil {
				return err
			}
			files, err := listArchives(args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("%s: nenhum ZIP encontrado", args[0])
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return err
				}
			}
			if workers <= 0 {
				workers = goruntime.NumCPU()
			}

			var bar *progressbar.ProgressBar
			if !quiet {
				bar = progressbar.NewOptions(len(files),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(40),
					progressbar.OptionSetDescription("Analisando"),
					progressbar.OptionOnCompletion(func() { fmt.Fprintln(cmd.ErrOrStderr()) }),
				)
			}

			in := tax.input()
			results := make([]batchResult, len(files))
			jobs := make(chan int)
			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := range jobs {
						res := batchResult{name: filepath.Base(files[i])}
						data, err := os.ReadFile(files[i])
						if err == nil {
							res.totals, err = rt.engine.Analyze(cmd.Context(), data, in)
						}
						if err == nil && outDir != "" {
							err = writeOutputs(cmd, outDir, res.name, in, res.totals, withPDF)
						}
						res.err = err
						results[i] = res
						if bar != nil {
							_ = bar.Add(1)
						}
					}
				}()
			}
		feed:
			for i := range files {
				select {
				case jobs <- i:
				case <-cmd.Context().Done():
					break feed
				}
			}
			close(jobs)
			wg.Wait()
			if err := cmd.Context().Err(); err != nil {
				return err
			}

			failed := printBatch(cmd.OutOrStdout(), results)
			for _, r := range results {
				if r.err != nil {
					rt.log.Error().Str("file", r.name).Err(r.err).Msg("análise falhou")
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d de %d arquivos falharam", failed, len(results))
			}
			return nil
		},
	}
	tax.register(cmd)
	cmd.Flags().StringVar(&outDir, "out", "", "diretório para os JSON/PDF de cada arquivo")
	cmd.Flags().BoolVar(&withPDF, "pdf", false, "com --out, grava também o relatório PDF")
	cmd.Flags().IntVar(&workers, "workers", 0, "análises em paralelo (0 = número de CPUs)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "sem barra de progresso")
	return cmd
}

func listArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".zip") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func writeOutputs(cmd *cobra.Command, dir, name string, in analysis.Input, t *entity.AnalysisTotals, withPDF bool) error {
	base := filepath.Join(dir, strings.TrimSuffix(name, filepath.Ext(name)))
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(base+".json", data, 0o644); err != nil {
		return err
	}
	if !withPDF {
		return nil
	}
	return writeReport(cmd.Context(), base+".pdf", name, in, t)
}

// printBatch imprime una línea por archivo y los totales; devuelve cuántos fallaron.
func printBatch(w io.Writer, results []batchResult) int {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ARQUIVO\tDOCS\tMONOFÁSICOS\tST INCORRETA\tRECEITA EXCLUÍDA\tECONOMIA")
	var (
		excluded, savings decimal.Decimal
		failed            int
	)
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(tw, "%s\tERRO: %v\t\t\t\t\n", r.name, r.err)
			continue
		}
		t := r.totals
		excluded = excluded.Add(t.ExcludedRevenue)
		savings = savings.Add(t.Tax.EstimatedSavings)
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\n", r.name, t.Documents, t.SinglePhaseTotal, t.STIncorrect,
			fiscal.FormatBRL(t.ExcludedRevenue), fiscal.FormatBRL(t.Tax.EstimatedSavings))
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t\t%s\t%s\n", fiscal.FormatBRL(excluded), fiscal.FormatBRL(savings))
	_ = tw.Flush()
	return failed
}
