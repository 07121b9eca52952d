// Package pdf genera el informe de auditoría PIS/COFINS monofásico de una corrida.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Oficina + CNPJ      │  Cliente + CNPJ + Período    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DADOS TRIBUTÁRIOS: receita / base corrigida / economia      │
//	│  ERROS FISCAIS: ST incorreta / sem NCM / sem CFOP-CSOSN      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABELA: produtos monofásicos (deduplicados)                 │
//	│  TABELA: receita excluída por período                        │
//	│  TABELA: itens excluídos                                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: corrida + versão do dicionário + leyenda            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/audita-nfe/internal/application/analytics"
	"github.com/jhoicas/audita-nfe/internal/application/ports"
	"github.com/jhoicas/audita-nfe/internal/domain/audit"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/fiscal"
	"github.com/jhoicas/audita-nfe/pkg/nfe"
)

const (
	reportTopProducts = 20
	// el detalle completo está en el JSON de la corrida
	reportMaxExcluded = 300
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 92, Blue: 62}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// Verificar en tiempo de compilación que MarotoPDFGenerator implementa ReportGenerator.
var _ ports.ReportGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa ports.ReportGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	now func() time.Time
}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{now: time.Now} }

// GenerateAnalysisReport genera el PDF y devuelve sus bytes.
// Company, Client y Upload pueden ser nil (uso desde la CLI sin base de datos).
func (g *MarotoPDFGenerator) GenerateAnalysisReport(ctx context.Context, data ports.ReportData) ([]byte, error) {
	if data.Analysis == nil || data.Analysis.Totals == nil {
		return nil, fmt.Errorf("pdf: la corrida no tiene totales")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := data.Analysis.Totals

	author := "Audita NF-e"
	if data.Company != nil {
		author = data.Company.Name
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Auditoria PIS/COFINS monofásico", true).
		WithAuthor(author, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data, g.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(taxRows(t)...)
	m.AddRows(fiscalErrorRows(t)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitle("PRODUTOS MONOFÁSICOS (DEDUPLICADOS)"))
	m.AddRows(productRows(analytics.TopProducts(t.Deduplicated, reportTopProducts))...)

	m.AddRows(sectionTitle("RECEITA EXCLUÍDA POR PERÍODO"))
	m.AddRows(periodRows(audit.GroupExcludedByPeriod(t.Excluded))...)

	m.AddRows(sectionTitle("ITENS COM TRIBUTAÇÃO INCORRETA"))
	m.AddRows(excludedRows(t.Excluded)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(data.Analysis)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: oficina + CNPJ (izq) y cliente + período (der).
func headerRow(data ports.ReportData, now time.Time) core.Row {
	office, officeCNPJ := "Audita NF-e", ""
	if data.Company != nil {
		office, officeCNPJ = data.Company.Name, "CNPJ: "+nfe.FormatCNPJ(data.Company.CNPJ)
	}
	client, clientCNPJ := "Cliente não informado", ""
	if data.Client != nil {
		client, clientCNPJ = data.Client.Name, "CNPJ: "+nfe.FormatCNPJ(data.Client.CNPJ)
	}
	if data.Upload != nil {
		clientCNPJ = strings.TrimSpace(clientCNPJ + "   |   " + data.Upload.Filename)
	}
	t := data.Analysis.Totals

	return row.New(24).Add(
		col.New(6).Add(
			text.New("AUDITORIA PIS/COFINS MONOFÁSICO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(office, props.Text{Style: fontstyle.Bold, Size: 12, Top: 6}),
			text.New(officeCNPJ, props.Text{Size: 8, Top: 13, Color: colorGray}),
		),
		col.New(6).Add(
			text.New(client, props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 1}),
			text.New(clientCNPJ, props.Text{Size: 8, Align: align.Right, Top: 7, Color: colorGray}),
			text.New("Período: "+analytics.PeriodLabel(t.PeriodStart, t.PeriodEnd), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 12, Color: colorPrimary,
			}),
			text.New("Emitido em "+now.Format("02/01/2006 15:04"), props.Text{
				Size: 7, Align: align.Right, Top: 18, Color: colorGray,
			}),
		),
	)
}

func sectionTitle(title string) core.Row {
	return row.New(9).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 3}),
	))
}

// taxRows: bloque de datos tributarios en pares etiqueta/valor.
func taxRows(t *entity.AnalysisTotals) []core.Row {
	tax := t.Tax
	pairs := [][2]string{
		{"Documentos / itens", fmt.Sprintf("%d NF-e   |   %d itens", t.Documents, t.Items)},
		{"Receita bruta", fiscal.FormatBRL(tax.Revenue)},
		{"Receita monofásica excluída", fiscal.FormatBRL(tax.ExcludedRevenue)},
		{"Base corrigida", fiscal.FormatBRL(tax.CorrectedBase)},
	}
	switch tax.Mode {
	case entity.TaxModeRate:
		pairs = append(pairs,
			[2]string{"Alíquota informada", fiscal.FormatPercent(tax.RateUsed)},
			[2]string{"Imposto sobre a receita bruta", fiscal.FormatBRL(tax.BaselineTax)},
		)
	case entity.TaxModePaid:
		paid := fiscal.FormatBRL(tax.PaidTax)
		if tax.PaidTaxCentsCorrected {
			paid += " (valor informado em centavos, corrigido)"
		}
		pairs = append(pairs,
			[2]string{"Imposto pago", paid},
			[2]string{"Alíquota efetiva", fiscal.FormatPercent(tax.RateUsed)},
		)
	default:
		pairs = append(pairs, [2]string{"Cálculo tributário", "sem alíquota nem imposto pago informados"})
	}
	pairs = append(pairs, [2]string{"Imposto corrigido", fiscal.FormatBRL(tax.CorrectedTax)})

	rows := []core.Row{sectionTitle("DADOS TRIBUTÁRIOS")}
	for _, p := range pairs {
		rows = append(rows, labelValueRow(p[0], p[1], false))
	}
	rows = append(rows, labelValueRow("ECONOMIA ESTIMADA", fiscal.FormatBRL(tax.EstimatedSavings), true))
	return rows
}

// fiscalErrorRows: indicadores fiscales de los ítems monofásicos.
func fiscalErrorRows(t *entity.AnalysisTotals) []core.Row {
	rows := []core.Row{sectionTitle("ERROS FISCAIS")}
	counts := []struct {
		label string
		n     int
	}{
		{"Monofásicos com ST incorreta (CFOP/CSOSN ≠ 5405/500)", t.STIncorrect},
		{"Monofásicos com ST correta", t.STCorrect},
		{"Monofásicos sem NCM válido", t.SinglePhaseWithoutNCM},
		{"Monofásicos sem CFOP ou CSOSN", t.SinglePhaseWithoutCFOPCSOSN},
		{"NCM divergente da categoria", t.NCMCategoryMismatches},
		{"Identificados por aproximação", t.SinglePhaseByFuzzy},
		{"Arquivos ignorados no ZIP", len(t.SkippedEntries)},
	}
	for _, c := range counts {
		rows = append(rows, labelValueRow(c.label, fmt.Sprintf("%d", c.n), false))
	}
	return rows
}

func labelValueRow(label, value string, highlight bool) core.Row {
	lp := props.Text{Size: 8, Top: 1, Left: 2}
	vp := props.Text{Size: 8, Top: 1, Align: align.Right, Right: 2}
	if highlight {
		lp.Style, lp.Size, lp.Color = fontstyle.Bold, 10, colorPrimary
		vp.Style, vp.Size, vp.Color = fontstyle.Bold, 10, colorPrimary
	}
	return row.New(6).Add(
		col.New(8).Add(text.New(label, lp)),
		col.New(4).Add(text.New(value, vp)),
	)
}

// tableHeader: cabecera de tabla; sizes suma 12.
func tableHeader(labels []string, sizes []int) core.Row {
	cols := make([]core.Col, 0, len(labels))
	for i, l := range labels {
		a := align.Left
		if i == len(labels)-1 {
			a = align.Right
		}
		cols = append(cols, col.New(sizes[i]).Add(text.New(l, props.Text{
			Style: fontstyle.Bold, Size: 7.5, Align: a, Top: 1, Left: 1, Right: 1, Color: colorGray,
		})))
	}
	return row.New(6).Add(cols...)
}

func tableRow(values []string, sizes []int) core.Row {
	cols := make([]core.Col, 0, len(values))
	for i, v := range values {
		a := align.Left
		if i == len(values)-1 {
			a = align.Right
		}
		cols = append(cols, col.New(sizes[i]).Add(text.New(v, props.Text{
			Size: 7.5, Align: a, Top: 1, Left: 1, Right: 1,
		})))
	}
	return row.New(5).Add(cols...)
}

func emptyRow(msg string) core.Row {
	return row.New(6).Add(col.New(12).Add(
		text.New(msg, props.Text{Size: 8, Top: 1, Left: 2, Color: colorGray}),
	))
}

// productRows: una fila por producto deduplicado.
func productRows(items []entity.DedupItem) []core.Row {
	if len(items) == 0 {
		return []core.Row{emptyRow("Nenhum produto monofásico identificado.")}
	}
	sizes := []int{2, 5, 2, 1, 2}
	rows := []core.Row{tableHeader([]string{"Código", "Descrição", "Categoria", "Ocorr.", "Valor"}, sizes)}
	for _, it := range items {
		rows = append(rows, tableRow([]string{
			it.ProductCode,
			truncate(it.Description, 48),
			it.Category,
			fmt.Sprintf("%d", it.Occurrences),
			fiscal.FormatBRL(it.TotalValue),
		}, sizes))
	}
	return rows
}

// periodRows: receita excluída mes a mes.
func periodRows(groups []audit.PeriodGroup) []core.Row {
	if len(groups) == 0 {
		return []core.Row{emptyRow("Nenhuma receita a excluir.")}
	}
	sizes := []int{6, 2, 4}
	rows := []core.Row{tableHeader([]string{"Período", "Itens", "Receita excluída"}, sizes)}
	for _, g := range groups {
		rows = append(rows, tableRow([]string{periodName(g.Period), fmt.Sprintf("%d", g.Items), fiscal.FormatBRL(g.Value)}, sizes))
	}
	return rows
}

// excludedRows: ítems monofásicos tributados sin ST.
func excludedRows(items []entity.ItemRecord) []core.Row {
	if len(items) == 0 {
		return []core.Row{emptyRow("Nenhum item com tributação incorreta.")}
	}
	sizes := []int{1, 2, 5, 1, 1, 2}
	rows := []core.Row{tableHeader([]string{"NF-e", "Emissão", "Descrição", "CFOP", "CSOSN", "Valor"}, sizes)}
	for i, it := range items {
		if i == reportMaxExcluded {
			rows = append(rows, emptyRow(fmt.Sprintf("... e mais %d itens.", len(items)-reportMaxExcluded)))
			break
		}
		issued := "-"
		if it.IssuedAt != nil {
			issued = it.IssuedAt.Format("02/01/2006")
		}
		rows = append(rows, tableRow([]string{
			it.DocNumber,
			issued,
			truncate(it.Description, 52),
			nonEmpty(it.CFOP, "-"),
			nonEmpty(it.CSOSN, "-"),
			fiscal.FormatBRL(it.TotalValue),
		}, sizes))
	}
	return rows
}

// footerRows: identificación de la corrida y leyenda.
func footerRows(a *entity.Analysis) []core.Row {
	return []core.Row{
		row.New(5).Add(col.New(12).Add(
			text.New(fmt.Sprintf("Corrida %s   |   Dicionário %s", a.Totals.RunID, a.Totals.DictionaryVersion), props.Text{
				Size: 6.5, Color: colorGray, Top: 1,
			}),
		)),
		row.New(8).Add(col.New(12).Add(
			text.New(
				"Estimativa baseada nas NF-e enviadas e no dicionário de produtos monofásicos vigente. "+
					"Os valores devem ser conferidos antes de qualquer retificação ou pedido de restituição.",
				props.Text{Size: 6.5, Color: colorRed, Top: 2},
			),
		)),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// periodName "2024-03" → "Março 2024".
func periodName(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return "Sem data"
	}
	return analytics.PeriodLabel(&t, &t)
}
