package nfe

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
	"github.com/jhoicas/audita-nfe/internal/domain/fiscal"
	pkgnfe "github.com/jhoicas/audita-nfe/pkg/nfe"
)

// formatos aceptados para dhEmi / dEmi.
var issueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700", // emisores que omiten los dos puntos del offset
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Parser convierte el XML de una NF-e (nfeProc o NFe suelta) en InvoiceDocument.
// No guarda estado: una instancia puede usarse desde varias goroutines.
type Parser struct {
	digest bool
}

// NewParser construye el parser. Con digest=true calcula el SHA-256 del XML canónico.
func NewParser(digest bool) *Parser {
	return &Parser{digest: digest}
}

// Parse lee un documento. Devuelve domain.ErrDocumentUnparsable si el XML está
// mal formado o no contiene infNFe.
func (p *Parser) Parse(data []byte) (*entity.InvoiceDocument, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	doc.ReadSettings.ValidateInput = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDocumentUnparsable, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: documento sin elemento raíz", domain.ErrDocumentUnparsable)
	}

	// El namespace se toma del documento; los emisores no siempre usan el mismo prefijo.
	x := scope{ns: root.NamespaceURI()}

	inf := x.findInfNFe(root)
	if inf == nil {
		// envoltorios (SOAP, lotes de otro sistema) con otro namespace en la raíz
		if inf = (scope{}).findInfNFe(root); inf != nil {
			x.ns = inf.NamespaceURI()
		}
	}
	if inf == nil {
		return nil, fmt.Errorf("%w: raíz <%s> sin infNFe", domain.ErrDocumentUnparsable, root.Tag)
	}

	out := &entity.InvoiceDocument{Namespace: x.ns}

	ide := x.child(inf, "ide")
	out.IssuedAt = parseIssueDate(x.text(ide, "dhEmi"), x.text(ide, "dEmi"))
	out.Number = x.text(ide, "nNF")
	if out.Number == "" {
		out.Number = x.text(ide, "cNF")
	}

	out.TotalValue = fiscal.ParseMoney(x.text(x.path(inf, "total", "ICMSTot"), "vNF"))

	out.Key = x.text(x.path(root, "protNFe", "infProt"), "chNFe")
	if out.Key == "" {
		out.Key = strings.TrimPrefix(strings.TrimSpace(inf.SelectAttrValue("Id", "")), "NFe")
	}

	for _, det := range x.children(inf, "det") {
		out.Items = append(out.Items, x.lineItem(det))
	}

	if p.digest {
		out.Digest = Digest(data)
	}
	return out, nil
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	default:
		return input, nil
	}
}

func parseIssueDate(values ...string) *time.Time {
	for _, v := range values {
		if v == "" {
			continue
		}
		for _, layout := range issueDateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return &t
			}
		}
	}
	return nil
}

// ── Navegación por nombre local dentro del namespace del documento ──────────

type scope struct {
	ns string
}

func (x scope) match(el *etree.Element, tag string) bool {
	if el.Tag != tag {
		return false
	}
	return x.ns == "" || el.NamespaceURI() == x.ns
}

func (x scope) child(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.ChildElements() {
		if x.match(c, tag) {
			return c
		}
	}
	return nil
}

func (x scope) children(el *etree.Element, tag string) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if x.match(c, tag) {
			out = append(out, c)
		}
	}
	return out
}

func (x scope) path(el *etree.Element, tags ...string) *etree.Element {
	for _, t := range tags {
		el = x.child(el, t)
		if el == nil {
			return nil
		}
	}
	return el
}

func (x scope) text(el *etree.Element, tag string) string {
	c := x.child(el, tag)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Text())
}

// findInfNFe ubica infNFe en nfeProc/NFe/infNFe, NFe/infNFe o, para lotes
// (enviNFe), el primer infNFe del árbol.
func (x scope) findInfNFe(root *etree.Element) *etree.Element {
	switch {
	case x.match(root, "infNFe"):
		return root
	case x.match(root, "NFe"):
		return x.child(root, "infNFe")
	case x.match(root, "nfeProc"):
		return x.path(root, "NFe", "infNFe")
	}
	var found *etree.Element
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, c := range el.ChildElements() {
			if found != nil {
				return
			}
			if x.match(c, "infNFe") {
				found = c
				return
			}
			walk(c)
		}
	}
	walk(root)
	return found
}

func (x scope) lineItem(det *etree.Element) entity.LineItem {
	prod := x.child(det, "prod")
	it := entity.LineItem{
		ProductCode:  x.text(prod, "cProd"),
		Description:  x.text(prod, "xProd"),
		NCM:          x.text(prod, "NCM"),
		CFOP:         x.text(prod, "CFOP"),
		Quantity:     optionalDecimal(x.text(prod, "qCom")),
		UnitValue:    optionalDecimal(x.text(prod, "vUnCom")),
		TotalValue:   fiscal.ParseMoney(x.text(prod, "vProd")),
		TaxSituation: x.taxSituation(x.path(det, "imposto", "ICMS")),
	}
	if it.TotalValue.IsNegative() {
		it.TotalValue = decimal.Zero
	}
	return it
}

// taxSituation recorre los grupos de ICMS en orden de prioridad y devuelve el
// primer CSOSN (o CST) no vacío. Grupos desconocidos se revisan al final en el
// orden del documento.
func (x scope) taxSituation(icms *etree.Element) string {
	if icms == nil {
		return ""
	}
	visited := make(map[*etree.Element]bool)
	for _, name := range pkgnfe.ICMSGroupPriority {
		g := x.child(icms, name)
		if g == nil {
			continue
		}
		visited[g] = true
		if v := x.groupCode(g); v != "" {
			return v
		}
	}
	for _, g := range icms.ChildElements() {
		if visited[g] {
			continue
		}
		if v := x.groupCode(g); v != "" {
			return v
		}
	}
	return ""
}

func (x scope) groupCode(g *etree.Element) string {
	if v := x.text(g, "CSOSN"); v != "" {
		return v
	}
	return x.text(g, "CST")
}

func optionalDecimal(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d := fiscal.ParseMoney(s)
	return &d
}
