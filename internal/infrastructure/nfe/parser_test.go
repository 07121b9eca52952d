package nfe_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/nfe"
)

const nfeProcXML = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00">
  <NFe>
    <infNFe Id="NFe35240311222333000181550010000001231000000120" versao="4.00">
      <ide>
        <cNF>00000012</cNF>
        <nNF>123</nNF>
        <dhEmi>2024-03-15T10:30:00-03:00</dhEmi>
      </ide>
      <det nItem="1">
        <prod>
          <cProd>7891</cProd>
          <xProd>Cerveja Heineken 600ml</xProd>
          <NCM>22030000</NCM>
          <CFOP>5102</CFOP>
          <qCom>10.0000</qCom>
          <vUnCom>10.00</vUnCom>
          <vProd>100.00</vProd>
        </prod>
        <imposto>
          <ICMS><ICMSSN102><orig>0</orig><CSOSN>102</CSOSN></ICMSSN102></ICMS>
        </imposto>
      </det>
      <det nItem="2">
        <prod>
          <cProd>55</cProd>
          <xProd>Caderno</xProd>
          <NCM>4820</NCM>
          <CFOP>5405</CFOP>
          <vProd>1.234,56</vProd>
        </prod>
        <imposto>
          <ICMS><ICMSSN500><orig>0</orig><CSOSN>500</CSOSN></ICMSSN500></ICMS>
        </imposto>
      </det>
      <total><ICMSTot><vProd>1334.56</vProd><vNF>1334.56</vNF></ICMSTot></total>
    </infNFe>
  </NFe>
  <protNFe versao="4.00">
    <infProt><chNFe>35240311222333000181550010000001231000000999</chNFe></infProt>
  </protNFe>
</nfeProc>`

const prefixedNFeXML = `<nfe:NFe xmlns:nfe="http://www.portalfiscal.inf.br/nfe">
  <nfe:infNFe Id="NFe35100511222333000181550010000000451000000457">
    <nfe:ide><nfe:cNF>45</nfe:cNF><nfe:dEmi>2010-05-20</nfe:dEmi></nfe:ide>
    <nfe:det nItem="1">
      <nfe:prod>
        <nfe:cProd>A1</nfe:cProd><nfe:xProd>Refrigerante Cola</nfe:xProd>
        <nfe:NCM>22021000</nfe:NCM><nfe:CFOP>5405</nfe:CFOP><nfe:vProd>-5.00</nfe:vProd>
      </nfe:prod>
      <nfe:imposto><nfe:ICMS><nfe:ICMS60><nfe:CST>60</nfe:CST></nfe:ICMS60></nfe:ICMS></nfe:imposto>
    </nfe:det>
    <nfe:total><nfe:ICMSTot><nfe:vNF>R$ 10,00</nfe:vNF></nfe:ICMSTot></nfe:total>
  </nfe:infNFe>
</nfe:NFe>`

func TestParse_NfeProc(t *testing.T) {
	doc, err := nfe.NewParser(true).Parse([]byte(nfeProcXML))
	require.NoError(t, err)

	assert.Equal(t, "http://www.portalfiscal.inf.br/nfe", doc.Namespace)
	assert.Equal(t, "123", doc.Number)
	assert.Equal(t, "35240311222333000181550010000001231000000999", doc.Key, "chave del protocolo tiene prioridad")
	require.NotNil(t, doc.IssuedAt)
	assert.Equal(t, "2024-03-15T13:30:00Z", doc.IssuedAt.UTC().Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, "1334.56", doc.TotalValue.String())
	assert.Len(t, doc.Digest, 64)

	require.Len(t, doc.Items, 2)
	first := doc.Items[0]
	assert.Equal(t, "7891", first.ProductCode)
	assert.Equal(t, "Cerveja Heineken 600ml", first.Description)
	assert.Equal(t, "22030000", first.NCM)
	assert.Equal(t, "5102", first.CFOP)
	assert.Equal(t, "102", first.TaxSituation)
	require.NotNil(t, first.Quantity)
	assert.Equal(t, "10", first.Quantity.String())
	assert.Equal(t, "100", first.TotalValue.String())

	second := doc.Items[1]
	assert.Equal(t, "500", second.TaxSituation)
	assert.Equal(t, "1234.56", second.TotalValue.String())
	assert.Nil(t, second.Quantity, "qCom ausente queda sin valor")
	assert.Equal(t, "4820", second.NCM, "NCM inválida se conserva para el reporte")
}

func TestParse_PrefixedNamespaceAndFallbacks(t *testing.T) {
	doc, err := nfe.NewParser(false).Parse([]byte(prefixedNFeXML))
	require.NoError(t, err)

	assert.Equal(t, "45", doc.Number, "sin nNF se usa cNF")
	assert.Equal(t, "35100511222333000181550010000000451000000457", doc.Key, "sin protocolo se usa el Id")
	require.NotNil(t, doc.IssuedAt)
	assert.Equal(t, "2010-05-20", doc.IssuedAt.Format("2006-01-02"))
	assert.Equal(t, "10", doc.TotalValue.String())
	assert.Empty(t, doc.Digest)

	require.Len(t, doc.Items, 1)
	assert.Equal(t, "60", doc.Items[0].TaxSituation, "CST cuando no hay CSOSN")
	assert.True(t, doc.Items[0].TotalValue.IsZero(), "valor negativo se lleva a cero")
}

func TestParse_IssueDateLayouts(t *testing.T) {
	cases := []struct {
		dhEmi string
		want  string
	}{
		{"2024-03-15T10:00:00-03:00", "2024-03-15T13:00:00Z"},
		{"2024-03-15T10:00:00-0300", "2024-03-15T13:00:00Z"},
		{"2024-03-15T10:00:00", "2024-03-15T10:00:00Z"},
		{"2024-03-15", "2024-03-15T00:00:00Z"},
	}
	for _, tc := range cases {
		t.Run(tc.dhEmi, func(t *testing.T) {
			xml := `<NFe xmlns="http://www.portalfiscal.inf.br/nfe"><infNFe Id="NFe1"><ide><nNF>1</nNF><dhEmi>` +
				tc.dhEmi + `</dhEmi></ide></infNFe></NFe>`
			doc, err := nfe.NewParser(false).Parse([]byte(xml))
			require.NoError(t, err)
			require.NotNil(t, doc.IssuedAt)
			assert.Equal(t, tc.want, doc.IssuedAt.UTC().Format(time.RFC3339))
		})
	}
}

func TestParse_TaxSituationPriority(t *testing.T) {
	xml := `<NFe xmlns="http://www.portalfiscal.inf.br/nfe"><infNFe Id="NFe1">
	  <det><prod><xProd>A</xProd></prod><imposto><ICMS>
	    <ICMS00><CST>00</CST></ICMS00>
	    <ICMSSN500><CSOSN>500</CSOSN></ICMSSN500>
	  </ICMS></imposto></det>
	  <det><prod><xProd>B</xProd></prod><imposto><ICMS>
	    <ICMSSN101><CSOSN></CSOSN></ICMSSN101>
	    <ICMSXYZ><CSOSN>900</CSOSN></ICMSXYZ>
	  </ICMS></imposto></det>
	  <det><prod><xProd>C</xProd></prod></det>
	</infNFe></NFe>`

	doc, err := nfe.NewParser(false).Parse([]byte(xml))
	require.NoError(t, err)
	require.Len(t, doc.Items, 3)

	assert.Equal(t, "500", doc.Items[0].TaxSituation, "Simples Nacional antes que régimen normal")
	assert.Equal(t, "900", doc.Items[1].TaxSituation, "grupo desconocido como último recurso")
	assert.Equal(t, "", doc.Items[2].TaxSituation)
	assert.Nil(t, doc.IssuedAt)
	assert.True(t, doc.TotalValue.IsZero(), "sin vNF el total es cero")
}

func TestParse_ISO88591(t *testing.T) {
	src := `<?xml version="1.0" encoding="ISO-8859-1"?>
<NFe xmlns="http://www.portalfiscal.inf.br/nfe"><infNFe Id="NFe9">
<det><prod><xProd>Água Mineral São Lourenço</xProd><vProd>3,50</vProd></prod></det>
</infNFe></NFe>`
	latin1, err := charmap.ISO8859_1.NewEncoder().String(src)
	require.NoError(t, err)

	doc, err := nfe.NewParser(true).Parse([]byte(latin1))
	require.NoError(t, err)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Água Mineral São Lourenço", doc.Items[0].Description)
	assert.Equal(t, "3.5", doc.Items[0].TotalValue.String())
}

func TestParse_SOAPEnvelope(t *testing.T) {
	src := `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope"><soap:Body>
	<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe"><NFe><infNFe Id="NFe7">
	<ide><nNF>7</nNF></ide>
	</infNFe></NFe></nfeProc></soap:Body></soap:Envelope>`

	doc, err := nfe.NewParser(false).Parse([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "7", doc.Number)
	assert.Equal(t, "http://www.portalfiscal.inf.br/nfe", doc.Namespace)
}

func TestParse_Unparsable(t *testing.T) {
	inputs := map[string]string{
		"vacío":        "",
		"texto plano":  "isto não é xml",
		"mal formado":  "<NFe><infNFe></NFe>",
		"sin infNFe":   `<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe"><protNFe/></nfeProc>`,
		"otro esquema": "<pedido><item/></pedido>",
	}
	p := nfe.NewParser(false)
	for name, in := range inputs {
		_, err := p.Parse([]byte(in))
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, domain.ErrDocumentUnparsable), "%s: %v", name, err)
	}
}

func TestDigest(t *testing.T) {
	a := nfe.Digest([]byte(nfeProcXML))
	b := nfe.Digest([]byte(nfeProcXML))
	c := nfe.Digest([]byte(strings.Replace(nfeProcXML, "100.00</vProd>", "101.00</vProd>", 1)))

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
