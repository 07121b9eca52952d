package nfe_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/audita-nfe/internal/domain"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/nfe"
)

func buildZip(t *testing.T, files map[string]string, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		if !strings.HasSuffix(name, "/") {
			_, err = w.Write([]byte(files[name]))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestOpenArchive_Corrupt(t *testing.T) {
	_, err := nfe.OpenArchive([]byte("definitivamente não é um zip"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrArchiveCorrupt))
}

func TestArchive_FiltersXMLAndIsNotRestartable(t *testing.T) {
	data := buildZip(t, map[string]string{
		"notas/a.xml": "<a/>",
		"B.XML":       "<b/>",
		"leia-me.txt": "x",
	}, "notas/", "notas/a.xml", "leia-me.txt", "B.XML")

	a, err := nfe.OpenArchive(data)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Len())

	var names []string
	for e, ok := a.Next(); ok; e, ok = a.Next() {
		names = append(names, e.Name)
		assert.NotEmpty(t, e.Data)
	}
	assert.Equal(t, []string{"notas/a.xml", "B.XML"}, names)

	_, ok := a.Next()
	assert.False(t, ok, "la secuencia no se reinicia")
	assert.Empty(t, a.Skipped())
}

func TestArchive_OversizedEntrySkipped(t *testing.T) {
	data := buildZip(t, map[string]string{
		"grande.xml":  strings.Repeat("x", 2048),
		"pequeno.xml": "<ok/>",
	}, "grande.xml", "pequeno.xml")

	a, err := nfe.OpenArchiveLimit(data, 1024)
	require.NoError(t, err)

	e, ok := a.Next()
	require.True(t, ok)
	assert.Equal(t, "pequeno.xml", e.Name)

	_, ok = a.Next()
	assert.False(t, ok)

	skipped := a.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, "grande.xml", skipped[0].Name)
	assert.Error(t, skipped[0].Err)
}

func TestBuildArchive_RoundTrip(t *testing.T) {
	data, err := nfe.BuildArchive([]nfe.Entry{
		{Name: "dir/nota.xml", Data: []byte("<1/>")},
		{Name: "outra/nota.xml", Data: []byte("<2/>")},
	})
	require.NoError(t, err)

	a, err := nfe.OpenArchive(data)
	require.NoError(t, err)

	first, ok := a.Next()
	require.True(t, ok)
	second, ok := a.Next()
	require.True(t, ok)

	assert.Equal(t, "nota.xml", first.Name)
	assert.Equal(t, "1_nota.xml", second.Name, "nombres repetidos no se pisan")
	assert.Equal(t, "<2/>", string(second.Data))
}
