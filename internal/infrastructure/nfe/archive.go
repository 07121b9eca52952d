// Package nfe lee los ZIP de NF-e y convierte cada XML en entity.InvoiceDocument.
package nfe

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/jhoicas/audita-nfe/internal/domain"
)

// DefaultMaxEntrySize límite por entrada descomprimida (protege contra zip bombs).
const DefaultMaxEntrySize int64 = 50 << 20

// Entry una entrada XML del ZIP.
type Entry struct {
	Name string
	Data []byte
}

// SkippedEntry entrada que no se pudo leer o parsear.
type SkippedEntry struct {
	Name string
	Err  error
}

// Archive recorre las entradas .xml de un ZIP una sola vez y bajo demanda.
// No es seguro para uso concurrente.
type Archive struct {
	files        []*zip.File
	pos          int
	skipped      []SkippedEntry
	maxEntrySize int64
}

// OpenArchive abre el ZIP en memoria. Devuelve domain.ErrArchiveCorrupt si los bytes
// no son un ZIP.
func OpenArchive(data []byte) (*Archive, error) {
	return OpenArchiveLimit(data, DefaultMaxEntrySize)
}

// OpenArchiveLimit como OpenArchive con un límite de tamaño por entrada propio.
func OpenArchiveLimit(data []byte, maxEntrySize int64) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrArchiveCorrupt, err)
	}
	a := &Archive{maxEntrySize: maxEntrySize}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !IsXMLName(f.Name) {
			continue
		}
		a.files = append(a.files, f)
	}
	return a, nil
}

// IsXMLName indica si el nombre termina en .xml (sin distinguir mayúsculas).
func IsXMLName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".xml")
}

// Len cantidad de entradas XML candidatas.
func (a *Archive) Len() int { return len(a.files) }

// Next devuelve la próxima entrada legible. Las ilegibles se saltan y quedan en
// Skipped(). ok=false cuando no hay más.
func (a *Archive) Next() (Entry, bool) {
	for a.pos < len(a.files) {
		f := a.files[a.pos]
		a.pos++

		data, err := a.read(f)
		if err != nil {
			a.Skip(f.Name, err)
			continue
		}
		return Entry{Name: f.Name, Data: data}, true
	}
	return Entry{}, false
}

// Skip registra una entrada descartada (también la usa quien parsea).
func (a *Archive) Skip(name string, err error) {
	a.skipped = append(a.skipped, SkippedEntry{Name: name, Err: err})
}

// Skipped entradas descartadas hasta el momento.
func (a *Archive) Skipped() []SkippedEntry {
	return append([]SkippedEntry(nil), a.skipped...)
}

func (a *Archive) read(f *zip.File) ([]byte, error) {
	if a.maxEntrySize > 0 && f.UncompressedSize64 > uint64(a.maxEntrySize) {
		return nil, fmt.Errorf("entrada %s excede %d bytes", f.Name, a.maxEntrySize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("abrir %s: %w", f.Name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if a.maxEntrySize > 0 {
		r = io.LimitReader(rc, a.maxEntrySize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("leer %s: %w", f.Name, err)
	}
	if a.maxEntrySize > 0 && int64(len(data)) > a.maxEntrySize {
		return nil, fmt.Errorf("entrada %s excede %d bytes", f.Name, a.maxEntrySize)
	}
	return data, nil
}
