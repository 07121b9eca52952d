package nfe

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
)

// BuildArchive empaqueta XML sueltos en un ZIP en memoria, en el orden recibido.
// Se usa cuando el usuario sube varios .xml en lugar de un ZIP.
func BuildArchive(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	seen := make(map[string]int, len(entries))
	for _, e := range entries {
		name := path.Base(e.Name)
		if n := seen[name]; n > 0 {
			name = fmt.Sprintf("%d_%s", n, name)
		}
		seen[path.Base(e.Name)]++

		fw, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("zip: crear entrada %s: %w", name, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			return nil, fmt.Errorf("zip: escribir %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}
