// Package migrations SQL del esquema SQLite, embebido en el binario.
package migrations

import "embed"

// FS contiene los archivos NNN_nombre.up.sql.
//
//go:embed *.sql
var FS embed.FS
