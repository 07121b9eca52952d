// Package migrations SQL del esquema PostgreSQL, embebido en el binario.
package migrations

import "embed"

// FS contiene los archivos NNN_nombre.up.sql.
//
//go:embed *.sql
var FS embed.FS
