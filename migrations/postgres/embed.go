// Package migrations embebe el schema de Postgres en formato goose.
package migrations

import "embed"

// FS contiene los archivos NNNNN_*.sql en la raíz.
//
//go:embed *.sql
var FS embed.FS
