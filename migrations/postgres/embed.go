// Package migrations embebe los archivos SQL del schema.
package migrations

import "embed"

// FS contiene las migraciones en orden lexicográfico.
//
//go:embed *.sql
var FS embed.FS
