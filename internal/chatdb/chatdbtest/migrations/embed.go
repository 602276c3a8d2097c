// Package migrations holds the fixture chat.db schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
