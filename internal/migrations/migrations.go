// Package migrations embeds the goose SQL migrations of the local store.
// Each schema version adds one container; versions never drop or rewrite
// existing tables.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
