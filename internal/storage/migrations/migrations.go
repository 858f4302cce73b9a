// Package migrations embeds the SQLite schema for the stub service
package migrations

import "embed"

// Migrations holds the numbered up/down SQL files
//
//go:embed *.sql
var Migrations embed.FS
