package db

import "embed"

// sqlSchemas holds the SQL migration files, embedded at compile time so the
// daemon and CLI can migrate a database without a source checkout.
//
//go:embed migrations/*.sql
var sqlSchemas embed.FS
