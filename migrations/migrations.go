package migrations

import _ "embed"

// Init is the full schema. Every statement is CREATE ... IF NOT EXISTS so
// applying it on an already-provisioned database is a no-op.
//
//go:embed 000001_init.up.sql
var Init string
