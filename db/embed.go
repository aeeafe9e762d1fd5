// Package db embeds the database schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for the catalog, discount, usage and account tables.
// Every statement is idempotent, so the schema is reapplied on each boot.
//
//go:embed migrations/001_schema.sql
var Schema string
