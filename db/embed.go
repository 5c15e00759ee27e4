// Package db embeds the SQL schema applied on startup.
package db

import _ "embed"

// Schema holds the DDL for every table the service owns.
//
//go:embed migrations/001_schema.sql
var Schema string
