// Package db embeds the SQL schema for the storefront database: categories,
// products with stock quantities, users, and orders with line item snapshots.
package db

import _ "embed"

// Schema contains the DDL for all application tables. Applied idempotently at
// startup and by the seed tool.
//
//go:embed migrations/001_schema.sql
var Schema string
