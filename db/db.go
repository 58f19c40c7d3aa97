// Package db carries the embedded DDL for the service's tables. The
// statements are idempotent and applied at boot.
package db

import _ "embed"

//go:embed schema.sql
var Schema string
