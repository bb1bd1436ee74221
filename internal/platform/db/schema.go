package db

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL the repositories expect.
func Schema() string {
	return schemaSQL
}

// EnsureSchema applies the idempotent DDL. It backs the seed command and integration tests;
// production schemas are managed outside this binary.
func EnsureSchema(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("platform/db: ensure schema: %w", err)
	}
	return nil
}
