package store

import (
	"context"
	"embed"
	"strings"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// ensureSchema creates missing tables. It is idempotent and is not a
// migration tool: existing tables are never altered.
func (d *DB) ensureSchema(ctx context.Context) error {
	raw, err := schemaFS.ReadFile("schema/" + d.dialect.String() + ".sql")
	if err != nil {
		return &Error{Op: "read schema", Err: err}
	}
	for _, stmt := range strings.Split(string(raw), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return &Error{Op: "apply schema", Err: err}
		}
	}
	return nil
}
