package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
)

// CreateGINIndexes creates full-text search GIN indexes not expressed by
// the ent schema: parsed-document filenames and audit-trail details, per
// spec.md §4.9's evidence pack search and §4.1's audit trail.
func CreateGINIndexes(ctx context.Context, driver *sql.Driver) error {
	db := driver.DB()

	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_documents_filename_gin
		ON documents USING gin(to_tsvector('english', filename))`)
	if err != nil {
		return fmt.Errorf("failed to create documents filename GIN index: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_entries_details_gin
		ON audit_log_entries USING gin(to_tsvector('english', COALESCE(details, '')))`)
	if err != nil {
		return fmt.Errorf("failed to create audit_log_entries details GIN index: %w", err)
	}

	return nil
}
