package repository

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
)

const historyTable = "extraction_history"

const historyDDL = `CREATE TABLE IF NOT EXISTS extraction_history (
	id                 TEXT PRIMARY KEY,
	job_id             TEXT NOT NULL,
	source_file        TEXT NOT NULL,
	file_type          TEXT NOT NULL,
	source_format      TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL,
	is_referral        INTEGER NOT NULL DEFAULT 0,
	confidence         {{float}} NOT NULL DEFAULT 0,
	score              INTEGER NOT NULL DEFAULT 0,
	character_count    INTEGER NOT NULL DEFAULT 0,
	word_count         INTEGER NOT NULL DEFAULT 0,
	pages              INTEGER NOT NULL DEFAULT 0,
	patient_name       TEXT NOT NULL DEFAULT '',
	referral_to        TEXT NOT NULL DEFAULT '',
	validation_warning TEXT NOT NULL DEFAULT '',
	error_message      TEXT NOT NULL DEFAULT '',
	sha256             TEXT NOT NULL DEFAULT '',
	storage_backend    TEXT NOT NULL DEFAULT '',
	created_at         TEXT NOT NULL
)`

const historyIndexDDL = `CREATE INDEX IF NOT EXISTS extraction_history_created_at_idx ON extraction_history (created_at)`

func (db *DB) migrate(ctx context.Context) error {
	float := "REAL"
	if db.dialect == dialect.Postgres {
		float = "DOUBLE PRECISION"
	}
	for _, stmt := range []string{
		strings.ReplaceAll(historyDDL, "{{float}}", float),
		historyIndexDDL,
	} {
		if err := db.Driver.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("create %s: %w", historyTable, err)
		}
	}
	return nil
}
