//go:build !rp2040 && !rp2350

package journal

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS sessions (
	       id          INTEGER PRIMARY KEY AUTOINCREMENT,
	       file        TEXT    NOT NULL,
	       file_id     INTEGER NOT NULL CHECK (file_id BETWEEN 0 AND 9999),
	       samples     INTEGER NOT NULL CHECK (samples >= 0),
	       skipped     INTEGER NOT NULL CHECK (skipped >= 0),
	       duration_ms INTEGER NOT NULL,
	       bytes       INTEGER NOT NULL,
	       aborted     INTEGER NOT NULL CHECK (aborted IN (0, 1)),
	       closed_at   INTEGER NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS media_events (
	       id        INTEGER PRIMARY KEY AUTOINCREMENT,
	       op        TEXT    NOT NULL CHECK (op IN ('mount', 'unmount')),
	       ok        INTEGER NOT NULL CHECK (ok IN (0, 1)),
	       code      TEXT    NOT NULL,
	       total_kb  INTEGER NOT NULL,
	       free_kb   INTEGER NOT NULL,
	       files     INTEGER NOT NULL,
	       ts        INTEGER NOT NULL
	   );`

	insertSessionSQL = `
    INSERT INTO sessions (
        file, file_id, samples, skipped, duration_ms, bytes, aborted, closed_at
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	insertMediaSQL = `
    INSERT INTO media_events (
        op, ok, code, total_kb, free_kb, files, ts
    ) VALUES (?, ?, ?, ?, ?, ?, ?)`

	selectSessionsSQL = `
    SELECT file, file_id, samples, skipped, duration_ms, bytes, aborted, closed_at
    FROM sessions
    ORDER BY id DESC
    LIMIT ?`
)

// initSchema creates the tables and records the version in one transaction.
func initSchema(db *sql.DB, log zerolog.Logger) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("journal: begin schema: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.Debug().Err(err).Msg("schema rollback failed")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return fmt.Errorf("journal: create tables: %w", err)
	}
	if _, err := tx.Exec(`
        INSERT OR IGNORE INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return fmt.Errorf("journal: record version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit schema: %w", err)
	}
	committed = true
	return nil
}

// schemaVersion returns the newest applied version, 0 for a fresh file.
func schemaVersion(db *sql.DB) (int, error) {
	var exists bool
	if err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name='schema_versions'
        )
    `).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	var v int
	err := db.QueryRow(`SELECT version FROM schema_versions ORDER BY version DESC LIMIT 1`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return v, err
}
