// Copyright 2025 SprintLoop Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sqlite provides a SQLite-backed breakpoint store so breakpoints
// survive engine restarts.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sprintloop/debugcore/pkg/breakpoints"
	"github.com/sprintloop/debugcore/pkg/dap"
)

// Compile-time interface assertion.
var _ breakpoints.Store = (*Store)(nil)

// Store is a SQLite breakpoint store.
type Store struct {
	db *sql.DB
}

// Config contains SQLite connection configuration.
type Config struct {
	// Path is the database file path.
	Path string

	// WAL enables Write-Ahead Logging mode for concurrent reads.
	WAL bool
}

// New creates a new SQLite breakpoint store.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writes, so only 1 connection for writes
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db}

	if err := s.configurePragmas(ctx, cfg.WAL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure pragmas: %w", err)
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// configurePragmas sets SQLite configuration options.
func (s *Store) configurePragmas(ctx context.Context, enableWAL bool) error {
	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}

	if enableWAL {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}

	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

// migrate creates the breakpoints table if it does not exist.
func (s *Store) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS breakpoints (
	id            INTEGER PRIMARY KEY,
	file          TEXT    NOT NULL,
	line          INTEGER NOT NULL,
	col           INTEGER NOT NULL DEFAULT 0,
	enabled       INTEGER NOT NULL DEFAULT 1,
	condition     TEXT    NOT NULL DEFAULT '',
	hit_condition TEXT    NOT NULL DEFAULT '',
	log_message   TEXT    NOT NULL DEFAULT '',
	position      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_breakpoints_file ON breakpoints(file, position);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Load returns all persisted breakpoints ordered by file and insertion
// position. Verified is reset to true: verification state belongs to a live
// adapter and is not meaningful across restarts.
func (s *Store) Load(ctx context.Context) ([]dap.Breakpoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file, line, col, enabled, condition, hit_condition, log_message
		FROM breakpoints
		ORDER BY file, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query breakpoints: %w", err)
	}
	defer rows.Close()

	var bps []dap.Breakpoint
	for rows.Next() {
		var bp dap.Breakpoint
		var enabled int
		if err := rows.Scan(&bp.ID, &bp.File, &bp.Line, &bp.Column, &enabled,
			&bp.Condition, &bp.HitCondition, &bp.LogMessage); err != nil {
			return nil, fmt.Errorf("failed to scan breakpoint: %w", err)
		}
		bp.Enabled = enabled != 0
		bp.Verified = true
		bps = append(bps, bp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate breakpoints: %w", err)
	}

	return bps, nil
}

// Save replaces the persisted set with the given breakpoints.
func (s *Store) Save(ctx context.Context, bps []dap.Breakpoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM breakpoints`); err != nil {
		return fmt.Errorf("failed to clear breakpoints: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO breakpoints (id, file, line, col, enabled, condition, hit_condition, log_message, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, bp := range bps {
		enabled := 0
		if bp.Enabled {
			enabled = 1
		}
		if _, err := stmt.ExecContext(ctx, bp.ID, bp.File, bp.Line, bp.Column, enabled,
			bp.Condition, bp.HitCondition, bp.LogMessage, i); err != nil {
			return fmt.Errorf("failed to insert breakpoint %d: %w", bp.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
