// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	harvesterrors "github.com/sirseerhq/sirseer-harvest/internal/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS run_state (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	blob     TEXT    NOT NULL,
	saved_at INTEGER NOT NULL
);`

const defaultBusyTimeout = 5 * time.Second

// SQLiteStore keeps the run-state blob in a single-row SQLite table.
type SQLiteStore struct {
	db *sqlx.DB
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sqlite directory: %v: %w", err, harvesterrors.ErrStateIO)
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %v: %w", err, harvesterrors.ErrStateIO)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ms := int(defaultBusyTimeout / time.Millisecond)
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d;", ms)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy_timeout: %v: %w", err, harvesterrors.ErrStateIO)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %v: %w", err, harvesterrors.ErrStateIO)
	}

	return &SQLiteStore{db: db}, nil
}

// Load reads the stored blob. An empty table yields an empty RunState.
func (s *SQLiteStore) Load(ctx context.Context) (*RunState, error) {
	var blob string
	err := s.db.GetContext(ctx, &blob, `SELECT blob FROM run_state WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run state: %v: %w", err, harvesterrors.ErrStateIO)
	}
	return Decode([]byte(blob))
}

// Save replaces the stored blob.
func (s *SQLiteStore) Save(ctx context.Context, rs *RunState) error {
	data, err := Encode(rs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_state (id, blob, saved_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET blob = excluded.blob, saved_at = excluded.saved_at`,
		string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write run state: %v: %w", err, harvesterrors.ErrStateIO)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
