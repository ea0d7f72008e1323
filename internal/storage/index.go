/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pasta-break-man/sumapuro/internal/domain"
	applog "github.com/pasta-break-man/sumapuro/internal/log"
	"github.com/pasta-break-man/sumapuro/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores per-layout index data under the layout root.
	IndexDirName  = ".smp"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	schemaVersion = 1
)

// IndexPath returns the full path to the layout's index database file.
func IndexPath(layoutRoot string) string {
	return filepath.Join(layoutRoot, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures the per-layout SQLite index exists at
// .smp/index.sqlite, opens it in WAL mode and ensures the meta/version
// tables and the contents schema exist.
func InitOrOpenIndex(layoutRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", layoutRoot),
	)
	if strings.TrimSpace(layoutRoot) == "" {
		return nil, errors.New("layout root is required")
	}
	if err := os.MkdirAll(filepath.Join(layoutRoot, IndexDirName), 0o755); err != nil {
		l.Error("create .smp dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .smp dir: %w", err)
	}

	path := IndexPath(layoutRoot)
	uriPath := filepath.ToSlash(path)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureIndexSchema creates the objects/contents mirror tables.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// One row per placed object, keyed by display name (the backend
		// uses the same key for its per-object tables).
		`CREATE TABLE IF NOT EXISTS objects (
			name        TEXT PRIMARY KEY,
			parent_name TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_objects_parent ON objects(parent_name);`,

		// Registered rows, mirrored in registration order per object.
		`CREATE TABLE IF NOT EXISTS contents (
			id          INTEGER PRIMARY KEY,
			object_name TEXT    NOT NULL,
			position    INTEGER NOT NULL,
			name        TEXT    NOT NULL,
			category    TEXT    NOT NULL,
			count       INTEGER NOT NULL,
			FOREIGN KEY(object_name) REFERENCES objects(name) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_contents_object ON contents(object_name);`,
		`CREATE INDEX IF NOT EXISTS idx_contents_name ON contents(name);`,
		`CREATE INDEX IF NOT EXISTS idx_contents_category ON contents(category);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	return nil
}

// UpdateIndex replaces the mirror tables from the given layout. The
// index is derived data; a full rebuild per save keeps it simple and
// correct.
func UpdateIndex(ctx context.Context, layoutRoot string, layout domain.Layout) error {
	db, err := InitOrOpenIndex(layoutRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	return rebuildFromLayout(ctx, db, layout)
}

func rebuildFromLayout(ctx context.Context, db *sql.DB, layout domain.Layout) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM contents;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear contents: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM objects;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear objects: %w", err)
	}
	insObj, err := tx.PrepareContext(ctx, "INSERT INTO objects(name, parent_name) VALUES(?, ?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare object insert: %w", err)
	}
	defer insObj.Close()
	insRow, err := tx.PrepareContext(ctx, "INSERT INTO contents(object_name, position, name, category, count) VALUES(?,?,?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare content insert: %w", err)
	}
	defer insRow.Close()

	var walk func(it *domain.Item, parentName string) error
	walk = func(it *domain.Item, parentName string) error {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			return nil
		}
		var parent any
		if parentName != "" {
			parent = parentName
		}
		if _, err := insObj.ExecContext(ctx, name, parent); err != nil {
			return fmt.Errorf("insert object %q: %w", name, err)
		}
		for i, row := range it.Contents {
			if _, err := insRow.ExecContext(ctx, name, i, row.Name, row.Category, row.Count); err != nil {
				return fmt.Errorf("insert content for %q: %w", name, err)
			}
		}
		for _, n := range it.Nested {
			if err := walk(n, name); err != nil {
				return err
			}
		}
		return nil
	}
	for _, it := range layout.Items {
		if err := walk(it, ""); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Match is one local search hit: the owning object's display name and,
// for nested objects, the parent's name. Same shape as the backend's
// contents search response.
type Match struct {
	TableName       string
	ParentTableName string
}

// SearchContents finds objects whose mirrored rows match the given name
// and/or category (case-insensitive substring). Empty filters match
// everything; both empty yields no matches.
func SearchContents(ctx context.Context, layoutRoot, name, category string) ([]Match, error) {
	if strings.TrimSpace(layoutRoot) == "" {
		return nil, errors.New("layout root is required")
	}
	db, err := InitOrOpenIndex(layoutRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, name, category)
}

func searchDB(ctx context.Context, db *sql.DB, name, category string) ([]Match, error) {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)
	if name == "" && category == "" {
		return nil, nil
	}
	var sb strings.Builder
	var args []any
	sb.WriteString("SELECT DISTINCT o.name, COALESCE(o.parent_name, '')\n")
	sb.WriteString("FROM contents c JOIN objects o ON c.object_name = o.name\nWHERE 1=1\n")
	if name != "" {
		sb.WriteString(" AND lower(c.name) LIKE ?\n")
		args = append(args, likeContains(strings.ToLower(name)))
	}
	if category != "" {
		sb.WriteString(" AND lower(c.category) LIKE ?\n")
		args = append(args, likeContains(strings.ToLower(category)))
	}
	sb.WriteString(" ORDER BY o.name")
	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.TableName, &m.ParentTableName); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func likeContains(s string) string { return "%" + s + "%" }
