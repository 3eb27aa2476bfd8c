// Copyright © 2025 Stagesync contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: catalog/catalog.go
// Summary: SQLite-backed project catalog.
//
// The sync core only touches this at one boundary: a project row is
// upserted when a member joins its room. Live room edits are never
// persisted here.

package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a project id has no catalog row.
var ErrNotFound = errors.New("catalog: project not found")

// Project is one catalog row.
type Project struct {
	ID           string
	Name         string
	CreatedAt    time.Time
	LastActiveAt time.Time
}

// Catalog stores project metadata in a SQLite database.
type Catalog struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS projects (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL DEFAULT '',
    created_at     INTEGER NOT NULL,
    last_active_at INTEGER NOT NULL
);
`

// Open opens or creates the catalog database at path. Use ":memory:" for an
// ephemeral catalog.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	// The sqlite driver serializes writers; one connection avoids
	// SQLITE_BUSY on concurrent joins.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: init schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Create inserts a new project row.
func (c *Catalog) Create(id, name string, at time.Time) (Project, error) {
	_, err := c.db.Exec(
		`INSERT INTO projects (id, name, created_at, last_active_at) VALUES (?, ?, ?, ?)`,
		id, name, at.UnixNano(), at.UnixNano(),
	)
	if err != nil {
		return Project{}, fmt.Errorf("catalog: create %s: %w", id, err)
	}
	return Project{ID: id, Name: name, CreatedAt: at, LastActiveAt: at}, nil
}

// Get returns the project with the given id.
func (c *Catalog) Get(id string) (Project, error) {
	row := c.db.QueryRow(
		`SELECT id, name, created_at, last_active_at FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// List returns every project, most recently active first.
func (c *Catalog) List() ([]Project, error) {
	rows, err := c.db.Query(
		`SELECT id, name, created_at, last_active_at FROM projects ORDER BY last_active_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Touch upserts a project's activity timestamp. A first join creates the row
// with the project id as a placeholder name.
func (c *Catalog) Touch(id string, at time.Time) error {
	_, err := c.db.Exec(
		`INSERT INTO projects (id, name, created_at, last_active_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET last_active_at = excluded.last_active_at`,
		id, id, at.UnixNano(), at.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("catalog: touch %s: %w", id, err)
	}
	return nil
}

// Rename updates a project's display name.
func (c *Catalog) Rename(id, name string) error {
	res, err := c.db.Exec(`UPDATE projects SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("catalog: rename %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a project row.
func (c *Catalog) Delete(id string) error {
	res, err := c.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (Project, error) {
	var p Project
	var created, active int64
	err := row.Scan(&p.ID, &p.Name, &created, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	if err != nil {
		return Project{}, fmt.Errorf("catalog: scan: %w", err)
	}
	p.CreatedAt = time.Unix(0, created)
	p.LastActiveAt = time.Unix(0, active)
	return p, nil
}
