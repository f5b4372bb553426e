// Package sqliteformat reads and writes GnuCash SQLite databases. Writes are
// incremental: each entity row is probed by guid and inserted or updated in
// place, so unrelated rows in an existing database are never disturbed.
package sqliteformat

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Connection manages a SQLite database connection.
type Connection struct {
	db     *sql.DB
	dbPath string
}

// Open opens a SQLite database connection with foreign keys enabled. The
// parent directory is created if missing; the database file itself is
// created on first write.
func Open(dbPath string) (*Connection, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (c *Connection) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// GetPath returns the database file path.
func (c *Connection) GetPath() string {
	return c.dbPath
}

// Query executes a query that returns rows.
func (c *Connection) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return c.db.Query(query, args...)
}

// QueryRow executes a query that is expected to return at most one row.
func (c *Connection) QueryRow(query string, args ...interface{}) *sql.Row {
	return c.db.QueryRow(query, args...)
}

// Exec executes a query that doesn't return rows.
func (c *Connection) Exec(query string, args ...interface{}) (sql.Result, error) {
	return c.db.Exec(query, args...)
}

// Exists reports whether a row with the given key is present. Writers use it
// to decide between INSERT and UPDATE before touching a row.
func (c *Connection) Exists(table, keyColumn string, key interface{}) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ?", table, keyColumn)
	var one int
	err := c.QueryRow(query, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to probe %s: %w", table, err)
	}
	return true, nil
}

// Upsert inserts or updates one row keyed by keyColumn. columns and values
// hold the non-key columns in matching order.
func (c *Connection) Upsert(table, keyColumn string, key interface{}, columns []string, values []interface{}) error {
	exists, err := c.Exists(table, keyColumn, key)
	if err != nil {
		return err
	}

	if !exists {
		cols := keyColumn
		placeholders := "?"
		for _, col := range columns {
			cols += ", " + col
			placeholders += ", ?"
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, cols, placeholders)
		args := append([]interface{}{key}, values...)
		if _, err := c.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		return nil
	}

	assignments := ""
	for i, col := range columns {
		if i > 0 {
			assignments += ", "
		}
		assignments += col + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", table, assignments, keyColumn)
	args := append(append([]interface{}{}, values...), key)
	if _, err := c.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	return nil
}
