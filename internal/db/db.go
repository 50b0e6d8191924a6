// Package db stores an audit log of served commands in SQLite. Track state
// is never written here; the log exists for after-the-fact inspection of
// client traffic.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection holding the command audit log.
type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the audit database at path and brings its schema
// up to date via the embedded migrations.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.migrateUp(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// CommandRecord is one served command. Timestamp carries SQLite's TEXT
// representation of CURRENT_TIMESTAMP.
type CommandRecord struct {
	CommandID  string
	RemoteAddr string
	Command    string
	ReplyBytes int64
	DurationMS float64
	Timestamp  string
}

// RecordCommand appends one served command to the log.
func (db *DB) RecordCommand(id, remoteAddr, command string, replyBytes int, d time.Duration) error {
	_, err := db.Exec(`
		INSERT INTO commands (command_id, remote_addr, command, reply_bytes, duration_ms)
		VALUES (?, ?, ?, ?, ?)`,
		id, remoteAddr, command, replyBytes, float64(d)/float64(time.Millisecond))
	if err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}
	return nil
}

// CommandCount reports the number of logged commands.
func (db *DB) CommandCount() (int64, error) {
	var n int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM commands`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count commands: %w", err)
	}
	return n, nil
}

// RecentCommands returns up to limit logged commands, newest first.
func (db *DB) RecentCommands(limit int) ([]CommandRecord, error) {
	rows, err := db.Query(`
		SELECT command_id, remote_addr, command, reply_bytes, duration_ms, timestamp
		FROM commands ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query commands: %w", err)
	}
	defer rows.Close()

	var out []CommandRecord
	for rows.Next() {
		var r CommandRecord
		if err := rows.Scan(&r.CommandID, &r.RemoteAddr, &r.Command, &r.ReplyBytes, &r.DurationMS, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan command row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
