package main

import (
	"database/sql"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection. Live room state never
// touches it; only finished matches and combat records land here.
type DB struct {
	conn *sql.DB
}

// MatchRow represents an archived match
type MatchRow struct {
	ID              int64
	RoomCode        string
	DurationSeconds int
	Players         int
	CreatedAt       time.Time
}

// WalletKills is one leaderboard row aggregated by wallet address.
type WalletKills struct {
	Wallet string `json:"wallet"`
	Name   string `json:"name"`
	Kills  int    `json:"kills"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_code TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		players INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS kill_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_code TEXT NOT NULL,
		attacker_id TEXT NOT NULL,
		attacker_name TEXT NOT NULL DEFAULT '',
		attacker_wallet TEXT NOT NULL DEFAULT '',
		victim_id TEXT NOT NULL,
		victim_name TEXT NOT NULL DEFAULT '',
		victim_wallet TEXT NOT NULL DEFAULT '',
		weapon TEXT NOT NULL,
		health_depleted INTEGER NOT NULL DEFAULT 0,
		killed INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS item_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT NOT NULL,
		room_code TEXT NOT NULL,
		player_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		item_type TEXT NOT NULL,
		slot_id TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_kill_events_room ON kill_events(room_code);
	CREATE INDEX IF NOT EXISTS idx_kill_events_attacker_wallet ON kill_events(attacker_wallet);
	CREATE INDEX IF NOT EXISTS idx_item_events_room ON item_events(room_code);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// GetSetting returns a settings value, or "" when absent
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}

// SetSetting upserts a settings value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// RecordMatch archives a finished match
func (db *DB) RecordMatch(roomCode string, durationSeconds, players int) error {
	_, err := db.conn.Exec(
		"INSERT INTO matches (room_code, duration_seconds, players) VALUES (?, ?, ?)",
		roomCode, durationSeconds, players,
	)
	return err
}

// KillLeaderboard returns top wallets by confirmed kills. Guests with
// no wallet are excluded.
func (db *DB) KillLeaderboard(limit int) ([]WalletKills, error) {
	rows, err := db.conn.Query(`
		SELECT attacker_wallet, MAX(attacker_name), COUNT(*)
		FROM kill_events
		WHERE killed = 1 AND attacker_wallet != ''
		GROUP BY attacker_wallet
		ORDER BY COUNT(*) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []WalletKills
	for rows.Next() {
		var e WalletKills
		if err := rows.Scan(&e.Wallet, &e.Name, &e.Kills); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// RoomKillCount returns how many eliminations were recorded for a room
func (db *DB) RoomKillCount(roomCode string) (int, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM kill_events WHERE room_code = ? AND killed = 1",
		roomCode,
	).Scan(&count)
	return count, err
}
