// Package persistence provides SQLite-based voyage storage: compressed save
// slots, the event log, and world metadata.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/drowned-chart/internal/engine"
	"github.com/talgya/drowned-chart/internal/savegame"
	"github.com/talgya/drowned-chart/internal/world"
)

// ErrNoSave is returned when a slot is empty or its data was unusable.
var ErrNoSave = errors.New("no saved voyage")

// DefaultSlot is the slot the server plays in.
const DefaultSlot = "dc_txt_v2"

// DB wraps a SQLite connection for voyage persistence.
type DB struct {
	conn *sqlx.DB
}

// SaveInfo describes a stored slot without decoding it.
type SaveInfo struct {
	Slot    string    `db:"slot" json:"slot"`
	RunID   string    `db:"run_id" json:"run_id"`
	Version int       `db:"version" json:"version"`
	Day     int       `db:"day" json:"day"`
	Hour    int       `db:"hour" json:"hour"`
	Bytes   int       `db:"bytes" json:"bytes"`
	SavedAt time.Time `db:"saved_at" json:"saved_at"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		slot TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		version INTEGER NOT NULL,
		day INTEGER NOT NULL,
		hour INTEGER NOT NULL,
		bytes INTEGER NOT NULL,
		saved_at TIMESTAMP NOT NULL,
		data BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveGame writes doc into slot, replacing what was there.
func (db *DB) SaveGame(slot string, doc savegame.Document) error {
	data, err := savegame.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	_, err = db.conn.Exec(`INSERT OR REPLACE INTO saves
		(slot, run_id, version, day, hour, bytes, saved_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		slot, doc.RunID, doc.Version, doc.Day, doc.Hour, len(data), time.Now().UTC(), data,
	)
	if err != nil {
		return fmt.Errorf("write slot %s: %w", slot, err)
	}
	slog.Debug("game saved", "slot", slot, "size", humanize.Bytes(uint64(len(data))), "time", engine.SimTime(doc.Day, doc.Hour))
	return nil
}

// LoadGame restores the voyage in slot. A slot that cannot be decoded or
// restored is deleted and reported as ErrNoSave.
func (db *DB) LoadGame(slot string, cfg world.GenConfig) (*engine.State, error) {
	var data []byte
	err := db.conn.Get(&data, "SELECT data FROM saves WHERE slot = ?", slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", slot, err)
	}

	doc, err := savegame.Decode(data)
	if err == nil {
		var st *engine.State
		if st, err = savegame.Restore(doc, cfg); err == nil {
			slog.Info("game loaded", "slot", slot, "run", st.RunID, "time", engine.SimTime(st.Day, st.Hour))
			return st, nil
		}
	}

	slog.Warn("save data corrupt, discarding", "slot", slot, "error", err)
	if derr := db.DeleteSave(slot); derr != nil {
		return nil, fmt.Errorf("discard slot %s: %w", slot, derr)
	}
	return nil, ErrNoSave
}

// DeleteSave empties slot. Deleting an empty slot is not an error.
func (db *DB) DeleteSave(slot string) error {
	_, err := db.conn.Exec("DELETE FROM saves WHERE slot = ?", slot)
	return err
}

// HasSave reports whether slot holds data.
func (db *DB) HasSave(slot string) (bool, error) {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM saves WHERE slot = ?", slot); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListSaves describes every stored slot, newest first.
func (db *DB) ListSaves() ([]SaveInfo, error) {
	var saves []SaveInfo
	err := db.conn.Select(&saves,
		"SELECT slot, run_id, version, day, hour, bytes, saved_at FROM saves ORDER BY saved_at DESC",
	)
	return saves, err
}

// SaveEvents appends events for a voyage.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (run_id, tick, description, category) VALUES (?, ?, ?, ?)",
			runID, e.Tick, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("events archived", "run", runID, "count", humanize.Comma(int64(len(events))))
	return nil
}

// RecentEvents returns the most recent N events of a voyage, newest first.
func (db *DB) RecentEvents(runID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// SaveVoyage performs a full save: the slot, the new events, and the
// clock in metadata.
func (db *DB) SaveVoyage(slot string, st *engine.State, events []engine.Event) error {
	if err := db.SaveGame(slot, savegame.Capture(st)); err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	if err := db.SaveEvents(st.RunID, events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta("last_tick", fmt.Sprintf("%d", engine.Tick(st.Day, st.Hour))); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("run_id", st.RunID); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}
