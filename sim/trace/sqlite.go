package trace

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS connections (
	connection_id TEXT PRIMARY KEY,
	clock_us      INTEGER NOT NULL,
	source        INTEGER NOT NULL,
	destinations  TEXT NOT NULL,
	interfered    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS captures (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	connection_id TEXT NOT NULL,
	clock_us      INTEGER NOT NULL,
	receiver      INTEGER NOT NULL,
	outcome       TEXT NOT NULL,
	old_signal    REAL NOT NULL,
	new_signal    REAL NOT NULL,
	displaced     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS deliveries (
	connection_id TEXT PRIMARY KEY,
	clock_us      INTEGER NOT NULL,
	source        INTEGER NOT NULL,
	delivered     TEXT NOT NULL,
	lost          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_connections_source ON connections(source);
CREATE INDEX IF NOT EXISTS idx_captures_receiver ON captures(receiver);
`

// OpenSQLite opens (or creates) a trace database and ensures the schema.
// Use ":memory:" for an in-memory database.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open trace db: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across statements.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate trace db: %w", err)
	}
	return db, nil
}

// ExportSQLite writes every record of st into db in one transaction.
// A nil trace writes nothing.
func ExportSQLite(ctx context.Context, db *sql.DB, st *SimulationTrace) error {
	if st == nil {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin trace export: %w", err)
	}
	if err := exportRecords(ctx, tx, st); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit trace export: %w", err)
	}
	return nil
}

func exportRecords(ctx context.Context, tx *sql.Tx, st *SimulationTrace) error {
	connStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO connections (connection_id, clock_us, source, destinations, interfered) VALUES (?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare connections: %w", err)
	}
	defer connStmt.Close()
	for _, c := range st.Connections {
		if _, err := connStmt.ExecContext(ctx, c.ConnectionID, c.Clock, c.Source, jsonList(c.Destinations), jsonList(c.Interfered)); err != nil {
			return fmt.Errorf("insert connection %s: %w", c.ConnectionID, err)
		}
	}

	capStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO captures (connection_id, clock_us, receiver, outcome, old_signal, new_signal, displaced) VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare captures: %w", err)
	}
	defer capStmt.Close()
	for _, c := range st.Captures {
		if _, err := capStmt.ExecContext(ctx, c.ConnectionID, c.Clock, c.Receiver, c.Outcome, c.OldSignal, c.NewSignal, jsonList(c.Displaced)); err != nil {
			return fmt.Errorf("insert capture on %d: %w", c.Receiver, err)
		}
	}

	delStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO deliveries (connection_id, clock_us, source, delivered, lost) VALUES (?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare deliveries: %w", err)
	}
	defer delStmt.Close()
	for _, d := range st.Deliveries {
		if _, err := delStmt.ExecContext(ctx, d.ConnectionID, d.Clock, d.Source, jsonList(d.Delivered), jsonList(d.Lost)); err != nil {
			return fmt.Errorf("insert delivery %s: %w", d.ConnectionID, err)
		}
	}
	return nil
}

func jsonList[T any](items []T) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}
