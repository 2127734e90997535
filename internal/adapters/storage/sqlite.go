package storage

// sqlite.go: journal append-only de ciclos y órdenes.
//
//   - `cycles`: una fila por ciclo (id UUID, duración, error).
//   - `cycle_counts`: contadores del ciclo, una fila por nombre con valor != 0.
//   - `orders`: cada orden aceptada por el exchange.
//   - Prune automático al arrancar: todo lo que tenga más de 30 días.
//
// El bot solo escribe; el modo -report es el único lector.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/spreadbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cycles (
    id          TEXT    PRIMARY KEY,
    idx         INTEGER NOT NULL,
    started_at  INTEGER NOT NULL,  -- unix ms
    duration_ms INTEGER NOT NULL DEFAULT 0,
    error       TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS cycle_counts (
    cycle_id TEXT NOT NULL REFERENCES cycles(id) ON DELETE CASCADE,
    name     TEXT NOT NULL,
    value    REAL NOT NULL,
    PRIMARY KEY (cycle_id, name)
);

CREATE TABLE IF NOT EXISTS orders (
    order_id     TEXT    NOT NULL,
    cycle_id     TEXT    NOT NULL DEFAULT '',
    market_id    INTEGER NOT NULL,
    token_id     TEXT    NOT NULL,
    side         TEXT    NOT NULL,
    price        TEXT    NOT NULL,
    quote_amount TEXT    NOT NULL,
    base_amount  TEXT    NOT NULL,
    placed_at    INTEGER NOT NULL   -- unix ms
);

CREATE INDEX IF NOT EXISTS idx_cycles_started ON cycles(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_orders_placed  ON orders(placed_at DESC);
`

const retention = 30 * 24 * time.Hour

// SQLiteJournal implementa ports.Journal y ports.JournalReader usando SQLite
// (pure Go, sin CGo).
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal abre (o crea) la base de datos en la ruta dada, aplica el
// schema y limpia datos antiguos.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteJournal: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: apply schema: %w", err)
	}

	j := &SQLiteJournal{db: db}
	j.pruneOld(context.Background(), time.Now().UTC().Add(-retention))
	return j, nil
}

// SaveCycle persiste el resumen del ciclo y sus contadores en una transacción.
func (j *SQLiteJournal) SaveCycle(ctx context.Context, c domain.CycleSummary) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveCycle: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cycles (id, idx, started_at, duration_ms, error) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Index, c.StartedAt.UnixMilli(), c.Duration.Milliseconds(), c.Err,
	); err != nil {
		return fmt.Errorf("storage.SaveCycle: insert cycle: %w", err)
	}

	for _, name := range c.CountKeys() {
		v := c.Counts[name]
		if v == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cycle_counts (cycle_id, name, value) VALUES (?, ?, ?)`,
			c.ID, name, v,
		); err != nil {
			return fmt.Errorf("storage.SaveCycle: insert count %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveCycle: commit: %w", err)
	}
	return nil
}

// SaveOrder añade una orden aceptada al journal.
func (j *SQLiteJournal) SaveOrder(ctx context.Context, o domain.JournalOrder) error {
	if _, err := j.db.ExecContext(ctx, `
		INSERT INTO orders
			(order_id, cycle_id, market_id, token_id, side, price, quote_amount, base_amount, placed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderID, o.CycleID, o.MarketID, o.TokenID, string(o.Side),
		o.Price, o.QuoteAmount, o.BaseAmount, o.PlacedAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("storage.SaveOrder: insert %s: %w", o.OrderID, err)
	}
	return nil
}

// RecentCycles devuelve los últimos limit ciclos, el más reciente primero.
func (j *SQLiteJournal) RecentCycles(ctx context.Context, limit int) ([]domain.CycleSummary, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, idx, started_at, duration_ms, error
		FROM cycles
		ORDER BY started_at DESC, idx DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentCycles: query: %w", err)
	}
	defer rows.Close()

	var cycles []domain.CycleSummary
	for rows.Next() {
		var c domain.CycleSummary
		var startedMs, durationMs int64
		if err := rows.Scan(&c.ID, &c.Index, &startedMs, &durationMs, &c.Err); err != nil {
			return nil, fmt.Errorf("storage.RecentCycles: scan row: %w", err)
		}
		c.StartedAt = time.UnixMilli(startedMs).UTC()
		c.Duration = time.Duration(durationMs) * time.Millisecond
		c.Counts = make(map[string]float64)
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.RecentCycles: %w", err)
	}

	for i := range cycles {
		if err := j.loadCounts(ctx, &cycles[i]); err != nil {
			return nil, err
		}
	}
	return cycles, nil
}

func (j *SQLiteJournal) loadCounts(ctx context.Context, c *domain.CycleSummary) error {
	rows, err := j.db.QueryContext(ctx,
		`SELECT name, value FROM cycle_counts WHERE cycle_id = ?`, c.ID)
	if err != nil {
		return fmt.Errorf("storage.loadCounts: query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var v float64
		if err := rows.Scan(&name, &v); err != nil {
			return fmt.Errorf("storage.loadCounts: scan row: %w", err)
		}
		c.Counts[name] = v
	}
	return rows.Err()
}

// OrdersSince devuelve las órdenes colocadas desde since, las más recientes primero.
func (j *SQLiteJournal) OrdersSince(ctx context.Context, since time.Time) ([]domain.JournalOrder, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT order_id, cycle_id, market_id, token_id, side, price, quote_amount, base_amount, placed_at
		FROM orders
		WHERE placed_at >= ?
		ORDER BY placed_at DESC`, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("storage.OrdersSince: query: %w", err)
	}
	defer rows.Close()

	var orders []domain.JournalOrder
	for rows.Next() {
		var o domain.JournalOrder
		var side string
		var placedMs int64
		if err := rows.Scan(&o.OrderID, &o.CycleID, &o.MarketID, &o.TokenID, &side,
			&o.Price, &o.QuoteAmount, &o.BaseAmount, &placedMs); err != nil {
			return nil, fmt.Errorf("storage.OrdersSince: scan row: %w", err)
		}
		o.Side = domain.Side(side)
		o.PlacedAt = time.UnixMilli(placedMs).UTC()
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// pruneOld elimina datos antiguos para mantener la DB ligera.
func (j *SQLiteJournal) pruneOld(ctx context.Context, cutoff time.Time) {
	ms := cutoff.UnixMilli()
	j.db.ExecContext(ctx, `DELETE FROM cycles WHERE started_at < ?`, ms)
	j.db.ExecContext(ctx, `DELETE FROM orders WHERE placed_at < ?`, ms)
}
