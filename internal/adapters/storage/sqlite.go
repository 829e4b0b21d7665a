package storage

// sqlite.go — caché local de velas OHLC.
//
//   - `bars`: UNA fila por (símbolo, timestamp). SaveBars hace UPSERT, así que
//     recargar un CSV solapado no duplica velas.
//   - Timestamps como INTEGER unix (segundos, UTC): ordenación y rangos baratos.
//   - Prune opcional al arrancar: velas más antiguas que la retención.
//   - Los ScoreRecord no se guardan aquí.

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/cfdalert/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS bars (
    symbol TEXT    NOT NULL,
    ts     INTEGER NOT NULL,
    open   REAL    NOT NULL,
    high   REAL    NOT NULL,
    low    REAL    NOT NULL,
    close  REAL    NOT NULL,
    PRIMARY KEY (symbol, ts)
);

CREATE INDEX IF NOT EXISTS idx_bars_ts ON bars(ts DESC);
`

// SQLiteBarStore implementa ports.BarStore usando SQLite (pure Go, sin CGo).
type SQLiteBarStore struct {
	db *sql.DB
}

// NewSQLiteBarStore abre (o crea) la base de datos en la ruta dada y aplica el
// schema. Si retention > 0, borra las velas más antiguas que la retención.
func NewSQLiteBarStore(path string, retention time.Duration) (*SQLiteBarStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteBarStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteBarStore: apply schema: %w", err)
	}

	s := &SQLiteBarStore{db: db}
	if retention > 0 {
		_ = s.pruneOld(context.Background(), retention)
	}
	return s, nil
}

// SaveBars inserta o reemplaza las velas de un símbolo en una transacción.
func (s *SQLiteBarStore) SaveBars(ctx context.Context, symbol string, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveBars: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bars (symbol, ts, open, high, low, close)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, ts) DO UPDATE SET
			open  = excluded.open,
			high  = excluded.high,
			low   = excluded.low,
			close = excluded.close
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveBars: prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, b.Time.UTC().Unix(), b.Open, b.High, b.Low, b.Close); err != nil {
			return fmt.Errorf("storage.SaveBars: upsert %s@%s: %w", symbol, b.Time.UTC().Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveBars: commit: %w", err)
	}
	return nil
}

// Symbols devuelve los símbolos con velas guardadas, ordenados.
func (s *SQLiteBarStore) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM bars ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("storage.Symbols: query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("storage.Symbols: scan row: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// LoadSeries devuelve todas las velas de un símbolo en orden cronológico.
func (s *SQLiteBarStore) LoadSeries(ctx context.Context, symbol string) (domain.Series, error) {
	return s.query(ctx, "storage.LoadSeries",
		`SELECT ts, open, high, low, close FROM bars WHERE symbol = ? ORDER BY ts`,
		symbol,
	)
}

// LoadRange devuelve las velas de un símbolo con timestamp en [from, to].
func (s *SQLiteBarStore) LoadRange(ctx context.Context, symbol string, from, to time.Time) (domain.Series, error) {
	return s.query(ctx, "storage.LoadRange",
		`SELECT ts, open, high, low, close FROM bars WHERE symbol = ? AND ts BETWEEN ? AND ? ORDER BY ts`,
		symbol, from.UTC().Unix(), to.UTC().Unix(),
	)
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteBarStore) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func (s *SQLiteBarStore) query(ctx context.Context, op, q string, args ...any) (domain.Series, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return domain.Series{}, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var b domain.Bar
		var ts int64
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close); err != nil {
			return domain.Series{}, fmt.Errorf("%s: scan row: %w", op, err)
		}
		b.Time = time.Unix(ts, 0).UTC()
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return domain.Series{}, fmt.Errorf("%s: rows: %w", op, err)
	}
	return domain.NewSeries(bars), nil
}

// pruneOld elimina velas antiguas para mantener la DB ligera. Un fallo no
// impide abrir el store: se registra y se devuelve.
func (s *SQLiteBarStore) pruneOld(ctx context.Context, retention time.Duration) error {
	cutoff := time.Now().UTC().Add(-retention).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM bars WHERE ts < ?`, cutoff)
	if err != nil {
		slog.Warn("storage: prune failed", "err", err)
		return fmt.Errorf("storage.pruneOld: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Debug("storage: pruned old bars", "rows", n, "retention", retention)
	}
	return nil
}
