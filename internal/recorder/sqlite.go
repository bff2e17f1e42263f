package recorder

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	_ "modernc.org/sqlite"

	"MarketDash/internal/logger"
	"MarketDash/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *log.Logger
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, lg *log.Logger) (*SQLiteRecorder, error) {
	if lg == nil {
		lg = logger.Nop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets readers query history while the daemon writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: lg, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	lg.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS views (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			requested   TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			indicators  TEXT,
			window_len  INTEGER,
			k           REAL,
			bars        INTEGER,
			close       REAL,
			mean        REAL,
			upper_band  REAL,
			lower_band  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_views_symbol_ts ON views(requested, timestamp)`,

		`CREATE TABLE IF NOT EXISTS fetches (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			kind        TEXT NOT NULL,
			symbol      TEXT,
			served      TEXT,
			source      TEXT,
			duration_ms INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetches_ts ON fetches(timestamp)`,

		`CREATE TABLE IF NOT EXISTS table_rows (
			id             TEXT PRIMARY KEY,
			batch_id       TEXT NOT NULL,
			timestamp      INTEGER NOT NULL,
			symbol         TEXT NOT NULL,
			name           TEXT,
			last_price     TEXT,
			change         TEXT,
			change_percent TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_table_batch ON table_rows(batch_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable stores NaN and ±Inf as NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func (r *SQLiteRecorder) RecordView(snap *ViewSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]string, len(snap.Indicators))
	for i, k := range snap.Indicators {
		kinds[i] = string(k)
	}
	_, err := r.db.Exec(`INSERT INTO views
		(id, timestamp, requested, symbol, indicators, window_len, k, bars, close, mean, upper_band, lower_band)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		uuid.NewString(), r.now().UnixNano(), snap.Requested, snap.Symbol, strings.Join(kinds, ","),
		snap.Window, nullable(snap.K), snap.Bars,
		nullable(snap.Close), nullable(snap.Mean), nullable(snap.Upper), nullable(snap.Lower),
	)
	return err
}

func (r *SQLiteRecorder) RecordFetch(evt *FetchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO fetches
		(id, timestamp, kind, symbol, served, source, duration_ms, error)
		VALUES (?,?,?,?,?,?,?,?)`,
		uuid.NewString(), r.now().UnixNano(), evt.Kind, evt.Symbol, evt.Served,
		evt.Source, evt.Duration.Milliseconds(), evt.Err,
	)
	return err
}

// RecordTable stores one summary table as a batch sharing a batch id.
func (r *SQLiteRecorder) RecordTable(rows []model.ActiveStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	batch := uuid.NewString()
	ts := r.now().UnixNano()
	for _, row := range rows {
		if _, err := tx.Exec(`INSERT INTO table_rows
			(id, batch_id, timestamp, symbol, name, last_price, change, change_percent)
			VALUES (?,?,?,?,?,?,?,?)`,
			uuid.NewString(), batch, ts, row.Symbol, row.Name,
			row.Last.String(), row.Change.String(), row.ChangePercent.String(),
		); err != nil {
			return fmt.Errorf("insert %s: %w", row.Symbol, err)
		}
	}
	return tx.Commit()
}

// LatestViews returns up to limit stored views requested for symbol, newest first.
func (r *SQLiteRecorder) LatestViews(symbol string, limit int) ([]ViewRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, timestamp, requested, symbol, indicators, window_len, k, bars,
		close, mean, upper_band, lower_band
		FROM views WHERE requested = ? ORDER BY timestamp DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query views: %w", err)
	}
	defer rows.Close()

	var out []ViewRecord
	for rows.Next() {
		var (
			rec                           ViewRecord
			ts                            int64
			indicators                    string
			k, closeV, mean, upper, lower sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.Requested, &rec.Symbol, &indicators,
			&rec.Window, &k, &rec.Bars, &closeV, &mean, &upper, &lower); err != nil {
			return nil, fmt.Errorf("scan view: %w", err)
		}
		rec.Timestamp = time.Unix(0, ts)
		if indicators != "" {
			for _, name := range strings.Split(indicators, ",") {
				rec.Indicators = append(rec.Indicators, model.IndicatorKind(name))
			}
		}
		rec.K, rec.Close, rec.Mean, rec.Upper, rec.Lower = orNaN(k), orNaN(closeV), orNaN(mean), orNaN(upper), orNaN(lower)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// TableBatches counts stored summary tables.
func (r *SQLiteRecorder) TableBatches() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow(`SELECT COUNT(DISTINCT batch_id) FROM table_rows`).Scan(&n)
	return n, err
}

// FetchCount counts stored fetch events of kind.
func (r *SQLiteRecorder) FetchCount(kind string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM fetches WHERE kind = ?`, kind).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
