package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"StockPicker/internal/model"
)

// SQLiteRecorder persists runs to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			timestamp    INTEGER NOT NULL,
			rule         TEXT,
			etfs         TEXT,
			passed_count INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS analyses (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id           TEXT NOT NULL REFERENCES runs(id),
			etf              TEXT NOT NULL,
			position         INTEGER NOT NULL,
			symbol           TEXT NOT NULL,
			outcome          TEXT NOT NULL,
			six_month_change REAL,
			one_year_change  REAL,
			cagr5            REAL,
			cagr10           REAL,
			rsi              REAL,
			pe_ratio         REAL,
			current_ratio    REAL,
			degenerate       TEXT,
			opinion          TEXT,
			error_text       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_run ON analyses(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_symbol ON analyses(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun writes one runs row and one analyses row per analyzed holding in a
// single transaction.
func (r *SQLiteRecorder) RecordRun(rep *model.Report) error {
	if rep == nil || rep.RunID == "" {
		return errors.New("record run: missing run id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	etfs := make([]string, len(rep.Sections))
	for i, s := range rep.Sections {
		etfs[i] = s.ETF
	}
	if _, err := tx.Exec(`INSERT INTO runs (id, timestamp, rule, etfs, passed_count) VALUES (?,?,?,?,?)`,
		rep.RunID, rep.GeneratedAt.Unix(), rep.Rule, strings.Join(etfs, ","), rep.PassedCount(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO analyses
		(run_id, etf, position, symbol, outcome,
		 six_month_change, one_year_change, cagr5, cagr10, rsi,
		 pe_ratio, current_ratio, degenerate, opinion, error_text)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare analyses: %w", err)
	}
	defer stmt.Close()

	for _, s := range rep.Sections {
		for i, res := range s.Results {
			m := res.Metrics
			if _, err := stmt.Exec(
				rep.RunID, s.ETF, i, m.Symbol, string(res.Outcome),
				m.SixMonthChange, m.OneYearChange, m.CAGR5, m.CAGR10, nullable(m.RSI),
				nullable(m.Fundamentals.PERatio), nullable(m.Fundamentals.CurrentRatio),
				strings.Join(m.Degenerate, ","), res.Opinion, errText(res),
			); err != nil {
				return fmt.Errorf("insert analysis %s/%s: %w", s.ETF, m.Symbol, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Debug().Str("run_id", rep.RunID).Int("sections", len(rep.Sections)).Msg("run recorded")
	return nil
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func errText(res model.AnalysisResult) string {
	switch {
	case res.Err != nil:
		return res.Err.Error()
	case res.OpinionErr != nil:
		return res.OpinionErr.Error()
	}
	return ""
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
