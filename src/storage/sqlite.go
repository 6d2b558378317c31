package storage

import (
	"database/sql"
	"fmt"
	"time"

	"quote-charts/src/helpers"
	"quote-charts/src/logger"
	"quote-charts/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MStorageConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MStorageConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("sqlite database path is empty")
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	db, err := sql.Open("sqlite", d.Config.DBPath)
	if err != nil {
		return helpers.NewDatabaseError("open", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) createTables() error {
	// SQLite types: INTEGER for int64, TEXT for decimals and dates
	statements := []string{
		`CREATE TABLE IF NOT EXISTS daily_bars (
			symbol TEXT NOT NULL,
			date TEXT NOT NULL,
			open TEXT NOT NULL,
			high TEXT NOT NULL,
			low TEXT NOT NULL,
			close TEXT NOT NULL,
			session_id TEXT,
			received_at INTEGER,
			PRIMARY KEY (symbol, date)
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			ts INTEGER NOT NULL,
			price TEXT NOT NULL,
			session_id TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ticks_symbol_ts ON ticks (symbol, ts);`,
	}

	for _, stmt := range statements {
		if _, err := d.DB.Exec(stmt); err != nil {
			return helpers.NewDatabaseError("create tables", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveDailyBars(sessionID string, history map[string][]models.MDailyBar) error {
	if len(history) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_bars (symbol, date, open, high, low, close, session_id, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			session_id = excluded.session_id,
			received_at = excluded.received_at
	`)
	if err != nil {
		return helpers.NewDatabaseError("prepare daily_bars", err)
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for symbol, bars := range history {
		for _, b := range bars {
			_, err := stmt.Exec(symbol, b.DateText(), b.Open.String(), b.High.String(), b.Low.String(), b.Close.String(), sessionID, now)
			if err != nil {
				return helpers.NewDatabaseError("insert daily_bars", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewDatabaseError("commit", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveTicks(sessionID string, ticks []models.MTick) error {
	if len(ticks) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO ticks (symbol, ts, price, session_id) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return helpers.NewDatabaseError("prepare ticks", err)
	}
	defer stmt.Close()

	for _, t := range ticks {
		if _, err := stmt.Exec(t.Ticker, t.Timestamp, t.Price.String(), sessionID); err != nil {
			return helpers.NewDatabaseError("insert ticks", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewDatabaseError("commit", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) CleanupOldData(before time.Time) error {
	cutoff := before.UnixMilli()

	res, err := d.DB.Exec("DELETE FROM ticks WHERE ts < ?", cutoff)
	if err != nil {
		return helpers.NewDatabaseError("cleanup ticks", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		d.Logger.Info("Removed %d ticks older than %s", n, before.Format(time.RFC3339))
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
