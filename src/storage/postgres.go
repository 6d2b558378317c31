package storage

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"quote-charts/src/helpers"
	"quote-charts/src/logger"
	"quote-charts/src/models"

	"github.com/lib/pq"
)

var schemaUnsafe = regexp.MustCompile(`[^a-z0-9_]+`)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MStorageConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewPostgresDB creates the archive inside a schema named after the application
func NewPostgresDB(cfg *models.MStorageConfig, appName string, log *logger.Logger) (*PostgresDB, error) {
	if cfg.DBConnectionString == "" {
		return nil, fmt.Errorf("postgres connection string is empty")
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &PostgresDB{
		Config: cfg,
		Schema: SchemaName(appName),
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

// SchemaName lowercases name and replaces anything but [a-z0-9_] with "_"
func SchemaName(name string) string {
	schema := schemaUnsafe.ReplaceAllString(strings.ToLower(name), "_")
	schema = strings.Trim(schema, "_")
	if schema == "" {
		return "quote_charts"
	}
	return schema
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	db, err := sql.Open("postgres", d.Config.DBConnectionString)
	if err != nil {
		return helpers.NewDatabaseError("open", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping", err)
	}
	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pq.QuoteIdentifier(d.Schema))); err != nil {
		return helpers.NewDatabaseError("create schema "+d.Schema, err)
	}
	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) table(name string) string {
	return pq.QuoteIdentifier(d.Schema) + "." + pq.QuoteIdentifier(name)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			symbol TEXT NOT NULL,
			date DATE NOT NULL,
			open NUMERIC NOT NULL,
			high NUMERIC NOT NULL,
			low NUMERIC NOT NULL,
			close NUMERIC NOT NULL,
			session_id TEXT,
			received_at BIGINT,
			PRIMARY KEY (symbol, date)
		);`, d.table("daily_bars")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			ts BIGINT NOT NULL,
			price NUMERIC NOT NULL,
			session_id TEXT
		);`, d.table("ticks")),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_ticks_symbol_ts ON %s (symbol, ts);`, d.table("ticks")),
	}

	for _, stmt := range statements {
		if _, err := d.DB.Exec(stmt); err != nil {
			return helpers.NewDatabaseError("create tables", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveDailyBars(sessionID string, history map[string][]models.MDailyBar) error {
	if len(history) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO %s (symbol, date, open, high, low, close, session_id, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			session_id = EXCLUDED.session_id,
			received_at = EXCLUDED.received_at
	`, d.table("daily_bars")))
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

// SaveTicks streams the batch with COPY
func (d *PostgresDB) SaveTicks(sessionID string, ticks []models.MTick) error {
	if len(ticks) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(pq.CopyInSchema(d.Schema, "ticks", "symbol", "ts", "price", "session_id"))
	if err != nil {
		return helpers.NewDatabaseError("prepare copy ticks", err)
	}

	for _, t := range ticks {
		if _, err := stmt.Exec(t.Ticker, t.Timestamp, t.Price.String(), sessionID); err != nil {
			stmt.Close()
			return helpers.NewDatabaseError("copy ticks", err)
		}
	}
	// flush COPY buffer
	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		return helpers.NewDatabaseError("flush ticks", err)
	}
	if err := stmt.Close(); err != nil {
		return helpers.NewDatabaseError("close copy", err)
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewDatabaseError("commit", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) CleanupOldData(before time.Time) error {
	res, err := d.DB.Exec(fmt.Sprintf("DELETE FROM %s WHERE ts < $1", d.table("ticks")), before.UnixMilli())
	if err != nil {
		return helpers.NewDatabaseError("cleanup ticks", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		d.Logger.Info("Removed %d ticks older than %s", n, before.Format(time.RFC3339))
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
