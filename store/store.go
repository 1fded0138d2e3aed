// Package store keeps instrument cash-flow schedules and holidays in SQL. Only inputs are
// stored; valuation results are never persisted.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmtruffa/finsim/calendar"
	"github.com/jmtruffa/finsim/finance"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Instrument is a named schedule of dated cash flows, typically a bond.
type Instrument struct {
	ID          string
	Ticker      string
	Description string
	DayCount    finance.DayCount
	Cashflows   []finance.DatedCashFlow
}

// Repository wraps the database holding instruments and holidays.
type Repository struct {
	db     *sql.DB
	driver string
}

// Open connects with driver ("sqlite3" or "postgres") and checks the connection.
func Open(ctx context.Context, driver, dsn string) (*Repository, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return New(db, driver), nil
}

func New(db *sql.DB, driver string) *Repository {
	return &Repository{db: db, driver: driver}
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// rebind turns ? placeholders into $n for postgres.
func (r *Repository) rebind(query string) string {
	if r.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (r *Repository) schema() []string {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if r.driver == DriverPostgres {
		id = "SERIAL PRIMARY KEY"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS instruments (
			id ` + id + `,
			ticker TEXT UNIQUE NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			day_count INT NOT NULL DEFAULT 2,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS instrument_cashflows (
			instrument_id INT NOT NULL REFERENCES instruments(id) ON DELETE CASCADE,
			seq INT NOT NULL,
			date DATE NOT NULL,
			amount NUMERIC NOT NULL,
			PRIMARY KEY (instrument_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS holidays (
			date DATE PRIMARY KEY,
			name TEXT NOT NULL DEFAULT ''
		)`,
	}
}

// EnsureSchema creates the tables if they do not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range r.schema() {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// LoadInstruments returns every instrument with its cash flows in date order.
func (r *Repository) LoadInstruments(ctx context.Context) ([]Instrument, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, ticker, description, day_count
		FROM instruments
		ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("query instruments: %w", err)
	}
	defer rows.Close()

	var instruments []Instrument
	index := make(map[int64]int)
	for rows.Next() {
		var (
			id       int64
			inst     Instrument
			dayCount int
		)
		if err := rows.Scan(&id, &inst.Ticker, &inst.Description, &dayCount); err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		inst.ID = strconv.FormatInt(id, 10)
		inst.DayCount = finance.DayCount(dayCount)
		index[id] = len(instruments)
		instruments = append(instruments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("instrument rows: %w", err)
	}

	// All cash flows in one query.
	cfRows, err := r.db.QueryContext(ctx, `
		SELECT instrument_id, date, amount
		FROM instrument_cashflows
		ORDER BY instrument_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("query cashflows: %w", err)
	}
	defer cfRows.Close()

	for cfRows.Next() {
		var (
			id     int64
			date   time.Time
			amount float64
		)
		if err := cfRows.Scan(&id, &date, &amount); err != nil {
			return nil, fmt.Errorf("scan cashflow: %w", err)
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		instruments[i].Cashflows = append(instruments[i].Cashflows, finance.DatedCashFlow{Date: date, Amount: amount})
	}
	if err := cfRows.Err(); err != nil {
		return nil, fmt.Errorf("cashflow rows: %w", err)
	}
	return instruments, nil
}

// FindInstrument returns the instrument with ticker, or ErrNotFound.
func (r *Repository) FindInstrument(ctx context.Context, ticker string) (Instrument, error) {
	instruments, err := r.LoadInstruments(ctx)
	if err != nil {
		return Instrument{}, err
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	for _, inst := range instruments {
		if inst.Ticker == ticker {
			return inst, nil
		}
	}
	return Instrument{}, fmt.Errorf("instrument %s: %w", ticker, ErrNotFound)
}

// SaveInstrument upserts the instrument by ticker and replaces its cash flows. It returns
// the database ID.
func (r *Repository) SaveInstrument(ctx context.Context, inst *Instrument) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	dayCount := inst.DayCount
	if dayCount == 0 {
		dayCount = finance.Actual365
	}

	var id int64
	err = tx.QueryRowContext(ctx, r.rebind(`
		INSERT INTO instruments (ticker, description, day_count)
		VALUES (?, ?, ?)
		ON CONFLICT (ticker) DO UPDATE SET
			description = EXCLUDED.description,
			day_count = EXCLUDED.day_count,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id`),
		inst.Ticker, inst.Description, int(dayCount)).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert instrument %s: %w", inst.Ticker, err)
	}

	if _, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM instrument_cashflows WHERE instrument_id = ?`), id); err != nil {
		return "", fmt.Errorf("clear cashflows %s: %w", inst.Ticker, err)
	}

	for i, cf := range inst.Cashflows {
		if _, err := tx.ExecContext(ctx, r.rebind(`
			INSERT INTO instrument_cashflows (instrument_id, seq, date, amount)
			VALUES (?, ?, ?, ?)`),
			id, i+1, cf.Date, cf.Amount); err != nil {
			return "", fmt.Errorf("insert cashflow %d of %s: %w", i+1, inst.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	inst.ID = strconv.FormatInt(id, 10)
	return inst.ID, nil
}

// LoadHolidays implements calendar.HolidaySource.
func (r *Repository) LoadHolidays(ctx context.Context) ([]calendar.Holiday, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT date, name FROM holidays ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []calendar.Holiday
	for rows.Next() {
		var h calendar.Holiday
		if err := rows.Scan(&h.Date, &h.Name); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("holiday rows: %w", err)
	}
	return holidays, nil
}

func (r *Repository) AddHoliday(ctx context.Context, h calendar.Holiday) error {
	_, err := r.db.ExecContext(ctx, r.rebind(`
		INSERT INTO holidays (date, name) VALUES (?, ?)
		ON CONFLICT (date) DO UPDATE SET name = EXCLUDED.name`),
		h.Date, h.Name)
	if err != nil {
		return fmt.Errorf("insert holiday %s: %w", h.Date.Format("2006-01-02"), err)
	}
	return nil
}
