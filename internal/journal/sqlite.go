package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"venuepoint-terminal/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteRepository implements Repository using SQLite. Default backend
// for standalone terminals; the journal lives next to the terminal.
type SQLiteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRepository opens (or creates) the journal database at dbPath.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSQLiteTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[JournalRepository] SQLite initialized with database: %s", dbPath)
	return &SQLiteRepository{db: db}, nil
}

func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS transaction_journal (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		points INTEGER NOT NULL DEFAULT 0,
		amount TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL,
		failure_reason TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_journal_created_at ON transaction_journal(created_at);
	CREATE INDEX IF NOT EXISTS idx_journal_customer ON transaction_journal(customer_id);
	`
	_, err := db.Exec(query)
	return err
}

// Insert appends one journal entry.
func (r *SQLiteRepository) Insert(ctx context.Context, entry *model.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO transaction_journal
			(id, mode, customer_id, points, amount, status, failure_reason, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, string(entry.Mode), entry.CustomerID, entry.Points,
		entry.Amount.String(), entry.Status, entry.FailureReason,
		entry.DurationMs, entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// List returns entries newest first, with the total count.
func (r *SQLiteRepository) List(ctx context.Context, limit, offset int) ([]model.JournalEntry, int64, error) {
	query := `
		SELECT id, mode, customer_id, points, amount, status, failure_reason, duration_ms, created_at
		FROM transaction_journal
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transaction_journal`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count journal entries: %w", err)
	}

	return entries, total, nil
}

// DeleteOlderThan removes entries created before cutoff.
func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transaction_journal WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old journal entries: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// scanEntries reads journal rows shared by both backends.
func scanEntries(rows *sql.Rows) ([]model.JournalEntry, error) {
	entries := []model.JournalEntry{}
	for rows.Next() {
		var entry model.JournalEntry
		var mode, amount string
		if err := rows.Scan(
			&entry.ID, &mode, &entry.CustomerID, &entry.Points, &amount,
			&entry.Status, &entry.FailureReason, &entry.DurationMs, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entry.Mode = model.Mode(mode)
		dec, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("bad amount in journal entry %s: %w", entry.ID, err)
		}
		entry.Amount = dec
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
