package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"venuepoint-terminal/internal/model"
)

// MySQLRepository implements Repository using MySQL. Used where several
// terminals of one merchant share a journal database.
type MySQLRepository struct {
	db *sql.DB
}

// NewMySQLRepository creates a MySQL journal repository around an
// existing connection.
func NewMySQLRepository(db *sql.DB) (*MySQLRepository, error) {
	if err := createMySQLTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[JournalRepository] MySQL initialized")
	return &MySQLRepository{db: db}, nil
}

func createMySQLTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS transaction_journal (
		id VARCHAR(36) PRIMARY KEY,
		mode VARCHAR(16) NOT NULL,
		customer_id VARCHAR(64) NOT NULL,
		points INT NOT NULL DEFAULT 0,
		amount VARCHAR(32) NOT NULL DEFAULT '0',
		status VARCHAR(16) NOT NULL,
		failure_reason TEXT,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		INDEX idx_journal_created_at (created_at),
		INDEX idx_journal_customer (customer_id)
	)`
	_, err := db.Exec(query)
	return err
}

// Insert appends one journal entry.
func (r *MySQLRepository) Insert(ctx context.Context, entry *model.JournalEntry) error {
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
func (r *MySQLRepository) List(ctx context.Context, limit, offset int) ([]model.JournalEntry, int64, error) {
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
func (r *MySQLRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transaction_journal WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old journal entries: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (r *MySQLRepository) Close() error {
	return r.db.Close()
}
