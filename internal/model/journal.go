package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Journal entry statuses.
const (
	JournalStatusSuccess = "success"
	JournalStatusFailed  = "failed"
)

// JournalEntry records one grant/redeem attempt in the terminal's local
// journal. The journal is operator-facing history, not a ledger: the
// backend remains the source of truth for every balance.
type JournalEntry struct {
	ID            string          `json:"id"`
	Mode          Mode            `json:"mode"`
	CustomerID    string          `json:"customer_id"`
	Points        int             `json:"points"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"` // 'success' or 'failed'
	FailureReason string          `json:"failure_reason,omitempty"`
	DurationMs    int64           `json:"duration_ms"`
	CreatedAt     time.Time       `json:"created_at"`
}
