package model

// Severity classifies the health of the merchant's prepaid point pool.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityUrgent   Severity = "urgent"
	SeverityCritical Severity = "critical"
	SeverityBlocked  Severity = "blocked"
)

// MerchantBalance is the terminal's view of the merchant's prepaid point
// pool. It is mutated only by an explicit refresh fetch or by the
// authoritative balance reported in a grant response.
// Invariant: CanGrant == (RemainingPoints > 0).
type MerchantBalance struct {
	RemainingPoints int64    `json:"remaining_points"`
	Severity        Severity `json:"severity"`
	Advisory        string   `json:"advisory,omitempty"`
	CanGrant        bool     `json:"can_grant"`
}
