// Package guard tracks the merchant's prepaid point balance and its
// health classification. Only an explicit refresh or the authoritative
// balance in a grant response may move it; the terminal never does its
// own arithmetic on a grant.
package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"venuepoint-terminal/internal/cache"
	"venuepoint-terminal/internal/ledger"
	"venuepoint-terminal/internal/model"
)

// Severity thresholds on remaining points. Fixed client-side; the backend
// advisory, when present, overrides the local text but never the level.
const (
	thresholdNormal  = 5000
	thresholdInfo    = 2000
	thresholdWarning = 1000
	thresholdUrgent  = 500
)

const cacheKey = "merchant_balance"

// Guard owns the terminal's view of the merchant balance. The cache is a
// read-through copy so a restarted terminal shows the last known balance
// while offline; it is never a source of truth.
type Guard struct {
	ledger ledger.Ledger
	cache  cache.Cache
	ttl    time.Duration

	mu      sync.RWMutex
	current *model.MerchantBalance
}

// New creates a guard. cache may be nil (no persistence across restarts).
func New(backend ledger.Ledger, store cache.Cache, ttl time.Duration) *Guard {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Guard{
		ledger: backend,
		cache:  store,
		ttl:    ttl,
	}
}

// Classify derives the severity level from remaining points. Pure function
// against fixed thresholds.
func Classify(remaining int64) model.Severity {
	switch {
	case remaining >= thresholdNormal:
		return model.SeverityNormal
	case remaining >= thresholdInfo:
		return model.SeverityInfo
	case remaining >= thresholdWarning:
		return model.SeverityWarning
	case remaining >= thresholdUrgent:
		return model.SeverityUrgent
	case remaining > 0:
		return model.SeverityCritical
	default:
		return model.SeverityBlocked
	}
}

// advisoryFor returns the local advisory text for a severity level.
func advisoryFor(severity model.Severity, remaining int64) string {
	switch severity {
	case model.SeverityInfo:
		return fmt.Sprintf("Merchant point balance is at %d points.", remaining)
	case model.SeverityWarning:
		return fmt.Sprintf("Merchant point balance is getting low (%d points).", remaining)
	case model.SeverityUrgent:
		return fmt.Sprintf("Merchant point balance is low (%d points). Consider recharging soon.", remaining)
	case model.SeverityCritical:
		return fmt.Sprintf("Merchant point balance is nearly exhausted (%d points). Recharge now.", remaining)
	case model.SeverityBlocked:
		return "Merchant point balance is exhausted. Recharge required before granting points."
	default:
		return ""
	}
}

// classify fills the derived fields of a balance snapshot.
func classify(balance *model.MerchantBalance) {
	balance.Severity = Classify(balance.RemainingPoints)
	balance.CanGrant = balance.RemainingPoints > 0
	if balance.Advisory == "" {
		balance.Advisory = advisoryFor(balance.Severity, balance.RemainingPoints)
	}
}

// Refresh fetches the balance from the backend and replaces the local
// snapshot. Side-effect-free apart from updating local state and the
// read-through cache.
func (g *Guard) Refresh(ctx context.Context) (*model.MerchantBalance, error) {
	balance, err := g.ledger.MerchantBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh merchant balance: %w", err)
	}

	classify(balance)

	g.mu.Lock()
	g.current = balance
	g.mu.Unlock()

	g.writeThrough(ctx, balance)
	return g.snapshot(), nil
}

// ApplyGrantResult updates the balance from the authoritative value in a
// grant response. Never local arithmetic: points-per-currency rules live
// server-side and may change.
func (g *Guard) ApplyGrantResult(result *model.GrantResult) {
	balance := &model.MerchantBalance{RemainingPoints: result.NewMerchantBalance}
	if result.Advisory != "" {
		balance.Advisory = result.Advisory
	}
	classify(balance)

	g.mu.Lock()
	g.current = balance
	g.mu.Unlock()

	g.writeThrough(context.Background(), balance)
}

// Current returns the last known balance snapshot, or nil before the
// first refresh.
func (g *Guard) Current() *model.MerchantBalance {
	return g.snapshot()
}

// CanGrant reports whether the merchant pool can fund a grant. Unknown
// balance counts as not grantable; grant mode refreshes on activation.
func (g *Guard) CanGrant() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current != nil && g.current.CanGrant
}

// Warm loads the last cached snapshot, if any. Called at startup so the
// terminal has a balance to show before the first backend round trip.
func (g *Guard) Warm(ctx context.Context) {
	if g.cache == nil {
		return
	}

	data, err := g.cache.Get(ctx, cacheKey)
	if err != nil {
		return
	}

	var balance model.MerchantBalance
	if err := json.Unmarshal(data, &balance); err != nil {
		log.Printf("[Guard] discarding corrupt cached balance: %v", err)
		_ = g.cache.Delete(ctx, cacheKey)
		return
	}
	classify(&balance)

	g.mu.Lock()
	if g.current == nil {
		g.current = &balance
	}
	g.mu.Unlock()
}

func (g *Guard) writeThrough(ctx context.Context, balance *model.MerchantBalance) {
	if g.cache == nil {
		return
	}
	data, err := json.Marshal(balance)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, cacheKey, data, g.ttl); err != nil {
		log.Printf("[Guard] balance cache write failed: %v", err)
	}
}

func (g *Guard) snapshot() *model.MerchantBalance {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current == nil {
		return nil
	}
	copied := *g.current
	return &copied
}
