package resolver

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"venuepoint-terminal/internal/ledger"
	"venuepoint-terminal/internal/model"
)

// Kind selects how a query is normalized and which backend lookup it uses.
type Kind string

const (
	KindPhone Kind = "phone"
	KindCode  Kind = "code"
)

// ChangeFunc is invoked whenever the resolved identity changes. A nil
// customer means the identity was cleared (not found, or superseded input
// too short to resolve).
type ChangeFunc func(customer *model.Customer)

// Resolver turns phone/code input into a customer record. Keystroke input
// is debounced; each issued lookup is stamped with a monotonic sequence so
// a stale response can never overwrite a newer one, regardless of arrival
// order.
type Resolver struct {
	ledger  ledger.Ledger
	quiet   time.Duration
	minLen  int
	timeout time.Duration

	seq atomic.Int64 // issue-order stamp, last write wins

	mu       sync.Mutex
	current  *model.Customer
	timer    *time.Timer        // pending debounce fire
	cancel   context.CancelFunc // cancels the superseded in-flight lookup
	latest   int64              // seq of the lookup allowed to apply
	onChange ChangeFunc
}

// Config holds resolver settings.
type Config struct {
	QuietInterval  time.Duration // input must be stable this long before a lookup fires
	MinQueryLength int           // minimum normalized length before resolving
	LookupTimeout  time.Duration
}

// New creates a resolver over the given backend.
func New(backend ledger.Ledger, cfg Config) *Resolver {
	if cfg.QuietInterval == 0 {
		cfg.QuietInterval = 500 * time.Millisecond
	}
	if cfg.MinQueryLength == 0 {
		cfg.MinQueryLength = 10
	}
	if cfg.LookupTimeout == 0 {
		cfg.LookupTimeout = 10 * time.Second
	}
	return &Resolver{
		ledger:  backend,
		quiet:   cfg.QuietInterval,
		minLen:  cfg.MinQueryLength,
		timeout: cfg.LookupTimeout,
	}
}

// OnChange registers the identity change callback.
func (r *Resolver) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Normalize applies the per-kind input normalization: phone queries keep
// digits only, code queries are trimmed and upper-cased.
func Normalize(kind Kind, raw string) string {
	switch kind {
	case KindPhone:
		var b strings.Builder
		for _, c := range raw {
			if unicode.IsDigit(c) {
				b.WriteRune(c)
			}
		}
		return b.String()
	default:
		return strings.ToUpper(strings.TrimSpace(raw))
	}
}

// SetQuery feeds one keystroke update. A lookup fires only once the input
// has been stable for the quiet interval and the normalized query meets
// the minimum length. Each new call resets the pending timer.
func (r *Resolver) SetQuery(kind Kind, raw string) {
	query := Normalize(kind, raw)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}

	if len(query) < r.minLen {
		return
	}

	r.timer = time.AfterFunc(r.quiet, func() {
		r.resolve(kind, query)
	})
}

// ResolveNow resolves immediately, bypassing the debounce. Used for
// explicit retry and for identifiers produced by a scan decode.
func (r *Resolver) ResolveNow(kind Kind, raw string) (*model.Customer, error) {
	query := Normalize(kind, raw)
	if len(query) < r.minLen {
		return nil, ledger.ErrNotFound
	}

	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.mu.Unlock()

	return r.resolve(kind, query)
}

// Current returns the currently resolved identity, or nil.
func (r *Resolver) Current() *model.Customer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Clear discards the resolved identity and any pending lookup.
func (r *Resolver) Clear() {
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.latest = r.seq.Add(1) // invalidate anything still in flight
	r.setIdentityLocked(nil)
	r.mu.Unlock()
}

// resolve issues one lookup stamped with the next sequence number. The
// response is applied only if no newer lookup was issued meanwhile.
func (r *Resolver) resolve(kind Kind, query string) (*model.Customer, error) {
	seq := r.seq.Add(1)

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	r.mu.Lock()
	if seq < r.latest {
		// Superseded before this lookup was even issued.
		r.mu.Unlock()
		return nil, context.Canceled
	}
	if r.cancel != nil {
		r.cancel() // supersede the in-flight lookup
	}
	r.cancel = cancel
	r.latest = seq
	r.mu.Unlock()

	var (
		customer *model.Customer
		err      error
	)
	switch kind {
	case KindPhone:
		customer, err = r.ledger.LookupByPhone(ctx, query)
	default:
		customer, err = r.ledger.LookupByCode(ctx, query)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if seq != r.latest {
		// A newer query was issued while this one was in flight.
		return nil, context.Canceled
	}
	r.cancel = nil

	if err != nil {
		// Network failures behave like a transient not-found: the stale
		// identity is cleared and typing again retries implicitly.
		if !errors.Is(err, ledger.ErrNotFound) && !errors.Is(err, context.Canceled) {
			log.Printf("[Resolver] lookup failed (kind=%s): %v", kind, err)
		}
		r.setIdentityLocked(nil)
		return nil, err
	}

	r.setIdentityLocked(customer)
	return customer, nil
}

// setIdentityLocked replaces the identity atomically and notifies the
// observer. Caller holds r.mu.
func (r *Resolver) setIdentityLocked(customer *model.Customer) {
	r.current = customer
	if r.onChange != nil {
		fn := r.onChange
		// Callback runs outside the lock to keep observers free to call back in.
		r.mu.Unlock()
		fn(customer)
		r.mu.Lock()
	}
}
