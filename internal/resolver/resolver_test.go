package resolver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuepoint-terminal/internal/ledger"
	"venuepoint-terminal/internal/model"
)

// fakeLedger records lookups and serves canned customers. A per-query
// delay lets tests stage out-of-order responses.
type fakeLedger struct {
	mu         sync.Mutex
	phoneCalls []string
	codeCalls  []string
	customers  map[string]*model.Customer
	delays     map[string]time.Duration
	err        error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		customers: make(map[string]*model.Customer),
		delays:    make(map[string]time.Duration),
	}
}

func (f *fakeLedger) lookup(query string) (*model.Customer, error) {
	f.mu.Lock()
	delay := f.delays[query]
	err := f.err
	customer := f.customers[query]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ledger.ErrNotFound
	}
	return customer, nil
}

func (f *fakeLedger) LookupByPhone(ctx context.Context, digits string) (*model.Customer, error) {
	f.mu.Lock()
	f.phoneCalls = append(f.phoneCalls, digits)
	f.mu.Unlock()
	return f.lookup(digits)
}

func (f *fakeLedger) LookupByCode(ctx context.Context, code string) (*model.Customer, error) {
	f.mu.Lock()
	f.codeCalls = append(f.codeCalls, code)
	f.mu.Unlock()
	return f.lookup(code)
}

func (f *fakeLedger) GrantPoints(ctx context.Context, req model.GrantRequest) (*model.GrantResult, error) {
	panic("not used")
}

func (f *fakeLedger) RedeemPoints(ctx context.Context, req model.RedeemRequest) (*model.RedeemResult, error) {
	panic("not used")
}

func (f *fakeLedger) MerchantBalance(ctx context.Context) (*model.MerchantBalance, error) {
	panic("not used")
}

func (f *fakeLedger) phoneCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.phoneCalls)
}

func newTestResolver(backend ledger.Ledger) *Resolver {
	return New(backend, Config{
		QuietInterval:  30 * time.Millisecond,
		MinQueryLength: 10,
		LookupTimeout:  time.Second,
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		raw  string
		want string
	}{
		{"phone strips formatting", KindPhone, "(081) 234-5678", "0812345678"},
		{"phone strips letters", KindPhone, "081a234b5678", "0812345678"},
		{"code upper-cases", KindCode, "  vp-cust-01  ", "VP-CUST-01"},
		{"code keeps digits", KindCode, "1234567890", "1234567890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.kind, tt.raw))
		})
	}
}

func TestSetQuery_DebounceCoalescing(t *testing.T) {
	backend := newFakeLedger()
	backend.customers["0812345678"] = &model.Customer{ID: "c1", Phone: "0812345678"}
	r := newTestResolver(backend)

	// Keystrokes faster than the quiet interval: only the final stable
	// value may produce a lookup.
	r.SetQuery(KindPhone, "081234567")
	time.Sleep(5 * time.Millisecond)
	r.SetQuery(KindPhone, "08123456781")
	time.Sleep(5 * time.Millisecond)
	r.SetQuery(KindPhone, "0812345678")

	time.Sleep(100 * time.Millisecond)

	require.Equal(t, 1, backend.phoneCallCount(), "bursts must coalesce into one lookup")
	assert.Equal(t, "0812345678", backend.phoneCalls[0])

	got := r.Current()
	require.NotNil(t, got)
	assert.Equal(t, "c1", got.ID)
}

func TestSetQuery_BelowMinimumLength(t *testing.T) {
	backend := newFakeLedger()
	r := newTestResolver(backend)

	r.SetQuery(KindPhone, "0812")
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, 0, backend.phoneCallCount(), "short queries must not resolve")
	assert.Nil(t, r.Current())
}

func TestSetQuery_ShortInputCancelsPending(t *testing.T) {
	backend := newFakeLedger()
	backend.customers["0812345678"] = &model.Customer{ID: "c1"}
	r := newTestResolver(backend)

	r.SetQuery(KindPhone, "0812345678")
	// Deleting characters below the minimum before the quiet interval
	// elapses cancels the pending lookup.
	time.Sleep(5 * time.Millisecond)
	r.SetQuery(KindPhone, "0812")

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, backend.phoneCallCount())
}

func TestResolveNow_StaleResponseRejected(t *testing.T) {
	backend := newFakeLedger()
	backend.customers["1111111111"] = &model.Customer{ID: "stale"}
	backend.customers["2222222222"] = &model.Customer{ID: "fresh"}
	backend.delays["1111111111"] = 80 * time.Millisecond
	r := newTestResolver(backend)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// Query A: slow response.
		_, _ = r.ResolveNow(KindPhone, "1111111111")
	}()

	time.Sleep(20 * time.Millisecond)
	// Query B issued while A is in flight; B's response arrives first.
	fresh, err := r.ResolveNow(KindPhone, "2222222222")
	require.NoError(t, err)
	require.Equal(t, "fresh", fresh.ID)

	wg.Wait()

	// A's late response must not overwrite B's identity.
	got := r.Current()
	require.NotNil(t, got)
	assert.Equal(t, "fresh", got.ID)
}

func TestResolveNow_NotFoundClearsIdentity(t *testing.T) {
	backend := newFakeLedger()
	backend.customers["0812345678"] = &model.Customer{ID: "c1"}
	r := newTestResolver(backend)

	_, err := r.ResolveNow(KindPhone, "0812345678")
	require.NoError(t, err)
	require.NotNil(t, r.Current())

	_, err = r.ResolveNow(KindPhone, "0999999999")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.Nil(t, r.Current(), "not-found must clear the stale identity")
}

func TestResolveNow_NetworkErrorClearsIdentity(t *testing.T) {
	backend := newFakeLedger()
	backend.customers["0812345678"] = &model.Customer{ID: "c1"}
	r := newTestResolver(backend)

	_, err := r.ResolveNow(KindPhone, "0812345678")
	require.NoError(t, err)

	backend.mu.Lock()
	backend.err = context.DeadlineExceeded
	backend.mu.Unlock()

	_, err = r.ResolveNow(KindPhone, "0812345678")
	assert.Error(t, err)
	assert.Nil(t, r.Current(), "transient failures behave like not-found")
}

func TestOnChange_ObserverNotified(t *testing.T) {
	backend := newFakeLedger()
	backend.customers["0812345678"] = &model.Customer{ID: "c1"}
	r := newTestResolver(backend)

	var mu sync.Mutex
	var seen []*model.Customer
	r.OnChange(func(c *model.Customer) {
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
	})

	_, err := r.ResolveNow(KindPhone, "0812345678")
	require.NoError(t, err)
	r.Clear()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.Equal(t, "c1", seen[0].ID)
	assert.Nil(t, seen[1], "clear notifies with nil")
}
