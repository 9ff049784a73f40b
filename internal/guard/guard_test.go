package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuepoint-terminal/internal/cache"
	"venuepoint-terminal/internal/model"
)

type fakeLedger struct {
	balance *model.MerchantBalance
	err     error
	calls   int
}

func (f *fakeLedger) MerchantBalance(ctx context.Context) (*model.MerchantBalance, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	copied := *f.balance
	return &copied, nil
}

func (f *fakeLedger) LookupByPhone(ctx context.Context, digits string) (*model.Customer, error) {
	panic("not used")
}

func (f *fakeLedger) LookupByCode(ctx context.Context, code string) (*model.Customer, error) {
	panic("not used")
}

func (f *fakeLedger) GrantPoints(ctx context.Context, req model.GrantRequest) (*model.GrantResult, error) {
	panic("not used")
}

func (f *fakeLedger) RedeemPoints(ctx context.Context, req model.RedeemRequest) (*model.RedeemResult, error) {
	panic("not used")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		remaining int64
		want      model.Severity
	}{
		{12000, model.SeverityNormal},
		{5000, model.SeverityNormal},
		{4999, model.SeverityInfo},
		{2000, model.SeverityInfo},
		{1999, model.SeverityWarning},
		{1000, model.SeverityWarning},
		{999, model.SeverityUrgent},
		{500, model.SeverityUrgent},
		{499, model.SeverityCritical},
		{1, model.SeverityCritical},
		{0, model.SeverityBlocked},
		{-10, model.SeverityBlocked},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.remaining), "remaining=%d", tt.remaining)
	}
}

func TestRefresh_ClassifiesAndCaches(t *testing.T) {
	backend := &fakeLedger{balance: &model.MerchantBalance{RemainingPoints: 750}}
	store := cache.NewMemoryCache()
	g := New(backend, store, time.Hour)

	balance, err := g.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(750), balance.RemainingPoints)
	assert.Equal(t, model.SeverityUrgent, balance.Severity)
	assert.True(t, balance.CanGrant)
	assert.NotEmpty(t, balance.Advisory)

	data, err := store.Get(context.Background(), "merchant_balance")
	require.NoError(t, err, "refresh writes through to the cache")
	assert.Contains(t, string(data), "750")
}

func TestRefresh_BackendErrorKeepsSnapshot(t *testing.T) {
	backend := &fakeLedger{balance: &model.MerchantBalance{RemainingPoints: 3000}}
	g := New(backend, nil, 0)

	_, err := g.Refresh(context.Background())
	require.NoError(t, err)

	backend.err = errors.New("backend unreachable")
	_, err = g.Refresh(context.Background())
	require.Error(t, err)

	current := g.Current()
	require.NotNil(t, current, "a failed refresh does not wipe the last snapshot")
	assert.Equal(t, int64(3000), current.RemainingPoints)
}

func TestApplyGrantResult_AuthoritativeValueOnly(t *testing.T) {
	backend := &fakeLedger{balance: &model.MerchantBalance{RemainingPoints: 5000}}
	g := New(backend, nil, 0)

	_, err := g.Refresh(context.Background())
	require.NoError(t, err)

	g.ApplyGrantResult(&model.GrantResult{
		PointsGranted:      120,
		NewMerchantBalance: 350,
	})

	current := g.Current()
	require.NotNil(t, current)
	assert.Equal(t, int64(350), current.RemainingPoints, "grant result balance is taken verbatim, no local subtraction")
	assert.Equal(t, model.SeverityCritical, current.Severity)
	assert.Equal(t, 1, backend.calls, "applying a grant result never re-fetches")
}

func TestCanGrant(t *testing.T) {
	backend := &fakeLedger{balance: &model.MerchantBalance{RemainingPoints: 1}}
	g := New(backend, nil, 0)

	assert.False(t, g.CanGrant(), "unknown balance is not grantable")

	_, err := g.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, g.CanGrant(), "any positive remainder can fund a grant")

	backend.balance.RemainingPoints = 0
	_, err = g.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, g.CanGrant())

	current := g.Current()
	assert.Equal(t, model.SeverityBlocked, current.Severity)
	assert.Contains(t, current.Advisory, "Recharge required")
}

func TestWarm_LoadsCachedSnapshot(t *testing.T) {
	store := cache.NewMemoryCache()
	backend := &fakeLedger{balance: &model.MerchantBalance{RemainingPoints: 2500}}

	first := New(backend, store, time.Hour)
	_, err := first.Refresh(context.Background())
	require.NoError(t, err)

	// A fresh guard over the same store, as after a terminal restart.
	second := New(backend, store, time.Hour)
	second.Warm(context.Background())

	current := second.Current()
	require.NotNil(t, current, "warm restores the last known balance")
	assert.Equal(t, int64(2500), current.RemainingPoints)
	assert.Equal(t, model.SeverityInfo, current.Severity)
	assert.Equal(t, 1, backend.calls, "warming never touches the backend")
}

func TestWarm_NoCacheIsNoop(t *testing.T) {
	g := New(&fakeLedger{}, nil, 0)
	g.Warm(context.Background())
	assert.Nil(t, g.Current())
}
