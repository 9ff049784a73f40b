package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuepoint-terminal/internal/model"
)

func newTestTokenService(t *testing.T) (*TokenService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTokenService(client), mr
}

func operatorSession() model.TokenData {
	return model.TokenData{
		MerchantID:   "merch-1",
		TerminalID:   "term-1",
		OperatorName: "Sari",
	}
}

func TestTokenService_GenerateAndValidate(t *testing.T) {
	svc, _ := newTestTokenService(t)
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, operatorSession())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, TokenPrefix))

	data, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "merch-1", data.MerchantID)
	assert.Equal(t, "term-1", data.TerminalID)
	assert.Equal(t, "Sari", data.OperatorName)
	assert.True(t, data.ExpiresAt.After(data.CreatedAt))
}

func TestTokenService_ValidateRejectsBadTokens(t *testing.T) {
	svc, _ := newTestTokenService(t)
	ctx := context.Background()

	_, err := svc.ValidateToken(ctx, "")
	assert.Error(t, err)

	_, err = svc.ValidateToken(ctx, "not-a-session-token")
	assert.Error(t, err, "tokens without the prefix are rejected before touching Redis")

	_, err = svc.ValidateToken(ctx, TokenPrefix+"deadbeef")
	assert.Error(t, err, "unknown tokens do not validate")
}

func TestTokenService_Revoke(t *testing.T) {
	svc, _ := newTestTokenService(t)
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, operatorSession())
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(ctx, token))

	_, err = svc.ValidateToken(ctx, token)
	assert.Error(t, err, "a revoked session is gone immediately")
}

func TestTokenService_ExpiryAndRefresh(t *testing.T) {
	svc, mr := newTestTokenService(t)
	ctx := context.Background()

	token, err := svc.GenerateToken(ctx, operatorSession())
	require.NoError(t, err)

	// Past the shift TTL the session key expires out of Redis.
	mr.FastForward(TokenTTL + time.Minute)
	_, err = svc.ValidateToken(ctx, token)
	assert.Error(t, err)

	// A refreshed session survives the original deadline.
	token, err = svc.GenerateToken(ctx, operatorSession())
	require.NoError(t, err)

	mr.FastForward(TokenTTL / 2)
	require.NoError(t, svc.RefreshToken(ctx, token))

	mr.FastForward(TokenTTL / 2)
	_, err = svc.ValidateToken(ctx, token)
	assert.NoError(t, err)
}
