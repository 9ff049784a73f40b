package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"venuepoint-terminal/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	// TokenPrefix marks operator session tokens.
	TokenPrefix = "vpt_"

	// TokenTTL is the operator session lifetime, sized to one shift.
	TokenTTL = 12 * time.Hour

	// TokenRedisKeyPrefix namespaces session keys in Redis.
	TokenRedisKeyPrefix = "venuepoint:token:"
)

// TokenService manages operator sessions. Sessions live in Redis so a
// terminal restart does not log the operator out mid-shift.
type TokenService struct {
	redis *redis.Client
}

// NewTokenService creates a token service over an existing Redis client.
func NewTokenService(redisClient *redis.Client) *TokenService {
	return &TokenService{redis: redisClient}
}

func sessionKey(token string) string {
	return TokenRedisKeyPrefix + token
}

// GenerateToken opens an operator session and returns its token.
func (s *TokenService) GenerateToken(ctx context.Context, data model.TokenData) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := TokenPrefix + hex.EncodeToString(raw)

	data.CreatedAt = time.Now()
	data.ExpiresAt = data.CreatedAt.Add(TokenTTL)

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to serialize session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(token), payload, TokenTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	log.Printf("[TokenService] session opened terminal=%s operator=%s expires=%v",
		data.TerminalID, data.OperatorName, data.ExpiresAt)
	return token, nil
}

// ValidateToken returns the session behind a token, or an error if the
// session is unknown or expired.
func (s *TokenService) ValidateToken(ctx context.Context, token string) (*model.TokenData, error) {
	if !strings.HasPrefix(token, TokenPrefix) {
		return nil, fmt.Errorf("invalid token format")
	}

	payload, err := s.redis.Get(ctx, sessionKey(token)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("session not found or expired")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var data model.TokenData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if time.Now().After(data.ExpiresAt) {
		s.redis.Del(ctx, sessionKey(token))
		return nil, fmt.Errorf("session expired")
	}
	return &data, nil
}

// RevokeToken ends a session immediately (operator logout).
func (s *TokenService) RevokeToken(ctx context.Context, token string) error {
	return s.redis.Del(ctx, sessionKey(token)).Err()
}

// RefreshToken extends a live session by a full TTL.
func (s *TokenService) RefreshToken(ctx context.Context, token string) error {
	payload, err := s.redis.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		return fmt.Errorf("session not found: %w", err)
	}

	var data model.TokenData
	if err := json.Unmarshal(payload, &data); err != nil {
		return err
	}
	data.ExpiresAt = time.Now().Add(TokenTTL)

	refreshed, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sessionKey(token), refreshed, TokenTTL).Err()
}
