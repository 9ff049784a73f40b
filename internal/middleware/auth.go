package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"venuepoint-terminal/internal/model"
	"venuepoint-terminal/internal/service"
	"venuepoint-terminal/pkg/apierror"
)

// TokenDataKey is the key for storing operator session data in request context.
const TokenDataKey contextKey = "token_data"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// TokenService validates operator session tokens. May be nil when
	// Redis is unavailable; the terminal key is then the only credential.
	TokenService *service.TokenService

	// TerminalKey is the static key provisioned to this terminal.
	TerminalKey string
}

// NewAuthMiddleware creates an authentication middleware with injected
// dependencies. No global state: everything is carried by the closure.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Health probes and login are reachable without a session.
			switch r.URL.Path {
			case "/api/v1/health", "/api/v1/ready":
				next.ServeHTTP(w, r)
				return
			}
			if r.URL.Path == "/api/v1/auth/token" && r.Method == http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			// Operator session token first.
			token := r.Header.Get("X-Token")
			if token != "" && cfg.TokenService != nil {
				tokenData, err := cfg.TokenService.ValidateToken(r.Context(), token)
				if err != nil {
					writeError(w, apierror.Unauthorized("Invalid or expired token"))
					return
				}

				ctx := context.WithValue(r.Context(), TokenDataKey, tokenData)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// Fall back to the terminal key.
			key := r.Header.Get("X-Terminal-Key")
			if key == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					key = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if key == "" {
				writeError(w, apierror.Unauthorized("Authentication required. Use X-Token or X-Terminal-Key header."))
				return
			}

			if cfg.TerminalKey == "" ||
				subtle.ConstantTimeCompare([]byte(key), []byte(cfg.TerminalKey)) != 1 {
				writeError(w, apierror.Unauthorized("Invalid terminal key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}

// GetTokenDataFromContext retrieves operator session data from request context.
func GetTokenDataFromContext(ctx context.Context) *model.TokenData {
	if data, ok := ctx.Value(TokenDataKey).(*model.TokenData); ok {
		return data
	}
	return nil
}
