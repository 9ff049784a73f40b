package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"venuepoint-terminal/internal/model"
	"venuepoint-terminal/internal/service"
	"venuepoint-terminal/pkg/apierror"
	"venuepoint-terminal/pkg/response"
)

// AuthHandler handles operator session requests.
type AuthHandler struct {
	tokenService *service.TokenService
	merchantID   string
	terminalID   string
	terminalKey  string
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(tokenService *service.TokenService, merchantID, terminalID, terminalKey string) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
		merchantID:   merchantID,
		terminalID:   terminalID,
		terminalKey:  terminalKey,
	}
}

// TokenRequest represents the request body for operator login.
type TokenRequest struct {
	TerminalKey string `json:"terminal_key"`
	Operator    string `json:"operator"`
}

// TokenResponse represents the response for operator login.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// GenerateToken handles POST /auth/token
func (h *AuthHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.TerminalKey == "" {
		response.Error(w, apierror.BadRequest("terminal_key is required"))
		return
	}
	if req.Operator == "" {
		response.Error(w, apierror.BadRequest("operator is required"))
		return
	}

	if h.terminalKey == "" ||
		subtle.ConstantTimeCompare([]byte(req.TerminalKey), []byte(h.terminalKey)) != 1 {
		response.Error(w, apierror.Unauthorized("invalid terminal key"))
		return
	}

	tokenData := model.TokenData{
		MerchantID:   h.merchantID,
		TerminalID:   h.terminalID,
		OperatorName: req.Operator,
	}

	token, err := h.tokenService.GenerateToken(r.Context(), tokenData)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to generate token"))
		return
	}

	response.OK(w, TokenResponse{
		Token:     token,
		ExpiresIn: int(service.TokenTTL.Seconds()),
	})
}

// RevokeToken handles POST /auth/revoke
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RevokeToken(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to revoke token"))
		return
	}

	response.OK(w, map[string]string{"status": "revoked"})
}

// RefreshToken handles POST /auth/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RefreshToken(r.Context(), token); err != nil {
		response.Error(w, apierror.Unauthorized(err.Error()))
		return
	}

	response.OK(w, map[string]interface{}{
		"status":     "refreshed",
		"expires_in": int(service.TokenTTL.Seconds()),
	})
}
