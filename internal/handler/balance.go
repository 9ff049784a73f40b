package handler

import (
	"net/http"

	"venuepoint-terminal/internal/guard"
	"venuepoint-terminal/pkg/apierror"
	"venuepoint-terminal/pkg/response"
)

// BalanceHandler exposes the merchant balance guard.
type BalanceHandler struct {
	guard *guard.Guard
}

// NewBalanceHandler creates a new balance handler.
func NewBalanceHandler(g *guard.Guard) *BalanceHandler {
	return &BalanceHandler{guard: g}
}

// Current handles GET /balance - the last known merchant balance.
func (h *BalanceHandler) Current(w http.ResponseWriter, r *http.Request) {
	balance := h.guard.Current()
	if balance == nil {
		response.Error(w, apierror.NotFound("merchant balance not yet fetched"))
		return
	}
	response.OK(w, balance)
}

// Refresh handles POST /balance/refresh - fetches the authoritative
// balance from the backend. Called when grant mode is activated and on
// demand.
func (h *BalanceHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	balance, err := h.guard.Refresh(r.Context())
	if err != nil {
		response.Error(w, apierror.ServiceUnavailable("could not refresh merchant balance"))
		return
	}
	response.OK(w, balance)
}
