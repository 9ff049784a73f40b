package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"venuepoint-terminal/internal/ledger"
	"venuepoint-terminal/internal/orchestrator"
	"venuepoint-terminal/internal/resolver"
	"venuepoint-terminal/pkg/apierror"
	"venuepoint-terminal/pkg/response"
)

// IdentifyHandler feeds identification input into the resolver.
type IdentifyHandler struct {
	resolver *resolver.Resolver
	orch     *orchestrator.Orchestrator
}

// NewIdentifyHandler creates a new identify handler.
func NewIdentifyHandler(res *resolver.Resolver, orch *orchestrator.Orchestrator) *IdentifyHandler {
	return &IdentifyHandler{resolver: res, orch: orch}
}

// InputRequest is one keystroke update from the UI shell.
type InputRequest struct {
	Kind  string `json:"kind"` // "phone" or "code"
	Value string `json:"value"`
}

func parseKind(raw string) (resolver.Kind, error) {
	switch raw {
	case string(resolver.KindPhone):
		return resolver.KindPhone, nil
	case string(resolver.KindCode):
		return resolver.KindCode, nil
	default:
		return "", errors.New("kind must be 'phone' or 'code'")
	}
}

// Input handles POST /identify/input. The lookup fires only after the
// input has been stable for the quiet interval.
func (h *IdentifyHandler) Input(w http.ResponseWriter, r *http.Request) {
	var req InputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	kind, err := parseKind(req.Kind)
	if err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}

	h.orch.BeginIdentifying()
	h.resolver.SetQuery(kind, req.Value)

	response.OK(w, map[string]string{"status": "pending"})
}

// Retry handles POST /identify/retry - an explicit, immediate resolve.
func (h *IdentifyHandler) Retry(w http.ResponseWriter, r *http.Request) {
	var req InputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	kind, err := parseKind(req.Kind)
	if err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}

	h.orch.BeginIdentifying()
	customer, err := h.resolver.ResolveNow(kind, req.Value)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			response.Error(w, apierror.NotFound("no customer matches that "+req.Kind))
			return
		}
		response.Error(w, apierror.ServiceUnavailable("lookup failed, try again"))
		return
	}

	response.OK(w, customer)
}

// Current handles GET /identify - the currently resolved identity.
func (h *IdentifyHandler) Current(w http.ResponseWriter, r *http.Request) {
	customer := h.resolver.Current()
	if customer == nil {
		response.OK(w, map[string]interface{}{"identified": false})
		return
	}
	response.OK(w, map[string]interface{}{
		"identified": true,
		"customer":   customer,
	})
}

// Clear handles POST /identify/clear - discards the held identity.
func (h *IdentifyHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.resolver.Clear()
	response.OK(w, map[string]string{"status": "cleared"})
}
