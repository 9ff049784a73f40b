package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"venuepoint-terminal/internal/ledger"
	"venuepoint-terminal/internal/model"
	"venuepoint-terminal/internal/orchestrator"
	"venuepoint-terminal/pkg/apierror"
	"venuepoint-terminal/pkg/response"
)

// TransactionHandler exposes the transaction orchestrator. The submit
// affordance state (CanSubmit) is part of every snapshot so the UI can
// disable resubmission while a request is in flight.
type TransactionHandler struct {
	orch *orchestrator.Orchestrator
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(orch *orchestrator.Orchestrator) *TransactionHandler {
	return &TransactionHandler{orch: orch}
}

// ModeRequest selects the active mode.
type ModeRequest struct {
	Mode string `json:"mode"` // "grant" or "redeem"
}

// FormRequest carries pending request fields. Amount applies to grant
// mode, points to redeem mode; the two never coexist.
type FormRequest struct {
	Amount *string `json:"amount,omitempty"`
	Points *int    `json:"points,omitempty"`
	Note   *string `json:"note,omitempty"`
}

// snapshot is the orchestrator state surfaced to the UI.
type snapshot struct {
	State     orchestrator.State   `json:"state"`
	Mode      model.Mode           `json:"mode"`
	Customer  *model.Customer      `json:"customer,omitempty"`
	CanSubmit bool                 `json:"can_submit"`
	Advisory  string               `json:"advisory,omitempty"`
	Result    *orchestrator.Result `json:"result,omitempty"`
}

func (h *TransactionHandler) snapshot() snapshot {
	canSubmit, advisory := h.orch.CanSubmit()
	return snapshot{
		State:     h.orch.State(),
		Mode:      h.orch.Mode(),
		Customer:  h.orch.Customer(),
		CanSubmit: canSubmit,
		Advisory:  advisory,
		Result:    h.orch.LastResult(),
	}
}

// Current handles GET /transaction - the orchestrator snapshot.
func (h *TransactionHandler) Current(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.snapshot())
}

// SwitchMode handles POST /transaction/mode. Switching clears all partial
// request state.
func (h *TransactionHandler) SwitchMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	switch model.Mode(req.Mode) {
	case model.ModeGrant, model.ModeRedeem:
	default:
		response.Error(w, apierror.BadRequest("mode must be 'grant' or 'redeem'"))
		return
	}

	h.orch.SwitchMode(model.Mode(req.Mode))
	response.OK(w, h.snapshot())
}

// SetForm handles POST /transaction/form. Points are clamped to the
// customer's balance; the clamped value comes back in the snapshot.
func (h *TransactionHandler) SetForm(w http.ResponseWriter, r *http.Request) {
	var req FormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			response.Error(w, apierror.ValidationError("invalid amount",
				apierror.FieldError{Field: "amount", Message: "must be a decimal number"}))
			return
		}
		if err := h.orch.SetAmount(amount); err != nil {
			response.Error(w, mapOrchestratorError(err))
			return
		}
	}

	if req.Points != nil {
		if _, err := h.orch.SetPoints(*req.Points); err != nil {
			response.Error(w, mapOrchestratorError(err))
			return
		}
	}

	if req.Note != nil {
		if err := h.orch.SetNote(*req.Note); err != nil {
			response.Error(w, mapOrchestratorError(err))
			return
		}
	}

	response.OK(w, h.snapshot())
}

// Submit handles POST /transaction/submit.
func (h *TransactionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	result, err := h.orch.Submit(r.Context())
	if err != nil {
		response.Error(w, mapOrchestratorError(err))
		return
	}
	response.OK(w, result)
}

// Reset handles POST /transaction/reset - begin a new transaction.
func (h *TransactionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.orch.Reset()
	response.OK(w, h.snapshot())
}

// mapOrchestratorError translates orchestrator and backend errors into
// API errors. Precondition violations never reached the network; server
// rejections are surfaced verbatim.
func mapOrchestratorError(err error) *apierror.Error {
	switch {
	case errors.Is(err, orchestrator.ErrSubmissionInFlight):
		return apierror.Conflict(err.Error())
	case errors.Is(err, orchestrator.ErrRechargeRequired):
		return apierror.PreconditionFailed(err.Error())
	case errors.Is(err, orchestrator.ErrInsufficientCustomerPoints):
		return apierror.PreconditionFailed(err.Error())
	case errors.Is(err, orchestrator.ErrNoCustomer),
		errors.Is(err, orchestrator.ErrWrongMode),
		errors.Is(err, orchestrator.ErrInvalidAmount),
		errors.Is(err, orchestrator.ErrInvalidPoints):
		return apierror.BadRequest(err.Error())
	}

	if te, ok := ledger.IsTransactionError(err); ok {
		return apierror.UnprocessableEntity(te.Code, te.Message)
	}

	return apierror.ServiceUnavailable("transaction could not be settled, check the journal before retrying")
}
