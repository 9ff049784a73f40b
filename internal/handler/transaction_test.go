package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuepoint-terminal/internal/ledger"
	"venuepoint-terminal/internal/model"
	"venuepoint-terminal/internal/orchestrator"
)

// stubLedger answers transaction calls with a fixed error or result.
type stubLedger struct {
	grantRes *model.GrantResult
	err      error
}

func (s *stubLedger) GrantPoints(ctx context.Context, req model.GrantRequest) (*model.GrantResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.grantRes, nil
}

func (s *stubLedger) RedeemPoints(ctx context.Context, req model.RedeemRequest) (*model.RedeemResult, error) {
	return nil, s.err
}

func (s *stubLedger) LookupByPhone(ctx context.Context, digits string) (*model.Customer, error) {
	return nil, ledger.ErrNotFound
}

func (s *stubLedger) LookupByCode(ctx context.Context, code string) (*model.Customer, error) {
	return nil, ledger.ErrNotFound
}

func (s *stubLedger) MerchantBalance(ctx context.Context) (*model.MerchantBalance, error) {
	return &model.MerchantBalance{RemainingPoints: 5000}, nil
}

func postJSON(t *testing.T, handlerFn http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handlerFn(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestTransactionHandler_SwitchMode(t *testing.T) {
	h := NewTransactionHandler(orchestrator.New(&stubLedger{}, nil, nil))

	rec := postJSON(t, h.SwitchMode, `{"mode":"redeem"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "redeem", data["mode"])
	assert.Equal(t, "idle", data["state"])

	rec = postJSON(t, h.SwitchMode, `{"mode":"refund"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactionHandler_SetForm_NoCustomer(t *testing.T) {
	h := NewTransactionHandler(orchestrator.New(&stubLedger{}, nil, nil))

	rec := postJSON(t, h.SetForm, `{"amount":"20000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	errObj := body["error"].(map[string]interface{})
	assert.Contains(t, errObj["message"], "no customer")
}

func TestTransactionHandler_SetForm_BadAmount(t *testing.T) {
	orch := orchestrator.New(&stubLedger{}, nil, nil)
	orch.SetCustomer(&model.Customer{ID: "cust-1", PointBalance: 100})
	h := NewTransactionHandler(orch)

	rec := postJSON(t, h.SetForm, `{"amount":"twenty"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
}

func TestTransactionHandler_SetForm_ClampedPointsInSnapshot(t *testing.T) {
	orch := orchestrator.New(&stubLedger{}, nil, nil)
	orch.SwitchMode(model.ModeRedeem)
	orch.SetCustomer(&model.Customer{ID: "cust-1", PointBalance: 150})
	h := NewTransactionHandler(orch)

	rec := postJSON(t, h.SetForm, `{"points":500}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["can_submit"], "the clamped value is submittable")
}

func TestTransactionHandler_Submit_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		backendErr error
		wantStatus int
	}{
		{
			name: "backend rejection is 422",
			backendErr: &ledger.TransactionError{
				Code:    ledger.CodeInsufficientCustomerPoints,
				Message: "balance too low",
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "settlement-unknown failure is 503",
			backendErr: errors.New("connection reset"),
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := orchestrator.New(&stubLedger{err: tt.backendErr}, nil, nil)
			orch.SwitchMode(model.ModeRedeem)
			orch.SetCustomer(&model.Customer{ID: "cust-1", PointBalance: 150})
			_, err := orch.SetPoints(60)
			require.NoError(t, err)

			h := NewTransactionHandler(orch)
			rec := postJSON(t, h.Submit, `{}`)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestTransactionHandler_Submit_RejectionCodeSurfacedVerbatim(t *testing.T) {
	orch := orchestrator.New(&stubLedger{err: &ledger.TransactionError{
		Code:    ledger.CodeInsufficientCustomerPoints,
		Message: "balance too low",
	}}, nil, nil)
	orch.SwitchMode(model.ModeRedeem)
	orch.SetCustomer(&model.Customer{ID: "cust-1", PointBalance: 150})
	_, err := orch.SetPoints(60)
	require.NoError(t, err)

	h := NewTransactionHandler(orch)
	rec := postJSON(t, h.Submit, `{}`)

	body := decodeBody(t, rec)
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, ledger.CodeInsufficientCustomerPoints, errObj["code"])
	assert.Equal(t, "balance too low", errObj["message"])
}

func TestTransactionHandler_Reset(t *testing.T) {
	orch := orchestrator.New(&stubLedger{}, nil, nil)
	orch.SetCustomer(&model.Customer{ID: "cust-1", PointBalance: 100})
	h := NewTransactionHandler(orch)

	rec := postJSON(t, h.Reset, `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "idle", data["state"])
	assert.Nil(t, data["customer"])
}
