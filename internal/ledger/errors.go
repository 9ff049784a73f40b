package ledger

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates an identity lookup matched no customer.
// Non-fatal: the caller clears any stale identity and keeps accepting input.
var ErrNotFound = errors.New("customer not found")

// Rejection codes reported by the backend for grant/redeem requests.
const (
	CodeInsufficientMerchantBalance = "insufficient_merchant_balance"
	CodeInsufficientCustomerPoints  = "insufficient_customer_points"
	CodeCustomerNotFound            = "customer_not_found"
	CodeValidationError             = "validation_error"
)

// TransactionError is a grant/redeem rejection by the backend. The message
// is surfaced to the operator verbatim.
type TransactionError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsTransactionError returns the typed rejection if err carries one.
func IsTransactionError(err error) (*TransactionError, bool) {
	var te *TransactionError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
