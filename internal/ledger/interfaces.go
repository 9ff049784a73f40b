package ledger

import (
	"context"

	"venuepoint-terminal/internal/model"
)

// Ledger defines the operations the terminal performs against the remote
// loyalty backend. Components depend on this interface so the backend can
// be faked in tests.
type Ledger interface {
	// LookupByPhone resolves a customer from normalized phone digits.
	// Returns ErrNotFound if no customer matches.
	LookupByPhone(ctx context.Context, digits string) (*model.Customer, error)

	// LookupByCode resolves a customer from a scanned or manually entered code.
	// Returns ErrNotFound if no customer matches.
	LookupByCode(ctx context.Context, code string) (*model.Customer, error)

	// GrantPoints awards points for a purchase, drawing from the merchant's
	// prepaid pool. Server rejections come back as *TransactionError.
	GrantPoints(ctx context.Context, req model.GrantRequest) (*model.GrantResult, error)

	// RedeemPoints spends customer points as a discount. Server rejections
	// come back as *TransactionError.
	RedeemPoints(ctx context.Context, req model.RedeemRequest) (*model.RedeemResult, error)

	// MerchantBalance fetches the merchant's remaining prepaid points.
	MerchantBalance(ctx context.Context) (*model.MerchantBalance, error)
}

// CredentialSource supplies the backend credential for each call. The
// credential lifecycle is owned by the caller's auth collaborator; the
// client never stores ambient session state of its own.
type CredentialSource interface {
	Credential(ctx context.Context) (string, error)
}

// StaticCredential is a CredentialSource backed by a fixed merchant API key.
type StaticCredential string

// Credential returns the fixed key.
func (s StaticCredential) Credential(ctx context.Context) (string, error) {
	return string(s), nil
}
