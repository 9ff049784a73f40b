package model

import "github.com/shopspring/decimal"

// Mode selects which side of the loyalty ledger a transaction draws from:
// grant consumes the merchant's prepaid pool, redeem consumes the
// customer's accumulated points.
type Mode string

const (
	ModeGrant  Mode = "grant"
	ModeRedeem Mode = "redeem"
)

// GrantRequest awards loyalty points for a purchase.
type GrantRequest struct {
	CustomerPhone  string          `json:"customer_phone"`
	PurchaseAmount decimal.Decimal `json:"purchase_amount"`
	Note           string          `json:"note,omitempty"`
}

// RedeemRequest spends a customer's points as a monetary discount
// (1 point = 1 currency unit).
type RedeemRequest struct {
	CustomerID string `json:"customer_id"`
	Points     int    `json:"points"`
	Note       string `json:"note,omitempty"`
}

// GrantResult is the authoritative outcome of a grant. NewMerchantBalance
// is the only value allowed to update the local merchant balance.
type GrantResult struct {
	PointsGranted      int    `json:"points_granted"`
	NewCustomerBalance int    `json:"new_customer_balance"`
	NewMerchantBalance int64  `json:"new_merchant_balance"`
	Advisory           string `json:"advisory,omitempty"`
}

// RedeemResult is the authoritative outcome of a redemption.
type RedeemResult struct {
	PointsRedeemed     int             `json:"points_redeemed"`
	DiscountValue      decimal.Decimal `json:"discount_value"`
	NewCustomerBalance int             `json:"new_customer_balance"`
	Advisory           string          `json:"advisory,omitempty"`
}
