package model

import "time"

// TokenData contains the data stored with an operator session token.
type TokenData struct {
	MerchantID   string    `json:"merchant_id"`
	TerminalID   string    `json:"terminal_id"`
	OperatorName string    `json:"operator_name"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}
