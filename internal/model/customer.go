package model

// Customer is the identity record resolved for the current transaction
// attempt. It is ephemeral: fetched fresh per identification, replaced
// atomically by the next successful resolve, and never cached beyond the
// attempt it belongs to.
type Customer struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	Phone        string `json:"phone"`
	PointBalance int    `json:"point_balance"`
	QRCode       string `json:"qr_code,omitempty"`
}
