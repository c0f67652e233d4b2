package models

// PaymentInit is the authorization handle returned by the gateway for a
// specific amount and payer. The access code drives the client-side popup;
// the reference is what we verify against later.
type PaymentInit struct {
	AccessCode string `json:"access_code"`
	Reference  string `json:"reference"`
}

// PaymentVerification is the gateway's answer for a charge: whether it went
// through and the amount actually charged, in major currency units.
type PaymentVerification struct {
	Paid   bool    `json:"paid"`
	Amount float64 `json:"amount"`
}

type VerifyPaymentRequest struct {
	BookingID string `json:"booking_id"`
	Reference string `json:"reference"`
	// Closed is set when the payer dismissed the payment window instead of
	// completing the charge. Surfaced as a distinct message, not retried.
	Closed bool `json:"closed,omitempty"`
}
