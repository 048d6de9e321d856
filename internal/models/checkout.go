package models

// Metadata keys round-tripped through the payment gateway's checkout
// session. The values come back verbatim on the completion event.
const (
	MetadataCartID  = "cart_id"
	MetadataUserID  = "user_id"
	MetadataProfile = "profile"
)

type CheckoutSessionResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}
