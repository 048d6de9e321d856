package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopmesh/storefront/pkg/money"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	// PaymentStatusFailedPostCapture marks a payment whose charge succeeded
	// but whose fulfillment could not be committed. Requires a manual refund
	// or an operator-driven retry.
	PaymentStatusFailedPostCapture PaymentStatus = "failed_post_capture"
)

// Payment is created once per completed checkout and is immutable except for
// status transitions driven by later gateway events.
type Payment struct {
	ID            uuid.UUID     `json:"id"`
	Email         string        `json:"email"`
	AmountTotal   money.Money   `json:"amount_total"`
	Status        PaymentStatus `json:"status"`
	Method        string        `json:"method"`
	TransactionID string        `json:"transaction_id"`
	CustomerID    string        `json:"customer_id"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
