package models

import (
	"time"

	"github.com/google/uuid"
)

type DeliveryStatus string

const (
	DeliveryStatusPending    DeliveryStatus = "pending"
	DeliveryStatusProcessing DeliveryStatus = "processing"
	DeliveryStatusShipped    DeliveryStatus = "shipped"
	DeliveryStatusInTransit  DeliveryStatus = "in_transit"
	DeliveryStatusDelivered  DeliveryStatus = "delivered"
	DeliveryStatusReturned   DeliveryStatus = "returned"
	DeliveryStatusFailed     DeliveryStatus = "failed"
)

func (s DeliveryStatus) IsTerminal() bool {
	switch s {
	case DeliveryStatusDelivered, DeliveryStatusReturned, DeliveryStatusFailed:
		return true
	}

	return false
}

// CanTransitionTo enforces the closed delivery state set:
// pending -> processing -> shipped -> in_transit -> delivered, with returned
// and failed reachable from any non-terminal state.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	if s.IsTerminal() {
		return false
	}

	switch next {
	case DeliveryStatusReturned, DeliveryStatusFailed:
		return true
	}

	forward := map[DeliveryStatus]DeliveryStatus{
		DeliveryStatusPending:    DeliveryStatusProcessing,
		DeliveryStatusProcessing: DeliveryStatusShipped,
		DeliveryStatusShipped:    DeliveryStatusInTransit,
		DeliveryStatusInTransit:  DeliveryStatusDelivered,
	}

	return forward[s] == next
}

// Delivery carries an address snapshot copied field by field from the
// shipping profile at scheduling time, never a live reference to the
// shopper's profile.
type Delivery struct {
	ID                    uuid.UUID       `json:"id"`
	OrderID               uuid.UUID       `json:"order_id"`
	Status                DeliveryStatus  `json:"status"`
	RecipientName         string          `json:"recipient_name"`
	Address               ShippingAddress `json:"address"`
	EstimatedDeliveryDate time.Time       `json:"estimated_delivery_date"`
	ActualDeliveryDate    *time.Time      `json:"actual_delivery_date,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

type UpdateDeliveryStatusRequest struct {
	Status DeliveryStatus `json:"status" validate:"required,oneof=pending processing shipped in_transit delivered returned failed"`
}
