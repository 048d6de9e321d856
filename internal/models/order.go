package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopmesh/storefront/pkg/money"
)

type OrderStatus string

const (
	OrderStatusCreated            OrderStatus = "created"
	OrderStatusProcessing         OrderStatus = "processing"
	OrderStatusConfirmed          OrderStatus = "confirmed"
	OrderStatusShipped            OrderStatus = "shipped"
	OrderStatusDelivered          OrderStatus = "delivered"
	OrderStatusCancelled          OrderStatus = "cancelled"
	OrderStatusRefunded           OrderStatus = "refunded"
	OrderStatusOnHold             OrderStatus = "on_hold"
	OrderStatusPartiallyCommitted OrderStatus = "partially_committed"
)

func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}

	return false
}

// CanTransitionTo enforces the closed order state set. The forward chain is
// created -> processing -> confirmed -> shipped -> delivered; cancelled,
// refunded and on_hold are reachable from any non-terminal state. All
// transitions after creation are admin-driven.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}

	switch next {
	case OrderStatusCancelled, OrderStatusRefunded, OrderStatusOnHold:
		return true
	}

	forward := map[OrderStatus]OrderStatus{
		OrderStatusCreated:    OrderStatusProcessing,
		OrderStatusProcessing: OrderStatusConfirmed,
		OrderStatusConfirmed:  OrderStatusShipped,
		OrderStatusShipped:    OrderStatusDelivered,
		OrderStatusOnHold:     OrderStatusProcessing,
		// an operator resumes a partially committed order into processing
		// once the inventory discrepancy is resolved
		OrderStatusPartiallyCommitted: OrderStatusProcessing,
	}

	return forward[s] == next
}

// OrderItem is an immutable snapshot of a purchased line. Name, image and
// unit amount are captured at purchase time; later product changes never
// alter them.
type OrderItem struct {
	ID               uuid.UUID   `json:"id"`
	OrderID          uuid.UUID   `json:"order_id"`
	VariantID        uuid.UUID   `json:"variant_id"`
	ProductName      string      `json:"product_name"`
	Image            string      `json:"image"`
	UnitAmount       money.Money `json:"unit_amount"`
	Quantity         int         `json:"quantity"`
	TotalPrice       money.Money `json:"total_price"`
	RefundedQuantity int         `json:"refunded_quantity"`
	IsRefunded       bool        `json:"is_refunded"`
	CreatedAt        time.Time   `json:"created_at"`
}

type Order struct {
	ID             uuid.UUID   `json:"id"`
	UserID         uuid.UUID   `json:"user_id"`
	PaymentID      uuid.UUID   `json:"payment_id"`
	DeliveryID     *uuid.UUID  `json:"delivery_id,omitempty"`
	Status         OrderStatus `json:"status"`
	TotalAmount    money.Money `json:"total_amount"`
	ShippingAmount money.Money `json:"shipping_amount"`
	DiscountAmount money.Money `json:"discount_amount"`
	Items          []OrderItem `json:"items"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// ComputeTotal recomputes the order total from its items plus shipping minus
// discount. Called once at compile time; the result is immutable afterwards.
func (o *Order) ComputeTotal() money.Money {
	var itemsTotal money.Money

	for _, item := range o.Items {
		itemsTotal = itemsTotal.Add(item.UnitAmount.MulQuantity(item.Quantity))
	}

	return itemsTotal.Add(o.ShippingAmount).Sub(o.DiscountAmount)
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=created processing confirmed shipped delivered cancelled refunded on_hold"`
}

type RefundItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type OrderResponse struct {
	Order *Order `json:"order"`
}

type OrderHistoryResponse struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Size   int     `json:"size"`
}
