package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopmesh/storefront/pkg/money"
)

// Cart totals are a cache. They are overwritten from the live line items
// after every mutation and must stay recomputable from those items.
type Cart struct {
	ID            uuid.UUID   `json:"id"`
	UserID        uuid.UUID   `json:"user_id"`
	Amount        money.Money `json:"amount"`
	TotalItems    int         `json:"total_items"`
	TotalProducts int         `json:"total_products"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type CartItem struct {
	ID        uuid.UUID `json:"id"`
	CartID    uuid.UUID `json:"cart_id"`
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartLine is a cart item joined with the live variant and product data the
// shopper is actually charged against.
type CartLine struct {
	ItemID      uuid.UUID   `json:"item_id"`
	VariantID   uuid.UUID   `json:"variant_id"`
	ProductID   uuid.UUID   `json:"product_id"`
	ProductName string      `json:"product_name"`
	Image       string      `json:"image"`
	UnitPrice   money.Money `json:"unit_price"`
	Quantity    int         `json:"quantity"`
	Inventory   int         `json:"inventory"`
}

func (l *CartLine) LineTotal() money.Money {
	return l.UnitPrice.MulQuantity(l.Quantity)
}

type AddItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type UpdateItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"min=0"`
}

type CartResponse struct {
	Cart  *Cart      `json:"cart"`
	Lines []CartLine `json:"lines"`
}
