package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopmesh/storefront/pkg/money"
)

type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductVariant carries the stock count that the fulfillment commit
// decrements. Inventory never goes below zero; the conditional decrement in
// the repository is the authoritative check.
type ProductVariant struct {
	ID          uuid.UUID    `json:"id"`
	ProductID   uuid.UUID    `json:"product_id"`
	SKU         string       `json:"sku"`
	Inventory   int          `json:"inventory"`
	GlobalPrice money.Money  `json:"global_price"`
	SalePrice   *money.Money `json:"sale_price,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// UnitPrice is the price actually charged: the sale price when present,
// otherwise the list price.
func (v *ProductVariant) UnitPrice() money.Money {
	if v.SalePrice != nil {
		return *v.SalePrice
	}

	return v.GlobalPrice
}

// DiscountPercent is derived from the two prices, never stored.
func (v *ProductVariant) DiscountPercent() int {
	if v.SalePrice == nil || v.GlobalPrice <= 0 || *v.SalePrice >= v.GlobalPrice {
		return 0
	}

	return int((v.GlobalPrice - *v.SalePrice) * 100 / v.GlobalPrice)
}
