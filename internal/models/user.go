package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleShopper = "shopper"
	RoleAdmin   = "admin"
)

type User struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	Address   ShippingAddress `json:"address"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// HasShippingAddress reports whether the profile carries enough address data
// to build a checkout session.
func (u *User) HasShippingAddress() bool {
	a := u.Address

	return a.Street != "" && a.City != "" && a.PostalCode != "" && a.Country != ""
}

type ShippingAddress struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// ShippingProfile is the versioned snapshot of the shopper's shipping data
// that rides through the payment gateway as opaque session metadata. It is
// validated on deserialization; a shape mismatch is a BadRequest, never a
// downstream panic.
type ShippingProfile struct {
	Version int             `json:"version" validate:"required,eq=1"`
	Name    string          `json:"name" validate:"required"`
	Email   string          `json:"email" validate:"required,email"`
	Address ShippingAddress `json:"address" validate:"required"`
}

const ShippingProfileVersion = 1

// JWT claims structure
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
