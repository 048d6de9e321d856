package money

import "fmt"

// Money is an amount in minor currency units (cents). All stored and compared
// amounts use this representation; the decimal form exists only for display.
type Money int64

func FromUnits(units int64) Money {
	return Money(units)
}

func (m Money) Units() int64 {
	return int64(m)
}

// MulQuantity returns the line total for a unit price and quantity.
func (m Money) MulQuantity(quantity int) Money {
	return m * Money(quantity)
}

func (m Money) Add(other Money) Money {
	return m + other
}

func (m Money) Sub(other Money) Money {
	return m - other
}

// String renders the amount as a decimal string, e.g. 1999 -> "19.99".
// The decimal form is derived on demand and never persisted.
func (m Money) String() string {
	units := int64(m)

	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}

	return fmt.Sprintf("%s%d.%02d", sign, units/100, units%100)
}
