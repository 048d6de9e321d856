package money_test

import (
	"testing"

	"github.com/shopmesh/storefront/pkg/money"
	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		name     string
		amount   money.Money
		expected string
	}{
		{name: "Whole amount", amount: money.FromUnits(500), expected: "5.00"},
		{name: "Amount with cents", amount: money.FromUnits(1999), expected: "19.99"},
		{name: "Single cent", amount: money.FromUnits(1), expected: "0.01"},
		{name: "Zero", amount: money.FromUnits(0), expected: "0.00"},
		{name: "Negative amount", amount: money.FromUnits(-2550), expected: "-25.50"},
		{name: "Large amount", amount: money.FromUnits(123456789), expected: "1234567.89"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.amount.String())
		})
	}
}

func TestArithmetic(t *testing.T) {
	t.Run("MulQuantity", func(t *testing.T) {
		assert.Equal(t, money.FromUnits(3998), money.FromUnits(1999).MulQuantity(2))
		assert.Equal(t, money.FromUnits(0), money.FromUnits(1999).MulQuantity(0))
	})

	t.Run("Add and Sub", func(t *testing.T) {
		total := money.FromUnits(3998).Add(money.FromUnits(500)).Sub(money.FromUnits(100))
		assert.Equal(t, money.FromUnits(4398), total)
	})

	t.Run("Units round trip", func(t *testing.T) {
		assert.Equal(t, int64(1999), money.FromUnits(1999).Units())
	})
}
