package service_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	appErrors "github.com/shopmesh/storefront/internal/errors"
	"github.com/shopmesh/storefront/internal/models"
	repository "github.com/shopmesh/storefront/internal/repositories"
	service "github.com/shopmesh/storefront/internal/services"
	"github.com/shopmesh/storefront/internal/services/mocks"
	"github.com/shopmesh/storefront/pkg/money"
	pkgstripe "github.com/shopmesh/storefront/pkg/stripe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	stripesdk "github.com/stripe/stripe-go/v81"
)

func newCheckoutFixture() (*repository.MockUserRepository, *repository.MockCartRepository, *mocks.StripeClient, service.CheckoutService) {
	mockUsers := repository.NewMockUserRepository()
	mockCarts := repository.NewMockCartRepository()
	mockStripe := new(mocks.StripeClient)
	checkoutService := service.NewCheckoutService(mockUsers, mockCarts, mockStripe,
		"usd", "https://shop.example.com/success", "https://shop.example.com/cancel")

	return mockUsers, mockCarts, mockStripe, checkoutService
}

func shopperWithAddress(id uuid.UUID) *models.User {
	return &models.User{
		ID:    id,
		Name:  "Ada Shopper",
		Email: "ada@example.com",
		Role:  models.RoleShopper,
		Address: models.ShippingAddress{
			Street:     "1 Main St",
			City:       "Springfield",
			State:      "IL",
			PostalCode: "62704",
			Country:    "US",
		},
	}
}

func TestInitiateCheckout(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	cartID := uuid.New()
	cart := &models.Cart{ID: cartID, UserID: userID}

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockUsers, mockCarts, mockStripe, checkoutService := newCheckoutFixture()

		lines := []models.CartLine{
			{VariantID: uuid.New(), ProductName: "Espresso Grinder", UnitPrice: money.FromUnits(1999), Quantity: 2, Inventory: 3},
		}

		mockUsers.On("GetUserByID", ctx, userID).Return(shopperWithAddress(userID), nil).Once()
		mockCarts.On("GetOrCreateByUserID", ctx, userID).Return(cart, nil).Once()
		mockCarts.On("ListLines", ctx, cartID).Return(lines, nil).Once()

		var captured *pkgstripe.CheckoutSessionParams

		mockStripe.On("CreateCheckoutSession", mock.AnythingOfType("*stripe.CheckoutSessionParams")).
			Run(func(args mock.Arguments) {
				captured = args.Get(0).(*pkgstripe.CheckoutSessionParams)
			}).
			Return(&stripesdk.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.stripe.com/pay/cs_test_123"}, nil).Once()

		// Act
		resp, err := checkoutService.InitiateCheckout(ctx, userID)

		// Assert
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, "cs_test_123", resp.SessionID)
		assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_123", resp.CheckoutURL)

		require.NotNil(t, captured)
		assert.Equal(t, cartID.String(), captured.Metadata[models.MetadataCartID])
		assert.Equal(t, userID.String(), captured.Metadata[models.MetadataUserID])
		assert.Len(t, captured.Lines, 1)
		assert.Equal(t, int64(1999), captured.Lines[0].UnitAmount)
		assert.Equal(t, int64(2), captured.Lines[0].Quantity)

		// the profile snapshot rides through as versioned, validated JSON
		var profile models.ShippingProfile
		require.NoError(t, json.Unmarshal([]byte(captured.Metadata[models.MetadataProfile]), &profile))
		assert.Equal(t, models.ShippingProfileVersion, profile.Version)
		assert.Equal(t, "Ada Shopper", profile.Name)
		assert.Equal(t, "Springfield", profile.Address.City)

		mockStripe.AssertExpectations(t)
	})

	t.Run("Failure - Shopper Not Found", func(t *testing.T) {
		// Arrange
		mockUsers, _, _, checkoutService := newCheckoutFixture()
		mockUsers.On("GetUserByID", ctx, userID).Return(nil, sql.ErrNoRows).Once()

		// Act
		resp, err := checkoutService.InitiateCheckout(ctx, userID)

		// Assert
		assert.Nil(t, resp)

		var appErr *appErrors.AppError
		assert.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})

	t.Run("Failure - No Shipping Address", func(t *testing.T) {
		// Arrange
		mockUsers, _, mockStripe, checkoutService := newCheckoutFixture()
		user := &models.User{ID: userID, Name: "Ada", Email: "ada@example.com"}
		mockUsers.On("GetUserByID", ctx, userID).Return(user, nil).Once()

		// Act
		resp, err := checkoutService.InitiateCheckout(ctx, userID)

		// Assert
		assert.Nil(t, resp)

		var appErr *appErrors.AppError
		assert.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeInvalidState, appErr.Code)
		mockStripe.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything)
	})

	t.Run("Failure - Empty Cart", func(t *testing.T) {
		// Arrange
		mockUsers, mockCarts, mockStripe, checkoutService := newCheckoutFixture()
		mockUsers.On("GetUserByID", ctx, userID).Return(shopperWithAddress(userID), nil).Once()
		mockCarts.On("GetOrCreateByUserID", ctx, userID).Return(cart, nil).Once()
		mockCarts.On("ListLines", ctx, cartID).Return([]models.CartLine{}, nil).Once()

		// Act
		resp, err := checkoutService.InitiateCheckout(ctx, userID)

		// Assert
		assert.Nil(t, resp)

		var appErr *appErrors.AppError
		assert.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeBadRequest, appErr.Code)
		mockStripe.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything)
	})

	t.Run("Failure - Advisory Pre-Check Collects Every Shortage", func(t *testing.T) {
		// Arrange
		mockUsers, mockCarts, mockStripe, checkoutService := newCheckoutFixture()

		shortVariantA := uuid.New()
		shortVariantB := uuid.New()
		lines := []models.CartLine{
			{VariantID: shortVariantA, ProductName: "Grinder", Quantity: 5, Inventory: 2},
			{VariantID: uuid.New(), ProductName: "Filter", Quantity: 1, Inventory: 10},
			{VariantID: shortVariantB, ProductName: "Kettle", Quantity: 3, Inventory: 0},
		}

		mockUsers.On("GetUserByID", ctx, userID).Return(shopperWithAddress(userID), nil).Once()
		mockCarts.On("GetOrCreateByUserID", ctx, userID).Return(cart, nil).Once()
		mockCarts.On("ListLines", ctx, cartID).Return(lines, nil).Once()

		// Act
		resp, err := checkoutService.InitiateCheckout(ctx, userID)

		// Assert
		assert.Nil(t, resp)

		var appErr *appErrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeOutOfStock, appErr.Code)
		require.Len(t, appErr.Shortages, 2)
		assert.Equal(t, shortVariantA.String(), appErr.Shortages[0].VariantID)
		assert.Equal(t, shortVariantB.String(), appErr.Shortages[1].VariantID)
		mockStripe.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything)
	})

	t.Run("Failure - Gateway Error", func(t *testing.T) {
		// Arrange
		mockUsers, mockCarts, mockStripe, checkoutService := newCheckoutFixture()

		lines := []models.CartLine{
			{VariantID: uuid.New(), ProductName: "Grinder", UnitPrice: money.FromUnits(1999), Quantity: 1, Inventory: 5},
		}

		mockUsers.On("GetUserByID", ctx, userID).Return(shopperWithAddress(userID), nil).Once()
		mockCarts.On("GetOrCreateByUserID", ctx, userID).Return(cart, nil).Once()
		mockCarts.On("ListLines", ctx, cartID).Return(lines, nil).Once()
		mockStripe.On("CreateCheckoutSession", mock.Anything).Return(nil, errors.New("stripe unavailable")).Once()

		// Act
		resp, err := checkoutService.InitiateCheckout(ctx, userID)

		// Assert
		assert.Nil(t, resp)

		var appErr *appErrors.AppError
		assert.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeThirdPartyError, appErr.Code)
	})
}
