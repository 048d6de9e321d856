package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/shopmesh/storefront/internal/errors"
	"github.com/shopmesh/storefront/internal/models"
	repository "github.com/shopmesh/storefront/internal/repositories"
	service "github.com/shopmesh/storefront/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetDeliveryByOrderID(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockDeliveries := repository.NewMockDeliveryRepository()
		deliveryService := service.NewDeliveryService(mockDeliveries)

		delivery := &models.Delivery{ID: uuid.New(), OrderID: orderID, Status: models.DeliveryStatusPending}
		mockDeliveries.On("GetDeliveryByOrderID", ctx, orderID).Return(delivery, nil).Once()

		// Act
		got, err := deliveryService.GetDeliveryByOrderID(ctx, orderID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, orderID, got.OrderID)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		mockDeliveries := repository.NewMockDeliveryRepository()
		deliveryService := service.NewDeliveryService(mockDeliveries)

		mockDeliveries.On("GetDeliveryByOrderID", ctx, orderID).Return(nil, sql.ErrNoRows).Once()

		// Act
		got, err := deliveryService.GetDeliveryByOrderID(ctx, orderID)

		// Assert
		assert.Nil(t, got)

		var appErr *appErrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})
}

func TestUpdateDeliveryStatus(t *testing.T) {
	ctx := context.Background()
	deliveryID := uuid.New()

	t.Run("Success - Forward Transition", func(t *testing.T) {
		// Arrange
		mockDeliveries := repository.NewMockDeliveryRepository()
		deliveryService := service.NewDeliveryService(mockDeliveries)

		delivery := &models.Delivery{ID: deliveryID, Status: models.DeliveryStatusPending}
		mockDeliveries.On("GetDeliveryByID", ctx, deliveryID).Return(delivery, nil).Once()
		mockDeliveries.On("UpdateDeliveryStatus", ctx, deliveryID, models.DeliveryStatusProcessing, (*time.Time)(nil)).Return(nil).Once()

		// Act
		got, err := deliveryService.UpdateDeliveryStatus(ctx, deliveryID, models.DeliveryStatusProcessing)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.DeliveryStatusProcessing, got.Status)
		assert.Nil(t, got.ActualDeliveryDate)
	})

	t.Run("Success - Delivered Stamps The Actual Date", func(t *testing.T) {
		// Arrange
		mockDeliveries := repository.NewMockDeliveryRepository()
		deliveryService := service.NewDeliveryService(mockDeliveries)

		delivery := &models.Delivery{ID: deliveryID, Status: models.DeliveryStatusInTransit}
		mockDeliveries.On("GetDeliveryByID", ctx, deliveryID).Return(delivery, nil).Once()
		mockDeliveries.On("UpdateDeliveryStatus", ctx, deliveryID, models.DeliveryStatusDelivered, mock.AnythingOfType("*time.Time")).Return(nil).Once()

		// Act
		got, err := deliveryService.UpdateDeliveryStatus(ctx, deliveryID, models.DeliveryStatusDelivered)

		// Assert
		require.NoError(t, err)
		require.NotNil(t, got.ActualDeliveryDate)
		assert.WithinDuration(t, time.Now(), *got.ActualDeliveryDate, time.Second)
	})

	t.Run("Failure - Skipping A Stage Is Rejected", func(t *testing.T) {
		// Arrange
		mockDeliveries := repository.NewMockDeliveryRepository()
		deliveryService := service.NewDeliveryService(mockDeliveries)

		delivery := &models.Delivery{ID: deliveryID, Status: models.DeliveryStatusPending}
		mockDeliveries.On("GetDeliveryByID", ctx, deliveryID).Return(delivery, nil).Once()

		// Act
		got, err := deliveryService.UpdateDeliveryStatus(ctx, deliveryID, models.DeliveryStatusDelivered)

		// Assert
		assert.Nil(t, got)

		var appErr *appErrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeInvalidTransition, appErr.Code)
		mockDeliveries.AssertNotCalled(t, "UpdateDeliveryStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Terminal State Is Frozen", func(t *testing.T) {
		// Arrange
		mockDeliveries := repository.NewMockDeliveryRepository()
		deliveryService := service.NewDeliveryService(mockDeliveries)

		delivery := &models.Delivery{ID: deliveryID, Status: models.DeliveryStatusDelivered}
		mockDeliveries.On("GetDeliveryByID", ctx, deliveryID).Return(delivery, nil).Once()

		// Act
		got, err := deliveryService.UpdateDeliveryStatus(ctx, deliveryID, models.DeliveryStatusReturned)

		// Assert
		assert.Nil(t, got)

		var appErr *appErrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeInvalidTransition, appErr.Code)
	})
}
