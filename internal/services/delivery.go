package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/shopmesh/storefront/internal/errors"
	"github.com/shopmesh/storefront/internal/models"
	repository "github.com/shopmesh/storefront/internal/repositories"
)

type DeliveryService interface {
	GetDeliveryByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error)
	UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status models.DeliveryStatus) (*models.Delivery, error)
}

type deliveryService struct {
	deliveries repository.DeliveryRepository
}

func NewDeliveryService(deliveries repository.DeliveryRepository) DeliveryService {
	return &deliveryService{deliveries: deliveries}
}

func (s *deliveryService) GetDeliveryByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error) {
	delivery, err := s.deliveries.GetDeliveryByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("Delivery not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to fetch delivery").WithError(err)
	}

	return delivery, nil
}

func (s *deliveryService) UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status models.DeliveryStatus) (*models.Delivery, error) {
	delivery, err := s.deliveries.GetDeliveryByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("Delivery not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to fetch delivery").WithError(err)
	}

	if !delivery.Status.CanTransitionTo(status) {
		return nil, apperrors.InvalidTransitionError(
			fmt.Sprintf("Cannot transition delivery from %s to %s", delivery.Status, status))
	}

	// the delivered transition also stamps the actual date
	var actualDate *time.Time

	if status == models.DeliveryStatusDelivered {
		now := time.Now()
		actualDate = &now
	}

	if err := s.deliveries.UpdateDeliveryStatus(ctx, id, status, actualDate); err != nil {
		return nil, apperrors.DatabaseError("Failed to update delivery status").WithError(err)
	}

	delivery.Status = status
	delivery.ActualDeliveryDate = actualDate

	return delivery, nil
}
