package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopmesh/storefront/internal/cache"
	apperrors "github.com/shopmesh/storefront/internal/errors"
	"github.com/shopmesh/storefront/internal/models"
	repository "github.com/shopmesh/storefront/internal/repositories"
	"github.com/shopmesh/storefront/pkg/stripe"
)

const orderCachePrefix = "order"

type OrderService interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
	// RefundOrderItem refunds part of an order line: the gateway refund is
	// issued against the order's payment and the refunded units return to
	// inventory. refundedQuantity only ever grows and never exceeds the
	// purchased quantity.
	RefundOrderItem(ctx context.Context, orderID, itemID uuid.UUID, quantity int) (*models.Order, error)
}

type orderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	payments repository.PaymentRepository
	gateway  stripe.Client
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, payments repository.PaymentRepository, gateway stripe.Client, orderCache cache.Cache, cacheTTL time.Duration) OrderService {
	return &orderService{orders: orders, products: products, payments: payments, gateway: gateway, cache: orderCache, cacheTTL: cacheTTL}
}

func (s *orderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	cacheKey := cache.Key(orderCachePrefix, id.String())

	var cached models.Order

	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		slog.Warn("Order cache read failed", slog.String("orderId", id.String()), slog.String("error", err.Error()))
	}

	if found {
		return &cached, nil
	}

	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("Order not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	if err := s.cache.Set(ctx, cacheKey, order, s.cacheTTL); err != nil {
		slog.Warn("Order cache write failed", slog.String("orderId", id.String()), slog.String("error", err.Error()))
	}

	return order, nil
}

func (s *orderService) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {
	if page < 1 {
		page = 1
	}

	if size < 1 || size > 100 {
		size = 10
	}

	orders, total, err := s.orders.ListOrdersByUser(ctx, userID, page, size)
	if err != nil {
		return nil, 0, apperrors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("Order not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, apperrors.InvalidTransitionError(
			fmt.Sprintf("Cannot transition order from %s to %s", order.Status, status))
	}

	if err := s.orders.UpdateOrderStatus(ctx, id, status); err != nil {
		return nil, apperrors.DatabaseError("Failed to update order status").WithError(err)
	}

	order.Status = status

	s.invalidate(ctx, id)

	return order, nil
}

func (s *orderService) RefundOrderItem(ctx context.Context, orderID, itemID uuid.UUID, quantity int) (*models.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("Order not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	var item *models.OrderItem

	for i := range order.Items {
		if order.Items[i].ID == itemID {
			item = &order.Items[i]

			break
		}
	}

	if item == nil {
		return nil, apperrors.NotFoundError("Order item not found")
	}

	newRefunded := item.RefundedQuantity + quantity
	if newRefunded > item.Quantity {
		return nil, apperrors.BadRequestError(
			fmt.Sprintf("Refund of %d exceeds purchased quantity %d (already refunded %d)",
				quantity, item.Quantity, item.RefundedQuantity))
	}

	payment, err := s.payments.GetPaymentByID(ctx, order.PaymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("Payment not found for order").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to fetch payment").WithError(err)
	}

	// the accounting update is claimed before money moves; the conditional
	// UPDATE is the backstop against a concurrent refund of the same line
	if err := s.orders.UpdateItemRefund(ctx, itemID, quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.BadRequestError(
				fmt.Sprintf("Refund of %d exceeds purchased quantity %d", quantity, item.Quantity))
		}

		return nil, apperrors.DatabaseError("Failed to update item refund").WithError(err)
	}

	refundAmount := item.UnitAmount.MulQuantity(quantity)

	if _, err := s.gateway.RefundPayment(payment.TransactionID, refundAmount.Units()); err != nil {
		slog.Error("Gateway refund failed after accounting update; operator follow-up required",
			slog.String("orderId", orderID.String()),
			slog.String("itemId", itemID.String()),
			slog.String("transactionId", payment.TransactionID),
			slog.String("error", err.Error()))

		return nil, apperrors.ThirdPartyError("Failed to issue gateway refund").WithError(err)
	}

	if err := s.products.RestoreStock(ctx, item.VariantID, quantity); err != nil {
		return nil, apperrors.DatabaseError("Failed to restore refunded stock").WithError(err)
	}

	item.RefundedQuantity = newRefunded
	item.IsRefunded = newRefunded == item.Quantity

	s.invalidate(ctx, orderID)

	return order, nil
}

func (s *orderService) invalidate(ctx context.Context, orderID uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.Key(orderCachePrefix, orderID.String())); err != nil {
		slog.Warn("Order cache invalidation failed", slog.String("orderId", orderID.String()), slog.String("error", err.Error()))
	}
}
