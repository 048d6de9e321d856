package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopmesh/storefront/internal/models"
	"github.com/shopmesh/storefront/pkg/stripe"
	"github.com/stretchr/testify/mock"
	stripesdk "github.com/stripe/stripe-go/v81"
)

// Testify-backed fakes for the service interfaces and outbound clients,
// shared by the handler and service test suites.

type CartService struct {
	mock.Mock
}

func (m *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.CartResponse, error) {
	args := m.Called(ctx, userID)
	if cart, ok := args.Get(0).(*models.CartResponse); ok {
		return cart, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *CartService) GetCartByID(ctx context.Context, cartID uuid.UUID) (*models.CartResponse, error) {
	args := m.Called(ctx, cartID)
	if cart, ok := args.Get(0).(*models.CartResponse); ok {
		return cart, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *CartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.CartResponse, error) {
	args := m.Called(ctx, userID, req)
	if cart, ok := args.Get(0).(*models.CartResponse); ok {
		return cart, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *CartService) UpdateItem(ctx context.Context, userID uuid.UUID, req *models.UpdateItemRequest) (*models.CartResponse, error) {
	args := m.Called(ctx, userID, req)
	if cart, ok := args.Get(0).(*models.CartResponse); ok {
		return cart, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *CartService) RemoveItem(ctx context.Context, userID, variantID uuid.UUID) (*models.CartResponse, error) {
	args := m.Called(ctx, userID, variantID)
	if cart, ok := args.Get(0).(*models.CartResponse); ok {
		return cart, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *CartService) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	args := m.Called(ctx, cartID)

	return args.Error(0)
}

func (m *CartService) RecomputeTotals(ctx context.Context, cartID uuid.UUID) error {
	args := m.Called(ctx, cartID)

	return args.Error(0)
}

type CheckoutService struct {
	mock.Mock
}

func (m *CheckoutService) InitiateCheckout(ctx context.Context, userID uuid.UUID) (*models.CheckoutSessionResponse, error) {
	args := m.Called(ctx, userID)
	if session, ok := args.Get(0).(*models.CheckoutSessionResponse); ok {
		return session, args.Error(1)
	}

	return nil, args.Error(1)
}

type FulfillmentService struct {
	mock.Mock
}

func (m *FulfillmentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	args := m.Called(ctx, payload, signature)

	return args.Error(0)
}

type OrderService struct {
	mock.Mock
}

func (m *OrderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if order, ok := args.Get(0).(*models.Order); ok {
		return order, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *OrderService) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {
	args := m.Called(ctx, userID, page, size)
	if orders, ok := args.Get(0).([]models.Order); ok {
		return orders, args.Int(1), args.Error(2)
	}

	return nil, args.Int(1), args.Error(2)
}

func (m *OrderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	args := m.Called(ctx, id, status)
	if order, ok := args.Get(0).(*models.Order); ok {
		return order, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *OrderService) RefundOrderItem(ctx context.Context, orderID, itemID uuid.UUID, quantity int) (*models.Order, error) {
	args := m.Called(ctx, orderID, itemID, quantity)
	if order, ok := args.Get(0).(*models.Order); ok {
		return order, args.Error(1)
	}

	return nil, args.Error(1)
}

type DeliveryService struct {
	mock.Mock
}

func (m *DeliveryService) GetDeliveryByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error) {
	args := m.Called(ctx, orderID)
	if delivery, ok := args.Get(0).(*models.Delivery); ok {
		return delivery, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *DeliveryService) UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status models.DeliveryStatus) (*models.Delivery, error) {
	args := m.Called(ctx, id, status)
	if delivery, ok := args.Get(0).(*models.Delivery); ok {
		return delivery, args.Error(1)
	}

	return nil, args.Error(1)
}

type NotificationDispatcher struct {
	mock.Mock
}

func (m *NotificationDispatcher) OrderConfirmation(ctx context.Context, to string, order *models.Order, delivery *models.Delivery) error {
	args := m.Called(ctx, to, order, delivery)

	return args.Error(0)
}

type StripeClient struct {
	mock.Mock
}

func (m *StripeClient) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripesdk.CheckoutSession, error) {
	args := m.Called(params)
	if session, ok := args.Get(0).(*stripesdk.CheckoutSession); ok {
		return session, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *StripeClient) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	args := m.Called(payload, signature)
	if event, ok := args.Get(0).(stripe.Event); ok {
		return event, args.Error(1)
	}

	return stripe.Event{}, args.Error(1)
}

func (m *StripeClient) RefundPayment(paymentIntentID string, amount int64) (*stripesdk.Refund, error) {
	args := m.Called(paymentIntentID, amount)
	if r, ok := args.Get(0).(*stripesdk.Refund); ok {
		return r, args.Error(1)
	}

	return nil, args.Error(1)
}

type EmailService struct {
	mock.Mock
}

func (m *EmailService) Send(ctx context.Context, req *models.EmailNotificationRequest) error {
	args := m.Called(ctx, req)

	return args.Error(0)
}
