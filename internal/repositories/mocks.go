package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopmesh/storefront/internal/models"
	"github.com/shopmesh/storefront/pkg/money"
	"github.com/stretchr/testify/mock"
)

// Testify-backed fakes for the repository interfaces, shared by the service
// test suites.

type MockUserRepository struct {
	mock.Mock
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockProductRepository struct {
	mock.Mock
}

func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{}
}

func (m *MockProductRepository) VariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	args := m.Called(ctx, id)
	if variant, ok := args.Get(0).(*models.ProductVariant); ok {
		return variant, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, variantID uuid.UUID, quantity int) (int, error) {
	args := m.Called(ctx, variantID, quantity)

	return args.Int(0), args.Error(1)
}

func (m *MockProductRepository) RestoreStock(ctx context.Context, variantID uuid.UUID, quantity int) error {
	args := m.Called(ctx, variantID, quantity)

	return args.Error(0)
}

type MockCartRepository struct {
	mock.Mock
}

func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{}
}

func (m *MockCartRepository) GetOrCreateByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	args := m.Called(ctx, userID)
	if cart, ok := args.Get(0).(*models.Cart); ok {
		return cart, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCartRepository) GetCartByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	args := m.Called(ctx, id)
	if cart, ok := args.Get(0).(*models.Cart); ok {
		return cart, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCartRepository) ListLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	args := m.Called(ctx, cartID)
	if lines, ok := args.Get(0).([]models.CartLine); ok {
		return lines, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCartRepository) GetItem(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error) {
	args := m.Called(ctx, cartID, variantID)
	if item, ok := args.Get(0).(*models.CartItem); ok {
		return item, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockCartRepository) InsertItem(ctx context.Context, item *models.CartItem) error {
	args := m.Called(ctx, item)

	return args.Error(0)
}

func (m *MockCartRepository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	args := m.Called(ctx, itemID, quantity)

	return args.Error(0)
}

func (m *MockCartRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	args := m.Called(ctx, itemID)

	return args.Error(0)
}

func (m *MockCartRepository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	args := m.Called(ctx, cartID)

	return args.Error(0)
}

func (m *MockCartRepository) UpdateTotals(ctx context.Context, cartID uuid.UUID, amount money.Money, totalItems, totalProducts int) error {
	args := m.Called(ctx, cartID, amount, totalItems, totalProducts)

	return args.Error(0)
}

func (m *MockCartRepository) DeleteVariantFromOtherCarts(ctx context.Context, variantID, excludeCartID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, variantID, excludeCartID)
	if ids, ok := args.Get(0).([]uuid.UUID); ok {
		return ids, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockOrderRepository struct {
	mock.Mock
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{}
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)

	return args.Error(0)
}

func (m *MockOrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if order, ok := args.Get(0).(*models.Order); ok {
		return order, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockOrderRepository) GetOrderByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, paymentID)
	if order, ok := args.Get(0).(*models.Order); ok {
		return order, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockOrderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {
	args := m.Called(ctx, userID, page, size)
	if orders, ok := args.Get(0).([]models.Order); ok {
		return orders, args.Int(1), args.Error(2)
	}

	return nil, args.Int(1), args.Error(2)
}

func (m *MockOrderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	args := m.Called(ctx, id, status)

	return args.Error(0)
}

func (m *MockOrderRepository) SetDeliveryID(ctx context.Context, orderID, deliveryID uuid.UUID) error {
	args := m.Called(ctx, orderID, deliveryID)

	return args.Error(0)
}

func (m *MockOrderRepository) UpdateItemRefund(ctx context.Context, itemID uuid.UUID, quantity int) error {
	args := m.Called(ctx, itemID, quantity)

	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{}
}

func (m *MockPaymentRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)

	return args.Error(0)
}

func (m *MockPaymentRepository) GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if payment, ok := args.Get(0).(*models.Payment); ok {
		return payment, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockPaymentRepository) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	args := m.Called(ctx, transactionID)
	if payment, ok := args.Get(0).(*models.Payment); ok {
		return payment, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockPaymentRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) error {
	args := m.Called(ctx, id, status)

	return args.Error(0)
}

type MockDeliveryRepository struct {
	mock.Mock
}

func NewMockDeliveryRepository() *MockDeliveryRepository {
	return &MockDeliveryRepository{}
}

func (m *MockDeliveryRepository) CreateDelivery(ctx context.Context, delivery *models.Delivery) error {
	args := m.Called(ctx, delivery)

	return args.Error(0)
}

func (m *MockDeliveryRepository) GetDeliveryByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	args := m.Called(ctx, id)
	if delivery, ok := args.Get(0).(*models.Delivery); ok {
		return delivery, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockDeliveryRepository) GetDeliveryByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error) {
	args := m.Called(ctx, orderID)
	if delivery, ok := args.Get(0).(*models.Delivery); ok {
		return delivery, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockDeliveryRepository) UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status models.DeliveryStatus, actualDate *time.Time) error {
	args := m.Called(ctx, id, status, actualDate)

	return args.Error(0)
}

type MockWebhookEventRepository struct {
	mock.Mock
}

func NewMockWebhookEventRepository() *MockWebhookEventRepository {
	return &MockWebhookEventRepository{}
}

func (m *MockWebhookEventRepository) Record(ctx context.Context, eventID, eventType string) (bool, error) {
	args := m.Called(ctx, eventID, eventType)

	return args.Bool(0), args.Error(1)
}

func (m *MockWebhookEventRepository) Release(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)

	return args.Error(0)
}
