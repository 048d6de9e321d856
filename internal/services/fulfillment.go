package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apperrors "github.com/shopmesh/storefront/internal/errors"
	"github.com/shopmesh/storefront/internal/metrics"
	"github.com/shopmesh/storefront/internal/models"
	repository "github.com/shopmesh/storefront/internal/repositories"
	"github.com/shopmesh/storefront/pkg/money"
	"github.com/shopmesh/storefront/pkg/stripe"
)

// FulfillmentService is the entry point for the payment gateway's
// asynchronous callback. A verified "checkout completed" event drives the
// fulfillment sequence: payment record, order compilation, inventory
// commit, delivery scheduling, cart reconciliation and the confirmation
// notice. Each step is a local commit, with compensation for steps that
// fail after the charge was captured.
type FulfillmentService interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type fulfillmentService struct {
	carts        repository.CartRepository
	products     repository.ProductRepository
	orders       repository.OrderRepository
	payments     repository.PaymentRepository
	deliveries   repository.DeliveryRepository
	events       repository.WebhookEventRepository
	stripeClient stripe.Client
	dispatcher   NotificationDispatcher
	validate     *validator.Validate
	leadTime     time.Duration
}

type FulfillmentDeps struct {
	Carts        repository.CartRepository
	Products     repository.ProductRepository
	Orders       repository.OrderRepository
	Payments     repository.PaymentRepository
	Deliveries   repository.DeliveryRepository
	Events       repository.WebhookEventRepository
	StripeClient stripe.Client
	Dispatcher   NotificationDispatcher
	LeadTime     time.Duration
}

func NewFulfillmentService(deps FulfillmentDeps) FulfillmentService {
	return &fulfillmentService{
		carts:        deps.Carts,
		products:     deps.Products,
		orders:       deps.Orders,
		payments:     deps.Payments,
		deliveries:   deps.Deliveries,
		events:       deps.Events,
		stripeClient: deps.StripeClient,
		dispatcher:   deps.Dispatcher,
		validate:     validator.New(),
		leadTime:     deps.LeadTime,
	}
}

// HandleWebhook implements FulfillmentService.
func (s *fulfillmentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.stripeClient.VerifyWebhookSignature(payload, signature)
	if err != nil {
		return apperrors.UnauthorizedError("Webhook signature verification failed").WithError(err)
	}

	switch event.Type {
	case stripe.EventTypeCheckoutCompleted:
		return s.completeCheckout(ctx, event)
	case stripe.EventTypeChargeRefunded:
		return s.processRefund(ctx, event)
	default:
		// accepted and ignored
		slog.Debug("Ignoring webhook event", slog.String("eventType", string(event.Type)))

		return nil
	}
}

// checkoutEvent is the required payload of a completed checkout session.
type checkoutEvent struct {
	CartID      uuid.UUID
	UserID      uuid.UUID
	Profile     models.ShippingProfile
	Email       string
	AmountTotal money.Money
	PaymentID   string
	CustomerID  string
}

func (s *fulfillmentService) parseCheckoutEvent(event stripe.Event) (*checkoutEvent, error) {
	object := event.Data.Object

	metadata, ok := object["metadata"].(map[string]any)
	if !ok {
		return nil, apperrors.BadRequestError("Missing metadata in checkout event")
	}

	cartIDStr, ok := metadata[models.MetadataCartID].(string)
	if !ok || cartIDStr == "" {
		return nil, apperrors.BadRequestError("Missing cart id in checkout metadata")
	}

	cartID, err := uuid.Parse(cartIDStr)
	if err != nil {
		return nil, apperrors.BadRequestError("Malformed cart id in checkout metadata").WithError(err)
	}

	userIDStr, ok := metadata[models.MetadataUserID].(string)
	if !ok || userIDStr == "" {
		return nil, apperrors.BadRequestError("Missing user id in checkout metadata")
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, apperrors.BadRequestError("Malformed user id in checkout metadata").WithError(err)
	}

	profileStr, ok := metadata[models.MetadataProfile].(string)
	if !ok || profileStr == "" {
		return nil, apperrors.BadRequestError("Missing shipping profile in checkout metadata")
	}

	var profile models.ShippingProfile

	if err := json.Unmarshal([]byte(profileStr), &profile); err != nil {
		return nil, apperrors.BadRequestError("Malformed shipping profile in checkout metadata").WithError(err)
	}

	if err := s.validate.Struct(profile); err != nil {
		return nil, apperrors.BadRequestError("Shipping profile failed validation").WithError(err)
	}

	customerDetails, _ := object["customer_details"].(map[string]any)

	email, _ := customerDetails["email"].(string)
	if email == "" {
		return nil, apperrors.BadRequestError("Missing customer email in checkout event")
	}

	amountTotal, ok := object["amount_total"].(float64)
	if !ok {
		return nil, apperrors.BadRequestError("Missing amount total in checkout event")
	}

	paymentIntentID, _ := object["payment_intent"].(string)
	if paymentIntentID == "" {
		return nil, apperrors.BadRequestError("Missing payment intent id in checkout event")
	}

	customerID, _ := object["customer"].(string)

	return &checkoutEvent{
		CartID:      cartID,
		UserID:      userID,
		Profile:     profile,
		Email:       email,
		AmountTotal: money.FromUnits(int64(amountTotal)),
		PaymentID:   paymentIntentID,
		CustomerID:  customerID,
	}, nil
}

func (s *fulfillmentService) completeCheckout(ctx context.Context, event stripe.Event) error {
	checkout, err := s.parseCheckoutEvent(event)
	if err != nil {
		return err
	}

	// Claim the event id before any side effect. A redelivery of an
	// already-claimed event is acknowledged without re-running the commit
	// sequence, so the gateway's retries never double-create the order or
	// double-decrement inventory.
	fresh, err := s.events.Record(ctx, event.ID, string(event.Type))
	if err != nil {
		return apperrors.DatabaseError("Failed to record webhook event").WithError(err)
	}

	if !fresh {
		metrics.DuplicateEventsIgnored.Inc()
		slog.Info("Ignoring redelivered checkout event", slog.String("eventId", event.ID))

		return nil
	}

	lines, err := s.carts.ListLines(ctx, checkout.CartID)
	if err != nil {
		s.releaseClaim(ctx, event.ID)

		return apperrors.DatabaseError("Failed to read cart lines").WithError(err)
	}

	if len(lines) == 0 {
		s.releaseClaim(ctx, event.ID)

		return apperrors.NotFoundError("Cart is empty or missing at confirmation")
	}

	payment := &models.Payment{
		ID:            uuid.New(),
		Email:         checkout.Email,
		AmountTotal:   checkout.AmountTotal,
		Status:        models.PaymentStatusCompleted,
		Method:        "card",
		TransactionID: checkout.PaymentID,
		CustomerID:    checkout.CustomerID,
	}

	if err := s.payments.CreatePayment(ctx, payment); err != nil {
		// nothing durable exists yet; free the claim so the retry runs
		s.releaseClaim(ctx, event.ID)

		return apperrors.DatabaseError("Failed to record payment").WithError(err)
	}

	order, err := s.compileOrder(ctx, checkout.UserID, payment.ID, lines)
	if err != nil {
		// the charge is already captured; leave a trail for the operator
		s.markFailedPostCapture(ctx, payment.ID)

		return err
	}

	depleted, err := s.commitInventory(ctx, order, payment.ID)
	if err != nil {
		return err
	}

	delivery, err := s.scheduleDelivery(ctx, order, payment.ID, checkout.Profile)
	if err != nil {
		return err
	}

	s.reconcileCarts(ctx, checkout.CartID, depleted)

	if err := s.dispatcher.OrderConfirmation(ctx, checkout.Email, order, delivery); err != nil {
		// notification failures never roll back the committed order
		slog.Error("Failed to send order confirmation",
			slog.String("orderId", order.ID.String()),
			slog.String("error", err.Error()))
	}

	metrics.OrdersFulfilled.Inc()
	slog.Info("Checkout fulfilled",
		slog.String("orderId", order.ID.String()),
		slog.String("paymentId", payment.ID.String()),
		slog.String("deliveryId", delivery.ID.String()))

	return nil
}

// compileOrder materializes the cart's live line items as an immutable
// order. Prices and names are captured here; later cart or product mutation
// cannot retroactively change a placed order.
func (s *fulfillmentService) compileOrder(ctx context.Context, userID, paymentID uuid.UUID, lines []models.CartLine) (*models.Order, error) {
	order := &models.Order{
		ID:        uuid.New(),
		UserID:    userID,
		PaymentID: paymentID,
		Status:    models.OrderStatusCreated,
	}

	items := make([]models.OrderItem, 0, len(lines))

	for _, line := range lines {
		items = append(items, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			VariantID:   line.VariantID,
			ProductName: line.ProductName,
			Image:       line.Image,
			UnitAmount:  line.UnitPrice,
			Quantity:    line.Quantity,
			TotalPrice:  line.LineTotal(),
		})
	}

	order.Items = items
	order.TotalAmount = order.ComputeTotal()

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, apperrors.DatabaseError("Failed to create order").WithError(err)
	}

	return order, nil
}

type decrementedLine struct {
	variantID uuid.UUID
	quantity  int
}

// commitInventory decrements each ordered variant with a conditional
// per-row update. The decrement itself is the authoritative stock check; if
// any line cannot be satisfied, the already-applied decrements are restored
// and the order is parked for operator intervention.
func (s *fulfillmentService) commitInventory(ctx context.Context, order *models.Order, paymentID uuid.UUID) ([]uuid.UUID, error) {
	var (
		decremented []decrementedLine
		depleted    []uuid.UUID
	)

	for _, item := range order.Items {
		remaining, err := s.products.DecrementStock(ctx, item.VariantID, item.Quantity)
		if err != nil {
			s.compensate(ctx, decremented, paymentID, order.ID)

			if errors.Is(err, repository.ErrInsufficientStock) {
				metrics.InventoryConflicts.Inc()

				return nil, apperrors.OutOfStockError([]apperrors.StockShortage{{
					VariantID:   item.VariantID.String(),
					ProductName: item.ProductName,
					Requested:   item.Quantity,
				}})
			}

			return nil, apperrors.PartialCommitError("Inventory commit failed after payment capture").WithError(err)
		}

		decremented = append(decremented, decrementedLine{variantID: item.VariantID, quantity: item.Quantity})

		if remaining == 0 {
			depleted = append(depleted, item.VariantID)
		}
	}

	return depleted, nil
}

func (s *fulfillmentService) scheduleDelivery(ctx context.Context, order *models.Order, paymentID uuid.UUID, profile models.ShippingProfile) (*models.Delivery, error) {
	delivery := &models.Delivery{
		ID:                    uuid.New(),
		OrderID:               order.ID,
		Status:                models.DeliveryStatusPending,
		RecipientName:         profile.Name,
		Address:               profile.Address,
		EstimatedDeliveryDate: time.Now().Add(s.leadTime),
	}

	if err := s.deliveries.CreateDelivery(ctx, delivery); err != nil {
		s.rollbackInventory(ctx, order)
		s.markFailedPostCapture(ctx, paymentID)
		s.markPartiallyCommitted(ctx, order.ID)

		return nil, apperrors.PartialCommitError("Delivery scheduling failed after inventory commit").WithError(err)
	}

	if err := s.orders.SetDeliveryID(ctx, order.ID, delivery.ID); err != nil {
		slog.Error("Failed to link delivery to order",
			slog.String("orderId", order.ID.String()),
			slog.String("deliveryId", delivery.ID.String()),
			slog.String("error", err.Error()))
	}

	order.DeliveryID = &delivery.ID

	return delivery, nil
}

// reconcileCarts clears the completing cart and scrubs depleted variants
// from every other shopper's cart. This is a best-effort sweep; failures
// are logged, never propagated, because the order is already committed.
func (s *fulfillmentService) reconcileCarts(ctx context.Context, cartID uuid.UUID, depleted []uuid.UUID) {
	if err := s.carts.DeleteItems(ctx, cartID); err != nil {
		slog.Error("Failed to clear completed cart", slog.String("cartId", cartID.String()), slog.String("error", err.Error()))
	}

	if err := s.carts.UpdateTotals(ctx, cartID, 0, 0, 0); err != nil {
		slog.Error("Failed to reset cart totals", slog.String("cartId", cartID.String()), slog.String("error", err.Error()))
	}

	for _, variantID := range depleted {
		affected, err := s.carts.DeleteVariantFromOtherCarts(ctx, variantID, cartID)
		if err != nil {
			slog.Error("Failed to scrub depleted variant",
				slog.String("variantId", variantID.String()),
				slog.String("error", err.Error()))

			continue
		}

		for _, affectedCartID := range affected {
			if err := recomputeCartTotals(ctx, s.carts, affectedCartID); err != nil {
				slog.Error("Failed to recompute cart totals after scrub",
					slog.String("cartId", affectedCartID.String()),
					slog.String("error", err.Error()))
			}
		}
	}
}

// compensate restores the inventory already taken by a failed commit and
// parks the payment and order for operator intervention.
func (s *fulfillmentService) compensate(ctx context.Context, decremented []decrementedLine, paymentID, orderID uuid.UUID) {
	metrics.PartialCommits.Inc()

	for _, line := range decremented {
		if err := s.products.RestoreStock(ctx, line.variantID, line.quantity); err != nil {
			slog.Error("Failed to restore stock during compensation",
				slog.String("variantId", line.variantID.String()),
				slog.String("error", err.Error()))
		}
	}

	s.markFailedPostCapture(ctx, paymentID)
	s.markPartiallyCommitted(ctx, orderID)
}

func (s *fulfillmentService) rollbackInventory(ctx context.Context, order *models.Order) {
	metrics.PartialCommits.Inc()

	for _, item := range order.Items {
		if err := s.products.RestoreStock(ctx, item.VariantID, item.Quantity); err != nil {
			slog.Error("Failed to restore stock during compensation",
				slog.String("variantId", item.VariantID.String()),
				slog.String("error", err.Error()))
		}
	}
}

func (s *fulfillmentService) markFailedPostCapture(ctx context.Context, paymentID uuid.UUID) {
	if err := s.payments.UpdatePaymentStatus(ctx, paymentID, models.PaymentStatusFailedPostCapture); err != nil {
		slog.Error("Failed to mark payment failed-post-capture",
			slog.String("paymentId", paymentID.String()),
			slog.String("error", err.Error()))
	}
}

// releaseClaim frees an event id whose delivery failed before any durable
// side effect. Redeliveries are only ignored after the first successful
// commit; a transient failure here must stay retryable.
func (s *fulfillmentService) releaseClaim(ctx context.Context, eventID string) {
	if err := s.events.Release(ctx, eventID); err != nil {
		slog.Error("Failed to release webhook event claim",
			slog.String("eventId", eventID),
			slog.String("error", err.Error()))
	}
}

func (s *fulfillmentService) markPartiallyCommitted(ctx context.Context, orderID uuid.UUID) {
	if err := s.orders.UpdateOrderStatus(ctx, orderID, models.OrderStatusPartiallyCommitted); err != nil {
		slog.Error("Failed to mark order partially committed",
			slog.String("orderId", orderID.String()),
			slog.String("error", err.Error()))
	}
}

func (s *fulfillmentService) processRefund(ctx context.Context, event stripe.Event) error {
	object := event.Data.Object

	paymentIntentID, ok := object["payment_intent"].(string)
	if !ok || paymentIntentID == "" {
		return apperrors.BadRequestError("Missing payment intent id in refund event")
	}

	// refund redelivery would double-restore stock without the same claim
	fresh, err := s.events.Record(ctx, event.ID, string(event.Type))
	if err != nil {
		return apperrors.DatabaseError("Failed to record webhook event").WithError(err)
	}

	if !fresh {
		metrics.DuplicateEventsIgnored.Inc()

		return nil
	}

	payment, err := s.payments.GetPaymentByTransactionID(ctx, paymentIntentID)
	if err != nil {
		s.releaseClaim(ctx, event.ID)

		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFoundError("Payment not found for refund").WithError(err)
		}

		return apperrors.DatabaseError("Failed to look up payment").WithError(err)
	}

	if err := s.payments.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusRefunded); err != nil {
		s.releaseClaim(ctx, event.ID)

		return apperrors.DatabaseError("Failed to update payment status").WithError(err)
	}

	order, err := s.orders.GetOrderByPaymentID(ctx, payment.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFoundError("Order not found for refund").WithError(err)
		}

		return apperrors.DatabaseError("Failed to look up order").WithError(err)
	}

	for _, item := range order.Items {
		outstanding := item.Quantity - item.RefundedQuantity
		if outstanding <= 0 {
			continue
		}

		if err := s.orders.UpdateItemRefund(ctx, item.ID, outstanding); err != nil {
			return apperrors.DatabaseError("Failed to mark item refunded").WithError(err)
		}

		if err := s.products.RestoreStock(ctx, item.VariantID, outstanding); err != nil {
			return apperrors.DatabaseError(fmt.Sprintf("Failed to restore stock for variant %s", item.VariantID)).WithError(err)
		}
	}

	if err := s.orders.UpdateOrderStatus(ctx, order.ID, models.OrderStatusRefunded); err != nil {
		return apperrors.DatabaseError("Failed to mark order refunded").WithError(err)
	}

	slog.Info("Order refunded", slog.String("orderId", order.ID.String()))

	return nil
}
