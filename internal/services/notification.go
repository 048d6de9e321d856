package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopmesh/storefront/internal/models"
	"github.com/shopmesh/storefront/pkg/sendgrid"
)

// NotificationDispatcher formats and hands off the confirmation notice for
// a committed order. Delivery of the message is the mailer's problem;
// failures here never roll back fulfillment.
type NotificationDispatcher interface {
	OrderConfirmation(ctx context.Context, to string, order *models.Order, delivery *models.Delivery) error
}

type notificationDispatcher struct {
	emailService sendgrid.EmailService
}

func NewNotificationDispatcher(emailService sendgrid.EmailService) NotificationDispatcher {
	return &notificationDispatcher{emailService: emailService}
}

// OrderConfirmation implements NotificationDispatcher.
func (d *notificationDispatcher) OrderConfirmation(ctx context.Context, to string, order *models.Order, delivery *models.Delivery) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Thank you for your order %s.\n\n", order.ID)

	for _, item := range order.Items {
		fmt.Fprintf(&sb, "%d x %s @ %s = %s\n", item.Quantity, item.ProductName, item.UnitAmount, item.TotalPrice)
	}

	fmt.Fprintf(&sb, "\nTotal: %s\n", order.TotalAmount)
	fmt.Fprintf(&sb, "Estimated delivery: %s\n", delivery.EstimatedDeliveryDate.Format("Monday, 2 January 2006"))
	fmt.Fprintf(&sb, "Shipping to: %s, %s, %s %s, %s\n",
		delivery.Address.Street, delivery.Address.City, delivery.Address.State,
		delivery.Address.PostalCode, delivery.Address.Country)

	return d.emailService.Send(ctx, &models.EmailNotificationRequest{
		To:      to,
		Subject: fmt.Sprintf("Order confirmation %s", order.ID),
		Content: sb.String(),
	})
}
