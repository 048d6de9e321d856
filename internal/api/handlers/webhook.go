package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/shopmesh/storefront/internal/errors"
	service "github.com/shopmesh/storefront/internal/services"
	"github.com/shopmesh/storefront/internal/utils/response"
)

type WebhookHandler struct {
	fulfillmentService service.FulfillmentService
}

func NewWebhookHandler(fulfillmentService service.FulfillmentService) *WebhookHandler {
	return &WebhookHandler{fulfillmentService: fulfillmentService}
}

// HandleStripeWebhook is the entry point for gateway event delivery. Any
// non-2xx response makes the gateway retry the event, so only genuine
// processing failures may return errors.
func (h *WebhookHandler) HandleStripeWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			slog.Error("Error reading webhook body", slog.String("error", err.Error()))
			response.Error(w, errors.BadRequestError("Failed to read request body"))
			return
		}

		signature := r.Header.Get("Stripe-Signature")
		if signature == "" {
			slog.Error("Missing Stripe signature")
			response.Error(w, errors.UnauthorizedError("Stripe signature is required"))
			return
		}

		if err := h.fulfillmentService.HandleWebhook(r.Context(), payload, signature); err != nil {
			slog.Error("Failed to process gateway webhook", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, map[string]bool{"received": true})
	}
}
