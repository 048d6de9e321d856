package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopmesh/storefront/internal/api/middleware"
	"github.com/shopmesh/storefront/internal/errors"
	"github.com/shopmesh/storefront/internal/models"
	service "github.com/shopmesh/storefront/internal/services"
	"github.com/shopmesh/storefront/internal/utils"
	"github.com/shopmesh/storefront/internal/utils/response"
)

type DeliveryHandler struct {
	deliveryService service.DeliveryService
	orderService    service.OrderService
	validator       *validator.Validate
}

func NewDeliveryHandler(deliveryService service.DeliveryService, orderService service.OrderService) *DeliveryHandler {
	return &DeliveryHandler{
		deliveryService: deliveryService,
		orderService:    orderService,
		validator:       validator.New(),
	}
}

func (h *DeliveryHandler) GetDeliveryByOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			slog.Warn("Unauthorized delivery access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		orderID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			response.Error(w, errors.BadRequestError("Invalid order ID"))
			return
		}

		order, err := h.orderService.GetOrderByID(r.Context(), orderID)
		if err != nil {
			response.Error(w, err)
			return
		}

		if order.UserID != claims.UserID && !claims.IsAdmin() {
			slog.Warn("User attempted to read another user's delivery",
				slog.String("requesterId", claims.UserID.String()),
				slog.String("orderId", orderID.String()))
			response.Error(w, errors.ForbiddenError("You can only access your own deliveries"))
			return
		}

		delivery, err := h.deliveryService.GetDeliveryByOrderID(r.Context(), orderID)
		if err != nil {
			slog.Error("Failed to get delivery",
				slog.String("orderId", orderID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, delivery)
	}
}

// UpdateStatus is operator-only, guarded by the admin middleware.
func (h *DeliveryHandler) UpdateStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		deliveryID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			response.Error(w, errors.BadRequestError("Invalid delivery ID"))
			return
		}

		var req models.UpdateDeliveryStatusRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		delivery, err := h.deliveryService.UpdateDeliveryStatus(r.Context(), deliveryID, req.Status)
		if err != nil {
			slog.Error("Failed to update delivery status",
				slog.String("deliveryId", deliveryID.String()),
				slog.String("status", string(req.Status)),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		slog.Info("Delivery status updated",
			slog.String("deliveryId", deliveryID.String()),
			slog.String("status", string(delivery.Status)))
		response.Success(w, http.StatusOK, delivery)
	}
}
