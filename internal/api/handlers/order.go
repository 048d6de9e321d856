package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopmesh/storefront/internal/api/middleware"
	"github.com/shopmesh/storefront/internal/errors"
	"github.com/shopmesh/storefront/internal/models"
	service "github.com/shopmesh/storefront/internal/services"
	"github.com/shopmesh/storefront/internal/utils"
	"github.com/shopmesh/storefront/internal/utils/response"
)

type OrderHandler struct {
	orderService service.OrderService
	validator    *validator.Validate
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService, validator: validator.New()}
}

func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			slog.Warn("Unauthorized order access attempt")
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
			slog.Error("Failed to get order",
				slog.String("orderId", orderID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		if order.UserID != claims.UserID && !claims.IsAdmin() {
			slog.Warn("User attempted to read another user's order",
				slog.String("requesterId", claims.UserID.String()),
				slog.String("orderId", orderID.String()))
			response.Error(w, errors.ForbiddenError("You can only access your own orders"))
			return
		}

		response.Success(w, http.StatusOK, models.OrderResponse{Order: order})
	}
}

func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			slog.Warn("Unauthorized order access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}
		size, err := strconv.Atoi(r.URL.Query().Get("size"))
		if err != nil || size < 1 || size > 100 {
			size = 10
		}

		orders, total, err := h.orderService.ListOrdersByUser(r.Context(), claims.UserID, page, size)
		if err != nil {
			slog.Error("Failed to list user orders",
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.OrderHistoryResponse{
			Orders: orders,
			Total:  total,
			Page:   page,
			Size:   size,
		})
	}
}

// UpdateStatus is operator-only, guarded by the admin middleware.
func (h *OrderHandler) UpdateStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		orderID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			response.Error(w, errors.BadRequestError("Invalid order ID"))
			return
		}

		var req models.UpdateOrderStatusRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		order, err := h.orderService.UpdateOrderStatus(r.Context(), orderID, req.Status)
		if err != nil {
			slog.Error("Failed to update order status",
				slog.String("orderId", orderID.String()),
				slog.String("status", string(req.Status)),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		slog.Info("Order status updated",
			slog.String("orderId", orderID.String()),
			slog.String("status", string(order.Status)))
		response.Success(w, http.StatusOK, models.OrderResponse{Order: order})
	}
}

// RefundItem is operator-only, guarded by the admin middleware.
func (h *OrderHandler) RefundItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		orderID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			response.Error(w, errors.BadRequestError("Invalid order ID"))
			return
		}

		itemID, err := uuid.Parse(r.PathValue("itemId"))
		if err != nil {
			response.Error(w, errors.BadRequestError("Invalid order item ID"))
			return
		}

		var req models.RefundItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		order, err := h.orderService.RefundOrderItem(r.Context(), orderID, itemID, req.Quantity)
		if err != nil {
			slog.Error("Failed to refund order item",
				slog.String("orderId", orderID.String()),
				slog.String("itemId", itemID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		slog.Info("Order item refunded",
			slog.String("orderId", orderID.String()),
			slog.String("itemId", itemID.String()),
			slog.Int("quantity", req.Quantity))
		response.Success(w, http.StatusOK, models.OrderResponse{Order: order})
	}
}
