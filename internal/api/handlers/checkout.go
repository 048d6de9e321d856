package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopmesh/storefront/internal/api/middleware"
	"github.com/shopmesh/storefront/internal/errors"
	"github.com/shopmesh/storefront/internal/metrics"
	"github.com/shopmesh/storefront/internal/models"
	"github.com/shopmesh/storefront/internal/repositories/redis"
	service "github.com/shopmesh/storefront/internal/services"
	"github.com/shopmesh/storefront/internal/utils/response"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	rateLimiter     *redis.RateLimiter
}

func NewCheckoutHandler(checkoutService service.CheckoutService, rateLimiter *redis.RateLimiter) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService, rateLimiter: rateLimiter}
}

func (h *CheckoutHandler) InitiateCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized checkout attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		allowed, remaining, retryAfter, err := h.rateLimiter.Allow(r.Context(), claims.UserID.String())
		if err != nil {
			// a broken limiter must not block checkout
			logger.Error("Rate limiter unavailable", slog.String("error", err.Error()))
		} else if !allowed {
			logger.Warn("Checkout rate limit exceeded",
				slog.String("userId", claims.UserID.String()),
				slog.Int("retryAfter", retryAfter))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			response.Error(w, errors.TooManyRequestsError("Too many checkout attempts, slow down"))
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		session, err := h.checkoutService.InitiateCheckout(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("Failed to initiate checkout",
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		metrics.CheckoutSessionsStarted.Inc()
		logger.Info("Checkout session created",
			slog.String("userId", claims.UserID.String()),
			slog.String("sessionId", session.SessionID))
		response.Success(w, http.StatusOK, session)
	}
}
