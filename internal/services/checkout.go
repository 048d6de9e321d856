package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	apperrors "github.com/shopmesh/storefront/internal/errors"
	"github.com/shopmesh/storefront/internal/models"
	repository "github.com/shopmesh/storefront/internal/repositories"
	"github.com/shopmesh/storefront/pkg/stripe"
)

type CheckoutService interface {
	// InitiateCheckout snapshots the shopper's cart, runs the advisory
	// stock pre-check and requests a hosted checkout session from the
	// payment gateway. The returned URL is where the shopper pays.
	InitiateCheckout(ctx context.Context, userID uuid.UUID) (*models.CheckoutSessionResponse, error)
}

type checkoutService struct {
	users        repository.UserRepository
	carts        repository.CartRepository
	stripeClient stripe.Client
	currency     string
	successURL   string
	cancelURL    string
}

func NewCheckoutService(users repository.UserRepository, carts repository.CartRepository, stripeClient stripe.Client, currency, successURL, cancelURL string) CheckoutService {
	return &checkoutService{
		users:        users,
		carts:        carts,
		stripeClient: stripeClient,
		currency:     currency,
		successURL:   successURL,
		cancelURL:    cancelURL,
	}
}

func (s *checkoutService) InitiateCheckout(ctx context.Context, userID uuid.UUID) (*models.CheckoutSessionResponse, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("Shopper profile not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to load shopper profile").WithError(err)
	}

	if !user.HasShippingAddress() {
		return nil, apperrors.InvalidStateError("Shopper profile has no shipping address")
	}

	cart, err := s.carts.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError("Failed to load cart").WithError(err)
	}

	lines, err := s.carts.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, apperrors.DatabaseError("Failed to read cart lines").WithError(err)
	}

	if len(lines) == 0 {
		return nil, apperrors.BadRequestError("Cannot check out an empty cart")
	}

	// Advisory pre-check: every unsatisfiable line is collected so the
	// shopper sees all problems at once. The authoritative check is the
	// conditional decrement at commit time, not this.
	var shortages []apperrors.StockShortage

	for _, line := range lines {
		if line.Quantity > line.Inventory {
			shortages = append(shortages, apperrors.StockShortage{
				VariantID:   line.VariantID.String(),
				ProductName: line.ProductName,
				Requested:   line.Quantity,
				Available:   line.Inventory,
			})
		}
	}

	if len(shortages) > 0 {
		return nil, apperrors.OutOfStockError(shortages)
	}

	profile := models.ShippingProfile{
		Version: models.ShippingProfileVersion,
		Name:    user.Name,
		Email:   user.Email,
		Address: user.Address,
	}

	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, apperrors.InternalError("Failed to serialize shipping profile").WithError(err)
	}

	checkoutLines := make([]stripe.CheckoutLine, 0, len(lines))

	for _, line := range lines {
		checkoutLines = append(checkoutLines, stripe.CheckoutLine{
			ProductName: line.ProductName,
			ImageURL:    line.Image,
			UnitAmount:  line.UnitPrice.Units(),
			Quantity:    int64(line.Quantity),
		})
	}

	session, err := s.stripeClient.CreateCheckoutSession(&stripe.CheckoutSessionParams{
		Lines:         checkoutLines,
		CustomerEmail: user.Email,
		Currency:      s.currency,
		SuccessURL:    s.successURL,
		CancelURL:     s.cancelURL,
		Metadata: map[string]string{
			models.MetadataCartID:  cart.ID.String(),
			models.MetadataUserID:  userID.String(),
			models.MetadataProfile: string(profileJSON),
		},
	})
	if err != nil {
		return nil, apperrors.ThirdPartyError("Failed to create checkout session").WithError(err)
	}

	return &models.CheckoutSessionResponse{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	}, nil
}
