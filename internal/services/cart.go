package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	apperrors "github.com/shopmesh/storefront/internal/errors"
	"github.com/shopmesh/storefront/internal/models"
	repository "github.com/shopmesh/storefront/internal/repositories"
	"github.com/shopmesh/storefront/pkg/money"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.CartResponse, error)
	GetCartByID(ctx context.Context, cartID uuid.UUID) (*models.CartResponse, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.CartResponse, error)
	UpdateItem(ctx context.Context, userID uuid.UUID, req *models.UpdateItemRequest) (*models.CartResponse, error)
	RemoveItem(ctx context.Context, userID, variantID uuid.UUID) (*models.CartResponse, error)
	ClearCart(ctx context.Context, cartID uuid.UUID) error
	RecomputeTotals(ctx context.Context, cartID uuid.UUID) error
}

type cartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) CartService {
	return &cartService{carts: carts, products: products}
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.CartResponse, error) {
	cart, err := s.carts.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError("Failed to load cart").WithError(err)
	}

	return s.respond(ctx, cart)
}

func (s *cartService) GetCartByID(ctx context.Context, cartID uuid.UUID) (*models.CartResponse, error) {
	cart, err := s.carts.GetCartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("Cart not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to load cart").WithError(err)
	}

	return s.respond(ctx, cart)
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.CartResponse, error) {
	cart, err := s.carts.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError("Failed to load cart").WithError(err)
	}

	variant, err := s.products.VariantByID(ctx, req.VariantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to load product").WithError(err)
	}

	existing, err := s.carts.GetItem(ctx, cart.ID, req.VariantID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.DatabaseError("Failed to load cart item").WithError(err)
	}

	// requested quantity is the existing line plus the increment; the check
	// happens before any mutation
	requested := req.Quantity
	if existing != nil {
		requested += existing.Quantity
	}

	if variant.Inventory < requested {
		return nil, apperrors.OutOfStockError([]apperrors.StockShortage{{
			VariantID: variant.ID.String(),
			Requested: requested,
			Available: variant.Inventory,
		}})
	}

	if existing != nil {
		if err := s.carts.UpdateItemQuantity(ctx, existing.ID, requested); err != nil {
			return nil, apperrors.DatabaseError("Failed to update cart item").WithError(err)
		}
	} else {
		item := &models.CartItem{
			ID:        uuid.New(),
			CartID:    cart.ID,
			VariantID: req.VariantID,
			Quantity:  req.Quantity,
		}

		if err := s.carts.InsertItem(ctx, item); err != nil {
			return nil, apperrors.DatabaseError("Failed to add cart item").WithError(err)
		}
	}

	if err := s.RecomputeTotals(ctx, cart.ID); err != nil {
		return nil, err
	}

	return s.GetCartByID(ctx, cart.ID)
}

func (s *cartService) UpdateItem(ctx context.Context, userID uuid.UUID, req *models.UpdateItemRequest) (*models.CartResponse, error) {
	cart, err := s.carts.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError("Failed to load cart").WithError(err)
	}

	item, err := s.carts.GetItem(ctx, cart.ID, req.VariantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("Item not found in the cart").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to load cart item").WithError(err)
	}

	if req.Quantity == 0 {
		// a zero quantity destroys the line
		if err := s.carts.DeleteItem(ctx, item.ID); err != nil {
			return nil, apperrors.DatabaseError("Failed to remove cart item").WithError(err)
		}
	} else {
		variant, err := s.products.VariantByID(ctx, req.VariantID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, apperrors.NotFoundError("Product not found").WithError(err)
			}

			return nil, apperrors.DatabaseError("Failed to load product").WithError(err)
		}

		if variant.Inventory < req.Quantity {
			return nil, apperrors.OutOfStockError([]apperrors.StockShortage{{
				VariantID: variant.ID.String(),
				Requested: req.Quantity,
				Available: variant.Inventory,
			}})
		}

		if err := s.carts.UpdateItemQuantity(ctx, item.ID, req.Quantity); err != nil {
			return nil, apperrors.DatabaseError("Failed to update cart item").WithError(err)
		}
	}

	if err := s.RecomputeTotals(ctx, cart.ID); err != nil {
		return nil, err
	}

	return s.GetCartByID(ctx, cart.ID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, variantID uuid.UUID) (*models.CartResponse, error) {
	return s.UpdateItem(ctx, userID, &models.UpdateItemRequest{VariantID: variantID, Quantity: 0})
}

func (s *cartService) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	if _, err := s.carts.GetCartByID(ctx, cartID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFoundError("Cart not found").WithError(err)
		}

		return apperrors.DatabaseError("Failed to load cart").WithError(err)
	}

	if err := s.carts.DeleteItems(ctx, cartID); err != nil {
		return apperrors.DatabaseError("Failed to clear cart").WithError(err)
	}

	if err := s.carts.UpdateTotals(ctx, cartID, 0, 0, 0); err != nil {
		return apperrors.DatabaseError("Failed to reset cart totals").WithError(err)
	}

	return nil
}

// RecomputeTotals re-reads the live line items and overwrites the cached
// totals. The recomputation is the single source of truth for amount,
// totalItems and totalProducts; it is idempotent and last-writer-wins safe
// since the fields are a cache, not a financial record.
func (s *cartService) RecomputeTotals(ctx context.Context, cartID uuid.UUID) error {
	return recomputeCartTotals(ctx, s.carts, cartID)
}

func recomputeCartTotals(ctx context.Context, carts repository.CartRepository, cartID uuid.UUID) error {
	lines, err := carts.ListLines(ctx, cartID)
	if err != nil {
		return apperrors.DatabaseError("Failed to read cart lines").WithError(err)
	}

	var (
		amount        money.Money
		totalProducts int
	)

	for _, line := range lines {
		amount = amount.Add(line.LineTotal())
		totalProducts += line.Quantity
	}

	if err := carts.UpdateTotals(ctx, cartID, amount, len(lines), totalProducts); err != nil {
		return apperrors.DatabaseError("Failed to update cart totals").WithError(err)
	}

	return nil
}

func (s *cartService) respond(ctx context.Context, cart *models.Cart) (*models.CartResponse, error) {
	lines, err := s.carts.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, apperrors.DatabaseError("Failed to read cart lines").WithError(err)
	}

	return &models.CartResponse{Cart: cart, Lines: lines}, nil
}
