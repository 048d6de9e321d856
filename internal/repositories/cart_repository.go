package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopmesh/storefront/internal/models"
	"github.com/shopmesh/storefront/pkg/money"
)

type CartRepository interface {
	GetOrCreateByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetCartByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	// ListLines re-reads the live line items joined with current variant
	// price and inventory. Both totals recomputation and order compilation
	// read through this, so the cart is always priced against live data.
	ListLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error)
	GetItem(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error)
	InsertItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	UpdateTotals(ctx context.Context, cartID uuid.UUID, amount money.Money, totalItems, totalProducts int) error
	// DeleteVariantFromOtherCarts removes a variant's line from every cart
	// except the one given and returns the affected cart ids so their
	// cached totals can be recomputed.
	DeleteVariantFromOtherCarts(ctx context.Context, variantID, excludeCartID uuid.UUID) ([]uuid.UUID, error)
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

func (r *cartRepository) GetOrCreateByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	cart := &models.Cart{}

	query := `
		SELECT id, user_id, amount, total_items, total_products, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`

	err := r.DB.QueryRowContext(dbCtx, query, userID).Scan(
		&cart.ID, &cart.UserID, &cart.Amount, &cart.TotalItems, &cart.TotalProducts,
		&cart.CreatedAt, &cart.UpdatedAt,
	)
	if err == nil {
		return cart, nil
	}

	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	// carts are created lazily, one per shopper
	insert := `
		INSERT INTO carts (id, user_id, amount, total_items, total_products, created_at, updated_at)
		VALUES ($1, $2, 0, 0, 0, NOW(), NOW())
		RETURNING id, user_id, amount, total_items, total_products, created_at, updated_at
	`

	err = r.DB.QueryRowContext(dbCtx, insert, uuid.New(), userID).Scan(
		&cart.ID, &cart.UserID, &cart.Amount, &cart.TotalItems, &cart.TotalProducts,
		&cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	return cart, nil
}

func (r *cartRepository) GetCartByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, user_id, amount, total_items, total_products, created_at, updated_at
		FROM carts
		WHERE id = $1
	`

	cart := &models.Cart{}

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(
		&cart.ID, &cart.UserID, &cart.Amount, &cart.TotalItems, &cart.TotalProducts,
		&cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return cart, nil
}

func (r *cartRepository) ListLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT ci.id, ci.variant_id, p.id, p.name, p.image,
		       COALESCE(v.sale_price, v.global_price), ci.quantity, v.inventory
		FROM cart_items ci
		JOIN product_variants v ON v.id = ci.variant_id
		JOIN products p ON p.id = v.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at
	`

	rows, err := r.DB.QueryContext(dbCtx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}

	defer rows.Close()

	var lines []models.CartLine

	for rows.Next() {
		var line models.CartLine

		err := rows.Scan(
			&line.ItemID, &line.VariantID, &line.ProductID, &line.ProductName,
			&line.Image, &line.UnitPrice, &line.Quantity, &line.Inventory,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}

		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart lines: %w", err)
	}

	return lines, nil
}

func (r *cartRepository) GetItem(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error) {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, cart_id, variant_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1 AND variant_id = $2
	`

	item := &models.CartItem{}

	err := r.DB.QueryRowContext(dbCtx, query, cartID, variantID).Scan(
		&item.ID, &item.CartID, &item.VariantID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}

	return item, nil
}

func (r *cartRepository) InsertItem(ctx context.Context, item *models.CartItem) error {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO cart_items (id, cart_id, variant_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	return r.DB.QueryRowContext(dbCtx, query, item.ID, item.CartID, item.VariantID, item.Quantity).
		Scan(&item.CreatedAt, &item.UpdatedAt)
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE cart_items SET quantity = $1, updated_at = $2 WHERE id = $3
	`

	result, err := r.DB.ExecContext(dbCtx, query, quantity, time.Now(), itemID)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	deletedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get deleted rows: %w", err)
	}

	if deletedRows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *cartRepository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	_, err := r.DB.ExecContext(dbCtx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}

	return nil
}

func (r *cartRepository) UpdateTotals(ctx context.Context, cartID uuid.UUID, amount money.Money, totalItems, totalProducts int) error {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE carts
		SET amount = $1, total_items = $2, total_products = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.DB.ExecContext(dbCtx, query, amount, totalItems, totalProducts, time.Now(), cartID)
	if err != nil {
		return fmt.Errorf("failed to update cart totals: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *cartRepository) DeleteVariantFromOtherCarts(ctx context.Context, variantID, excludeCartID uuid.UUID) ([]uuid.UUID, error) {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		DELETE FROM cart_items
		WHERE variant_id = $1 AND cart_id <> $2
		RETURNING cart_id
	`

	rows, err := r.DB.QueryContext(dbCtx, query, variantID, excludeCartID)
	if err != nil {
		return nil, fmt.Errorf("failed to scrub variant from carts: %w", err)
	}

	defer rows.Close()

	var cartIDs []uuid.UUID

	for rows.Next() {
		var cartID uuid.UUID

		if err := rows.Scan(&cartID); err != nil {
			return nil, fmt.Errorf("failed to scan cart id: %w", err)
		}

		cartIDs = append(cartIDs, cartID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate affected carts: %w", err)
	}

	return cartIDs, nil
}
