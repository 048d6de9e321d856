package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopmesh/storefront/internal/models"
	"github.com/shopmesh/storefront/pkg/money"
)

// ErrInsufficientStock is returned when a conditional decrement cannot be
// satisfied without driving inventory below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

type ProductRepository interface {
	VariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	// DecrementStock atomically decrements a variant's inventory and returns
	// the remaining count. The decrement only applies when the result stays
	// non-negative; otherwise ErrInsufficientStock is returned and nothing
	// changes. This single conditional update is the authoritative stock
	// check, not the earlier advisory pre-check.
	DecrementStock(ctx context.Context, variantID uuid.UUID, quantity int) (int, error)
	// RestoreStock is the symmetric increment, used by refund and
	// compensation flows.
	RestoreStock(ctx context.Context, variantID uuid.UUID, quantity int) error
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

func (r *productRepository) VariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, product_id, sku, inventory, global_price, sale_price, created_at, updated_at
		FROM product_variants
		WHERE id = $1
	`

	variant := &models.ProductVariant{}

	var salePrice sql.NullInt64

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(
		&variant.ID, &variant.ProductID, &variant.SKU, &variant.Inventory,
		&variant.GlobalPrice, &salePrice, &variant.CreatedAt, &variant.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get product variant: %w", err)
	}

	if salePrice.Valid {
		price := money.FromUnits(salePrice.Int64)
		variant.SalePrice = &price
	}

	return variant, nil
}

func (r *productRepository) DecrementStock(ctx context.Context, variantID uuid.UUID, quantity int) (int, error) {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	// The WHERE clause makes the decrement conditional; concurrent commits
	// against the same variant serialize on the row and the loser sees zero
	// rows affected.
	query := `
		UPDATE product_variants
		SET inventory = inventory - $1, updated_at = NOW()
		WHERE id = $2 AND inventory >= $1
		RETURNING inventory
	`

	var remaining int

	err := r.DB.QueryRowContext(dbCtx, query, quantity, variantID).Scan(&remaining)
	if err != nil {
		if err == sql.ErrNoRows {
			// distinguish a missing variant from an unsatisfiable decrement
			var exists bool
			checkErr := r.DB.QueryRowContext(dbCtx, `SELECT EXISTS(SELECT 1 FROM product_variants WHERE id = $1)`, variantID).Scan(&exists)
			if checkErr != nil {
				return 0, fmt.Errorf("failed to check variant existence: %w", checkErr)
			}

			if !exists {
				return 0, sql.ErrNoRows
			}

			return 0, ErrInsufficientStock
		}

		return 0, fmt.Errorf("failed to decrement stock: %w", err)
	}

	return remaining, nil
}

func (r *productRepository) RestoreStock(ctx context.Context, variantID uuid.UUID, quantity int) error {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE product_variants
		SET inventory = inventory + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.DB.ExecContext(dbCtx, query, quantity, variantID)
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
