package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	repository "github.com/shopmesh/storefront/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecrementStock(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewProductRepo(db)
	ctx := context.Background()
	variantID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(`UPDATE product_variants`).
			WithArgs(2, variantID).
			WillReturnRows(sqlmock.NewRows([]string{"inventory"}).AddRow(3))

		// Act
		remaining, err := repo.DecrementStock(ctx, variantID, 2)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 3, remaining)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Insufficient Stock", func(t *testing.T) {
		// Arrange: the conditional update matched no row but the variant exists
		mock.ExpectQuery(`UPDATE product_variants`).
			WithArgs(5, variantID).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(variantID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		// Act
		remaining, err := repo.DecrementStock(ctx, variantID, 5)

		// Assert
		assert.Equal(t, 0, remaining)
		assert.ErrorIs(t, err, repository.ErrInsufficientStock)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing Variant", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(`UPDATE product_variants`).
			WithArgs(1, variantID).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(variantID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		// Act
		_, err := repo.DecrementStock(ctx, variantID, 1)

		// Assert
		assert.ErrorIs(t, err, sql.ErrNoRows)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		// Arrange
		dbError := errors.New("connection reset")
		mock.ExpectQuery(`UPDATE product_variants`).
			WithArgs(1, variantID).
			WillReturnError(dbError)

		// Act
		_, err := repo.DecrementStock(ctx, variantID, 1)

		// Assert
		assert.ErrorIs(t, err, dbError)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRestoreStock(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewProductRepo(db)
	ctx := context.Background()
	variantID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mock.ExpectExec(`UPDATE product_variants`).
			WithArgs(2, variantID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Act
		err := repo.RestoreStock(ctx, variantID, 2)

		// Assert
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing Variant", func(t *testing.T) {
		// Arrange
		mock.ExpectExec(`UPDATE product_variants`).
			WithArgs(2, variantID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		// Act
		err := repo.RestoreStock(ctx, variantID, 2)

		// Assert
		assert.ErrorIs(t, err, sql.ErrNoRows)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVariantByID(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewProductRepo(db)
	ctx := context.Background()
	variantID := uuid.New()
	productID := uuid.New()
	now := time.Now()

	t.Run("Success - Sale Price Present", func(t *testing.T) {
		// Arrange
		rows := sqlmock.NewRows([]string{"id", "product_id", "sku", "inventory", "global_price", "sale_price", "created_at", "updated_at"}).
			AddRow(variantID, productID, "SKU-1", 7, int64(1999), int64(1499), now, now)
		mock.ExpectQuery(`SELECT id, product_id, sku, inventory, global_price, sale_price`).
			WithArgs(variantID).
			WillReturnRows(rows)

		// Act
		variant, err := repo.VariantByID(ctx, variantID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 7, variant.Inventory)
		assert.Equal(t, int64(1999), variant.GlobalPrice.Units())
		require.NotNil(t, variant.SalePrice)
		assert.Equal(t, int64(1499), variant.SalePrice.Units())
		assert.Equal(t, int64(1499), variant.UnitPrice().Units())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - No Sale Price", func(t *testing.T) {
		// Arrange
		rows := sqlmock.NewRows([]string{"id", "product_id", "sku", "inventory", "global_price", "sale_price", "created_at", "updated_at"}).
			AddRow(variantID, productID, "SKU-1", 7, int64(1999), nil, now, now)
		mock.ExpectQuery(`SELECT id, product_id, sku, inventory, global_price, sale_price`).
			WithArgs(variantID).
			WillReturnRows(rows)

		// Act
		variant, err := repo.VariantByID(ctx, variantID)

		// Assert
		require.NoError(t, err)
		assert.Nil(t, variant.SalePrice)
		assert.Equal(t, int64(1999), variant.UnitPrice().Units())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(`SELECT id, product_id, sku, inventory, global_price, sale_price`).
			WithArgs(variantID).
			WillReturnError(sql.ErrNoRows)

		// Act
		variant, err := repo.VariantByID(ctx, variantID)

		// Assert
		assert.Nil(t, variant)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
