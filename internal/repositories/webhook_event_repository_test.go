package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	repository "github.com/shopmesh/storefront/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWebhookEvent(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewWebhookEventRepo(db)
	ctx := context.Background()

	t.Run("Fresh Event Is Claimed", func(t *testing.T) {
		// Arrange
		mock.ExpectExec(`INSERT INTO webhook_events`).
			WithArgs("evt_test_123", "checkout.session.completed").
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Act
		fresh, err := repo.Record(ctx, "evt_test_123", "checkout.session.completed")

		// Assert
		require.NoError(t, err)
		assert.True(t, fresh)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Redelivered Event Is Rejected", func(t *testing.T) {
		// Arrange: ON CONFLICT DO NOTHING leaves zero rows affected
		mock.ExpectExec(`INSERT INTO webhook_events`).
			WithArgs("evt_test_123", "checkout.session.completed").
			WillReturnResult(sqlmock.NewResult(0, 0))

		// Act
		fresh, err := repo.Record(ctx, "evt_test_123", "checkout.session.completed")

		// Assert
		require.NoError(t, err)
		assert.False(t, fresh)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		// Arrange
		dbErr := errors.New("connection reset")
		mock.ExpectExec(`INSERT INTO webhook_events`).
			WithArgs("evt_test_456", "charge.refunded").
			WillReturnError(dbErr)

		// Act
		fresh, err := repo.Record(ctx, "evt_test_456", "charge.refunded")

		// Assert
		assert.False(t, fresh)
		assert.ErrorIs(t, err, dbErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReleaseWebhookEvent(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewWebhookEventRepo(db)
	ctx := context.Background()

	t.Run("Claim Is Freed For The Retry", func(t *testing.T) {
		// Arrange
		mock.ExpectExec(`DELETE FROM webhook_events`).
			WithArgs("evt_test_123").
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Act
		err := repo.Release(ctx, "evt_test_123")

		// Assert
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Releasing An Unknown Event Is Harmless", func(t *testing.T) {
		// Arrange
		mock.ExpectExec(`DELETE FROM webhook_events`).
			WithArgs("evt_never_claimed").
			WillReturnResult(sqlmock.NewResult(0, 0))

		// Act
		err := repo.Release(ctx, "evt_never_claimed")

		// Assert
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		// Arrange
		dbErr := errors.New("connection reset")
		mock.ExpectExec(`DELETE FROM webhook_events`).
			WithArgs("evt_test_123").
			WillReturnError(dbErr)

		// Act
		err := repo.Release(ctx, "evt_test_123")

		// Assert
		assert.ErrorIs(t, err, dbErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
