package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopmesh/storefront/internal/models"
)

type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) error
}

type paymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepo(db *sql.DB) PaymentRepository {
	return &paymentRepository{DB: db}
}

func (r *paymentRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO payments (id, email, amount_total, status, method, transaction_id, customer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`

	_, err := r.DB.ExecContext(dbCtx, query,
		payment.ID, payment.Email, payment.AmountTotal, payment.Status,
		payment.Method, payment.TransactionID, payment.CustomerID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return nil
}

func (r *paymentRepository) GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, email, amount_total, status, method, transaction_id, customer_id, created_at, updated_at
		FROM payments
		WHERE id = $1
	`

	return r.scanPayment(r.DB.QueryRowContext(dbCtx, query, id))
}

func (r *paymentRepository) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, email, amount_total, status, method, transaction_id, customer_id, created_at, updated_at
		FROM payments
		WHERE transaction_id = $1
	`

	return r.scanPayment(r.DB.QueryRowContext(dbCtx, query, transactionID))
}

func (r *paymentRepository) scanPayment(row *sql.Row) (*models.Payment, error) {
	payment := &models.Payment{}

	err := row.Scan(
		&payment.ID, &payment.Email, &payment.AmountTotal, &payment.Status,
		&payment.Method, &payment.TransactionID, &payment.CustomerID,
		&payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return payment, nil
}

func (r *paymentRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) error {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE payments SET status = $1, updated_at = $2 WHERE id = $3
	`

	result, err := r.DB.ExecContext(dbCtx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
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
