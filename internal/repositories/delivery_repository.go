package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopmesh/storefront/internal/models"
)

type DeliveryRepository interface {
	CreateDelivery(ctx context.Context, delivery *models.Delivery) error
	GetDeliveryByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	GetDeliveryByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error)
	UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status models.DeliveryStatus, actualDate *time.Time) error
}

type deliveryRepository struct {
	DB *sql.DB
}

func NewDeliveryRepo(db *sql.DB) DeliveryRepository {
	return &deliveryRepository{DB: db}
}

func (r *deliveryRepository) CreateDelivery(ctx context.Context, delivery *models.Delivery) error {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO deliveries (id, order_id, status, recipient_name, street, city, state, postal_code, country, estimated_delivery_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`

	_, err := r.DB.ExecContext(dbCtx, query,
		delivery.ID, delivery.OrderID, delivery.Status, delivery.RecipientName,
		delivery.Address.Street, delivery.Address.City, delivery.Address.State,
		delivery.Address.PostalCode, delivery.Address.Country,
		delivery.EstimatedDeliveryDate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert delivery: %w", err)
	}

	return nil
}

func (r *deliveryRepository) GetDeliveryByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, order_id, status, recipient_name, street, city, state, postal_code, country, estimated_delivery_date, actual_delivery_date, created_at, updated_at
		FROM deliveries
		WHERE id = $1
	`

	return r.scanDelivery(r.DB.QueryRowContext(dbCtx, query, id))
}

func (r *deliveryRepository) GetDeliveryByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error) {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, order_id, status, recipient_name, street, city, state, postal_code, country, estimated_delivery_date, actual_delivery_date, created_at, updated_at
		FROM deliveries
		WHERE order_id = $1
	`

	return r.scanDelivery(r.DB.QueryRowContext(dbCtx, query, orderID))
}

func (r *deliveryRepository) scanDelivery(row *sql.Row) (*models.Delivery, error) {
	delivery := &models.Delivery{}

	var actualDate sql.NullTime

	err := row.Scan(
		&delivery.ID, &delivery.OrderID, &delivery.Status, &delivery.RecipientName,
		&delivery.Address.Street, &delivery.Address.City, &delivery.Address.State,
		&delivery.Address.PostalCode, &delivery.Address.Country,
		&delivery.EstimatedDeliveryDate, &actualDate,
		&delivery.CreatedAt, &delivery.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}

	if actualDate.Valid {
		delivery.ActualDeliveryDate = &actualDate.Time
	}

	return delivery, nil
}

func (r *deliveryRepository) UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status models.DeliveryStatus, actualDate *time.Time) error {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE deliveries SET status = $1, actual_delivery_date = $2, updated_at = $3 WHERE id = $4
	`

	var actual sql.NullTime

	if actualDate != nil {
		actual = sql.NullTime{Time: *actualDate, Valid: true}
	}

	result, err := r.DB.ExecContext(dbCtx, query, status, actual, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update delivery status: %w", err)
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
