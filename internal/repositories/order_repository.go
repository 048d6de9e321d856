package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopmesh/storefront/internal/models"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error
	SetDeliveryID(ctx context.Context, orderID, deliveryID uuid.UUID) error
	// UpdateItemRefund adds quantity to a line's refunded count. The bound
	// against the purchased quantity is enforced inside the statement;
	// sql.ErrNoRows means the line is missing or the bound would be
	// exceeded.
	UpdateItemRefund(ctx context.Context, itemID uuid.UUID, quantity int) error
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO orders (id, user_id, payment_id, status, total_amount, shipping_amount, discount_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`

	_, err := r.DB.ExecContext(dbCtx, query,
		order.ID, order.UserID, order.PaymentID, order.Status,
		order.TotalAmount, order.ShippingAmount, order.DiscountAmount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, variant_id, product_name, image, unit_amount, quantity, total_price, refunded_quantity, is_refunded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, FALSE, NOW())
	`

	for _, item := range order.Items {
		_, err := r.DB.ExecContext(dbCtx, itemQuery,
			item.ID, order.ID, item.VariantID, item.ProductName, item.Image,
			item.UnitAmount, item.Quantity, item.TotalPrice,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	order := &models.Order{}

	query := `
		SELECT id, user_id, payment_id, delivery_id, status, total_amount, shipping_amount, discount_amount, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var deliveryID uuid.NullUUID

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(
		&order.ID, &order.UserID, &order.PaymentID, &deliveryID, &order.Status,
		&order.TotalAmount, &order.ShippingAmount, &order.DiscountAmount,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if deliveryID.Valid {
		order.DeliveryID = &deliveryID.UUID
	}

	items, err := r.listItems(dbCtx, order.ID)
	if err != nil {
		return nil, err
	}

	order.Items = items

	return order, nil
}

func (r *orderRepository) GetOrderByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.Order, error) {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	var orderID uuid.UUID

	err := r.DB.QueryRowContext(dbCtx, `SELECT id FROM orders WHERE payment_id = $1`, paymentID).Scan(&orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}

		return nil, fmt.Errorf("failed to look up order by payment: %w", err)
	}

	return r.GetOrderByID(ctx, orderID)
}

func (r *orderRepository) listItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	query := `
		SELECT id, variant_id, product_name, image, unit_amount, quantity, total_price, refunded_quantity, is_refunded, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at
	`

	rows, err := r.DB.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}

	defer rows.Close()

	var items []models.OrderItem

	for rows.Next() {
		var item models.OrderItem

		err := rows.Scan(
			&item.ID, &item.VariantID, &item.ProductName, &item.Image,
			&item.UnitAmount, &item.Quantity, &item.TotalPrice,
			&item.RefundedQuantity, &item.IsRefunded, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		item.OrderID = orderID

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}

	return items, nil
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	var total int

	countQuery := `SELECT COUNT(*) FROM orders WHERE user_id = $1`

	if err := r.DB.QueryRowContext(dbCtx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * size

	query := `
		SELECT id, payment_id, delivery_id, status, total_amount, shipping_amount, discount_amount, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.DB.QueryContext(dbCtx, query, userID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	var orders []models.Order

	for rows.Next() {
		var order models.Order

		order.UserID = userID

		var deliveryID uuid.NullUUID

		err := rows.Scan(
			&order.ID, &order.PaymentID, &deliveryID, &order.Status,
			&order.TotalAmount, &order.ShippingAmount, &order.DiscountAmount,
			&order.CreatedAt, &order.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}

		if deliveryID.Valid {
			order.DeliveryID = &deliveryID.UUID
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate orders: %w", err)
	}

	for i := range orders {
		items, err := r.listItems(dbCtx, orders[i].ID)
		if err != nil {
			return nil, 0, err
		}

		orders[i].Items = items
	}

	return orders, total, nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3
	`

	result, err := r.DB.ExecContext(dbCtx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
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

func (r *orderRepository) SetDeliveryID(ctx context.Context, orderID, deliveryID uuid.UUID) error {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE orders SET delivery_id = $1, updated_at = $2 WHERE id = $3
	`

	result, err := r.DB.ExecContext(dbCtx, query, deliveryID, time.Now(), orderID)
	if err != nil {
		return fmt.Errorf("failed to set order delivery: %w", err)
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

func (r *orderRepository) UpdateItemRefund(ctx context.Context, itemID uuid.UUID, quantity int) error {
	dbCtx, cancel := withDBTimeout(ctx)
	defer cancel()

	// the bound check runs inside the UPDATE so two concurrent refunds of
	// the same line cannot both pass against a stale refunded_quantity
	query := `
		UPDATE order_items
		SET refunded_quantity = refunded_quantity + $1,
		    is_refunded = (refunded_quantity + $1 >= quantity)
		WHERE id = $2 AND refunded_quantity + $1 <= quantity
	`

	result, err := r.DB.ExecContext(dbCtx, query, quantity, itemID)
	if err != nil {
		return fmt.Errorf("failed to update item refund: %w", err)
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
