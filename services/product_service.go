package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"metaCoreAPI/internal/apperr"
	"metaCoreAPI/internal/product"
)

type ProductService struct {
	db *pgxpool.Pool
}

func NewProductService(db *pgxpool.Pool) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) ListProducts(ctx context.Context) ([]*product.Product, error) {
	query := `
	SELECT id, name, description, category, price, image_url, click_count, is_active, created_at
	FROM products
	WHERE is_active = true
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*product.Product
	for rows.Next() {
		p := &product.Product{}
		err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.ImageURL, &p.ClickCount, &p.IsActive, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, productID string) (*product.Product, error) {
	id, err := uuid.Parse(productID)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", apperr.ErrValidation)
	}

	query := `
	SELECT id, name, description, category, price, image_url, click_count, is_active, created_at
	FROM products
	WHERE id = $1
	`

	p := &product.Product{}
	err = s.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.ImageURL, &p.ClickCount, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return p, nil
}

// TrackClick bumps a product's click counter. Kept as a read-then-write to
// preserve the original's counting behavior; a lost update under heavy
// concurrency only skews an analytics counter.
func (s *ProductService) TrackClick(ctx context.Context, productID string) error {
	id, err := uuid.Parse(productID)
	if err != nil {
		return fmt.Errorf("invalid product id: %w", apperr.ErrValidation)
	}

	var clickCount int
	err = s.db.QueryRow(ctx, `SELECT click_count FROM products WHERE id = $1`, id).Scan(&clickCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product: %w", apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to read click count: %w", err)
	}

	_, err = s.db.Exec(ctx, `UPDATE products SET click_count = $2 WHERE id = $1`, id, clickCount+1)
	if err != nil {
		return fmt.Errorf("failed to track click: %w", err)
	}

	return nil
}

// Checkout turns the user's cart into an order in one transaction: read the
// cart with product prices, write the order and its lines, clear the cart.
// Payment capture happened client side (PayPal); only the capture reference
// is recorded.
func (s *ProductService) Checkout(ctx context.Context, clerkID string, paymentRef string) (*product.Order, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
	SELECT ci.product_id, ci.quantity, p.name, p.price
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	WHERE ci.user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	order := &product.Order{
		ID:         uuid.New(),
		UserID:     userID,
		Shipping:   product.ShippingFlatRate,
		Status:     "completed",
		PaymentRef: paymentRef,
		CreatedAt:  time.Now(),
	}

	for rows.Next() {
		line := product.OrderLine{ID: uuid.New(), OrderID: order.ID}
		if err := rows.Scan(&line.ProductID, &line.Quantity, &line.Name, &line.UnitPrice); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		order.Subtotal += line.UnitPrice * float64(line.Quantity)
		order.Lines = append(order.Lines, line)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(order.Lines) == 0 {
		return nil, fmt.Errorf("your cart is empty: %w", apperr.ErrValidation)
	}

	order.Total = order.Subtotal + order.Shipping

	_, err = tx.Exec(ctx, `
	INSERT INTO orders (id, user_id, subtotal, shipping, total, status, payment_ref, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, order.ID, order.UserID, order.Subtotal, order.Shipping, order.Total, order.Status, order.PaymentRef, order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, line := range order.Lines {
		_, err = tx.Exec(ctx, `
		INSERT INTO order_lines (id, order_id, product_id, name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		`, line.ID, line.OrderID, line.ProductID, line.Name, line.UnitPrice, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to create order line: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return order, nil
}

func (s *ProductService) ListOrders(ctx context.Context, clerkID string) ([]*product.Order, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, subtotal, shipping, total, status, payment_ref, created_at
	FROM orders
	WHERE user_id = $1
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*product.Order
	for rows.Next() {
		o := &product.Order{}
		err := rows.Scan(&o.ID, &o.UserID, &o.Subtotal, &o.Shipping, &o.Total, &o.Status, &o.PaymentRef, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// JoinWaitlist records an email; a repeat signup is a soft success.
func (s *ProductService) JoinWaitlist(ctx context.Context, email string) (alreadyJoined bool, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return false, fmt.Errorf("valid email is required: %w", apperr.ErrValidation)
	}

	_, err = s.db.Exec(ctx, `INSERT INTO waitlist (email, created_at) VALUES ($1, $2)`, email, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to join waitlist: %w", err)
	}

	return false, nil
}
