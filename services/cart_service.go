package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"metaCoreAPI/internal/apperr"
	"metaCoreAPI/internal/cart"
	"metaCoreAPI/internal/product"
)

// CartService owns persisted cart and wishlist state, and the reconciliation
// of guest (device-local) state into it after sign-in. Reconciliation for a
// given user is serialized through a per-user mutex so a duplicate login
// (second tab) cannot double-apply the same guest cart.
type CartService struct {
	db *pgxpool.Pool

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func NewCartService(db *pgxpool.Pool) *CartService {
	return &CartService{
		db:        db,
		userLocks: make(map[string]*sync.Mutex),
	}
}

func (s *CartService) userLock(userID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.userLocks[userID.String()]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[userID.String()] = l
	}
	return l
}

type CartItem struct {
	cart.Line
	Product *product.Product `json:"product,omitempty"`
}

func (s *CartService) GetCart(ctx context.Context, clerkID string) ([]*CartItem, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.added_at,
	       p.id, p.name, p.description, p.category, p.price, p.image_url, p.click_count, p.is_active, p.created_at
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	WHERE ci.user_id = $1
	ORDER BY ci.added_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	defer rows.Close()

	var items []*CartItem
	for rows.Next() {
		item := &CartItem{Product: &product.Product{}}
		err := rows.Scan(
			&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.AddedAt,
			&item.Product.ID, &item.Product.Name, &item.Product.Description, &item.Product.Category,
			&item.Product.Price, &item.Product.ImageURL, &item.Product.ClickCount, &item.Product.IsActive,
			&item.Product.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (s *CartService) AddToCart(ctx context.Context, clerkID string, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive: %w", apperr.ErrValidation)
	}

	pID, err := uuid.Parse(productID)
	if err != nil {
		return fmt.Errorf("invalid product id: %w", apperr.ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	var exists bool
	err = s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND is_active = true)`, pID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if !exists {
		return fmt.Errorf("product: %w", apperr.ErrNotFound)
	}

	query := `
	INSERT INTO cart_items (id, user_id, product_id, quantity, added_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
	`
	_, err = s.db.Exec(ctx, query, uuid.New(), userID, pID, quantity, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add to cart: %w", err)
	}

	return nil
}

func (s *CartService) RemoveFromCart(ctx context.Context, clerkID string, productID string) error {
	pID, err := uuid.Parse(productID)
	if err != nil {
		return fmt.Errorf("invalid product id: %w", apperr.ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, pID)
	if err != nil {
		return fmt.Errorf("failed to remove from cart: %w", err)
	}

	return nil
}

// MergeGuestCart folds a device-local cart into the user's persisted cart.
// Duplicate products sum their quantities; everything happens in one
// transaction. The device clears its copy when the call succeeds, so a
// retry with an already-cleared (empty) guest cart is a no-op.
func (s *CartService) MergeGuestCart(ctx context.Context, clerkID string, guestLines []cart.GuestLine) error {
	if len(guestLines) == 0 {
		return nil
	}

	// Guest ids come from device storage; canonicalize them so an
	// uppercase rendering still lands on the same merge key as the
	// lowercase form the database returns. Unparseable ids are dropped.
	normalized := make([]cart.GuestLine, 0, len(guestLines))
	for _, line := range guestLines {
		pID, err := uuid.Parse(line.ProductID)
		if err != nil {
			log.Printf("MergeGuestCart: skipping guest line with bad product id %q", line.ProductID)
			continue
		}
		normalized = append(normalized, cart.GuestLine{ProductID: pID.String(), Quantity: line.Quantity})
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT product_id, quantity FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to read cart: %w", err)
	}

	existing := make(map[string]int)
	for rows.Next() {
		var productID uuid.UUID
		var quantity int
		if err := rows.Scan(&productID, &quantity); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan cart line: %w", err)
		}
		existing[productID.String()] = quantity
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return err
	}

	merged := cart.MergeQuantities(existing, normalized)

	now := time.Now()
	for productID, quantity := range merged {
		if quantity == existing[productID] {
			continue
		}
		pID, err := uuid.Parse(productID)
		if err != nil {
			continue
		}

		_, err = tx.Exec(ctx, `
		INSERT INTO cart_items (id, user_id, product_id, quantity, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
		`, uuid.New(), userID, pID, quantity, now)
		if err != nil {
			return fmt.Errorf("failed to merge cart line: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// MergeGuestWishlist inserts the guest product ids the user's wishlist does
// not already contain. Membership is checked first and the (user, product)
// unique index backstops it, so re-running the same guest list changes
// nothing.
func (s *CartService) MergeGuestWishlist(ctx context.Context, clerkID string, guestProductIDs []string) error {
	if len(guestProductIDs) == 0 {
		return nil
	}

	// Same canonicalization as the cart merge: set membership is keyed by
	// the database's lowercase uuid rendering.
	normalized := make([]string, 0, len(guestProductIDs))
	for _, productID := range guestProductIDs {
		pID, err := uuid.Parse(productID)
		if err != nil {
			log.Printf("MergeGuestWishlist: skipping guest entry with bad product id %q", productID)
			continue
		}
		normalized = append(normalized, pID.String())
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	rows, err := s.db.Query(ctx, `SELECT product_id FROM wishlist_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to read wishlist: %w", err)
	}

	existing := make(map[string]bool)
	for rows.Next() {
		var productID uuid.UUID
		if err := rows.Scan(&productID); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan wishlist entry: %w", err)
		}
		existing[productID.String()] = true
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return err
	}

	now := time.Now()
	for _, productID := range cart.MissingFromSet(existing, normalized) {
		pID, err := uuid.Parse(productID)
		if err != nil {
			continue
		}

		_, err = s.db.Exec(ctx,
			`INSERT INTO wishlist_items (user_id, product_id, added_at) VALUES ($1, $2, $3)`,
			userID, pID, now)
		if err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return fmt.Errorf("failed to add wishlist entry: %w", err)
		}
	}

	return nil
}

func (s *CartService) GetWishlist(ctx context.Context, clerkID string) ([]*product.Product, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT p.id, p.name, p.description, p.category, p.price, p.image_url, p.click_count, p.is_active, p.created_at
	FROM wishlist_items wi
	JOIN products p ON p.id = wi.product_id
	WHERE wi.user_id = $1
	ORDER BY wi.added_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
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

// AddToWishlist is idempotent: a duplicate add reports success.
func (s *CartService) AddToWishlist(ctx context.Context, clerkID string, productID string) (alreadyPresent bool, err error) {
	pID, err := uuid.Parse(productID)
	if err != nil {
		return false, fmt.Errorf("invalid product id: %w", apperr.ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return false, err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO wishlist_items (user_id, product_id, added_at) VALUES ($1, $2, $3)`,
		userID, pID, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to add to wishlist: %w", err)
	}

	return false, nil
}

func (s *CartService) RemoveFromWishlist(ctx context.Context, clerkID string, productID string) error {
	pID, err := uuid.Parse(productID)
	if err != nil {
		return fmt.Errorf("invalid product id: %w", apperr.ErrValidation)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, pID)
	if err != nil {
		return fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("wishlist entry: %w", apperr.ErrNotFound)
	}

	return nil
}
