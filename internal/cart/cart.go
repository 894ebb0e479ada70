package cart

import (
	"time"

	"github.com/google/uuid"
)

// Line is a persisted cart row, unique per (user, product).
type Line struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	AddedAt   time.Time `json:"added_at" db:"added_at"`
}

// GuestLine is a device-local cart entry posted by the client at login.
// The product snapshot is denormalized because guest storage cannot join.
type GuestLine struct {
	ProductID string         `json:"product_id"`
	Quantity  int            `json:"quantity"`
	Product   map[string]any `json:"product,omitempty"`
}

type WishlistEntry struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	AddedAt   time.Time `json:"added_at" db:"added_at"`
}

type AddToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ReconcileRequest carries the guest device state sent once after a
// successful sign-in or registration.
type ReconcileRequest struct {
	CartLines   []GuestLine `json:"cart_lines"`
	WishlistIDs []string    `json:"wishlist_ids"`
}
