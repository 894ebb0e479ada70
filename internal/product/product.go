package product

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"`
	Price       float64   `json:"price" db:"price"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	ClickCount  int       `json:"click_count" db:"click_count"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ShippingFlatRate matches the storefront's fixed shipping charge.
const ShippingFlatRate = 9.99

type Order struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	UserID      uuid.UUID   `json:"user_id" db:"user_id"`
	Subtotal    float64     `json:"subtotal" db:"subtotal"`
	Shipping    float64     `json:"shipping" db:"shipping"`
	Total       float64     `json:"total" db:"total"`
	Status      string      `json:"status" db:"status"`
	PaymentRef  string      `json:"payment_ref" db:"payment_ref"`
	Lines       []OrderLine `json:"lines,omitempty"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

type OrderLine struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	UnitPrice float64   `json:"unit_price" db:"unit_price"`
	Quantity  int       `json:"quantity" db:"quantity"`
}

// CheckoutRequest records a client-side PayPal capture; the server never
// talks to the payment provider itself.
type CheckoutRequest struct {
	PaymentRef string `json:"payment_ref"`
}
