package storage

import (
	"strings"

	"shrot-bot/internal/order"
	"shrot-bot/internal/pricing"
)

type User struct {
	ID            int64     `db:"id"`
	ChatID        *int64    `db:"external_chat_id"`
	FirstName     string    `db:"first_name"`
	LastName      string    `db:"last_name"`
	Phone         string    `db:"phone"`
	CreatedAt     Timestamp `db:"created_at"`
	LastActive    Timestamp `db:"last_active"`
	ActivityCount int64     `db:"activity_count"`
	IsBlocked     bool      `db:"is_blocked"`
}

// Reachable reports whether the user has a real chat identity. Walk-in customers
// have none; legacy rows carry a synthetic negative id.
func (u User) Reachable() (int64, bool) {
	if u.ChatID == nil || *u.ChatID <= 0 {
		return 0, false
	}
	return *u.ChatID, true
}

func (u User) Registered() bool {
	return u.Phone != ""
}

func (u User) FullName() string {
	return joinName(u.FirstName, u.LastName)
}

type Product struct {
	ID          int64   `db:"id"`
	Name        string  `db:"name"`
	PricePerKg  float64 `db:"price_per_kg"`
	Description string  `db:"description"`
	IsDeleted   bool    `db:"is_deleted"`
}

// NewOrder carries the caller-supplied fields; the price is captured from the product
// row at insert time.
type NewOrder struct {
	UserID    int64
	ProductID int64
	Quantity  pricing.Quantity
	Address   string
	Latitude  *float64
	Longitude *float64
}

// Order is an order row joined with its customer and product.
type Order struct {
	ID         int64            `db:"id"`
	UserID     int64            `db:"user_id"`
	ProductID  int64            `db:"product_id"`
	Quantity   pricing.Quantity `db:"quantity"`
	Address    string           `db:"address"`
	Latitude   *float64         `db:"latitude"`
	Longitude  *float64         `db:"longitude"`
	CreatedAt  Timestamp        `db:"created_at"`
	Status     order.Status     `db:"status"`
	PricePerKg *float64         `db:"order_price_per_kg"`
	ClosedAt   *Timestamp       `db:"closed_at"`
	ClosedBy   *int64           `db:"closed_by"`
	CanceledBy order.CancelRole `db:"canceled_by_role"`

	ChatID       *int64  `db:"external_chat_id"`
	FirstName    string  `db:"first_name"`
	LastName     string  `db:"last_name"`
	Phone        string  `db:"phone"`
	ProductName  string  `db:"product_name"`
	ProductPrice float64 `db:"product_price_per_kg"`
}

// EffectivePrice is the frozen price, or the product's price for rows that predate
// price snapshots.
func (o Order) EffectivePrice() float64 {
	if o.PricePerKg != nil {
		return *o.PricePerKg
	}
	return o.ProductPrice
}

// Total is quantity in kilograms times the effective price.
func (o Order) Total() (float64, bool) {
	return o.Quantity.Total(o.EffectivePrice())
}

func (o Order) CustomerName() string {
	return joinName(o.FirstName, o.LastName)
}

// UserStat is a row of the statistics top lists.
type UserStat struct {
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Phone     string `db:"phone"`
	Count     int64  `db:"total"`
}

func joinName(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
