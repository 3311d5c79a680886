package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the closed set of order states. An order starts Pending and
// moves to a terminal state through the webhook reconciliation path only.
type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "Pending"
	OrderStatusPaid          OrderStatus = "Paid"
	OrderStatusPaymentFailed OrderStatus = "Payment Failed"
	OrderStatusCancelled     OrderStatus = "Cancelled"
)

var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:       {OrderStatusPaid, OrderStatusPaymentFailed, OrderStatusCancelled},
	OrderStatusPaid:          {},
	OrderStatusPaymentFailed: {},
	OrderStatusCancelled:     {},
}

// IsValidTransition reports whether an order may move from one status to
// another. Terminal states have no outgoing transitions.
func IsValidTransition(from, to OrderStatus) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
func (s OrderStatus) IsTerminal() bool {
	allowed, ok := validTransitions[s]
	return ok && len(allowed) == 0
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Email        string             `bson:"email" json:"email"`
	Address      string             `bson:"address" json:"address"`
	PhoneNumber  string             `bson:"phoneNumber" json:"phoneNumber"`
	Roles        []string           `bson:"roles" json:"roles"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// HasRole reports whether the user carries the given role claim.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Stock       int                `bson:"stock" json:"stock"`
}

// CartItem is a product reference held in a cart. UnitPrice is the catalog
// price observed when the item was added; the authoritative price snapshot is
// taken again at order placement.
type CartItem struct {
	ProductID   primitive.ObjectID `bson:"productId" json:"productId"`
	ProductName string             `bson:"productName" json:"productName"`
	UnitPrice   float64            `bson:"unitPrice" json:"unitPrice"`
	Quantity    int                `bson:"quantity" json:"quantity"`
}

type Cart struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Items      []CartItem         `bson:"items" json:"items"`
	TotalPrice float64            `bson:"totalPrice" json:"totalPrice"`
}

// RecomputeTotal derives the cart total from its items.
func (c *Cart) RecomputeTotal() {
	total := 0.0
	for _, item := range c.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	c.TotalPrice = total
}

// OrderItem is a line item with the unit price captured at order time.
type OrderItem struct {
	ProductID   primitive.ObjectID `bson:"productId" json:"productId"`
	ProductName string             `bson:"productName" json:"productName"`
	UnitPrice   float64            `bson:"unitPrice" json:"unitPrice"`
	Quantity    int                `bson:"quantity" json:"quantity"`
}

type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Status      OrderStatus        `bson:"status" json:"status"`
	Items       []OrderItem        `bson:"items" json:"items"`
	TotalAmount float64            `bson:"totalAmount" json:"totalAmount"`
	SessionID   string             `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	// StockShortfall records products whose stock could not be deducted when
	// the order was paid. The order stays Paid; the shortfall needs manual
	// reconciliation.
	StockShortfall []string  `bson:"stockShortfall,omitempty" json:"stockShortfall,omitempty"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}

type Wishlist struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID   `bson:"userId" json:"userId"`
	ProductIDs []primitive.ObjectID `bson:"productIds" json:"productIds"`
}

// Contains reports whether the wishlist already holds the product.
func (w *Wishlist) Contains(productID primitive.ObjectID) bool {
	for _, id := range w.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}
