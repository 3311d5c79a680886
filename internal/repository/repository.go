package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quickcart-shop/quickcart-api/internal/models"
)

// UserRepository persists user accounts. Carts and orders are derived by
// owner-id query rather than stored as back-references on the user document.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProductRepository persists catalog products.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// DeductStock atomically decrements stock by quantity, but only when the
	// current stock covers it. Returns false when the floor check fails.
	DeductStock(ctx context.Context, id primitive.ObjectID, quantity int) (bool, error)
}

// CartRepository persists per-user carts, keyed by owner.
type CartRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	Upsert(ctx context.Context, cart *models.Cart) error
	Clear(ctx context.Context, userID primitive.ObjectID) error
}

// OrderRepository persists orders.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.Order, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// SetSessionID records the checkout session opened for the order.
	SetSessionID(ctx context.Context, id primitive.ObjectID, sessionID string) error

	// TransitionStatus compare-and-sets the order status. Returns false when
	// the order is not currently in the from status; callers use this as the
	// idempotency gate for webhook-driven transitions.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (bool, error)

	// AppendStockShortfall records a product whose stock could not be
	// deducted when the order was paid.
	AppendStockShortfall(ctx context.Context, id primitive.ObjectID, note string) error
}

// WishlistRepository persists per-user wishlists, keyed by owner.
type WishlistRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Wishlist, error)
	Upsert(ctx context.Context, wishlist *models.Wishlist) error
}

// ProductCache is the read-through cache in front of the catalog.
type ProductCache interface {
	Get(ctx context.Context, id string) (*models.Product, error)
	Set(ctx context.Context, product *models.Product) error
	GetAll(ctx context.Context) ([]*models.Product, error)
	SetAll(ctx context.Context, products []*models.Product) error
	Delete(ctx context.Context, id string) error
}

// WishlistCache caches wishlists by owner id.
type WishlistCache interface {
	Get(ctx context.Context, userID string) (*models.Wishlist, error)
	Set(ctx context.Context, wishlist *models.Wishlist) error
	Delete(ctx context.Context, userID string) error
}
