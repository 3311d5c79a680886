package repository

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quickcart-shop/quickcart-api/internal/errs"
	"github.com/quickcart-shop/quickcart-api/internal/models"
)

// In-memory repository implementations for tests. They hold the same
// atomicity guarantees as the Mongo implementations: stock deduction and
// status transitions are single critical sections.

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
}

var _ UserRepository = (*MemoryUserRepository)(nil)

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return errs.NewValidationError("username", "username already taken")
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now().UTC()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *MemoryUserRepository) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return errs.ErrNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *MemoryUserRepository) List(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]*models.User, 0, len(r.users))
	for _, user := range r.users {
		clone := *user
		users = append(users, &clone)
	}
	return users, nil
}

func (r *MemoryUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type MemoryProductRepository struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*models.Product
}

var _ ProductRepository = (*MemoryProductRepository)(nil)

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: make(map[primitive.ObjectID]*models.Product)}
}

func (r *MemoryProductRepository) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	clone := *product
	r.products[product.ID] = &clone
	return nil
}

func (r *MemoryProductRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	clone := *product
	return &clone, nil
}

func (r *MemoryProductRepository) List(ctx context.Context) ([]*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	products := make([]*models.Product, 0, len(r.products))
	for _, product := range r.products {
		clone := *product
		products = append(products, &clone)
	}
	return products, nil
}

func (r *MemoryProductRepository) Update(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; !ok {
		return errs.ErrNotFound
	}
	clone := *product
	r.products[product.ID] = &clone
	return nil
}

func (r *MemoryProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *MemoryProductRepository) DeductStock(ctx context.Context, id primitive.ObjectID, quantity int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return false, nil
	}
	if product.Stock < quantity {
		return false, nil
	}
	product.Stock -= quantity
	return true, nil
}

type MemoryCartRepository struct {
	mu    sync.Mutex
	carts map[primitive.ObjectID]*models.Cart
}

var _ CartRepository = (*MemoryCartRepository)(nil)

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{carts: make(map[primitive.ObjectID]*models.Cart)}
}

func (r *MemoryCartRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[userID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	clone := *cart
	clone.Items = append([]models.CartItem(nil), cart.Items...)
	return &clone, nil
}

func (r *MemoryCartRepository) Upsert(ctx context.Context, cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	clone := *cart
	clone.Items = append([]models.CartItem(nil), cart.Items...)
	r.carts[cart.UserID] = &clone
	return nil
}

func (r *MemoryCartRepository) Clear(ctx context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cart, ok := r.carts[userID]; ok {
		cart.Items = []models.CartItem{}
		cart.TotalPrice = 0
	}
	return nil
}

type MemoryOrderRepository struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*models.Order
}

var _ OrderRepository = (*MemoryOrderRepository)(nil)

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[primitive.ObjectID]*models.Order)}
}

func (r *MemoryOrderRepository) Create(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	clone := *order
	clone.Items = append([]models.OrderItem(nil), order.Items...)
	r.orders[order.ID] = &clone
	return nil
}

func (r *MemoryOrderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	clone := *order
	clone.Items = append([]models.OrderItem(nil), order.Items...)
	return &clone, nil
}

func (r *MemoryOrderRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []*models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			clone := *order
			clone.Items = append([]models.OrderItem(nil), order.Items...)
			orders = append(orders, &clone)
		}
	}
	return orders, nil
}

func (r *MemoryOrderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *MemoryOrderRepository) SetSessionID(ctx context.Context, id primitive.ObjectID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return errs.ErrNotFound
	}
	order.SessionID = sessionID
	return nil
}

func (r *MemoryOrderRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	order.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *MemoryOrderRepository) AppendStockShortfall(ctx context.Context, id primitive.ObjectID, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order, ok := r.orders[id]; ok {
		order.StockShortfall = append(order.StockShortfall, note)
	}
	return nil
}

type MemoryWishlistRepository struct {
	mu        sync.Mutex
	wishlists map[primitive.ObjectID]*models.Wishlist
}

var _ WishlistRepository = (*MemoryWishlistRepository)(nil)

func NewMemoryWishlistRepository() *MemoryWishlistRepository {
	return &MemoryWishlistRepository{wishlists: make(map[primitive.ObjectID]*models.Wishlist)}
}

func (r *MemoryWishlistRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Wishlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wishlist, ok := r.wishlists[userID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	clone := *wishlist
	clone.ProductIDs = append([]primitive.ObjectID(nil), wishlist.ProductIDs...)
	return &clone, nil
}

func (r *MemoryWishlistRepository) Upsert(ctx context.Context, wishlist *models.Wishlist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if wishlist.ID.IsZero() {
		wishlist.ID = primitive.NewObjectID()
	}
	clone := *wishlist
	clone.ProductIDs = append([]primitive.ObjectID(nil), wishlist.ProductIDs...)
	r.wishlists[wishlist.UserID] = &clone
	return nil
}

// MemoryProductCache is an in-memory ProductCache for tests.
type MemoryProductCache struct {
	mu       sync.Mutex
	products map[string]*models.Product
	all      []*models.Product
}

var _ ProductCache = (*MemoryProductCache)(nil)

func NewMemoryProductCache() *MemoryProductCache {
	return &MemoryProductCache{products: make(map[string]*models.Product)}
}

func (c *MemoryProductCache) Get(ctx context.Context, id string) (*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products[id], nil
}

func (c *MemoryProductCache) Set(ctx context.Context, product *models.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clone := *product
	c.products[product.ID.Hex()] = &clone
	return nil
}

func (c *MemoryProductCache) GetAll(ctx context.Context) ([]*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.all, nil
}

func (c *MemoryProductCache) SetAll(ctx context.Context, products []*models.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all = products
	return nil
}

func (c *MemoryProductCache) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, id)
	c.all = nil
	return nil
}

// MemoryWishlistCache is an in-memory WishlistCache for tests.
type MemoryWishlistCache struct {
	mu        sync.Mutex
	wishlists map[string]*models.Wishlist
}

var _ WishlistCache = (*MemoryWishlistCache)(nil)

func NewMemoryWishlistCache() *MemoryWishlistCache {
	return &MemoryWishlistCache{wishlists: make(map[string]*models.Wishlist)}
}

func (c *MemoryWishlistCache) Get(ctx context.Context, userID string) (*models.Wishlist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wishlists[userID], nil
}

func (c *MemoryWishlistCache) Set(ctx context.Context, wishlist *models.Wishlist) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clone := *wishlist
	c.wishlists[wishlist.UserID.Hex()] = &clone
	return nil
}

func (c *MemoryWishlistCache) Delete(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.wishlists, userID)
	return nil
}
