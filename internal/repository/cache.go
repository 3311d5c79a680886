package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quickcart-shop/quickcart-api/internal/config"
	"github.com/quickcart-shop/quickcart-api/internal/logging"
	"github.com/quickcart-shop/quickcart-api/internal/models"
)

const (
	productKeyPrefix  = "product:"
	allProductsKey    = "products:all"
	wishlistKeyPrefix = "wishlist:"

	defaultCacheTTL = 2 * time.Minute
)

// NewRedisClient builds the shared Redis client for the cache layer.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisProductCache implements ProductCache using Redis. A cache miss is
// reported as (nil, nil); the short TTL bounds the window in which a
// concurrent reader can repopulate a just-evicted entry with stale data.
type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

var _ ProductCache = (*RedisProductCache)(nil)

func NewRedisProductCache(client *redis.Client, cfg config.RedisConfig) *RedisProductCache {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	return &RedisProductCache{
		client: client,
		ttl:    ttl,
		logger: logging.NewLogger("product-cache"),
	}
}

func (c *RedisProductCache) Get(ctx context.Context, id string) (*models.Product, error) {
	data, err := c.client.Get(ctx, productKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.WithFields(logging.Fields{"product_id": id, "error": err.Error()}).Error("cache get failed")
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *RedisProductCache) Set(ctx context.Context, product *models.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productKeyPrefix+product.ID.Hex(), data, c.ttl).Err()
}

func (c *RedisProductCache) GetAll(ctx context.Context) ([]*models.Product, error) {
	data, err := c.client.Get(ctx, allProductsKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var products []*models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *RedisProductCache) SetAll(ctx context.Context, products []*models.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, allProductsKey, data, c.ttl).Err()
}

// Delete evicts a single product entry and the list entry. Callers invoke it
// after the database write so readers never see the old value beyond the TTL.
func (c *RedisProductCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, productKeyPrefix+id, allProductsKey).Err(); err != nil {
		c.logger.WithFields(logging.Fields{"product_id": id, "error": err.Error()}).Error("cache evict failed")
		return err
	}
	return nil
}

// RedisWishlistCache implements WishlistCache using Redis.
type RedisWishlistCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ WishlistCache = (*RedisWishlistCache)(nil)

func NewRedisWishlistCache(client *redis.Client, cfg config.RedisConfig) *RedisWishlistCache {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	return &RedisWishlistCache{client: client, ttl: ttl}
}

func (c *RedisWishlistCache) Get(ctx context.Context, userID string) (*models.Wishlist, error) {
	data, err := c.client.Get(ctx, wishlistKeyPrefix+userID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var wishlist models.Wishlist
	if err := json.Unmarshal(data, &wishlist); err != nil {
		return nil, err
	}
	return &wishlist, nil
}

func (c *RedisWishlistCache) Set(ctx context.Context, wishlist *models.Wishlist) error {
	data, err := json.Marshal(wishlist)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, wishlistKeyPrefix+wishlist.UserID.Hex(), data, c.ttl).Err()
}

func (c *RedisWishlistCache) Delete(ctx context.Context, userID string) error {
	return c.client.Del(ctx, wishlistKeyPrefix+userID).Err()
}
