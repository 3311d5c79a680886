package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quickcart-shop/quickcart-api/internal/errs"
	"github.com/quickcart-shop/quickcart-api/internal/logging"
	"github.com/quickcart-shop/quickcart-api/internal/models"
	"github.com/quickcart-shop/quickcart-api/internal/repository"
)

// ProductService manages the catalog. Reads go through the cache; writes hit
// the database first and then evict, so a stale entry lives at most until the
// cache TTL expires.
type ProductService struct {
	products       repository.ProductRepository
	cache          repository.ProductCache
	cachingEnabled bool
	logger         *logging.Logger
}

func NewProductService(products repository.ProductRepository, cache repository.ProductCache, cachingEnabled bool) *ProductService {
	return &ProductService{
		products:       products,
		cache:          cache,
		cachingEnabled: cachingEnabled,
		logger:         logging.NewLogger("product-service"),
	}
}

func (s *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	if s.cachingEnabled {
		cached, err := s.cache.Get(ctx, id.Hex())
		if err != nil {
			s.logger.WithFields(logging.Fields{"product_id": id.Hex(), "error": err.Error()}).Warn("cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cachingEnabled {
		if err := s.cache.Set(ctx, product); err != nil {
			s.logger.WithFields(logging.Fields{"product_id": id.Hex(), "error": err.Error()}).Warn("cache write failed")
		}
	}
	return product, nil
}

func (s *ProductService) List(ctx context.Context) ([]*models.Product, error) {
	if s.cachingEnabled {
		cached, err := s.cache.GetAll(ctx)
		if err != nil {
			s.logger.WithFields(logging.Fields{"error": err.Error()}).Warn("cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cachingEnabled {
		if err := s.cache.SetAll(ctx, products); err != nil {
			s.logger.WithFields(logging.Fields{"error": err.Error()}).Warn("cache write failed")
		}
	}
	return products, nil
}

func (s *ProductService) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	s.evict(ctx, product.ID)

	s.logger.WithFields(logging.Fields{
		"product_id": product.ID.Hex(),
		"name":       product.Name,
	}).Info("product created")
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	s.evict(ctx, product.ID)
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	s.logger.WithFields(logging.Fields{"product_id": id.Hex()}).Info("product deleted")
	return nil
}

func (s *ProductService) evict(ctx context.Context, id primitive.ObjectID) {
	if !s.cachingEnabled {
		return
	}
	if err := s.cache.Delete(ctx, id.Hex()); err != nil {
		s.logger.WithFields(logging.Fields{"product_id": id.Hex(), "error": err.Error()}).Warn("cache evict failed")
	}
}

func validateProduct(product *models.Product) error {
	if product.Name == "" {
		return errs.NewValidationError("name", "name is required")
	}
	if product.Price < 0 {
		return errs.NewValidationError("price", "price cannot be negative")
	}
	if product.Stock < 0 {
		return errs.NewValidationError("stock", "stock cannot be negative")
	}
	return nil
}
