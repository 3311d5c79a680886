package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quickcart-shop/quickcart-api/internal/errs"
	"github.com/quickcart-shop/quickcart-api/internal/logging"
	"github.com/quickcart-shop/quickcart-api/internal/models"
	"github.com/quickcart-shop/quickcart-api/internal/repository"
)

// WishlistService manages per-user wishlists with a read-through cache.
type WishlistService struct {
	wishlists repository.WishlistRepository
	products  repository.ProductRepository
	cache     repository.WishlistCache
	logger    *logging.Logger
}

func NewWishlistService(wishlists repository.WishlistRepository, products repository.ProductRepository, cache repository.WishlistCache) *WishlistService {
	return &WishlistService{
		wishlists: wishlists,
		products:  products,
		cache:     cache,
		logger:    logging.NewLogger("wishlist-service"),
	}
}

// Get returns the user's wishlist, or an empty one when none exists yet.
func (s *WishlistService) Get(ctx context.Context, userID primitive.ObjectID) (*models.Wishlist, error) {
	cached, err := s.cache.Get(ctx, userID.Hex())
	if err != nil {
		s.logger.WithFields(logging.Fields{"user_id": userID.Hex(), "error": err.Error()}).Warn("cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	wishlist, err := s.wishlists.GetByUserID(ctx, userID)
	if err == errs.ErrNotFound {
		return &models.Wishlist{UserID: userID, ProductIDs: []primitive.ObjectID{}}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, wishlist); err != nil {
		s.logger.WithFields(logging.Fields{"user_id": userID.Hex(), "error": err.Error()}).Warn("cache write failed")
	}
	return wishlist, nil
}

// Add puts a product on the wishlist. Adding a product already present is a
// no-op.
func (s *WishlistService) Add(ctx context.Context, userID, productID primitive.ObjectID) (*models.Wishlist, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	wishlist, err := s.wishlists.GetByUserID(ctx, userID)
	if err == errs.ErrNotFound {
		wishlist = &models.Wishlist{UserID: userID, ProductIDs: []primitive.ObjectID{}}
	} else if err != nil {
		return nil, err
	}

	if !wishlist.Contains(productID) {
		wishlist.ProductIDs = append(wishlist.ProductIDs, productID)
		if err := s.wishlists.Upsert(ctx, wishlist); err != nil {
			return nil, err
		}
		s.evict(ctx, userID)
	}
	return wishlist, nil
}

// Remove drops a product from the wishlist.
func (s *WishlistService) Remove(ctx context.Context, userID, productID primitive.ObjectID) (*models.Wishlist, error) {
	wishlist, err := s.wishlists.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !wishlist.Contains(productID) {
		return nil, errs.ErrNotFound
	}

	ids := wishlist.ProductIDs[:0]
	for _, id := range wishlist.ProductIDs {
		if id != productID {
			ids = append(ids, id)
		}
	}
	wishlist.ProductIDs = ids

	if err := s.wishlists.Upsert(ctx, wishlist); err != nil {
		return nil, err
	}
	s.evict(ctx, userID)
	return wishlist, nil
}

func (s *WishlistService) evict(ctx context.Context, userID primitive.ObjectID) {
	if err := s.cache.Delete(ctx, userID.Hex()); err != nil {
		s.logger.WithFields(logging.Fields{"user_id": userID.Hex(), "error": err.Error()}).Warn("cache evict failed")
	}
}
