package service

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quickcart-shop/quickcart-api/internal/errs"
	"github.com/quickcart-shop/quickcart-api/internal/logging"
	"github.com/quickcart-shop/quickcart-api/internal/models"
	"github.com/quickcart-shop/quickcart-api/internal/repository"
)

// CartService manages per-user carts. Every mutation re-validates the
// requested quantity against current stock and recomputes the total before
// the cart is written back.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *logging.Logger
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logging.NewLogger("cart-service"),
	}
}

// GetCart returns the user's cart, or an empty cart when none exists yet.
func (s *CartService) GetCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err == errs.ErrNotFound {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem adds a product to the cart, merging with an existing line for the
// same product. The merged quantity must not exceed current stock; on
// rejection the cart is left untouched.
func (s *CartService) AddItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, errs.NewValidationError("quantity", "quantity must be positive")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	requested := quantity
	for _, item := range cart.Items {
		if item.ProductID == productID {
			requested += item.Quantity
		}
	}
	if requested > product.Stock {
		return nil, errs.NewValidationError("quantity",
			fmt.Sprintf("only %d of %q in stock", product.Stock, product.Name))
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = requested
			cart.Items[i].UnitPrice = product.Price
			cart.Items[i].ProductName = product.Name
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID:   productID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    quantity,
		})
	}

	cart.RecomputeTotal()
	if err := s.carts.Upsert(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.WithFields(logging.Fields{
		"user_id":    userID.Hex(),
		"product_id": productID.Hex(),
		"quantity":   quantity,
	}).Info("item added to cart")
	return cart, nil
}

// UpdateItem sets the quantity of an existing line. A quantity of zero
// removes the line.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, errs.NewValidationError("quantity", "quantity cannot be negative")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, errs.NewValidationError("quantity",
			fmt.Sprintf("only %d of %q in stock", product.Stock, product.Name))
	}

	cart, err := s.carts.GetByUserID(ctx, userID)
	if err == errs.ErrNotFound {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			cart.Items[i].UnitPrice = product.Price
			cart.Items[i].ProductName = product.Name
			found = true
			break
		}
	}
	if !found {
		return nil, errs.ErrNotFound
	}

	cart.RecomputeTotal()
	if err := s.carts.Upsert(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem drops a product's line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := cart.Items[:0]
	found := false
	for _, item := range cart.Items {
		if item.ProductID == productID {
			found = true
			continue
		}
		items = append(items, item)
	}
	if !found {
		return nil, errs.ErrNotFound
	}

	cart.Items = items
	cart.RecomputeTotal()
	if err := s.carts.Upsert(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, userID primitive.ObjectID) error {
	return s.carts.Clear(ctx, userID)
}
