package service

import (
	"context"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quickcart-shop/quickcart-api/internal/clients"
	"github.com/quickcart-shop/quickcart-api/internal/config"
	"github.com/quickcart-shop/quickcart-api/internal/errs"
	"github.com/quickcart-shop/quickcart-api/internal/events"
	"github.com/quickcart-shop/quickcart-api/internal/logging"
	"github.com/quickcart-shop/quickcart-api/internal/models"
	"github.com/quickcart-shop/quickcart-api/internal/repository"
)

// PlacedOrder is the result of a successful placement: the persisted order
// plus the hosted-checkout URL the caller redirects the customer to.
type PlacedOrder struct {
	Order       *models.Order `json:"order"`
	CheckoutURL string        `json:"checkoutUrl"`
}

// OrderService owns the order lifecycle: placement, checkout session
// creation, and webhook-driven reconciliation. Stock is validated at
// placement but only deducted once the processor confirms payment.
type OrderService struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	products  repository.ProductRepository
	gateway   clients.CheckoutGateway
	publisher events.OrderEventPublisher
	payment   config.PaymentConfig
	userLocks *keyedMutex
	logger    *logging.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	products repository.ProductRepository,
	gateway clients.CheckoutGateway,
	publisher events.OrderEventPublisher,
	payment config.PaymentConfig,
) *OrderService {
	return &OrderService{
		orders:    orders,
		carts:     carts,
		products:  products,
		gateway:   gateway,
		publisher: publisher,
		payment:   payment,
		userLocks: newKeyedMutex(),
		logger:    logging.NewLogger("order-service"),
	}
}

// PlaceOrderFromCart turns the user's cart into a Pending order and opens a
// checkout session for its total. The whole placement runs under a per-user
// lock so concurrent checkouts cannot both spend the same cart. Prices are
// snapshotted from the catalog at this moment; the cart is emptied once the
// order is persisted.
func (s *OrderService) PlaceOrderFromCart(ctx context.Context, userID primitive.ObjectID) (*PlacedOrder, error) {
	s.userLocks.Lock(userID.Hex())
	defer s.userLocks.Unlock(userID.Hex())

	cart, err := s.carts.GetByUserID(ctx, userID)
	if err == errs.ErrNotFound || (err == nil && len(cart.Items) == 0) {
		return nil, errs.NewValidationError("cart", "cart is empty")
	}
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	total := 0.0
	for _, line := range cart.Items {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err == errs.ErrNotFound {
			return nil, errs.NewValidationError("cart",
				fmt.Sprintf("product %s is no longer available", line.ProductID.Hex()))
		}
		if err != nil {
			return nil, err
		}
		if line.Quantity > product.Stock {
			return nil, errs.NewValidationError("stock",
				fmt.Sprintf("only %d of %q in stock", product.Stock, product.Name))
		}
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    line.Quantity,
		})
		total += product.Price * float64(line.Quantity)
	}

	order := &models.Order{
		UserID:      userID,
		Status:      models.OrderStatusPending,
		Items:       items,
		TotalAmount: total,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	if err := s.carts.Clear(ctx, userID); err != nil {
		return nil, err
	}

	s.logger.WithFields(logging.Fields{
		"order_id": order.ID.Hex(),
		"user_id":  userID.Hex(),
		"total":    order.TotalAmount,
		"items":    len(order.Items),
	}).Info("order placed")

	s.publishCreated(ctx, order)
	return s.openCheckout(ctx, order)
}

// PlaceSingleOrder places an order for one product directly, bypassing the
// cart.
func (s *OrderService) PlaceSingleOrder(ctx context.Context, userID, productID primitive.ObjectID, quantity int) (*PlacedOrder, error) {
	if quantity <= 0 {
		return nil, errs.NewValidationError("quantity", "quantity must be positive")
	}

	s.userLocks.Lock(userID.Hex())
	defer s.userLocks.Unlock(userID.Hex())

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, errs.NewValidationError("stock",
			fmt.Sprintf("only %d of %q in stock", product.Stock, product.Name))
	}

	order := &models.Order{
		UserID: userID,
		Status: models.OrderStatusPending,
		Items: []models.OrderItem{{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    quantity,
		}},
		TotalAmount: product.Price * float64(quantity),
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.logger.WithFields(logging.Fields{
		"order_id":   order.ID.Hex(),
		"user_id":    userID.Hex(),
		"product_id": productID.Hex(),
		"quantity":   quantity,
	}).Info("order placed")

	s.publishCreated(ctx, order)
	return s.openCheckout(ctx, order)
}

// openCheckout converts the order total into the gateway currency's minor
// units and opens a hosted checkout session for it. The order id rides on the
// session metadata and comes back on webhook events.
func (s *OrderService) openCheckout(ctx context.Context, order *models.Order) (*PlacedOrder, error) {
	amountMinor := int64(math.Round(order.TotalAmount / s.payment.ConversionRate * 100))

	session, err := s.gateway.CreateSession(ctx, &clients.CheckoutRequest{
		Name:     fmt.Sprintf("Order #%s", order.ID.Hex()),
		Amount:   amountMinor,
		Currency: s.payment.Currency,
		Quantity: 1,
		Metadata: map[string]string{
			"orderId": order.ID.Hex(),
			"userId":  order.UserID.Hex(),
		},
	})
	if err != nil {
		// The order stays Pending; the customer can be pointed at a fresh
		// session later.
		s.logger.WithFields(logging.Fields{
			"order_id": order.ID.Hex(),
			"error":    err.Error(),
		}).Error("checkout session failed")
		return nil, err
	}

	if err := s.orders.SetSessionID(ctx, order.ID, session.ID); err != nil {
		s.logger.WithFields(logging.Fields{
			"order_id":   order.ID.Hex(),
			"session_id": session.ID,
			"error":      err.Error(),
		}).Error("session id not recorded")
	}
	order.SessionID = session.ID

	return &PlacedOrder{Order: order, CheckoutURL: session.URL}, nil
}

// MarkPaid moves a Pending order to Paid and deducts stock for its items.
// The status transition is a compare-and-set, so a redelivered confirmation
// finds the order already Paid and does nothing; stock comes off exactly
// once. A line whose stock no longer covers the order is recorded on the
// order for manual reconciliation; the order still becomes Paid because the
// customer has been charged.
func (s *OrderService) MarkPaid(ctx context.Context, orderID primitive.ObjectID) error {
	moved, err := s.orders.TransitionStatus(ctx, orderID, models.OrderStatusPending, models.OrderStatusPaid)
	if err != nil {
		return err
	}
	if !moved {
		s.logger.WithFields(logging.Fields{"order_id": orderID.Hex()}).Info("payment confirmation ignored, order not pending")
		return nil
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		deducted, err := s.products.DeductStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
		if !deducted {
			note := fmt.Sprintf("%s x%d", item.ProductName, item.Quantity)
			if err := s.orders.AppendStockShortfall(ctx, orderID, note); err != nil {
				s.logger.WithFields(logging.Fields{
					"order_id": orderID.Hex(),
					"error":    err.Error(),
				}).Error("stock shortfall not recorded")
			}
			s.logger.WithFields(logging.Fields{
				"order_id":   orderID.Hex(),
				"product_id": item.ProductID.Hex(),
				"quantity":   item.Quantity,
			}).Error("paid order has stock shortfall")
		}
	}

	s.logger.WithFields(logging.Fields{
		"order_id": orderID.Hex(),
		"user_id":  order.UserID.Hex(),
	}).Info("order paid")

	s.publishStatusChanged(ctx, order, models.OrderStatusPending)
	return nil
}

// MarkPaymentFailed moves a Pending order to Payment Failed. Stock was never
// deducted, so there is nothing to restore.
func (s *OrderService) MarkPaymentFailed(ctx context.Context, orderID primitive.ObjectID) error {
	moved, err := s.orders.TransitionStatus(ctx, orderID, models.OrderStatusPending, models.OrderStatusPaymentFailed)
	if err != nil {
		return err
	}
	if !moved {
		s.logger.WithFields(logging.Fields{"order_id": orderID.Hex()}).Info("payment failure ignored, order not pending")
		return nil
	}

	s.logger.WithFields(logging.Fields{"order_id": orderID.Hex()}).Info("order payment failed")

	if order, err := s.orders.GetByID(ctx, orderID); err == nil {
		s.publishStatusChanged(ctx, order, models.OrderStatusPending)
	}
	return nil
}

// GetOrdersForUser lists the user's own orders.
func (s *OrderService) GetOrdersForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Order, error) {
	return s.orders.GetByUserID(ctx, userID)
}

// GetOrderForUser returns one order, scoped to its owner. An order belonging
// to someone else reads as not found.
func (s *OrderService) GetOrderForUser(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, errs.ErrNotFound
	}
	return order, nil
}

// DeleteOrderForUser removes an order, scoped to its owner. Paid orders are
// immutable records of a settled charge and cannot be deleted.
func (s *OrderService) DeleteOrderForUser(ctx context.Context, userID, orderID primitive.ObjectID) error {
	order, err := s.GetOrderForUser(ctx, userID, orderID)
	if err != nil {
		return err
	}
	if order.Status == models.OrderStatusPaid {
		return errs.NewValidationError("status", "paid orders cannot be deleted")
	}
	return s.orders.Delete(ctx, orderID)
}

func (s *OrderService) publishCreated(ctx context.Context, order *models.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
		s.logger.WithFields(logging.Fields{"order_id": order.ID.Hex(), "error": err.Error()}).Warn("order created event not published")
	}
}

func (s *OrderService) publishStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderStatusChanged(ctx, order, previous); err != nil {
		s.logger.WithFields(logging.Fields{"order_id": order.ID.Hex(), "error": err.Error()}).Warn("status change event not published")
	}
}
