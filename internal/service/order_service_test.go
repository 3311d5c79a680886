package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quickcart-shop/quickcart-api/internal/clients"
	"github.com/quickcart-shop/quickcart-api/internal/config"
	"github.com/quickcart-shop/quickcart-api/internal/errs"
	"github.com/quickcart-shop/quickcart-api/internal/events"
	"github.com/quickcart-shop/quickcart-api/internal/models"
	"github.com/quickcart-shop/quickcart-api/internal/repository"
)

type orderFixture struct {
	service   *OrderService
	orders    *repository.MemoryOrderRepository
	carts     *repository.MemoryCartRepository
	products  *repository.MemoryProductRepository
	gateway   *clients.MockCheckoutGateway
	publisher *events.MockEventPublisher
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	orders := repository.NewMemoryOrderRepository()
	carts := repository.NewMemoryCartRepository()
	products := repository.NewMemoryProductRepository()
	gateway := clients.NewMockCheckoutGateway()
	publisher := events.NewMockEventPublisher()

	payment := config.PaymentConfig{
		Currency:       "usd",
		ConversionRate: 87.50,
	}

	return &orderFixture{
		service:   NewOrderService(orders, carts, products, gateway, publisher, payment),
		orders:    orders,
		carts:     carts,
		products:  products,
		gateway:   gateway,
		publisher: publisher,
	}
}

func (f *orderFixture) addProduct(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{Name: name, Price: price, Stock: stock}
	require.NoError(t, f.products.Create(context.Background(), product))
	return product
}

func (f *orderFixture) fillCart(t *testing.T, userID primitive.ObjectID, items ...models.CartItem) {
	t.Helper()
	cart := &models.Cart{UserID: userID, Items: items}
	cart.RecomputeTotal()
	require.NoError(t, f.carts.Upsert(context.Background(), cart))
}

func TestPlaceOrderFromCart(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	book := f.addProduct(t, "Book", 100, 5)
	pen := f.addProduct(t, "Pen", 75, 10)

	f.fillCart(t, userID,
		models.CartItem{ProductID: book.ID, ProductName: book.Name, UnitPrice: book.Price, Quantity: 1},
		models.CartItem{ProductID: pen.ID, ProductName: pen.Name, UnitPrice: pen.Price, Quantity: 2},
	)

	placed, err := f.service.PlaceOrderFromCart(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, placed.Order.Status)
	assert.Equal(t, 250.0, placed.Order.TotalAmount)
	assert.Len(t, placed.Order.Items, 2)
	assert.Equal(t, "https://checkout.example.com/cs_test_1", placed.CheckoutURL)
	assert.Equal(t, "cs_test_1", placed.Order.SessionID)

	// Stock is untouched until payment is confirmed.
	stored, err := f.products.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Stock)

	// The cart is emptied by placement.
	cart, err := f.carts.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalPrice)

	// The session is opened for the converted total in minor units:
	// 250 / 87.50 * 100 rounds to 286.
	requests := f.gateway.Requests()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, int64(286), req.Amount)
	assert.Equal(t, "usd", req.Currency)
	assert.Equal(t, placed.Order.ID.Hex(), req.Metadata["orderId"])
	assert.Equal(t, userID.Hex(), req.Metadata["userId"])
}

func TestPlaceOrderFromCart_Empty(t *testing.T) {
	f := newOrderFixture(t)
	userID := primitive.NewObjectID()

	_, err := f.service.PlaceOrderFromCart(context.Background(), userID)
	var validationErr *errs.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "cart", validationErr.Field)
	assert.Empty(t, f.gateway.Requests())
}

func TestPlaceOrderFromCart_InsufficientStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	book := f.addProduct(t, "Book", 100, 1)
	f.fillCart(t, userID,
		models.CartItem{ProductID: book.ID, ProductName: book.Name, UnitPrice: book.Price, Quantity: 3},
	)

	_, err := f.service.PlaceOrderFromCart(ctx, userID)
	var validationErr *errs.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "stock", validationErr.Field)

	// Placement failed atomically: no order, cart intact, no session.
	orders, err := f.orders.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	cart, err := f.carts.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Empty(t, f.gateway.Requests())
}

func TestPlaceOrderFromCart_PriceSnapshotFromCatalog(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	book := f.addProduct(t, "Book", 100, 5)
	// The cart still carries the price seen when the item was added.
	f.fillCart(t, userID,
		models.CartItem{ProductID: book.ID, ProductName: book.Name, UnitPrice: 80, Quantity: 1},
	)

	book.Price = 120
	require.NoError(t, f.products.Update(ctx, book))

	placed, err := f.service.PlaceOrderFromCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 120.0, placed.Order.TotalAmount)
	assert.Equal(t, 120.0, placed.Order.Items[0].UnitPrice)
}

func TestPlaceOrderFromCart_GatewayFailure(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	book := f.addProduct(t, "Book", 100, 5)
	f.fillCart(t, userID,
		models.CartItem{ProductID: book.ID, ProductName: book.Name, UnitPrice: book.Price, Quantity: 1},
	)
	f.gateway.Err = errs.NewGatewayError("Invalid API Key provided")

	_, err := f.service.PlaceOrderFromCart(ctx, userID)
	var gatewayErr *errs.GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.Contains(t, gatewayErr.Error(), "Invalid API Key provided")

	// The order survives as Pending so payment can be retried.
	orders, listErr := f.orders.GetByUserID(ctx, userID)
	require.NoError(t, listErr)
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderStatusPending, orders[0].Status)
}

func TestPlaceSingleOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	pen := f.addProduct(t, "Pen", 75, 10)

	placed, err := f.service.PlaceSingleOrder(ctx, userID, pen.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 150.0, placed.Order.TotalAmount)
	require.Len(t, placed.Order.Items, 1)
	assert.Equal(t, 2, placed.Order.Items[0].Quantity)

	_, err = f.service.PlaceSingleOrder(ctx, userID, pen.ID, 0)
	var validationErr *errs.ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = f.service.PlaceSingleOrder(ctx, userID, pen.ID, 11)
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "stock", validationErr.Field)
}

func TestMarkPaid_DeductsStockOnce(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	book := f.addProduct(t, "Book", 100, 5)
	placed, err := f.service.PlaceSingleOrder(ctx, userID, book.ID, 2)
	require.NoError(t, err)

	require.NoError(t, f.service.MarkPaid(ctx, placed.Order.ID))

	order, err := f.orders.GetByID(ctx, placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)

	stored, err := f.products.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Stock)

	// A redelivered confirmation is a no-op.
	require.NoError(t, f.service.MarkPaid(ctx, placed.Order.ID))
	stored, err = f.products.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Stock)
}

func TestMarkPaid_ConcurrentDeliveries(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	book := f.addProduct(t, "Book", 100, 10)
	placed, err := f.service.PlaceSingleOrder(ctx, userID, book.ID, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.service.MarkPaid(ctx, placed.Order.ID)
		}()
	}
	wg.Wait()

	stored, err := f.products.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, stored.Stock, "stock must come off exactly once")

	changed := 0
	for _, event := range f.publisher.Events() {
		if event.Type == events.EventTypeOrderStatusChanged {
			changed++
		}
	}
	assert.Equal(t, 1, changed, "only the winning delivery publishes")
}

func TestMarkPaid_StockShortfall(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	book := f.addProduct(t, "Book", 100, 5)
	pen := f.addProduct(t, "Pen", 75, 5)

	f.fillCart(t, userID,
		models.CartItem{ProductID: book.ID, ProductName: book.Name, UnitPrice: book.Price, Quantity: 2},
		models.CartItem{ProductID: pen.ID, ProductName: pen.Name, UnitPrice: pen.Price, Quantity: 3},
	)
	placed, err := f.service.PlaceOrderFromCart(ctx, userID)
	require.NoError(t, err)

	// Someone else's paid order drains the pens before this payment settles.
	deducted, err := f.products.DeductStock(ctx, pen.ID, 4)
	require.NoError(t, err)
	require.True(t, deducted)

	require.NoError(t, f.service.MarkPaid(ctx, placed.Order.ID))

	order, err := f.orders.GetByID(ctx, placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status, "customer was charged, order stays paid")
	require.Len(t, order.StockShortfall, 1)
	assert.Contains(t, order.StockShortfall[0], "Pen")

	// The deductable line still came off; the short line's stock never went
	// negative.
	storedBook, err := f.products.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, storedBook.Stock)
	storedPen, err := f.products.GetByID(ctx, pen.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, storedPen.Stock)
}

func TestMarkPaymentFailed(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	book := f.addProduct(t, "Book", 100, 5)
	placed, err := f.service.PlaceSingleOrder(ctx, userID, book.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.service.MarkPaymentFailed(ctx, placed.Order.ID))

	order, err := f.orders.GetByID(ctx, placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaymentFailed, order.Status)

	// A late success delivery cannot resurrect a failed order.
	require.NoError(t, f.service.MarkPaid(ctx, placed.Order.ID))
	order, err = f.orders.GetByID(ctx, placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaymentFailed, order.Status)

	stored, err := f.products.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Stock)
}

func TestGetOrderForUser_ScopedToOwner(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	book := f.addProduct(t, "Book", 100, 5)
	placed, err := f.service.PlaceSingleOrder(ctx, owner, book.ID, 1)
	require.NoError(t, err)

	_, err = f.service.GetOrderForUser(ctx, owner, placed.Order.ID)
	require.NoError(t, err)

	_, err = f.service.GetOrderForUser(ctx, stranger, placed.Order.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDeleteOrderForUser(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	book := f.addProduct(t, "Book", 100, 5)

	pending, err := f.service.PlaceSingleOrder(ctx, userID, book.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.service.DeleteOrderForUser(ctx, userID, pending.Order.ID))

	paid, err := f.service.PlaceSingleOrder(ctx, userID, book.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.service.MarkPaid(ctx, paid.Order.ID))

	err = f.service.DeleteOrderForUser(ctx, userID, paid.Order.ID)
	var validationErr *errs.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "status", validationErr.Field)

	order, err := f.orders.GetByID(ctx, paid.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
}

func TestConcurrentPaidOrders_StockFloor(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	book := f.addProduct(t, "Book", 100, 5)

	// Ten customers each hold a pending order for one copy; only five
	// payments can actually deduct stock.
	var orderIDs []primitive.ObjectID
	for i := 0; i < 10; i++ {
		placed, err := f.service.PlaceSingleOrder(ctx, primitive.NewObjectID(), book.ID, 1)
		require.NoError(t, err)
		orderIDs = append(orderIDs, placed.Order.ID)
	}

	var wg sync.WaitGroup
	for _, id := range orderIDs {
		wg.Add(1)
		go func(orderID primitive.ObjectID) {
			defer wg.Done()
			_ = f.service.MarkPaid(ctx, orderID)
		}(id)
	}
	wg.Wait()

	stored, err := f.products.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Stock, "stock must never go negative")

	short := 0
	for _, id := range orderIDs {
		order, err := f.orders.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPaid, order.Status)
		if len(order.StockShortfall) > 0 {
			short++
		}
	}
	assert.Equal(t, 5, short)

	changed := 0
	for _, event := range f.publisher.Events() {
		if event.Type == events.EventTypeOrderStatusChanged {
			changed++
		}
	}
	assert.Equal(t, len(orderIDs), changed)
}
