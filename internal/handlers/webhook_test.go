package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quickcart-shop/quickcart-api/internal/clients"
	"github.com/quickcart-shop/quickcart-api/internal/config"
	"github.com/quickcart-shop/quickcart-api/internal/logging"
	"github.com/quickcart-shop/quickcart-api/internal/models"
	"github.com/quickcart-shop/quickcart-api/internal/repository"
	"github.com/quickcart-shop/quickcart-api/internal/service"
)

const webhookSecret = "whsec_handler_test"

type webhookFixture struct {
	router   *gin.Engine
	orders   *repository.MemoryOrderRepository
	products *repository.MemoryProductRepository
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orders := repository.NewMemoryOrderRepository()
	products := repository.NewMemoryProductRepository()
	payment := config.PaymentConfig{
		Currency:       "usd",
		ConversionRate: 87.50,
		WebhookSecret:  webhookSecret,
	}

	orderService := service.NewOrderService(
		orders,
		repository.NewMemoryCartRepository(),
		products,
		clients.NewMockCheckoutGateway(),
		nil,
		payment,
	)
	paymentService := service.NewPaymentService(orderService, payment)

	h := &Handlers{paymentService: paymentService, logger: logging.NewLogger("handlers")}
	router := gin.New()
	router.POST("/api/webhook/payment", h.PaymentWebhook)

	return &webhookFixture{router: router, orders: orders, products: products}
}

func (f *webhookFixture) seedPendingOrder(t *testing.T) *models.Order {
	t.Helper()
	product := &models.Product{Name: "Book", Price: 100, Stock: 5}
	if err := f.products.Create(context.Background(), product); err != nil {
		t.Fatal(err)
	}
	order := &models.Order{
		UserID: primitive.NewObjectID(),
		Status: models.OrderStatusPending,
		Items: []models.OrderItem{
			{ProductID: product.ID, ProductName: product.Name, UnitPrice: product.Price, Quantity: 2},
		},
		TotalAmount: 200,
	}
	if err := f.orders.Create(context.Background(), order); err != nil {
		t.Fatal(err)
	}
	return order
}

func (f *webhookFixture) deliver(payload []byte, signature string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook/payment", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Payment-Signature", signature)
	}
	f.router.ServeHTTP(w, req)
	return w
}

func paidEventPayload(orderID string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","payment_status":"paid","metadata":{"orderId":%q}}}}`,
		orderID,
	))
}

func TestPaymentWebhook_Success(t *testing.T) {
	f := newWebhookFixture(t)
	order := f.seedPendingOrder(t)

	payload := paidEventPayload(order.ID.Hex())
	signature := clients.SignWebhookPayload(payload, time.Now().Unix(), webhookSecret)

	w := f.deliver(payload, signature)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.OrderStatusPaid {
		t.Errorf("order status = %s, want Paid", stored.Status)
	}

	product, err := f.products.GetByID(context.Background(), order.Items[0].ProductID)
	if err != nil {
		t.Fatal(err)
	}
	if product.Stock != 3 {
		t.Errorf("stock = %d, want 3", product.Stock)
	}
}

func TestPaymentWebhook_Redelivery(t *testing.T) {
	f := newWebhookFixture(t)
	order := f.seedPendingOrder(t)

	payload := paidEventPayload(order.ID.Hex())
	signature := clients.SignWebhookPayload(payload, time.Now().Unix(), webhookSecret)

	for i := 0; i < 3; i++ {
		if w := f.deliver(payload, signature); w.Code != http.StatusOK {
			t.Fatalf("delivery %d: status %d", i, w.Code)
		}
	}

	product, err := f.products.GetByID(context.Background(), order.Items[0].ProductID)
	if err != nil {
		t.Fatal(err)
	}
	if product.Stock != 3 {
		t.Errorf("stock = %d after redeliveries, want 3", product.Stock)
	}
}

func TestPaymentWebhook_BadSignature(t *testing.T) {
	f := newWebhookFixture(t)
	order := f.seedPendingOrder(t)

	payload := paidEventPayload(order.ID.Hex())

	cases := []struct {
		name      string
		signature string
	}{
		{"missing header", ""},
		{"wrong secret", clients.SignWebhookPayload(payload, time.Now().Unix(), "whsec_wrong")},
		{"garbage header", "t=1,v1=00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.deliver(payload, tc.signature)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.OrderStatusPending {
		t.Errorf("order status = %s, rejected deliveries must not change state", stored.Status)
	}
}

func TestPaymentWebhook_UnknownEventAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)

	payload := []byte(`{"id":"evt_9","type":"invoice.created","data":{"object":{}}}`)
	signature := clients.SignWebhookPayload(payload, time.Now().Unix(), webhookSecret)

	w := f.deliver(payload, signature)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, unknown events must be acknowledged", w.Code)
	}
}
