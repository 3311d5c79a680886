package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quickcart-shop/quickcart-api/internal/config"
	"github.com/quickcart-shop/quickcart-api/internal/errs"
)

func newCheckoutClient(baseURL string) *HTTPCheckoutClient {
	return NewHTTPCheckoutClient(config.PaymentConfig{
		BaseURL:    baseURL,
		SecretKey:  "sk_test_123",
		Timeout:    5 * time.Second,
		SuccessURL: "http://localhost:8080/success",
		CancelURL:  "http://localhost:8080/cancel",
	})
}

func TestCreateSession(t *testing.T) {
	var gotForm map[string]string
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = map[string]string{}
		for key := range r.PostForm {
			gotForm[key] = r.PostForm.Get(key)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_live_42","url":"https://pay.example.com/cs_live_42"}`))
	}))
	defer srv.Close()

	client := newCheckoutClient(srv.URL)
	session, err := client.CreateSession(context.Background(), &CheckoutRequest{
		Name:     "Order #abc",
		Amount:   28600,
		Currency: "usd",
		Quantity: 1,
		Metadata: map[string]string{"orderId": "abc", "userId": "u1"},
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if session.ID != "cs_live_42" {
		t.Errorf("session id = %q", session.ID)
	}
	if session.URL != "https://pay.example.com/cs_live_42" {
		t.Errorf("session url = %q", session.URL)
	}
	if gotAuth != "Bearer sk_test_123" {
		t.Errorf("authorization = %q", gotAuth)
	}

	expect := map[string]string{
		"mode":                                          "payment",
		"line_items[0][quantity]":                       "1",
		"line_items[0][price_data][currency]":           "usd",
		"line_items[0][price_data][unit_amount]":        "28600",
		"line_items[0][price_data][product_data][name]": "Order #abc",
		"metadata[orderId]":                             "abc",
		"metadata[userId]":                              "u1",
		"success_url":                                   "http://localhost:8080/success",
		"cancel_url":                                    "http://localhost:8080/cancel",
	}
	for key, want := range expect {
		if gotForm[key] != want {
			t.Errorf("form[%s] = %q, want %q", key, gotForm[key], want)
		}
	}
}

func TestCreateSession_GatewayErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid API Key provided"}}`))
	}))
	defer srv.Close()

	client := newCheckoutClient(srv.URL)
	_, err := client.CreateSession(context.Background(), &CheckoutRequest{Name: "x", Amount: 100, Currency: "usd", Quantity: 1})

	gatewayErr, ok := err.(*errs.GatewayError)
	if !ok {
		t.Fatalf("expected GatewayError, got %T: %v", err, err)
	}
	if gatewayErr.Message != "Invalid API Key provided" {
		t.Errorf("gateway message = %q, want processor message verbatim", gatewayErr.Message)
	}
}

func TestCreateSession_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := newCheckoutClient(srv.URL)
	_, err := client.CreateSession(context.Background(), &CheckoutRequest{Name: "x", Amount: 100, Currency: "usd", Quantity: 1})
	if _, ok := err.(*errs.GatewayError); !ok {
		t.Fatalf("expected GatewayError, got %T: %v", err, err)
	}
}
