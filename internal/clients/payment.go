package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/quickcart-shop/quickcart-api/internal/config"
	"github.com/quickcart-shop/quickcart-api/internal/errs"
	"github.com/quickcart-shop/quickcart-api/internal/logging"
)

// CheckoutRequest describes a hosted-checkout session to be opened with the
// payment processor. Amount is in the processor currency's minor units.
type CheckoutRequest struct {
	Name     string
	Amount   int64
	Currency string
	Quantity int64
	Metadata map[string]string
}

// CheckoutSession is the processor's handle for a created session.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutGateway opens hosted checkout sessions with the payment processor.
type CheckoutGateway interface {
	CreateSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error)
}

var _ CheckoutGateway = (*HTTPCheckoutClient)(nil)

// HTTPCheckoutClient implements CheckoutGateway against the processor's
// checkout-sessions REST API.
type HTTPCheckoutClient struct {
	baseURL    string
	secretKey  string
	successURL string
	cancelURL  string
	httpClient *http.Client
	logger     *logging.Logger
}

func NewHTTPCheckoutClient(cfg config.PaymentConfig) *HTTPCheckoutClient {
	return &HTTPCheckoutClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:  cfg.SecretKey,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.NewLogger("checkout-client"),
	}
}

// CreateSession opens a payment-mode checkout session with a single line
// item. The caller's metadata travels opaquely on the session and comes back
// on webhook events.
func (c *HTTPCheckoutClient) CreateSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", c.successURL)
	form.Set("cancel_url", c.cancelURL)
	form.Set("line_items[0][quantity]", strconv.FormatInt(req.Quantity, 10))
	form.Set("line_items[0][price_data][currency]", req.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.Amount, 10))
	form.Set("line_items[0][price_data][product_data][name]", req.Name)
	for key, value := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	endpoint := c.baseURL + "/v1/checkout/sessions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.WithFields(logging.Fields{"error": err.Error()}).Error("checkout session request failed")
		return nil, errs.NewGatewayError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errs.NewGatewayError(readGatewayError(resp))
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, errs.NewGatewayError("malformed session response: " + err.Error())
	}

	c.logger.WithFields(logging.Fields{
		"session_id": session.ID,
		"amount":     req.Amount,
		"currency":   req.Currency,
	}).Info("checkout session created")

	return &session, nil
}

// readGatewayError surfaces the processor's own error message verbatim.
func readGatewayError(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}

	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// MockCheckoutGateway is a CheckoutGateway for tests. Session and Err are set
// up before use; the request recorder is mutex-guarded because placements run
// from concurrent goroutines.
type MockCheckoutGateway struct {
	Session *CheckoutSession
	Err     error

	mu       sync.Mutex
	requests []*CheckoutRequest
}

var _ CheckoutGateway = (*MockCheckoutGateway)(nil)

func NewMockCheckoutGateway() *MockCheckoutGateway {
	return &MockCheckoutGateway{
		Session: &CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example.com/cs_test_1"},
	}
}

func (m *MockCheckoutGateway) CreateSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Session, nil
}

// Requests returns a snapshot of the recorded session requests.
func (m *MockCheckoutGateway) Requests() []*CheckoutRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*CheckoutRequest(nil), m.requests...)
}
