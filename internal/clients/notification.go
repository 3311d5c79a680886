package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/quickcart-shop/quickcart-api/internal/config"
	"github.com/quickcart-shop/quickcart-api/internal/logging"
)

// SendEmailRequest is the payload accepted by the notification service.
type SendEmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NotificationSender delivers user-facing notifications. Callers treat
// delivery as fire-and-forget.
type NotificationSender interface {
	SendEmail(ctx context.Context, req *SendEmailRequest) error
}

var _ NotificationSender = (*HTTPNotificationClient)(nil)

// HTTPNotificationClient implements NotificationSender over the notification
// service's REST API.
type HTTPNotificationClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

func NewHTTPNotificationClient(cfg config.ServiceConfig) *HTTPNotificationClient {
	return &HTTPNotificationClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.NewLogger("notification-client"),
	}
}

func (c *HTTPNotificationClient) SendEmail(ctx context.Context, req *SendEmailRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/notifications/email", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.WithFields(logging.Fields{"to": req.To, "error": err.Error()}).Error("email send failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}

	c.logger.WithFields(logging.Fields{"to": req.To}).Info("email sent")
	return nil
}

// MockNotificationSender records emails for tests. Deliveries happen off the
// request goroutine, so the recorder is mutex-guarded.
type MockNotificationSender struct {
	mu   sync.Mutex
	sent []*SendEmailRequest
}

var _ NotificationSender = (*MockNotificationSender)(nil)

func NewMockNotificationSender() *MockNotificationSender {
	return &MockNotificationSender{}
}

func (m *MockNotificationSender) SendEmail(ctx context.Context, req *SendEmailRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, req)
	return nil
}

// Sent returns a snapshot of the recorded emails.
func (m *MockNotificationSender) Sent() []*SendEmailRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*SendEmailRequest(nil), m.sent...)
}
