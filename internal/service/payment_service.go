package service

import (
	"context"
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quickcart-shop/quickcart-api/internal/clients"
	"github.com/quickcart-shop/quickcart-api/internal/config"
	"github.com/quickcart-shop/quickcart-api/internal/errs"
	"github.com/quickcart-shop/quickcart-api/internal/logging"
)

// Webhook event types delivered by the payment processor.
const (
	eventCheckoutCompleted     = "checkout.session.completed"
	eventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	eventAsyncPaymentFailed    = "checkout.session.async_payment_failed"

	sessionPaymentStatusPaid = "paid"
)

// webhookEnvelope is the subset of the processor's event payload the service
// acts on. The order id travels in the session metadata set at creation.
type webhookEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string            `json:"id"`
			PaymentStatus string            `json:"payment_status"`
			Metadata      map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// PaymentService verifies and applies payment webhook deliveries.
type PaymentService struct {
	orders        *OrderService
	webhookSecret string
	logger        *logging.Logger
}

func NewPaymentService(orders *OrderService, cfg config.PaymentConfig) *PaymentService {
	return &PaymentService{
		orders:        orders,
		webhookSecret: cfg.WebhookSecret,
		logger:        logging.NewLogger("payment-service"),
	}
}

// ProcessWebhook authenticates a delivery and applies the transition it
// reports. A bad signature or malformed payload is a validation error; once
// the delivery is authenticated, unknown event types and already-settled
// orders are acknowledged without effect so the processor stops retrying.
func (s *PaymentService) ProcessWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	if signatureHeader == "" {
		return errs.NewValidationError("signature", "missing signature header")
	}
	if !clients.VerifyWebhookSignature(payload, signatureHeader, s.webhookSecret) {
		s.logger.Warn("webhook signature mismatch")
		return errs.NewValidationError("signature", "invalid signature")
	}

	var event webhookEnvelope
	if err := json.Unmarshal(payload, &event); err != nil {
		return errs.NewValidationError("payload", "malformed event payload")
	}

	logger := s.logger.WithFields(logging.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"session_id": event.Data.Object.ID,
	})

	switch event.Type {
	case eventCheckoutCompleted:
		// A completed session is only a payment when the processor says so;
		// delayed payment methods complete with payment_status still pending.
		if event.Data.Object.PaymentStatus != sessionPaymentStatusPaid {
			logger.Info("session completed without payment, awaiting async result")
			return nil
		}
		return s.applyTransition(ctx, logger, event, s.orders.MarkPaid)

	case eventAsyncPaymentSucceeded:
		return s.applyTransition(ctx, logger, event, s.orders.MarkPaid)

	case eventAsyncPaymentFailed:
		return s.applyTransition(ctx, logger, event, s.orders.MarkPaymentFailed)

	default:
		logger.Info("webhook event ignored")
		return nil
	}
}

func (s *PaymentService) applyTransition(
	ctx context.Context,
	logger *logging.Logger,
	event webhookEnvelope,
	transition func(context.Context, primitive.ObjectID) error,
) error {
	orderHex := event.Data.Object.Metadata["orderId"]
	orderID, err := primitive.ObjectIDFromHex(orderHex)
	if err != nil {
		// Not one of ours; acknowledge so the processor stops retrying.
		logger.WithFields(logging.Fields{"order_id": orderHex}).Warn("webhook event without usable order id")
		return nil
	}

	// An authenticated delivery is acknowledged even when the update fails;
	// surfacing an error here would only trigger processor retry storms.
	if err := transition(ctx, orderID); err != nil {
		logger.WithFields(logging.Fields{
			"order_id": orderID.Hex(),
			"error":    err.Error(),
		}).Error("webhook transition failed")
	}
	return nil
}
