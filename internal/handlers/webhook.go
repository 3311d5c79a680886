package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quickcart-shop/quickcart-api/internal/logging"
)

// signatureHeader carries the processor's HMAC over the raw body.
const signatureHeader = "Payment-Signature"

// PaymentWebhook handles POST /api/webhook/payment. The signature is
// verified over the raw body before anything is parsed. An authenticated
// delivery is always acknowledged with 200 so the processor stops retrying,
// even when the event is a duplicate or of an unknown type.
func (h *Handlers) PaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	err = h.paymentService.ProcessWebhook(c.Request.Context(), payload, c.GetHeader(signatureHeader))
	if err != nil {
		h.logger.WithFields(logging.Fields{"error": err.Error()}).Warn("webhook rejected")
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
