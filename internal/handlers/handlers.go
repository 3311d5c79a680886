package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quickcart-shop/quickcart-api/internal/config"
	"github.com/quickcart-shop/quickcart-api/internal/errs"
	"github.com/quickcart-shop/quickcart-api/internal/logging"
	"github.com/quickcart-shop/quickcart-api/internal/service"
)

// Handlers holds all HTTP handlers for the API.
type Handlers struct {
	userService     *service.UserService
	productService  *service.ProductService
	cartService     *service.CartService
	orderService    *service.OrderService
	paymentService  *service.PaymentService
	wishlistService *service.WishlistService
	config          *config.Config
	logger          *logging.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	userService *service.UserService,
	productService *service.ProductService,
	cartService *service.CartService,
	orderService *service.OrderService,
	paymentService *service.PaymentService,
	wishlistService *service.WishlistService,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		userService:     userService,
		productService:  productService,
		cartService:     cartService,
		orderService:    orderService,
		paymentService:  paymentService,
		wishlistService: wishlistService,
		config:          cfg,
		logger:          logging.NewLogger("handlers"),
	}
}

func handleError(c *gin.Context, err error) {
	if err == errs.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if validationErr, ok := err.(*errs.ValidationError); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
		return
	}

	if gatewayErr, ok := err.(*errs.GatewayError); ok {
		c.JSON(http.StatusBadGateway, gin.H{"error": gatewayErr.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
