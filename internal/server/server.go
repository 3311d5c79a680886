package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/quickcart-shop/quickcart-api/internal/config"
	"github.com/quickcart-shop/quickcart-api/internal/handlers"
	"github.com/quickcart-shop/quickcart-api/internal/middleware"
)

type Server struct {
	config     *config.Config
	router     *gin.Engine
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, h *handlers.Handlers, mongoClient *mongo.Client) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(cors.Default())

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
	}

	s.setupRoutes(mongoClient)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupRoutes(mongoClient *mongo.Client) {
	s.router.GET("/health", s.handlers.Health)
	s.router.GET("/ready", s.handlers.Readiness(mongoClient))
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	{
		// Public surface: account creation, login, catalog browsing, and the
		// processor's webhook (authenticated by its signature, not a token).
		api.POST("/users/signup", s.handlers.Signup)
		api.POST("/users/login", s.handlers.Login)
		api.GET("/products", s.handlers.ListProducts)
		api.GET("/products/:id", s.handlers.GetProduct)
		api.POST("/webhook/payment", s.handlers.PaymentWebhook)
	}

	authed := s.router.Group("/api")
	authed.Use(middleware.Auth(s.config.Auth))
	{
		authed.GET("/users/me", s.handlers.GetProfile)
		authed.PUT("/users/me", s.handlers.UpdateProfile)

		authed.GET("/cart", s.handlers.GetCart)
		authed.DELETE("/cart", s.handlers.ClearCart)
		authed.POST("/cart/items/:productId/:quantity", s.handlers.AddCartItem)
		authed.PUT("/cart/items/:productId", s.handlers.UpdateCartItem)
		authed.DELETE("/cart/items/:productId", s.handlers.RemoveCartItem)

		authed.POST("/orders", s.handlers.PlaceOrder)
		authed.GET("/orders", s.handlers.ListOrders)
		authed.GET("/orders/:id", s.handlers.GetOrder)
		authed.DELETE("/orders/:id", s.handlers.DeleteOrder)
		authed.POST("/orders/buy/:productId/:quantity", s.handlers.BuyNow)

		authed.GET("/wishlist", s.handlers.GetWishlist)
		authed.POST("/wishlist/:productId", s.handlers.AddWishlistItem)
		authed.DELETE("/wishlist/:productId", s.handlers.RemoveWishlistItem)
	}

	admin := s.router.Group("/api/admin")
	admin.Use(middleware.Auth(s.config.Auth), middleware.RequireRole("ADMIN"))
	{
		admin.POST("/users", s.handlers.CreateAdmin)
		admin.GET("/users", s.handlers.ListUsers)
		admin.DELETE("/users/:id", s.handlers.DeleteUser)

		admin.POST("/products", s.handlers.CreateProduct)
		admin.PUT("/products/:id", s.handlers.UpdateProduct)
		admin.DELETE("/products/:id", s.handlers.DeleteProduct)
	}
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
