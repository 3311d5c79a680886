package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quickcart-shop/quickcart-api/internal/clients"
	"github.com/quickcart-shop/quickcart-api/internal/config"
	"github.com/quickcart-shop/quickcart-api/internal/events"
	"github.com/quickcart-shop/quickcart-api/internal/handlers"
	"github.com/quickcart-shop/quickcart-api/internal/logging"
	"github.com/quickcart-shop/quickcart-api/internal/repository"
	"github.com/quickcart-shop/quickcart-api/internal/server"
	"github.com/quickcart-shop/quickcart-api/internal/service"
)

func main() {
	cfg := config.Load()
	logger := logging.NewLogger("quickcart-api")

	logger.WithFields(logging.Fields{"port": cfg.Server.Port}).Info("starting quickcart-api")

	mongoClient, db, err := initMongo(cfg)
	if err != nil {
		logger.WithFields(logging.Fields{"error": err.Error()}).Fatal("mongo connection failed")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.WithFields(logging.Fields{"error": err.Error()}).Error("mongo disconnect failed")
		}
	}()

	redisClient := repository.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	userRepo := repository.NewMongoUserRepository(db)
	productRepo := repository.NewMongoProductRepository(db)
	cartRepo := repository.NewMongoCartRepository(db)
	orderRepo := repository.NewMongoOrderRepository(db)
	wishlistRepo := repository.NewMongoWishlistRepository(db)

	productCache := repository.NewRedisProductCache(redisClient, cfg.Redis)
	wishlistCache := repository.NewRedisWishlistCache(redisClient, cfg.Redis)

	checkoutClient := clients.NewHTTPCheckoutClient(cfg.Payment)
	notificationClient := clients.NewHTTPNotificationClient(cfg.Notification)

	var publisher events.OrderEventPublisher
	if cfg.Features.EnableOrderEvents {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	userService := service.NewUserService(userRepo, notificationClient)
	productService := service.NewProductService(productRepo, productCache, cfg.Features.EnableProductCaching)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(orderRepo, cartRepo, productRepo, checkoutClient, publisher, cfg.Payment)
	paymentService := service.NewPaymentService(orderService, cfg.Payment)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo, wishlistCache)

	h := handlers.NewHandlers(userService, productService, cartService, orderService, paymentService, wishlistService, cfg)

	srv := server.New(cfg, h, mongoClient)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.WithFields(logging.Fields{"error": err.Error()}).Fatal("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithFields(logging.Fields{"error": err.Error()}).Error("server forced to shutdown")
	}

	logger.Info("server exited")
}

func initMongo(cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, nil, err
	}

	db := client.Database(cfg.Mongo.Database)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return nil, nil, err
	}
	return client, db, nil
}
