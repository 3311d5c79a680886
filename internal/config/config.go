package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server       ServerConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Auth         AuthConfig
	Payment      PaymentConfig
	Notification ServiceConfig
	Features     FeatureFlags
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type KafkaConfig struct {
	Brokers     []string
	OrdersTopic string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// PaymentConfig configures the hosted-checkout gateway. Orders are priced in
// the store currency; ConversionRate converts totals into the gateway
// currency before a session is created.
type PaymentConfig struct {
	BaseURL        string
	SecretKey      string
	WebhookSecret  string
	Timeout        time.Duration
	Currency       string
	ConversionRate float64
	SuccessURL     string
	CancelURL      string
}

type ServiceConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type FeatureFlags struct {
	EnableProductCaching bool
	EnableOrderEvents    bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
		},
		Mongo: MongoConfig{
			URI:      getEnvString("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnvString("MONGO_DATABASE", "quickcart"),
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("REDIS_TTL_SECONDS", 120)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:     strings.Split(getEnvString("KAFKA_BROKERS", "localhost:9092"), ","),
			OrdersTopic: getEnvString("KAFKA_ORDERS_TOPIC", "quickcart.orders"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnvString("JWT_SECRET", "quickcart-dev-secret"),
			TokenTTL:  time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,
		},
		Payment: PaymentConfig{
			BaseURL:        getEnvString("PAYMENT_GATEWAY_URL", "https://api.stripe.com"),
			SecretKey:      getEnvString("PAYMENT_SECRET_KEY", ""),
			WebhookSecret:  getEnvString("PAYMENT_WEBHOOK_SECRET", ""),
			Timeout:        time.Duration(getEnvInt("PAYMENT_TIMEOUT", 30)) * time.Second,
			Currency:       getEnvString("PAYMENT_CURRENCY", "usd"),
			ConversionRate: getEnvFloat("PAYMENT_CONVERSION_RATE", 87.50),
			SuccessURL:     getEnvString("PAYMENT_SUCCESS_URL", "http://localhost:8080/success"),
			CancelURL:      getEnvString("PAYMENT_CANCEL_URL", "http://localhost:8080/cancel"),
		},
		Notification: ServiceConfig{
			BaseURL: getEnvString("NOTIFICATION_SERVICE_URL", "http://localhost:8085"),
			APIKey:  getEnvString("NOTIFICATION_API_KEY", ""),
			Timeout: time.Duration(getEnvInt("NOTIFICATION_TIMEOUT", 10)) * time.Second,
		},
		Features: FeatureFlags{
			EnableProductCaching: getEnvBool("ENABLE_PRODUCT_CACHING", true),
			EnableOrderEvents:    getEnvBool("ENABLE_ORDER_EVENTS", false),
		},
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
