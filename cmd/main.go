package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/quickbite/cart-service/internal/cache"
	"github.com/quickbite/cart-service/internal/catalog"
	"github.com/quickbite/cart-service/internal/consumer"
	h "github.com/quickbite/cart-service/internal/http"
	"github.com/quickbite/cart-service/internal/repository"
	"github.com/quickbite/cart-service/internal/service"
	cartsync "github.com/quickbite/cart-service/internal/sync"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	HTTPPort        string
	RedisAddr       string
	RedisPassword   string
	DBHost          string
	DBPort          int
	DBUser          string
	DBPassword      string
	DBName          string
	MigrationsPath  string
	CatalogBaseURL  string
	KafkaBrokers    string
	SyncInterval    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnvInt("DB_PORT", 5432),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", "postgres"),
		DBName:          getEnv("DB_NAME", "cartdb"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		CatalogBaseURL:  getEnv("CATALOG_BASE_URL", "http://localhost:8081"),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", ""),
		SyncInterval:    getEnvDuration("SYNC_INTERVAL", 15*time.Minute),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Durable store
	repo, err := repository.NewRepository(&repository.Credentials{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
	})
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer repo.Close()
	log.Printf("Connected to postgres at %s:%d", cfg.DBHost, cfg.DBPort)

	if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	cartCache := cache.NewRedisCartCache(redisClient)

	// External collaborators
	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, cfg.RequestTimeout)

	cartService := service.NewCartService(cartCache, repo, catalogClient)
	coordinator := cartsync.NewCoordinator(cartCache, repo)

	// Batch reconciliation sweep
	runner := cartsync.NewRunner(coordinator, cfg.SyncInterval)
	go runner.Run(ctx)
	log.Printf("Cart sync sweep every %s", cfg.SyncInterval)

	// Order events empty carts after checkout
	if cfg.KafkaBrokers != "" {
		orderConsumer := consumer.NewConsumer(cartCache, coordinator, cfg.KafkaBrokers)
		defer orderConsumer.Close()
		go orderConsumer.Run(ctx)
		log.Printf("Consuming order events from %s", cfg.KafkaBrokers)
	}

	router := h.NewRouter(cartService, catalogClient, cfg.RequestTimeout)
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Cart service listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down cart service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	// Flush whatever is still cached before the process goes away.
	if _, err := coordinator.SyncAll(shutdownCtx); err != nil {
		log.Printf("final cart sweep failed: %v", err)
	}

	log.Println("Cart service stopped")
}
