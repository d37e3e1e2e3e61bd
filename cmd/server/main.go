package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/fundraiser-tracker/internal/api"
	"github.com/ignite/fundraiser-tracker/internal/authz"
	"github.com/ignite/fundraiser-tracker/internal/config"
	"github.com/ignite/fundraiser-tracker/internal/consistency"
	"github.com/ignite/fundraiser-tracker/internal/pkg/distlock"
	"github.com/ignite/fundraiser-tracker/internal/reports"
	"github.com/ignite/fundraiser-tracker/internal/service"
	"github.com/ignite/fundraiser-tracker/internal/storage"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("Fundraiser Tracker API (cmd/server/main.go)")

	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Pre-flight check: verify the target port is available
	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	var store storage.Store
	switch cfg.Storage.Type {
	case "dynamodb":
		dynamoStore, err := storage.NewDynamoStore(ctx, cfg.Storage.DynamoDBTable,
			cfg.Storage.AWSRegion, cfg.Storage.GetAWSProfile())
		if err != nil {
			log.Fatalf("Failed to initialize DynamoDB storage: %v", err)
		}
		store = dynamoStore
		log.Printf("Storage: DynamoDB (table: %s, region: %s)", cfg.Storage.DynamoDBTable, cfg.Storage.AWSRegion)
	case "memory":
		store = storage.NewMemoryStore()
		log.Println("Storage: in-memory (data is not persisted)")
	default:
		log.Fatalf("Unknown storage type: %q", cfg.Storage.Type)
	}

	// Initialize the permission verdict cache and distributed locks if
	// Redis is configured
	var cache *authz.Cache
	var rdb *redis.Client
	if cfg.Cache.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			log.Printf("Warning: Redis unreachable (%v), permission caching disabled", err)
		} else {
			rdb = client
			cache = authz.NewCache(rdb, cfg.Cache.TTL())
			log.Printf("Permission cache: Redis at %s (TTL %s)", cfg.Cache.RedisAddr, cfg.Cache.TTL())
		}
	} else {
		log.Println("Permission cache disabled")
	}
	locks := distlock.NewManager(rdb)

	// Initialize the report sink if configured
	var sink service.ReportSink
	if cfg.Reports.Enabled && cfg.Reports.S3Bucket != "" {
		s3Sink, err := reports.NewS3Sink(ctx, cfg.Reports.S3Bucket, cfg.Reports.S3Region)
		if err != nil {
			log.Printf("Warning: Failed to initialize S3 report sink: %v", err)
		} else {
			sink = s3Sink
			log.Printf("Report sink: S3 bucket %s", cfg.Reports.S3Bucket)
		}
	}

	svc := service.New(service.Config{
		Store:     store,
		Cache:     cache,
		Locks:     locks,
		InviteTTL: cfg.Invites.TTL(),
		Await: consistency.Options{
			MaxAttempts: cfg.Consistency.MaxAttempts,
			BaseDelay:   cfg.Consistency.BaseDelay(),
			MaxDelay:    cfg.Consistency.MaxDelay(),
		},
		ReportSink: sink,
	})

	router := api.SetupRoutes(api.New(svc, store))

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: router,
	}

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
