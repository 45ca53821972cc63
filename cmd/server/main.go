package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/tmnhat/pantry-scan/internal/adapter/ai"
	"github.com/tmnhat/pantry-scan/internal/adapter/camera"
	"github.com/tmnhat/pantry-scan/internal/adapter/handler"
	"github.com/tmnhat/pantry-scan/internal/adapter/storage"
	"github.com/tmnhat/pantry-scan/internal/core/service"
	"github.com/tmnhat/pantry-scan/internal/port"
)

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; using system environment")
	}

	addr := os.Getenv("PORT")
	if addr == "" {
		addr = ":8080"
	} else if addr[0] != ':' {
		addr = ":" + addr
	}

	ctx := context.Background()

	mirror, closeMirror, err := openMirror(ctx)
	if err != nil {
		log.Fatalf("mirror: %v", err)
	}
	defer closeMirror()

	inventory := service.NewInventoryService(mirror)
	if err := inventory.Restore(ctx); err != nil {
		// Non-fatal: the app stays usable with an empty collection.
		log.Printf("inventory restore: %v; starting empty", err)
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Println("GEMINI_API_KEY is not set; extraction and recipe suggestions will be unavailable")
	}
	extractor := ai.NewGemini(ai.Config{
		APIKey: apiKey,
		Model:  os.Getenv("GEMINI_MODEL"),
	})

	capture, err := camera.New(camera.Config{
		SnapshotURL: envOrDefault("CAMERA_URL", "http://localhost:8081/snapshot"),
	})
	if err != nil {
		log.Fatalf("camera: %v", err)
	}
	defer capture.Close()

	if err := capture.Open(ctx); err != nil {
		// Recoverable via retry from the UI; viewing and deleting saved
		// records works without a camera.
		log.Printf("camera open: %v", err)
	}

	scans := service.NewScanService(capture, extractor, inventory)

	router := httprouter.New()
	handler.NewHTTPHandler(scans, inventory, extractor).Register(router)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"}, // lock down in production
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)

	server := &http.Server{
		Addr:    addr,
		Handler: loggingMiddleware(corsHandler),
		// capture + extraction is two upstream round trips
		WriteTimeout:      90 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	log.Println("server stopped")
}

// openMirror selects the durable-mirror driver from MIRROR_DRIVER and
// returns it with a cleanup function for its connections.
func openMirror(ctx context.Context) (port.Mirror, func(), error) {
	driver := strings.ToLower(envOrDefault("MIRROR_DRIVER", "redis"))

	switch driver {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr: envOrDefault("REDIS_ADDR", "localhost:6379"),
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Println("connected to redis")
		return storage.NewRedisMirror(rdb), func() { rdb.Close() }, nil

	case "mysql":
		dsn := envOrDefault("MYSQL_DSN", "root:root@tcp(localhost:3306)/pantry?parseTime=true")
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mysql: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping mysql: %w", err)
		}
		log.Println("connected to mysql")
		mirror := storage.NewMySQLMirror(db)
		if err := mirror.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return mirror, func() { db.Close() }, nil

	case "file":
		path := envOrDefault("MIRROR_FILE", "pantry-inventory.json")
		return storage.NewFileMirror(path), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported mirror driver: %s", driver)
	}
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s – %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
