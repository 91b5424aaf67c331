package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/retailpoint/pos-backend/docs"
	"github.com/retailpoint/pos-backend/internal/config"
	"github.com/retailpoint/pos-backend/internal/database"
	"github.com/retailpoint/pos-backend/internal/display"
	"github.com/retailpoint/pos-backend/internal/events"
	"github.com/retailpoint/pos-backend/internal/handlers"
	"github.com/retailpoint/pos-backend/internal/ledger"
	mW "github.com/retailpoint/pos-backend/internal/middleware"
	"github.com/retailpoint/pos-backend/internal/services"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Retail POS Backend API
// @version 1.0
// @description Cashier session and cash-drawer API for the retail point of sale
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env
	viper.ReadInConfig()        // read .env file

	viper.SetEnvPrefix("")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "Retail POS Backend API"
	docs.SwaggerInfo.Description = "Cashier session and cash-drawer API for the retail point of sale"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize infrastructure
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	displayCfg := config.LoadDisplayConfig()

	// Event fan-out: the core publishes in-process; the redis bridge
	// relays to network subscribers when redis is available.
	bus := events.NewBus()
	if redisClient != nil {
		bridge := events.NewRedisBridge(redisClient, displayCfg.EventChannel)
		bus.Subscribe(bridge.Handle)
	}

	// Core services
	store := ledger.NewPostgresStore(db)
	peripheralService := services.NewPeripheralService(display.NewSerialDisplay(), bus, displayCfg)
	sessionService := services.NewSessionService(store, bus, peripheralService)
	restoreService := services.NewRestoreService(store, sessionService, bus)
	reportService := services.NewReportService(store, redisClient)

	// Rehydrate sessions left open by an unclean shutdown, before any
	// client-initiated opens are accepted.
	if restored, err := restoreService.RestoreAll(context.Background()); err != nil {
		log.Printf("Warning: session restoration failed: %v", err)
	} else {
		log.Printf("Restored %d open cashier sessions", restored)
	}

	sessionHandler := handlers.NewSessionHandler(sessionService)
	peripheralHandler := handlers.NewPeripheralHandler(peripheralService)
	adminHandler := handlers.NewAdminHandler(restoreService, reportService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Post("/sessions", sessionHandler.OpenSession)
			r.Get("/sessions", sessionHandler.ListSessions)
			r.Get("/sessions/current", sessionHandler.GetCurrentSession)
			r.Post("/sessions/keepalive", sessionHandler.KeepAlive)
			r.Post("/sessions/close", sessionHandler.CloseSession)
			r.Post("/sessions/movements", sessionHandler.AddMovement)
			r.Get("/sessions/drawer", sessionHandler.GetDrawer)
			r.Get("/sessions/closing-slip/{sessionId}", adminHandler.ClosingSlip)

			r.Post("/peripheral/claim", peripheralHandler.Claim)
			r.Post("/peripheral/release", peripheralHandler.Release)
			r.Get("/peripheral", peripheralHandler.Status)

			r.Post("/admin/cleanup-orphaned", adminHandler.CleanupOrphaned)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
