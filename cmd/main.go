package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"genlayer-market/internal/auth"
	"genlayer-market/internal/blockchain"
	"genlayer-market/internal/config"
	"genlayer-market/internal/database"
	"genlayer-market/internal/handlers"
	"genlayer-market/internal/jobs"
	"genlayer-market/internal/repository"
	"genlayer-market/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Settlement chain: pooled read connection with endpoint fallback plus
	// the operator write connection
	pool, err := blockchain.NewProviderPool(
		cfg.Settlement.RPCEndpoints,
		cfg.Settlement.ChainID,
		cfg.Settlement.OperatorKey,
	)
	if err != nil {
		log.Fatalf("Failed to initialize settlement provider pool: %v", err)
	}

	versions := blockchain.NewVersionResolver(pool)
	adapter := blockchain.NewTradeAdapter(pool, versions)
	bridge := blockchain.NewResolutionBridge(pool, versions, cfg.Settlement.FactoryAddress)

	// Resolution chain client
	genlayer, err := blockchain.NewGenLayerClient(
		cfg.Resolution.RPCEndpoint,
		cfg.Resolution.ChainID,
		cfg.Resolution.OperatorKey,
	)
	if err != nil {
		log.Fatalf("Failed to initialize resolution chain client: %v", err)
	}

	// Initialize repository and services
	repo := repository.NewRepository(database.GetDB())
	ledger := services.NewLedgerService(repo, cfg.App.DisplayDecimals)
	coordinator := services.NewCoordinator(repo, ledger, adapter, bridge, genlayer)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(repo)
	marketHandler := handlers.NewMarketHandler(coordinator)
	tradeHandler := handlers.NewTradeHandler(coordinator)

	// Start market status sweep (runs every minute)
	statusJob := jobs.NewStatusJob(coordinator)
	statusJob.Start(time.Minute)

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000", // Local development
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/wallet", authHandler.WalletLogin)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// Public market routes
	router.GET("/api/markets", marketHandler.GetMarkets)
	router.GET("/api/markets/:id", marketHandler.GetMarketByID)
	router.GET("/api/markets/:id/trades", tradeHandler.GetMarketTrades)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/markets", marketHandler.CreateMarket)
		api.POST("/markets/:id/resolve", marketHandler.ResolveMarket)

		api.POST("/markets/:id/buy", tradeHandler.Buy)
		api.POST("/markets/:id/sell", tradeHandler.Sell)
		api.POST("/markets/:id/claim", tradeHandler.Claim)

		api.GET("/positions", tradeHandler.GetMyPositions)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)
		log.Printf("Wallet auth: POST http://localhost:%s/auth/wallet", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	statusJob.Stop()

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
