package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sashvara/storefront_api/internal/cache"
	"github.com/sashvara/storefront_api/internal/checkout"
	"github.com/sashvara/storefront_api/internal/config"
	"github.com/sashvara/storefront_api/internal/database"
	"github.com/sashvara/storefront_api/internal/handler"
	"github.com/sashvara/storefront_api/internal/middleware"
	"github.com/sashvara/storefront_api/internal/repository"
	"github.com/sashvara/storefront_api/internal/service"
	"github.com/sashvara/storefront_api/pkg/razorpay"
)

// main is the entrypoint for the Sashvara storefront API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting storefront api")

	// 3. Connect MongoDB
	mongoClient, err := database.Connect(&cfg.Mongo)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer database.Disconnect(mongoClient)
	db := mongoClient.Database(cfg.Mongo.Database)

	// 3a. Ensure indexes
	if err := database.RunMigrations(mongoClient, cfg.Mongo.Database, cfg.Mongo.MigrationsPath); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	productCache := cache.NewProductCache(redisClient, cfg.Catalog.CacheTTL)
	submissionGuard := cache.NewSubmissionGuard(redisClient, service.SuggestionWindow)

	// 4. Payment gateway
	gateway := razorpay.NewClient(razorpay.Config{
		BaseURL:   cfg.Razorpay.BaseURL,
		KeyID:     cfg.Razorpay.KeyID(),
		KeySecret: cfg.Razorpay.KeySecret(),
		Debug:     cfg.Env != "production",
	})
	log.Info().Str("mode", cfg.Razorpay.Mode).Msg("razorpay client configured")

	// 4a. Media storage and moderation
	var media *service.MediaService
	if cfg.S3.Enabled() {
		s3Client, err := service.NewS3Client(context.Background(), &cfg.S3)
		if err != nil {
			log.Warn().Err(err).Msg("S3 initialization failed - image uploads will be disabled")
		} else {
			var screener service.ImageScreener
			if cfg.Moderation.Enabled {
				rek, err := service.NewRekognitionClient(context.Background(), &cfg.Moderation)
				if err != nil {
					log.Warn().Err(err).Msg("Rekognition initialization failed - uploads will not be screened")
				} else {
					screener = service.NewImageModerator(rek, cfg.Moderation.MinConfidence)
				}
			}
			media = service.NewMediaService(s3Client, screener, &cfg.S3)
		}
	} else {
		log.Warn().Msg("S3_BUCKET not set - image uploads are disabled")
	}

	// 5. Initialize repositories
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	suggestionRepo := repository.NewSuggestionRepository(db)

	// 6. Initialize services
	calculator := checkout.NewCalculator(checkout.DefaultRules(cfg.Checkout.TaxRate, cfg.Checkout.PartialCODFraction))
	catalogSvc := service.NewCatalogService(productRepo, productCache, cfg.Catalog.MaxLimit)
	orderSvc := service.NewOrderService(orderRepo, calculator, cfg.Checkout.Currency)
	notifier := service.NewMailNotifier(&cfg.SendGrid)
	paymentSvc := service.NewPaymentService(gateway, orderRepo, notifier, cfg.Razorpay.KeySecret(), cfg.Checkout.Currency)
	suggestionSvc := service.NewSuggestionService(suggestionRepo, submissionGuard)

	// 7. Initialize handlers
	handlers := &Handlers{
		Health: handler.NewHealthHandler(
			func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			redisClient.Ping,
		),
		Product:    handler.NewProductHandler(catalogSvc, media),
		Upload:     handler.NewUploadHandler(media),
		Order:      handler.NewOrderHandler(orderSvc),
		Payment:    handler.NewPaymentHandler(paymentSvc),
		Suggestion: handler.NewSuggestionHandler(suggestionSvc),
	}

	// 8. Initialize middleware
	limiter := middleware.NewRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.MaxMultipartMemory = 32 << 20
	setupRoutes(router, handlers, limiter)

	// 10. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 11. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 12. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health     *handler.HealthHandler
	Product    *handler.ProductHandler
	Upload     *handler.UploadHandler
	Order      *handler.OrderHandler
	Payment    *handler.PaymentHandler
	Suggestion *handler.SuggestionHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, limiter *middleware.RateLimiter) {
	router.GET("/health", handlers.Health.GetHealth)

	api := router.Group("/api")

	products := api.Group("/products")
	{
		products.GET("", handlers.Product.ListProducts)
		products.GET("/search", handlers.Product.SearchProducts)
		products.GET("/collections/:name", handlers.Product.GetCollection)
		products.GET("/slug/:slug", handlers.Product.GetBySlug)
		products.GET("/variant/:variantId", handlers.Product.GetByVariant)
		products.GET("/:identifier", handlers.Product.GetProduct)
		products.POST("", handlers.Product.CreateProduct)
		products.PUT("/:identifier", handlers.Product.UpdateProduct)
		products.DELETE("/:identifier", handlers.Product.DeleteProduct)
	}

	api.POST("/upload", handlers.Upload.UploadImage)
	api.POST("/upload/multiple", handlers.Upload.UploadImages)

	api.POST("/checkout/quote", handlers.Order.Quote)

	orders := api.Group("/orders")
	{
		orders.POST("", handlers.Order.CreateOrder)
		orders.GET("", handlers.Order.ListOrders)
		orders.GET("/:id", handlers.Order.GetOrder)
		orders.PUT("/:id", handlers.Order.UpdateOrderStatus)
	}

	payment := api.Group("/payment")
	{
		payment.POST("/order", handlers.Payment.CreateOrder)
		payment.POST("/verify", limiter.Handle("payment-verify"), handlers.Payment.VerifyPayment)
	}

	suggestions := api.Group("/suggestions")
	{
		suggestions.POST("", limiter.Handle("suggestion-submit"), handlers.Suggestion.Submit)
		suggestions.GET("/popular", handlers.Suggestion.Popular)
		suggestions.GET("/search", handlers.Suggestion.Search)
		suggestions.POST("/:id/vote", limiter.Handle("suggestion-vote"), handlers.Suggestion.Vote)
		suggestions.GET("/admin/all", handlers.Suggestion.ListAll)
		suggestions.PUT("/admin/:id", handlers.Suggestion.SetStatus)
	}
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
