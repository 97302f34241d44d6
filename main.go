package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"storefront/internal/assistant"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/handlers"
	"storefront/internal/knowledge"
	"storefront/internal/llm"
	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/payments"
	"storefront/internal/store"
)

func main() {
	config.Load()
	cfg := config.AppEnv
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.JWTSecret == "" {
		logging.Fatal().Msg("JWT_SECRET is required")
	}

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		logging.Fatal().Err(err).Msg("mongodb connection failed")
	}
	db := client.Database(cfg.DBName)
	logging.Info().Str("db", db.Name()).Msg("database selected")

	for _, err := range database.EnsureIndexes(db) {
		logging.Warn().Err(err).Msg("index bootstrap warning")
	}

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.SeedAdmin(seedCtx, db, database.AdminSeed{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Name:     cfg.AdminName,
	}); err != nil {
		logging.Error().Err(err).Msg("admin seed failed")
	}
	seedCancel()

	products := store.NewProducts(db)
	orders := store.NewOrders(db)
	profiles := store.NewProfiles(db)
	docs := store.NewDocs(db)

	busOpts := []events.Option{events.WithBuffer(cfg.EventBufferSize)}
	if len(cfg.KafkaBrokers) > 0 {
		busOpts = append(busOpts, events.WithSink(events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaEventsTopic)))
		logging.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaEventsTopic).Msg("kafka event mirror enabled")
	}
	bus := events.NewBus(busOpts...)

	tools := assistant.NewTools(products)

	var (
		responder assistant.Responder
		embedder  knowledge.Embedder
		llmClient *llm.Client
	)
	if cfg.LLMEnabled() {
		llmClient = llm.New(llm.Config{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.UpstreamTimeout,
		})
	}
	if cfg.EmbeddingsEnabled() && llmClient != nil {
		embedder = knowledge.NewOpenAIEmbedder(llmClient, cfg.OpenAIEmbeddingModel)
	}
	knowledgeSvc := knowledge.NewService(docs, products, embedder)

	if llmClient != nil {
		responder = assistant.NewToolCallingResponder(llmClient, cfg.OpenAIChatModel, tools, knowledgeSvc)
	} else {
		responder = assistant.NewRuleResponder(tools)
	}
	logging.Info().Str("mode", responder.Mode()).Bool("embeddings", knowledgeSvc.EmbeddingsEnabled()).Msg("assistant configured")

	chatLimiter := middleware.NewRateLimiter(cfg.ChatRatePerMinute)
	chatLimiter.StartCleanup(10 * time.Minute)
	defer chatLimiter.Stop()

	payee := payments.Payee{VPA: cfg.UPIPayeeVPA, Name: cfg.UPIPayeeName}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.GinLogger())
	r.Use(middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Static("/uploads", filepath.Join(cfg.UploadDir, "uploads"))
	r.GET("/healthz", handlers.Healthz(handlers.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	})))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	secret := cfg.JWTSecret
	ttl := cfg.AccessTokenTTL

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/signup", handlers.Signup(profiles, bus, secret, ttl))
		auth.POST("/login", handlers.Login(profiles, secret, ttl))
	}

	profileRoutes := api.Group("/profiles")
	{
		profileRoutes.GET("/me", middleware.ProfileAuth(secret), handlers.GetMe(profiles))
		profileRoutes.PUT("/me", middleware.ProfileAuth(secret), handlers.UpdateMe(profiles, bus))
		profileRoutes.GET("", middleware.AdminAuth(secret), handlers.ListProfiles(profiles))
		profileRoutes.PUT("/:id", middleware.AdminAuth(secret), handlers.UpdateProfile(profiles, bus))
	}

	api.GET("/products", handlers.GetProducts(products))
	api.GET("/products/:id", handlers.GetProduct(products))
	api.GET("/categories", handlers.GetCategories(products))

	orderRoutes := api.Group("/orders")
	{
		orderRoutes.POST("", middleware.OptionalAuth(secret), handlers.CreateOrder(products, orders, bus))
		orderRoutes.GET("", middleware.AdminAuth(secret), handlers.GetOrders(orders))
		orderRoutes.GET("/mine", middleware.ProfileAuth(secret), handlers.GetMyOrders(orders))
		orderRoutes.GET("/:id", middleware.OptionalAuth(secret), handlers.GetOrder(orders))
		orderRoutes.GET("/:id/upi", middleware.OptionalAuth(secret), handlers.GetOrderUPI(orders, payee))
	}

	api.POST("/chat", chatLimiter.Middleware(), handlers.Chat(responder))

	mcp := api.Group("/mcp")
	{
		mcp.GET("/smart-search", handlers.SmartSearch(tools))
		mcp.GET("/ai-recommendations", handlers.Recommendations(products))
	}

	api.POST("/knowledge/ingest", middleware.AdminAuth(secret), handlers.IngestKnowledge(knowledgeSvc, bus, cfg.UpstreamTimeout))
	api.GET("/knowledge/search", handlers.SearchKnowledge(knowledgeSvc, cfg.UpstreamTimeout))

	api.GET("/events", events.Stream(bus, events.DefaultHeartbeat))
	api.POST("/activity", events.Activity(bus))

	api.POST("/admin/login", handlers.AdminLogin(profiles, secret, ttl))

	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth(secret))
	{
		admin.GET("/products", handlers.GetAllProducts(products))
		admin.POST("/products", handlers.CreateProduct(products, bus, cfg.INRPerUSD))
		admin.PUT("/products/:id", handlers.UpdateProduct(products, bus, cfg.INRPerUSD))
		admin.DELETE("/products/:id", handlers.DeactivateProduct(products, bus))
		admin.POST("/products/:id/images", handlers.UploadProductImage(products, bus, cfg.UploadDir))
		admin.DELETE("/products/:id/images", handlers.RemoveProductImage(products, bus, cfg.UploadDir))

		admin.PATCH("/orders/:id/status", handlers.UpdateOrderStatus(orders, bus))
		admin.PATCH("/orders/:id/payment", handlers.UpdatePaymentStatus(orders, bus))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// SSE handlers only return once the bus closes their channels
	logging.Info().Int("subscribers", bus.Count()).Msg("closing event bus")
	if err := bus.Close(); err != nil {
		logging.Warn().Err(err).Msg("event bus close failed")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("http server shutdown failed")
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("mongodb disconnect failed")
	}
}
