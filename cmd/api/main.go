package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "copycorner/api/swagger" // swagger docs
	"copycorner/internal/config"
	"copycorner/internal/database"
	"copycorner/internal/handler"
	"copycorner/internal/metrics"
	"copycorner/internal/middleware"
	"copycorner/internal/pkg/clock"
	"copycorner/internal/repository"
	"copycorner/internal/service"
	"copycorner/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           CopyCorner API
// @version         1.0
// @description     Point-of-sale and inventory backend for a copy shop.
// @host            localhost:8080
// @BasePath        /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	db, err := database.NewConnection(cfg.DSN(), database.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	log.Info().Msg("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	if err := handler.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	clk := clock.NewRealClock()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	lifecycleRepo := repository.NewLifecycleRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	serviceTypeRepo := repository.NewServiceTypeRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	userRepo := repository.NewUserRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	reportRepo := repository.NewReportRepository(db)

	allocator := service.NewCodeAllocator(repository.NewSequenceRepository(db), txManager)
	resolver := service.NewDependencyResolver(repository.NewDependencyRepository(db))
	lifecycle := service.NewLifecycle(lifecycleRepo, auditRepo, txManager, resolver, allocator, clk, wsHub, m)
	stock := service.NewStockService(productRepo, movementRepo, txManager, clk, m)

	categoryService := service.NewCategoryService(categoryRepo, lifecycleRepo, auditRepo, txManager, resolver, lifecycle, clk)
	productService := service.NewProductService(productRepo, lifecycleRepo, auditRepo, txManager, allocator, lifecycle, stock, clk, wsHub,
		service.ProductSettings{DefaultMinimumStock: cfg.MinimumStockDefault})
	serviceTypeService := service.NewServiceTypeService(serviceTypeRepo, productRepo, lifecycleRepo, auditRepo, txManager, allocator, resolver, lifecycle, clk,
		service.ServiceTypeSettings{PaperServices: cfg.PaperServiceNames()})
	groupService := service.NewGroupService(groupRepo, lifecycleRepo, auditRepo, txManager, resolver, lifecycle, clk)
	userService := service.NewUserService(userRepo, lifecycleRepo, auditRepo, txManager, resolver, lifecycle, service.NewBcryptHasher(cfg.BcryptCost), clk)
	staffService := service.NewStaffService(staffRepo, userRepo, auditRepo, txManager, clk)
	scheduleService := service.NewScheduleService(scheduleRepo, staffRepo, lifecycleRepo, auditRepo, txManager, clk)
	transactionService := service.NewTransactionService(txnRepo, serviceTypeRepo, lifecycleRepo, auditRepo, txManager, allocator, lifecycle, stock, clk, wsHub)
	reportService := service.NewReportService(reportRepo)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	routes := []interface{ RegisterRoutes(*gin.RouterGroup) }{
		handler.NewUserHandler(userService, groupService),
		handler.NewCategoryHandler(categoryService),
		handler.NewInventoryHandler(productService, reportService),
		handler.NewServiceTypeHandler(serviceTypeService),
		handler.NewGroupHandler(groupService),
		handler.NewStaffHandler(staffService, scheduleService),
		handler.NewTransactionHandler(transactionService),
		handler.NewAuditHandler(auditService),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.Metrics(m))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept", middleware.UserIDHeader, middleware.RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, cfg.AllowedOrigins())
	})

	// API Routing
	api := router.Group("/api", middleware.Actor(), middleware.Timeout(cfg.RequestTimeout))
	for _, r := range routes {
		r.RegisterRoutes(api)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

// setupLogger writes JSON in production and a console format otherwise.
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
