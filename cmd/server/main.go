package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/zorvex/zorvex-backend/config"
	"github.com/zorvex/zorvex-backend/internal/app/controller"
	"github.com/zorvex/zorvex-backend/internal/app/repository"
	"github.com/zorvex/zorvex-backend/internal/app/service"
	"github.com/zorvex/zorvex-backend/internal/cartstore"
	"github.com/zorvex/zorvex-backend/internal/db"
	"github.com/zorvex/zorvex-backend/internal/middleware"
	"github.com/zorvex/zorvex-backend/internal/router"
	"github.com/zorvex/zorvex-backend/internal/scheduler"
	"github.com/zorvex/zorvex-backend/internal/storage"
	"github.com/zorvex/zorvex-backend/internal/websocket"
	"github.com/zorvex/zorvex-backend/pkg/logger"
	"github.com/zorvex/zorvex-backend/pkg/mailer"
	"github.com/zorvex/zorvex-backend/pkg/redis"
	"github.com/zorvex/zorvex-backend/pkg/validation"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Server.LogLevel
	if logLevel == "" {
		logLevel = "info"
		if cfg.Server.Environment == "development" {
			logLevel = "debug"
		}
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Server.LogFormat,
		EnableColor: !cfg.Server.IsProduction(),
	})

	logger.Info("Starting "+cfg.Store.Name+" storefront server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	validation.Register()

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if err := db.SeedAdmin(db.GetDB(), cfg.Admin); err != nil {
		logger.Warn("Failed to seed admin", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Redis backs the profile cache, the token blacklist and cart persistence.
	// Without it the server falls back to the database and no caching.
	if cfg.Redis.Enabled() {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to initialize Redis", err)
		}
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
	} else {
		logger.Warn("REDIS_HOST not set, running without cache and token blacklist")
	}

	gdb := db.GetDB()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gdb)
	customerRepo := repository.NewCustomerRepository(gdb)
	productRepo := repository.NewProductRepository(gdb)
	categoryRepo := repository.NewCategoryRepository(gdb)
	couponRepo := repository.NewCouponRepository(gdb)
	orderRepo := repository.NewOrderRepository(gdb)
	resetRepo := repository.NewPasswordResetRepository(gdb)

	hub := websocket.NewHub()
	go hub.Run()

	// Initialize services
	var cache goredis.Cmdable
	if client := redis.GetClient(); client != nil {
		cache = client
	}
	profileService := service.NewProfileService(userRepo, customerRepo, cache, cfg.Profile.StaleTime)
	authService := service.NewAuthService(
		userRepo,
		profileService,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	resetService := service.NewPasswordResetService(
		resetRepo,
		userRepo,
		mailer.New(cfg.Mail),
		cfg.Server.PublicURL,
		cfg.Store.Name,
	)
	productService := service.NewProductService(productRepo, categoryRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	couponService := service.NewCouponService(couponRepo)
	customerService := service.NewCustomerService(customerRepo, profileService)
	staffService := service.NewStaffService(userRepo, profileService)
	orderService := service.NewOrderService(orderRepo, customerRepo, couponService, hub, gdb, service.CheckoutSettings{
		MinOrderValue: cfg.Store.MinOrderValue,
		ShippingCost:  cfg.Store.ShippingCost,
	})
	dashboardService := service.NewDashboardService(orderRepo, productRepo, customerRepo)

	// Carts live in memory and are written through to Redis, or to the
	// database when Redis is not configured.
	var cartStorage cartstore.Storage = cartstore.NewDBStorage(gdb)
	if cache != nil {
		cartStorage = cartstore.NewRedisStorage(cache, cartstore.DefaultSnapshotTTL)
	}
	carts := cartstore.NewManager(cartStorage, cartstore.WithDebounce(cfg.Cart.PersistDebounce))

	var images controller.ImagePresigner
	if cfg.S3.Bucket != "" {
		images = storage.NewS3Storage(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL)
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)
	authLimiter := middleware.NewRateLimiter(cfg.RateLimit.AuthRequestsPerSecond, cfg.RateLimit.AuthBurst)

	// Initialize controllers
	controllers := router.Controllers{
		Auth: controller.NewAuthController(authService, resetService, authMiddleware, controller.CookieSettings{
			Secure:     cfg.Server.IsProduction(),
			RefreshTTL: cfg.JWT.RefreshTokenExpiry,
		}),
		Storefront:   controller.NewStorefrontController(productService, categoryService),
		Cart:         controller.NewCartController(productService, orderService),
		Checkout:     controller.NewCheckoutController(orderService, profileService),
		Account:      controller.NewAccountController(profileService, orderService),
		AdminCatalog: controller.NewAdminCatalogController(productService, categoryService, couponService, images),
		AdminPeople:  controller.NewAdminPeopleController(customerService, staffService, orderService, profileService),
		AdminOrders:  controller.NewAdminOrderController(orderService, dashboardService, hub, cfg.CORS.AllowedOrigins),
	}

	maintenance := scheduler.NewMaintenanceScheduler(carts, resetService, authLimiter, scheduler.Settings{
		CartSchedule: cfg.Cart.EvictionSchedule,
		CartIdleTTL:  cfg.Cart.IdleTTL,
	})
	if err := maintenance.Start(); err != nil {
		logger.Fatal("Failed to start maintenance scheduler", err)
	}

	// Setup router
	r := router.NewRouter(controllers, authMiddleware, profileService, carts, authLimiter, cfg)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	maintenance.Stop()
	// Pending debounced cart writes are flushed before the stores go away.
	carts.CloseAll()
	hub.Stop()

	logger.Info("Server stopped successfully")
}
