// Package server assembles the inventory service fiber application.
package server

import (
	"fmt"
	"time"

	"stockroom/internal/handlers"
	"stockroom/internal/middleware"
	"stockroom/internal/repositories"
	"stockroom/internal/services"
	"stockroom/pkg/logging"
	"stockroom/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options carries the dependencies of the inventory application.
type Options struct {
	Repositories Repositories
	// Publisher may be nil when no broker is configured.
	Publisher   services.EventPublisher
	Registry    *prometheus.Registry
	Logger      *zap.Logger
	JWTSecret   string
	AuthEnabled bool
	AccessLog   bool
}

// Repositories groups the persistence backends of the service.
type Repositories struct {
	Products repositories.ProductRepository
	Sales    repositories.SaleRepository
	Users    repositories.UserRepository

	// db is nil for the memory driver.
	db *gorm.DB
}

// Close releases the database connection pool, if any.
func (r Repositories) Close() error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.Close()
}

// New builds the fiber app with every route registered.
func New(opts Options) *fiber.App {
	log := logging.OrNop(opts.Logger)
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	collectors := metrics.New(registry)

	productService := services.NewProductService(opts.Repositories.Products, opts.Repositories.Sales, opts.Publisher, collectors, log)
	authService := services.NewAuthService(opts.Repositories.Users, opts.JWTSecret, log)

	productHandler := handlers.NewProductHandler(productService, log)
	authHandler := handlers.NewAuthHandler(authService, log)

	app := fiber.New(fiber.Config{
		AppName:               "stockroom",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}

	authHandler.RegisterRoutes(app)

	var guards []fiber.Handler
	if opts.AuthEnabled {
		guards = append(guards, middleware.AuthRequired(authService))
	}
	productHandler.RegisterRoutes(app, guards...)

	brokerStatus := "disabled"
	if opts.Publisher != nil {
		brokerStatus = "connected"
	}
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"broker": brokerStatus,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return app
}
