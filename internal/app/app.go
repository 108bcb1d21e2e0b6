// Package app wires configuration, storage, services and the HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/sangkips/gst-billing/internal/application/service"
	"github.com/sangkips/gst-billing/internal/config"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/internal/infrastructure/cache"
	"github.com/sangkips/gst-billing/internal/infrastructure/database"
	"github.com/sangkips/gst-billing/internal/infrastructure/memory"
	infraRepo "github.com/sangkips/gst-billing/internal/infrastructure/repository"
	"github.com/sangkips/gst-billing/internal/presentation/http/handler"
	"github.com/sangkips/gst-billing/internal/presentation/http/middleware"
	"github.com/sangkips/gst-billing/internal/presentation/http/routes"
	"github.com/sangkips/gst-billing/pkg/utils"
	"gorm.io/gorm"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Services groups the billing services sharing one store and policy
type Services struct {
	Options     service.Options
	Numberer    *service.DocumentNumberer
	Stock       *service.StockLedger
	Payments    *service.PaymentLedger
	Products    *service.ProductService
	Customers   *service.CustomerService
	Invoices    *service.InvoiceService
	CreditNotes *service.CreditNoteService
	Quotations  *service.QuotationService
	Reports     *service.ReportService
}

// NewServices builds the service graph. locker may be nil.
func NewServices(store repository.Store, opts service.Options, locker service.Locker) *Services {
	numberer := service.NewDocumentNumberer(store, opts, locker)
	stock := service.NewStockLedger(store, opts)
	payments := service.NewPaymentLedger(store, opts)
	invoices := service.NewInvoiceService(store, opts, numberer, stock, payments)

	return &Services{
		Options:     opts,
		Numberer:    numberer,
		Stock:       stock,
		Payments:    payments,
		Products:    service.NewProductService(store, stock),
		Customers:   service.NewCustomerService(store, opts),
		Invoices:    invoices,
		CreditNotes: service.NewCreditNoteService(store, opts, numberer, stock, payments),
		Quotations:  service.NewQuotationService(store, opts, numberer, invoices),
		Reports:     service.NewReportService(store, opts),
	}
}

// Handlers builds the HTTP handlers for s
func (s *Services) Handlers() *routes.Handlers {
	return &routes.Handlers{
		Product:    handler.NewProductHandler(s.Products),
		Stock:      handler.NewStockHandler(s.Stock),
		Customer:   handler.NewCustomerHandler(s.Customers, s.CreditNotes, s.Payments),
		Invoice:    handler.NewInvoiceHandler(s.Invoices),
		Payment:    handler.NewPaymentHandler(s.Payments),
		CreditNote: handler.NewCreditNoteHandler(s.CreditNotes),
		Quotation:  handler.NewQuotationHandler(s.Quotations),
		Report:     handler.NewReportHandler(s.Reports),
		Reference:  handler.NewReferenceHandler(s.Options.SellerState),
	}
}

// App is a fully wired billing backend
type App struct {
	Config   *config.Config
	Store    repository.Store
	Services *Services
	JWT      *utils.JWTManager

	db      *gorm.DB
	rdb     *redis.Client
	limiter *middleware.OperatorRateLimiter
}

// New opens the configured store, connects Redis when enabled and builds
// the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config: cfg,
		JWT:    utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiryHours),
	}

	switch strings.ToLower(cfg.Store.Driver) {
	case DriverMemory:
		a.Store = memory.NewStore()
		log.Warn().Msg("using in-memory store; data is lost on exit")
	case DriverPostgres, "":
		db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.db = db
		a.Store = infraRepo.NewStore(db)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	var locker service.Locker
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			// Numbering stays correct without the lock; it only retries more
			log.Warn().Err(err).Msg("redis unavailable, numbering without distributed lock")
		} else {
			a.rdb = rdb
			locker = cache.NewLocker(rdb, cfg.Redis.LockTTL)
		}
	}

	a.Services = NewServices(a.Store, service.OptionsFromConfig(cfg.Billing), locker)
	return a, nil
}

// Migrate creates or updates the schema. It is a no-op for the memory store.
func (a *App) Migrate() error {
	if a.db == nil {
		return nil
	}
	return database.AutoMigrate(a.db)
}

// Router builds the HTTP router
func (a *App) Router() *gin.Engine {
	if a.limiter == nil {
		a.limiter = middleware.NewOperatorRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: a.Config.RateLimit.RequestsPerSecond,
			BurstSize:         a.Config.RateLimit.Burst,
		})
	}

	return routes.Setup(a.Services.Handlers(), &routes.Deps{
		JWTManager:      a.JWT,
		Cfg:             a.Config,
		IdempotencyRepo: a.Store.Idempotency(),
		RateLimiter:     a.limiter,
		Health:          a.Ping,
	})
}

// Ping checks the database and Redis connections
func (a *App) Ping(ctx context.Context) error {
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return err
		}
	}
	if a.rdb != nil {
		return a.rdb.Ping(ctx).Err()
	}
	return nil
}

// Close releases the database, Redis and rate limiter
func (a *App) Close() error {
	var errs []error
	if a.limiter != nil {
		a.limiter.Stop()
		a.limiter = nil
	}
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	if a.db != nil {
		errs = append(errs, database.Close(a.db))
	}
	return errors.Join(errs...)
}
