package routes

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/sangkips/gst-billing/internal/config"
	domainRepo "github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/internal/presentation/http/handler"
	"github.com/sangkips/gst-billing/internal/presentation/http/middleware"
	"github.com/sangkips/gst-billing/pkg/utils"
	"github.com/sangkips/gst-billing/pkg/validation"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Product    *handler.ProductHandler
	Stock      *handler.StockHandler
	Customer   *handler.CustomerHandler
	Invoice    *handler.InvoiceHandler
	Payment    *handler.PaymentHandler
	CreditNote *handler.CreditNoteHandler
	Quotation  *handler.QuotationHandler
	Report     *handler.ReportHandler
	Reference  *handler.ReferenceHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.OperatorRateLimiter
	// Health reports whether the backing store is reachable
	Health func(ctx context.Context) error
}

var registerOnce sync.Once

// registerValidation installs the GST tags on gin's binding validator
func registerValidation() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		if err := validation.Register(v); err != nil {
			log.Fatal().Err(err).Msg("failed to register validation rules")
		}
	})
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	registerValidation()

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", health(deps))

	v1 := router.Group("/api/v1")
	{
		// Public reference data
		registerReferenceRoutes(v1, h)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		if deps.RateLimiter != nil {
			protected.Use(deps.RateLimiter.Middleware())
		}

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func health(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if deps.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Health(ctx); err != nil {
				status, code = "unavailable", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":  status,
			"service": deps.Cfg.App.Name,
		})
	}
}

func registerReferenceRoutes(v1 *gin.RouterGroup, h *Handlers) {
	ref := v1.Group("/reference")
	{
		ref.GET("/states", h.Reference.States)
		ref.GET("/gst-rates", h.Reference.GSTRates)
		ref.GET("/units", h.Reference.Units)
		ref.GET("/payment-modes", h.Reference.PaymentModes)
		ref.GET("/gstin/:gstin", h.Reference.CheckGSTIN)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	protected.GET("/me", h.Reference.Me)

	idempotent := middleware.Idempotency(middleware.IdempotencyConfig{
		Repo:     deps.IdempotencyRepo,
		Required: true,
	})
	admin := middleware.RequireRole(utils.RoleAdmin)

	registerProductRoutes(protected, h, admin)
	registerCustomerRoutes(protected, h)
	registerInvoiceRoutes(protected, h, idempotent, admin)
	registerCreditNoteRoutes(protected, h, idempotent, admin)
	registerQuotationRoutes(protected, h, idempotent, admin)
	registerReportRoutes(protected, h, admin)
}

func registerProductRoutes(protected *gin.RouterGroup, h *Handlers, admin gin.HandlerFunc) {
	products := protected.Group("/products")
	{
		products.GET("", h.Product.List)
		products.POST("", admin, h.Product.Create)
		products.GET("/low-stock", h.Product.GetLowStock)
		products.GET("/barcode/:code", h.Product.GetByBarcode)
		products.GET("/:id", h.Product.Get)
		products.PUT("/:id", admin, h.Product.Update)

		products.GET("/:id/stock/history", h.Stock.History)
		products.POST("/:id/stock/adjust", admin, h.Stock.Adjust)
		products.POST("/:id/stock/restock", admin, h.Stock.Restock)
		products.GET("/:id/stock/verify", admin, h.Stock.Verify)
	}
	protected.GET("/stock/verify", admin, h.Stock.VerifyAll)
}

func registerCustomerRoutes(protected *gin.RouterGroup, h *Handlers) {
	customers := protected.Group("/customers")
	{
		customers.GET("", h.Customer.List)
		customers.POST("", h.Customer.Create)
		customers.GET("/:id", h.Customer.Get)
		customers.PUT("/:id", h.Customer.Update)
		customers.GET("/:id/credit-notes", h.Customer.CreditNotes)
		customers.GET("/:id/outstanding", h.Customer.Outstanding)
	}
}

func registerInvoiceRoutes(protected *gin.RouterGroup, h *Handlers, idempotent, admin gin.HandlerFunc) {
	invoices := protected.Group("/invoices")
	{
		invoices.GET("", h.Invoice.List)
		// Checkout requires an idempotency key so a retried sale is not booked twice
		invoices.POST("", idempotent, h.Invoice.Create)
		invoices.GET("/next-number", h.Invoice.NextNumber)
		invoices.GET("/outstanding", h.Payment.Outstanding)
		invoices.GET("/by-number", h.Invoice.GetByNumber)
		invoices.GET("/:id", h.Invoice.Get)
		invoices.POST("/:id/cancel", admin, h.Invoice.Cancel)
		invoices.GET("/:id/tax-summary", h.Invoice.TaxSummary)
		invoices.GET("/:id/payments", h.Payment.History)
		invoices.POST("/:id/payments", idempotent, h.Payment.Record)
		invoices.POST("/:id/payments/split", idempotent, h.Payment.RecordSplit)
		invoices.GET("/:id/returnable", h.CreditNote.Returnable)
		invoices.GET("/:id/credit-notes", h.CreditNote.ByInvoice)
	}

	protected.DELETE("/payments/:id", admin, h.Payment.Delete)
}

func registerCreditNoteRoutes(protected *gin.RouterGroup, h *Handlers, idempotent, admin gin.HandlerFunc) {
	notes := protected.Group("/credit-notes")
	{
		notes.GET("", h.CreditNote.List)
		notes.POST("", idempotent, h.CreditNote.Create)
		notes.GET("/:id", h.CreditNote.Get)
		notes.POST("/:id/cancel", admin, h.CreditNote.Cancel)
		notes.POST("/:id/apply", h.CreditNote.Apply)
	}
}

func registerQuotationRoutes(protected *gin.RouterGroup, h *Handlers, idempotent, admin gin.HandlerFunc) {
	quotations := protected.Group("/quotations")
	{
		quotations.GET("", h.Quotation.List)
		quotations.POST("", h.Quotation.Create)
		quotations.GET("/pending", h.Quotation.Pending)
		quotations.GET("/expiring", h.Quotation.ExpiringSoon)
		quotations.GET("/next-number", h.Quotation.NextNumber)
		quotations.POST("/expire", admin, h.Quotation.Expire)
		quotations.GET("/:id", h.Quotation.Get)
		quotations.PUT("/:id", h.Quotation.Update)
		quotations.PATCH("/:id/status", h.Quotation.UpdateStatus)
		quotations.POST("/:id/convert", idempotent, h.Quotation.Convert)
		quotations.POST("/:id/duplicate", h.Quotation.Duplicate)
	}
}

func registerReportRoutes(protected *gin.RouterGroup, h *Handlers, admin gin.HandlerFunc) {
	reports := protected.Group("/reports")
	reports.Use(admin)
	{
		reports.GET("/daily", h.Report.Daily)
		reports.GET("/sales", h.Report.Sales)
		reports.GET("/sales/export", h.Report.ExportSales)
		reports.GET("/gst", h.Report.GST)
		reports.GET("/gst/export", h.Report.ExportGST)
		reports.GET("/trend", h.Report.Trend)
		reports.GET("/stock", h.Report.Stock)
		reports.GET("/payments", h.Payment.Summary)
		reports.GET("/credit-notes", h.CreditNote.Summary)
		reports.GET("/quotations", h.Quotation.Summary)
	}
}
