package service

import (
	"context"
	"errors"
	"time"

	"github.com/sangkips/gst-billing/internal/config"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/sangkips/gst-billing/internal/application/service")

// Options is the billing policy shared by the lifecycle services
type Options struct {
	CompanyName           string
	SellerState           string
	InvoicePrefix         string
	CreditNotePrefix      string
	QuotationPrefix       string
	QuotationValidityDays int
	NumberingRetries      int
	AllowNegativeStock    bool
	Location              *time.Location
	// Clock returns the current instant. Tests pin it to make numbering and
	// expiry deterministic.
	Clock func() time.Time
}

// DefaultOptions returns the policy used when no configuration is supplied
func DefaultOptions() Options {
	return Options{
		CompanyName:           "GST Billing",
		SellerState:           "32",
		InvoicePrefix:         "INV",
		CreditNotePrefix:      "CN",
		QuotationPrefix:       "QTN",
		QuotationValidityDays: 30,
		NumberingRetries:      3,
		AllowNegativeStock:    true,
		Location:              time.UTC,
		Clock:                 time.Now,
	}
}

// OptionsFromConfig builds Options from the billing section of the config
func OptionsFromConfig(cfg config.BillingConfig) Options {
	opts := DefaultOptions()
	if cfg.CompanyName != "" {
		opts.CompanyName = cfg.CompanyName
	}
	if cfg.SellerStateCode != "" {
		opts.SellerState = cfg.SellerStateCode
	}
	if cfg.InvoicePrefix != "" {
		opts.InvoicePrefix = cfg.InvoicePrefix
	}
	if cfg.CreditNotePrefix != "" {
		opts.CreditNotePrefix = cfg.CreditNotePrefix
	}
	if cfg.QuotationPrefix != "" {
		opts.QuotationPrefix = cfg.QuotationPrefix
	}
	if cfg.QuotationValidityDays > 0 {
		opts.QuotationValidityDays = cfg.QuotationValidityDays
	}
	if cfg.NumberingRetries > 0 {
		opts.NumberingRetries = cfg.NumberingRetries
	}
	opts.AllowNegativeStock = cfg.AllowNegativeStock
	opts.Location = cfg.Location()
	return opts
}

func (o Options) prefix(docType enum.DocumentType) string {
	switch docType {
	case enum.DocumentTypeCreditNote:
		return o.CreditNotePrefix
	case enum.DocumentTypeQuotation:
		return o.QuotationPrefix
	default:
		return o.InvoicePrefix
	}
}

func (o Options) now() time.Time {
	if o.Clock == nil {
		return time.Now()
	}
	return o.Clock()
}

// Today is the current calendar date in the billing timezone
func (o Options) Today() time.Time {
	loc := o.Location
	if loc == nil {
		loc = time.UTC
	}
	return DateOnly(o.now().In(loc))
}

// DateOnly strips the clock from t, keeping its calendar date
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (o Options) dateOrToday(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return o.Today()
	}
	return DateOnly(*t)
}

// translate turns repository failures into AppErrors. AppErrors pass through.
func translate(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NewNotFoundError("Record")
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperror.NewPersistenceError(err)
}

// finish records err on the span and ends it
func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
