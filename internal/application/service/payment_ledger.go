package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/sangkips/gst-billing/pkg/logger"
	"github.com/sangkips/gst-billing/pkg/validation"
	"github.com/shopspring/decimal"
)

// PaymentLedger records payments against invoices and keeps the invoice's
// amount_paid, balance_due and payment_status derived from them.
type PaymentLedger struct {
	store repository.Store
	opts  Options
	log   zerolog.Logger
}

// NewPaymentLedger creates a new payment ledger
func NewPaymentLedger(store repository.Store, opts Options) *PaymentLedger {
	return &PaymentLedger{
		store: store,
		opts:  opts,
		log:   logger.WithComponent("payments"),
	}
}

// SplitPaymentInput is one tender of a split payment
type SplitPaymentInput struct {
	Mode      enum.PaymentMode `json:"mode" validate:"required"`
	Amount    decimal.Decimal  `json:"amount" validate:"gte=0,places=2"`
	Reference string           `json:"reference,omitempty" validate:"max=100"`
	Notes     string           `json:"notes,omitempty"`
}

// RecordPaymentInput is a single payment against an invoice
type RecordPaymentInput struct {
	InvoiceID uuid.UUID
	Mode      enum.PaymentMode
	Amount    decimal.Decimal
	Date      *time.Time
	Reference string
	Notes     string
}

// DerivePaymentState computes balance and status from the grand total and the amount paid
func DerivePaymentState(grandTotal, paid decimal.Decimal) (decimal.Decimal, enum.PaymentStatus) {
	balance := grandTotal.Sub(paid)
	switch {
	case !balance.IsPositive():
		return balance, enum.PaymentStatusPaid
	case paid.IsPositive():
		return balance, enum.PaymentStatusPartial
	default:
		return balance, enum.PaymentStatusUnpaid
	}
}

// RecordPayment appends one payment and returns the updated invoice
func (l *PaymentLedger) RecordPayment(ctx context.Context, input *RecordPaymentInput) (*entity.Invoice, error) {
	if !input.Mode.IsValid() {
		return nil, apperror.NewFieldValidationError("mode", "unknown payment mode "+input.Mode.String())
	}
	if !input.Amount.IsPositive() {
		return nil, apperror.NewFieldValidationError("amount", "payment amount must be positive")
	}
	if err := validation.Places("amount", input.Amount, validation.MoneyPlaces); err != nil {
		return nil, err
	}

	return l.record(ctx, input.InvoiceID, l.opts.dateOrToday(input.Date), []SplitPaymentInput{{
		Mode:      input.Mode,
		Amount:    input.Amount,
		Reference: input.Reference,
		Notes:     input.Notes,
	}})
}

// RecordSplitPayments records several tenders at once. Zero amounts are skipped.
func (l *PaymentLedger) RecordSplitPayments(ctx context.Context, invoiceID uuid.UUID, splits []SplitPaymentInput, date *time.Time) (*entity.Invoice, error) {
	if err := validateSplits(splits); err != nil {
		return nil, err
	}
	return l.record(ctx, invoiceID, l.opts.dateOrToday(date), splits)
}

func (l *PaymentLedger) record(ctx context.Context, invoiceID uuid.UUID, day time.Time, splits []SplitPaymentInput) (*entity.Invoice, error) {
	ctx, span := tracer.Start(ctx, "PaymentLedger.Record")
	var err error
	defer func() { finish(span, err) }()

	var invoice *entity.Invoice
	err = l.store.WithinTx(ctx, func(tx repository.Store) error {
		inv, err := tx.Invoices().GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperror.NewNotFoundError("Invoice")
		}
		if inv.IsCancelled {
			return apperror.NewStateConflictError("Cannot record a payment on a cancelled invoice")
		}

		for _, split := range splits {
			if split.Amount.IsZero() {
				continue
			}
			if err := l.append(ctx, tx, inv, &entity.Payment{
				Mode:            split.Mode,
				Amount:          split.Amount,
				PaymentDate:     day,
				ReferenceNumber: split.Reference,
				Notes:           split.Notes,
			}); err != nil {
				return err
			}
		}

		if err := l.recompute(ctx, tx, inv); err != nil {
			return err
		}
		invoice, err = tx.Invoices().GetByID(ctx, invoiceID)
		return err
	})
	if err != nil {
		err = translate(err)
		return nil, err
	}

	l.log.Info().
		Str("invoice", invoice.InvoiceNumber).
		Str("amount_paid", invoice.AmountPaid.String()).
		Str("balance_due", invoice.BalanceDue.String()).
		Msg("payment recorded")
	return invoice, nil
}

// append writes the payment row and applies the CREDIT side effect on the customer
func (l *PaymentLedger) append(ctx context.Context, tx repository.Store, inv *entity.Invoice, payment *entity.Payment) error {
	if payment.Mode == enum.PaymentModeCredit && inv.CustomerID == nil {
		return apperror.NewFieldValidationError("mode", "credit payments require a customer on the invoice")
	}
	payment.InvoiceID = inv.ID
	if err := tx.Payments().Create(ctx, payment); err != nil {
		return err
	}
	if payment.Mode == enum.PaymentModeCredit {
		return tx.Customers().AdjustCredit(ctx, *inv.CustomerID, payment.Amount.Neg())
	}
	return nil
}

// recompute derives the invoice payment fields from the sum of its payments
func (l *PaymentLedger) recompute(ctx context.Context, tx repository.Store, inv *entity.Invoice) error {
	payments, err := tx.Payments().ListByInvoice(ctx, inv.ID)
	if err != nil {
		return err
	}

	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	balance, status := DerivePaymentState(inv.GrandTotal, paid)

	if err := tx.Invoices().UpdatePaymentTotals(ctx, inv.ID, paid, balance, status); err != nil {
		return err
	}
	inv.AmountPaid = paid
	inv.BalanceDue = balance
	inv.PaymentStatus = status
	inv.Payments = payments
	return nil
}

// DeletePayment removes a payment, restores customer credit for CREDIT mode
// and recomputes the invoice from the remaining payments.
func (l *PaymentLedger) DeletePayment(ctx context.Context, paymentID uuid.UUID) (*entity.Invoice, error) {
	var invoice *entity.Invoice
	err := l.store.WithinTx(ctx, func(tx repository.Store) error {
		payment, err := tx.Payments().GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return apperror.NewNotFoundError("Payment")
		}

		inv, err := tx.Invoices().GetForUpdate(ctx, payment.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperror.NewNotFoundError("Invoice")
		}

		if err := tx.Payments().Delete(ctx, paymentID); err != nil {
			return err
		}
		if payment.Mode == enum.PaymentModeCredit && inv.CustomerID != nil {
			if err := tx.Customers().AdjustCredit(ctx, *inv.CustomerID, payment.Amount); err != nil {
				return err
			}
		}
		if err := l.recompute(ctx, tx, inv); err != nil {
			return err
		}
		invoice, err = tx.Invoices().GetByID(ctx, inv.ID)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}

	l.log.Info().Str("payment_id", paymentID.String()).Str("invoice", invoice.InvoiceNumber).Msg("payment deleted")
	return invoice, nil
}

// History lists the payments recorded against an invoice
func (l *PaymentLedger) History(ctx context.Context, invoiceID uuid.UUID) ([]entity.Payment, error) {
	inv, err := l.store.Invoices().GetByID(ctx, invoiceID)
	if err != nil {
		return nil, translate(err)
	}
	if inv == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	payments, err := l.store.Payments().ListByInvoice(ctx, invoiceID)
	return payments, translate(err)
}

// Outstanding lists open balances, newest invoice first. A nil customer lists all.
func (l *PaymentLedger) Outstanding(ctx context.Context, customerID *uuid.UUID) ([]entity.Invoice, error) {
	invoices, err := l.store.Invoices().ListOutstanding(ctx, customerID)
	return invoices, translate(err)
}

// ModeTotal aggregates the payments received through one mode
type ModeTotal struct {
	Mode   enum.PaymentMode `json:"mode"`
	Count  int              `json:"count"`
	Amount decimal.Decimal  `json:"amount"`
}

// PaymentSummary aggregates payments over a date range
type PaymentSummary struct {
	From   time.Time       `json:"from"`
	To     time.Time       `json:"to"`
	Count  int             `json:"count"`
	Total  decimal.Decimal `json:"total"`
	ByMode []ModeTotal     `json:"by_mode"`
}

// Summary totals the payments received between from and to, inclusive
func (l *PaymentLedger) Summary(ctx context.Context, dates repository.DateRange) (*PaymentSummary, error) {
	payments, err := l.store.Payments().ListByDateRange(ctx, dates)
	if err != nil {
		return nil, translate(err)
	}

	summary := &PaymentSummary{From: dates.From, To: dates.To, Total: decimal.Zero, ByMode: []ModeTotal{}}
	byMode := map[enum.PaymentMode]*ModeTotal{}
	for _, p := range payments {
		summary.Count++
		summary.Total = summary.Total.Add(p.Amount)
		mt, ok := byMode[p.Mode]
		if !ok {
			mt = &ModeTotal{Mode: p.Mode, Amount: decimal.Zero}
			byMode[p.Mode] = mt
		}
		mt.Count++
		mt.Amount = mt.Amount.Add(p.Amount)
	}
	for _, mt := range byMode {
		summary.ByMode = append(summary.ByMode, *mt)
	}
	sort.Slice(summary.ByMode, func(i, j int) bool {
		return summary.ByMode[i].Mode < summary.ByMode[j].Mode
	})
	return summary, nil
}

func validateSplits(splits []SplitPaymentInput) error {
	for _, split := range splits {
		if !split.Mode.IsValid() {
			return apperror.NewFieldValidationError("payments", "unknown payment mode "+split.Mode.String())
		}
		if split.Amount.IsNegative() {
			return apperror.NewFieldValidationError("payments", "payment amount must not be negative")
		}
		if err := validation.Places("payments", split.Amount, validation.MoneyPlaces); err != nil {
			return err
		}
	}
	return nil
}
