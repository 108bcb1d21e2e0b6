package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/internal/domain/numbering"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/sangkips/gst-billing/pkg/logger"
)

// Locker serializes numbered creates for one partition across processes.
// It is an optimisation only: uniqueness is enforced by the store.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// CreateFunc persists a document under number inside tx
type CreateFunc func(ctx context.Context, tx repository.Store, number string) error

// DocumentNumberer issues PREFIX/YYYY-YY/NNNN numbers per document type and
// financial year.
type DocumentNumberer struct {
	store  repository.Store
	opts   Options
	locker Locker
	log    zerolog.Logger
}

// NewDocumentNumberer creates a numberer. locker may be nil.
func NewDocumentNumberer(store repository.Store, opts Options, locker Locker) *DocumentNumberer {
	return &DocumentNumberer{
		store:  store,
		opts:   opts,
		locker: locker,
		log:    logger.WithComponent("numbering"),
	}
}

// Next computes the number that follows the highest one in the partition of day
func (n *DocumentNumberer) Next(ctx context.Context, tx repository.Store, docType enum.DocumentType, day time.Time) (string, error) {
	partition := numbering.Partition(n.opts.prefix(docType), day)

	var (
		last string
		err  error
	)
	switch docType {
	case enum.DocumentTypeInvoice:
		last, err = tx.Invoices().LastNumber(ctx, partition)
	case enum.DocumentTypeCreditNote:
		last, err = tx.CreditNotes().LastNumber(ctx, partition)
	case enum.DocumentTypeQuotation:
		last, err = tx.Quotations().LastNumber(ctx, partition)
	default:
		return "", fmt.Errorf("unknown document type %d", docType)
	}
	if err != nil {
		return "", err
	}

	next := numbering.Next(partition, last)
	if last != "" {
		if _, perr := numbering.Sequence(last); perr != nil {
			n.log.Warn().Str("last", last).Str("next", next).Msg("unparseable document number suffix, restarting sequence")
		}
	}
	return next, nil
}

// Peek returns the number the next document of docType would receive today
func (n *DocumentNumberer) Peek(ctx context.Context, docType enum.DocumentType) (string, error) {
	number, err := n.Next(ctx, n.store, docType, n.opts.Today())
	return number, translate(err)
}

// Issue runs create in a transaction with a freshly computed number. A
// duplicate number rolls the transaction back and the whole create is retried
// with a new number, up to NumberingRetries attempts.
func (n *DocumentNumberer) Issue(ctx context.Context, docType enum.DocumentType, create CreateFunc) error {
	day := n.opts.Today()
	partition := numbering.Partition(n.opts.prefix(docType), day)

	if n.locker != nil {
		unlock, err := n.locker.Lock(ctx, "numbering:"+partition)
		if err != nil {
			n.log.Warn().Err(err).Str("partition", partition).Msg("numbering lock unavailable, relying on unique constraint")
		} else {
			defer unlock()
		}
	}

	attempts := n.opts.NumberingRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := n.store.WithinTx(ctx, func(tx repository.Store) error {
			number, err := n.Next(ctx, tx, docType, day)
			if err != nil {
				return err
			}
			return create(ctx, tx, number)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateNumber) {
			return err
		}
		lastErr = err
		n.log.Warn().
			Str("document_type", docType.String()).
			Str("partition", partition).
			Int("attempt", attempt).
			Msg("document number collision, retrying")
	}

	return apperror.NewNumberingConflictError(
		fmt.Sprintf("could not allocate a %s number after %d attempts", docType, attempts),
		lastErr,
	)
}
