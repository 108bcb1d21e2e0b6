package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sangkips/gst-billing/internal/domain/entity"
	"github.com/sangkips/gst-billing/internal/domain/enum"
	"github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssue_RetriesOnDuplicateNumber(t *testing.T) {
	f := newFixture(t)

	var numbers []string
	err := f.numberer.Issue(f.ctx, enum.DocumentTypeQuotation, func(ctx context.Context, tx repository.Store, number string) error {
		numbers = append(numbers, number)
		if len(numbers) < 3 {
			return repository.ErrDuplicateNumber
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"QTN/2025-26/0001", "QTN/2025-26/0001", "QTN/2025-26/0001"}, numbers)
}

func TestIssue_ExhaustedRetriesIsNumberingConflict(t *testing.T) {
	f := newFixture(t)

	calls := 0
	err := f.numberer.Issue(f.ctx, enum.DocumentTypeInvoice, func(ctx context.Context, tx repository.Store, number string) error {
		calls++
		return repository.ErrDuplicateNumber
	})
	require.Error(t, err)
	assert.Equal(t, f.opts.NumberingRetries, calls)
	assert.True(t, apperror.IsKind(err, apperror.KindNumberingConflict))
	assert.ErrorIs(t, err, repository.ErrDuplicateNumber)
}

func TestIssue_OtherErrorsAreNotRetried(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")

	calls := 0
	err := f.numberer.Issue(f.ctx, enum.DocumentTypeInvoice, func(ctx context.Context, tx repository.Store, number string) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestIssue_PicksUpCommittedNumbers(t *testing.T) {
	f := newFixture(t)
	day := DateOnly(f.now)

	// a number committed by another writer between attempts
	require.NoError(t, f.store.Invoices().Create(f.ctx, &entity.Invoice{InvoiceNumber: "INV/2025-26/0007", InvoiceDate: day}))

	var got string
	err := f.numberer.Issue(f.ctx, enum.DocumentTypeInvoice, func(ctx context.Context, tx repository.Store, number string) error {
		got = number
		return tx.Invoices().Create(ctx, &entity.Invoice{InvoiceNumber: number, InvoiceDate: day})
	})
	require.NoError(t, err)
	assert.Equal(t, "INV/2025-26/0008", got)
}

func TestIssue_PartitionsByFinancialYear(t *testing.T) {
	f := newFixture(t)
	f.now = time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)

	peek, err := f.numberer.Peek(f.ctx, enum.DocumentTypeCreditNote)
	require.NoError(t, err)
	assert.Equal(t, "CN/2025-26/0001", peek)

	f.now = time.Date(2026, time.April, 1, 0, 0, 1, 0, time.UTC)
	peek, err = f.numberer.Peek(f.ctx, enum.DocumentTypeCreditNote)
	require.NoError(t, err)
	assert.Equal(t, "CN/2026-27/0001", peek)
}

type recordingLocker struct {
	mu   sync.Mutex
	keys []string
	fail bool
}

func (l *recordingLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.fail {
		return nil, errors.New("redis unavailable")
	}
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return func() {}, nil
}

func TestIssue_LocksPartitionBestEffort(t *testing.T) {
	f := newFixture(t)
	locker := &recordingLocker{}
	numberer := NewDocumentNumberer(f.store, f.opts, locker)

	err := numberer.Issue(f.ctx, enum.DocumentTypeInvoice, func(ctx context.Context, tx repository.Store, number string) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"numbering:INV/2025-26/"}, locker.keys)

	locker.fail = true
	err = numberer.Issue(f.ctx, enum.DocumentTypeInvoice, func(ctx context.Context, tx repository.Store, number string) error {
		return nil
	})
	assert.NoError(t, err, "an unavailable lock falls back to the unique constraint")
}

func TestCreateInvoice_ConcurrentSalesGetDistinctNumbers(t *testing.T) {
	f := newFixture(t)
	pen := f.product(t, "Pen", "10", 12, "1000")

	const workers = 8
	var wg sync.WaitGroup
	numbers := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := f.invoices.CreateInvoice(f.ctx, &CreateInvoiceInput{Items: []CartLineInput{line(pen.ID, "1")}})
			if assert.NoError(t, err) {
				numbers <- inv.InvoiceNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for n := range numbers {
		assert.False(t, seen[n], "duplicate number %s", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
	assertAmount(t, "992", f.stockOf(t, pen.ID))
}
