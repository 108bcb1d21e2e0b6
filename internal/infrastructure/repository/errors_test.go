package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	domainRepo "github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	numberTaken := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "idx_invoices_invoice_number"}
	barcodeTaken := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "idx_products_barcode"}
	other := &pgconn.PgError{Code: "23503", ConstraintName: "fk_invoice_items"}

	assert.NoError(t, translateError(nil))
	assert.ErrorIs(t, translateError(gorm.ErrRecordNotFound), domainRepo.ErrNotFound)

	err := translateError(fmt.Errorf("insert: %w", numberTaken))
	assert.ErrorIs(t, err, domainRepo.ErrDuplicateNumber)
	assert.ErrorIs(t, err, numberTaken, "the driver error stays in the chain")

	err = translateError(barcodeTaken)
	assert.ErrorIs(t, err, domainRepo.ErrDuplicate)
	assert.False(t, errors.Is(err, domainRepo.ErrDuplicateNumber))

	assert.ErrorIs(t, translateError(gorm.ErrDuplicatedKey), domainRepo.ErrDuplicate)
	assert.Equal(t, other, translateError(other))
}

func TestNumberConflict(t *testing.T) {
	assert.ErrorIs(t, numberConflict(gorm.ErrDuplicatedKey), domainRepo.ErrDuplicateNumber)
	assert.NoError(t, numberConflict(nil))

	boom := errors.New("boom")
	assert.Equal(t, boom, numberConflict(boom))
}

func TestAffected(t *testing.T) {
	assert.ErrorIs(t, affected(&gorm.DB{}), domainRepo.ErrNotFound)
	assert.NoError(t, affected(&gorm.DB{RowsAffected: 1}))
	assert.ErrorIs(t, affected(&gorm.DB{Error: gorm.ErrRecordNotFound}), domainRepo.ErrNotFound)
}
