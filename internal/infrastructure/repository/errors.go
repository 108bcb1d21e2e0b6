package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	domainRepo "github.com/sangkips/gst-billing/internal/domain/repository"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// translateError maps driver errors onto the domain store errors. Unique
// violations on a document number column become ErrDuplicateNumber so the
// numberer can retry.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainRepo.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "_number") {
			return errors.Join(domainRepo.ErrDuplicateNumber, err)
		}
		return errors.Join(domainRepo.ErrDuplicate, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Join(domainRepo.ErrDuplicate, err)
	}
	return err
}

// numberConflict is translateError for inserts whose only unique key is the
// document number.
func numberConflict(err error) error {
	err = translateError(err)
	if errors.Is(err, domainRepo.ErrDuplicate) && !errors.Is(err, domainRepo.ErrDuplicateNumber) {
		return errors.Join(domainRepo.ErrDuplicateNumber, err)
	}
	return err
}

// affected returns ErrNotFound when a targeted mutation touched no rows
func affected(result *gorm.DB) error {
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainRepo.ErrNotFound
	}
	return nil
}
