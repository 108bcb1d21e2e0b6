package repository

import (
	"strings"

	domainRepo "github.com/sangkips/gst-billing/internal/domain/repository"
	"github.com/sangkips/gst-billing/pkg/pagination"
	"gorm.io/gorm"
)

// Paginate returns a GORM scope applying page-based limits.
// A nil params leaves the query unbounded.
func Paginate(params *pagination.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params == nil {
			return db
		}
		params.Validate()
		return db.Offset(params.Offset()).Limit(params.PerPage)
	}
}

// WithinDates returns a GORM scope restricting a date column to an inclusive
// range. Zero bounds are open.
func WithinDates(column string, dates domainRepo.DateRange) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !dates.From.IsZero() {
			db = db.Where(column+" >= ?", dates.From)
		}
		if !dates.To.IsZero() {
			db = db.Where(column+" <= ?", dates.To)
		}
		return db
	}
}

// Search returns a GORM scope matching term case-insensitively against any of
// the columns.
func Search(term string, columns ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" || len(columns) == 0 {
			return db
		}
		like := "%" + term + "%"
		clauses := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, c := range columns {
			clauses[i] = c + " ILIKE ?"
			args[i] = like
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

// NumberOrder sorts document numbers numerically within a partition, so
// NNNNN sorts after NNNN.
func NumberOrder(column string, desc bool) string {
	dir := " ASC"
	if desc {
		dir = " DESC"
	}
	return "length(" + column + ")" + dir + ", " + column + dir
}

// lastNumber returns the highest document number in a partition, or ""
func lastNumber(db *gorm.DB, model interface{}, column, partition string) (string, error) {
	var numbers []string
	err := db.Model(model).
		Where(column+" LIKE ?", escapeLike(partition)+"%").
		Order(NumberOrder(column, true)).
		Limit(1).
		Pluck(column, &numbers).Error
	if err != nil || len(numbers) == 0 {
		return "", translateError(err)
	}
	return numbers[0], nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
