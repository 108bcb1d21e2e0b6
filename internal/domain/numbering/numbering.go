// Package numbering formats financial-year scoped document numbers such as
// INV/2025-26/0004. The financial year runs from April to March.
package numbering

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// pattern matches a well formed document number
var pattern = regexp.MustCompile(`^[A-Z]+/\d{4}-\d{2}/\d{4,}$`)

// FinancialYearStart returns the calendar year in which the financial year
// containing t began.
func FinancialYearStart(t time.Time) int {
	if t.Month() >= time.April {
		return t.Year()
	}
	return t.Year() - 1
}

// FinancialYear returns the label of the financial year containing t, e.g. "2025-26"
func FinancialYear(t time.Time) string {
	start := FinancialYearStart(t)
	return fmt.Sprintf("%d-%02d", start, (start+1)%100)
}

// FinancialYearBounds returns the first and last day of the financial year containing t
func FinancialYearBounds(t time.Time) (time.Time, time.Time) {
	start := FinancialYearStart(t)
	from := time.Date(start, time.April, 1, 0, 0, 0, 0, t.Location())
	to := time.Date(start+1, time.March, 31, 0, 0, 0, 0, t.Location())
	return from, to
}

// Partition returns the prefix shared by every number of one document type
// within one financial year, e.g. "INV/2025-26/".
func Partition(prefix string, t time.Time) string {
	return prefix + "/" + FinancialYear(t) + "/"
}

// Format builds the document number for a sequence value
func Format(partition string, seq int) string {
	return fmt.Sprintf("%s%04d", partition, seq)
}

// Sequence parses the trailing integer of a document number
func Sequence(number string) (int, error) {
	idx := strings.LastIndex(number, "/")
	if idx < 0 || idx == len(number)-1 {
		return 0, fmt.Errorf("document number %q has no sequence", number)
	}
	return strconv.Atoi(number[idx+1:])
}

// Next derives the number that follows last within partition. An empty last
// starts the sequence at 1. A last number whose suffix does not parse also
// restarts at 1 so that issuing documents never blocks on a corrupt record.
func Next(partition, last string) string {
	if last == "" {
		return Format(partition, 1)
	}
	seq, err := Sequence(last)
	if err != nil {
		return Format(partition, 1)
	}
	return Format(partition, seq+1)
}

// IsValid reports whether number has the PREFIX/YYYY-YY/NNNN shape
func IsValid(number string) bool {
	return pattern.MatchString(number)
}

// Less orders two numbers of the same partition by their sequence; numbers
// are zero padded to four digits, so longer numbers are larger.
func Less(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
