package numbering

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func TestFinancialYear(t *testing.T) {
	tests := []struct {
		day  time.Time
		want string
	}{
		{date(2025, time.April, 1), "2025-26"},
		{date(2025, time.December, 31), "2025-26"},
		{date(2026, time.March, 31), "2025-26"},
		{date(2026, time.January, 15), "2025-26"},
		{date(2099, time.June, 1), "2099-00"},
		{date(2024, time.March, 1), "2023-24"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FinancialYear(tt.day), tt.day.String())
	}
}

func TestFinancialYearBounds(t *testing.T) {
	from, to := FinancialYearBounds(date(2026, time.February, 3))
	assert.True(t, from.Equal(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.March, to.Month())
	assert.Equal(t, 2026, to.Year())
}

func TestNext(t *testing.T) {
	partition := Partition("INV", date(2025, time.May, 2))
	assert.Equal(t, "INV/2025-26/", partition)

	assert.Equal(t, "INV/2025-26/0001", Next(partition, ""))
	assert.Equal(t, "INV/2025-26/0004", Next(partition, "INV/2025-26/0003"))
	assert.Equal(t, "INV/2025-26/10000", Next(partition, "INV/2025-26/9999"))
	assert.Equal(t, "INV/2025-26/0001", Next(partition, "INV/2025-26/00X1"), "unparseable suffix falls back to 1")
	assert.Equal(t, "INV/2025-26/0001", Next(partition, "INV/2025-26/"))
}

func TestSequence(t *testing.T) {
	seq, err := Sequence("CN/2024-25/0042")
	require.NoError(t, err)
	assert.Equal(t, 42, seq)

	_, err = Sequence("garbage")
	assert.Error(t, err)
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("QTN/2025-26/0001"))
	assert.True(t, IsValid("INV/2025-26/12345"))
	assert.False(t, IsValid("INV-2025-26-0001"))
	assert.False(t, IsValid("inv/2025-26/0001"))
}

func TestLess(t *testing.T) {
	assert.True(t, Less("INV/2025-26/0009", "INV/2025-26/0010"))
	assert.True(t, Less("INV/2025-26/9999", "INV/2025-26/10000"))
	assert.False(t, Less("INV/2025-26/0002", "INV/2025-26/0001"))
}
