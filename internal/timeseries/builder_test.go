package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novamart/demand-planner/internal/domain"
)

func day(offset int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestBuildFillsGapsWithZeros(t *testing.T) {
	records := make([]domain.SalesRecord, 0, 14)
	for i := 0; i < 20; i++ {
		if i == 3 || i == 10 || i == 11 {
			continue // no sale on these days
		}
		records = append(records, domain.SalesRecord{
			Date:      day(i),
			ProductID: "SKU-1",
			Quantity:  5,
		})
	}

	series, err := NewBuilder().Build(records, "SKU-1")
	require.NoError(t, err)

	// The full calendar range is covered, including the silent days.
	require.Len(t, series.Points, 20)
	assert.Equal(t, 0.0, series.Points[3].Quantity)
	assert.Equal(t, 0.0, series.Points[10].Quantity)
	assert.Equal(t, 0.0, series.Points[11].Quantity)
	assert.Equal(t, 5.0, series.Points[0].Quantity)

	for i := 1; i < len(series.Points); i++ {
		assert.Equal(t, series.Points[i-1].Date.AddDate(0, 0, 1), series.Points[i].Date)
	}
}

func TestBuildSumsSameDayRecords(t *testing.T) {
	var records []domain.SalesRecord
	for i := 0; i < 14; i++ {
		records = append(records, domain.SalesRecord{Date: day(i), ProductID: "SKU-1", Quantity: 2})
	}
	// Two extra transactions on the first day, one with a time component.
	records = append(records,
		domain.SalesRecord{Date: day(0), ProductID: "SKU-1", Quantity: 3},
		domain.SalesRecord{Date: day(0).Add(15 * time.Hour), ProductID: "SKU-1", Quantity: 1},
	)

	series, err := NewBuilder().Build(records, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, 6.0, series.Points[0].Quantity)
}

func TestBuildFiltersOtherProducts(t *testing.T) {
	var records []domain.SalesRecord
	for i := 0; i < 14; i++ {
		records = append(records,
			domain.SalesRecord{Date: day(i), ProductID: "SKU-1", Quantity: 2},
			domain.SalesRecord{Date: day(i), ProductID: "SKU-2", Quantity: 9},
		)
	}

	series, err := NewBuilder().Build(records, "SKU-1")
	require.NoError(t, err)
	for _, p := range series.Points {
		assert.Equal(t, 2.0, p.Quantity)
	}
	assert.Equal(t, "SKU-1", series.ProductID)
}

func TestBuildInsufficientData(t *testing.T) {
	var records []domain.SalesRecord
	for i := 0; i < 5; i++ {
		records = append(records, domain.SalesRecord{Date: day(i), ProductID: "SKU-1", Quantity: 1})
	}

	_, err := NewBuilder().Build(records, "SKU-1")
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientData(err))

	_, err = NewBuilder().Build(records, "SKU-404")
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientData(err))
}

func TestBuilderMinDaysOverride(t *testing.T) {
	var records []domain.SalesRecord
	for i := 0; i < 5; i++ {
		records = append(records, domain.SalesRecord{Date: day(i), ProductID: "SKU-1", Quantity: 1})
	}

	series, err := NewBuilderWithMinDays(5).Build(records, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, 5, series.Len())

	// Distinct observed days are what count, not calendar span.
	_, err = NewBuilderWithMinDays(6).Build(records, "SKU-1")
	assert.True(t, domain.IsInsufficientData(err))
}
