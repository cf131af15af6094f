// Package timeseries turns raw per-transaction sales rows into complete,
// gap-free daily demand series.
package timeseries

import (
	"sort"
	"time"

	"github.com/novamart/demand-planner/internal/domain"
)

// MinObservedDays is the minimum number of distinct days with at least one
// sales record a product needs before a series is considered usable.
const MinObservedDays = 14

// Builder aggregates sales records into daily demand series.
type Builder struct {
	minDays int
}

// NewBuilder returns a Builder with the default minimum-history requirement.
func NewBuilder() *Builder {
	return &Builder{minDays: MinObservedDays}
}

// NewBuilderWithMinDays returns a Builder requiring at least minDays distinct
// observed days. Values below 1 fall back to the default.
func NewBuilderWithMinDays(minDays int) *Builder {
	if minDays < 1 {
		minDays = MinObservedDays
	}
	return &Builder{minDays: minDays}
}

// Build filters records to productID, sums same-day quantities, and fills
// every calendar day between the first and last observation with quantity 0.
// Days without a sale deliberately count as zero demand rather than missing
// observations; this feeds into downstream mean and variance estimates.
//
// Returns an InsufficientDataError when the filtered set is empty or spans
// fewer distinct observed days than the builder's minimum.
func (b *Builder) Build(records []domain.SalesRecord, productID string) (domain.DailyDemandSeries, error) {
	byDay := make(map[time.Time]float64)
	for _, r := range records {
		if r.ProductID != productID {
			continue
		}
		day := truncateDay(r.Date)
		byDay[day] += float64(r.Quantity)
	}

	if len(byDay) == 0 {
		return domain.DailyDemandSeries{}, &domain.InsufficientDataError{ProductID: productID}
	}
	if len(byDay) < b.minDays {
		return domain.DailyDemandSeries{}, &domain.InsufficientDataError{
			ProductID: productID,
			Days:      len(byDay),
			Required:  b.minDays,
		}
	}

	first, last := dateRange(byDay)

	points := make([]domain.DemandPoint, 0, int(last.Sub(first).Hours()/24)+1)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		points = append(points, domain.DemandPoint{Date: day, Quantity: byDay[day]})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	return domain.DailyDemandSeries{ProductID: productID, Points: points}, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dateRange(byDay map[time.Time]float64) (first, last time.Time) {
	for day := range byDay {
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}
	return first, last
}
