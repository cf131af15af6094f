package stats

import (
	"math"
	"sort"
	"time"

	"github.com/novamart/demand-planner/internal/domain"
)

// topProductCount limits the leaderboard in the global summary.
const topProductCount = 3

// GlobalSummary aggregates headline figures over a full sales history: total
// units sold, average units per observed day, the top products, and the
// trailing-year growth rate against everything before it.
func GlobalSummary(records []domain.SalesRecord) domain.GlobalSummary {
	if len(records) == 0 {
		return domain.GlobalSummary{}
	}

	var total float64
	days := make(map[time.Time]struct{})
	perProduct := make(map[string]float64)
	var maxDate time.Time

	for _, r := range records {
		total += float64(r.Quantity)
		day := time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, time.UTC)
		days[day] = struct{}{}
		perProduct[r.ProductID] += float64(r.Quantity)
		if day.After(maxDate) {
			maxDate = day
		}
	}

	top := make([]domain.ProductTotal, 0, len(perProduct))
	for id, t := range perProduct {
		top = append(top, domain.ProductTotal{ProductID: id, Total: t})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Total != top[j].Total {
			return top[i].Total > top[j].Total
		}
		return top[i].ProductID < top[j].ProductID
	})
	if len(top) > topProductCount {
		top = top[:topProductCount]
	}

	// Growth: trailing 365 days vs everything before.
	cutoff := maxDate.AddDate(0, 0, -365)
	var before, after float64
	for _, r := range records {
		if r.Date.After(cutoff) {
			after += float64(r.Quantity)
		} else {
			before += float64(r.Quantity)
		}
	}
	var growth float64
	if before > 0 {
		growth = (after - before) / before * 100
	}

	return domain.GlobalSummary{
		TotalSales:    total,
		AvgDailySales: total / float64(len(days)),
		TopProducts:   top,
		GrowthRatePct: growth,
		DistinctDays:  len(days),
		ProductCount:  len(perProduct),
	}
}

// ProductSummary reports the per-product descriptive statistics shown next to
// a plan: totals, mean and spread of daily demand, trend, and volatility as
// the coefficient of variation in percent.
func ProductSummary(series domain.DailyDemandSeries) domain.ProductSummary {
	values := series.Quantities()
	mean := meanOf(values)
	std := math.Sqrt(populationVariance(values, mean))

	var volatility float64
	if mean > 0 {
		volatility = std / mean * 100
	}

	var total float64
	for _, v := range values {
		total += v
	}

	return domain.ProductSummary{
		ProductID:     series.ProductID,
		TotalSales:    total,
		AvgDailySales: mean,
		StdDailySales: std,
		TrendSlope:    trendSlope(values),
		VolatilityPct: volatility,
	}
}
