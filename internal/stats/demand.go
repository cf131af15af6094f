// Package stats derives descriptive statistics from demand series. Everything
// here is a pure function of its inputs.
package stats

import (
	"math"

	"github.com/novamart/demand-planner/internal/domain"
	"github.com/novamart/demand-planner/internal/forecast"
)

// Summarize computes the statistics the inventory policy calculator consumes.
// Mean and standard deviation are population statistics over the full
// zero-filled series, so quiet days pull both down on purpose. Seasonality
// strength is the share of total variance explained by the fitted weekly
// pattern, zero when the series is too short to decompose.
func Summarize(series domain.DailyDemandSeries) domain.DemandStatisticsRecord {
	values := series.Quantities()

	mean := meanOf(values)
	return domain.DemandStatisticsRecord{
		MeanDailyDemand:     mean,
		StdDevDailyDemand:   math.Sqrt(populationVariance(values, mean)),
		TrendSlope:          trendSlope(values),
		SeasonalityStrength: seasonalityStrength(values),
	}
}

// trendSlope is the least-squares slope of quantity against day index.
func trendSlope(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	// x is the day index 0..n-1; its mean is (n-1)/2.
	xMean := float64(n-1) / 2
	yMean := meanOf(values)

	var num, den float64
	for i, y := range values {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// seasonalityStrength decomposes the series with the seasonal backend's
// fitted pattern and reports Var(seasonal)/Var(total), bounded to [0,1].
func seasonalityStrength(values []float64) float64 {
	total := populationVariance(values, meanOf(values))
	if total == 0 {
		return 0
	}

	model := forecast.NewSeasonalAdditive(forecast.DefaultSeasonalConfig())
	seasonals, _, ok := model.Decompose(values)
	if !ok {
		return 0
	}

	seasonal := populationVariance(seasonals, meanOf(seasonals))
	strength := seasonal / total
	if strength > 1 {
		strength = 1
	}
	return strength
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationVariance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return sumSq / float64(len(values))
}
