// Package forecast implements the demand forecasting backends. Two variants
// sit behind one contract: a seasonal additive decomposition model (primary)
// and a small fixed-order autoregressive model (baseline). Both are pure
// functions of their inputs, so repeated calls with the same series produce
// identical forecasts.
package forecast

import (
	"math"
	"time"

	"github.com/novamart/demand-planner/internal/domain"
)

// Horizon limits accepted by every backend, in days.
const (
	MinHorizonDays = 7
	MaxHorizonDays = 90
)

// Backend fits a model to a daily demand series and forecasts future demand
// with uncertainty intervals.
type Backend interface {
	Variant() domain.ModelVariant
	FitAndForecast(series domain.DailyDemandSeries, horizonDays int) (domain.ForecastResult, error)
}

// NewBackend returns the backend for the given variant with its default
// configuration.
func NewBackend(variant domain.ModelVariant) (Backend, error) {
	switch variant {
	case domain.ModelSeasonalAdditive:
		return NewSeasonalAdditive(DefaultSeasonalConfig()), nil
	case domain.ModelAutoregressive:
		return NewAutoregressive(DefaultARConfig()), nil
	default:
		return nil, &domain.InvalidParameterError{Param: "model_variant", Reason: "unknown variant " + string(variant)}
	}
}

func validateHorizon(horizonDays int) error {
	if horizonDays < MinHorizonDays || horizonDays > MaxHorizonDays {
		return &domain.InvalidParameterError{
			Param:  "horizon_days",
			Reason: "must be between 7 and 90",
		}
	}
	return nil
}

// allZero reports whether the series never recorded a sale. Such a series is
// well-formed but degenerate for modeling.
func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}

// futureDates returns horizon consecutive days starting the day after last.
func futureDates(last time.Time, horizon int) []time.Time {
	out := make([]time.Time, horizon)
	for i := range out {
		out[i] = last.AddDate(0, 0, i+1)
	}
	return out
}

// buildPoints assembles forecast points from raw estimates and half-widths,
// clipping everything at zero (demand cannot be negative) and widening
// intervals monotonically with horizon offset.
func buildPoints(dates []time.Time, estimates, halfWidths []float64) []domain.ForecastPoint {
	points := make([]domain.ForecastPoint, len(dates))
	prevWidth := 0.0
	for i := range dates {
		est := math.Max(0, estimates[i])
		lower := math.Max(0, estimates[i]-halfWidths[i])
		upper := math.Max(est, estimates[i]+halfWidths[i])

		// Clipping at zero can shrink an interval below the one before it;
		// stretch the upper bound so widths never decrease with offset.
		if w := upper - lower; w < prevWidth {
			upper = lower + prevWidth
		}
		prevWidth = upper - lower

		points[i] = domain.ForecastPoint{
			Date:          dates[i],
			PointEstimate: est,
			LowerBound:    lower,
			UpperBound:    upper,
		}
	}
	return points
}

// residualStdErr is the standard error of model residuals with a degrees-of-
// freedom correction for the fitted parameters.
func residualStdErr(residuals []float64, params int) float64 {
	if len(residuals) == 0 {
		return 0
	}
	var sumSq float64
	for _, r := range residuals {
		sumSq += r * r
	}
	df := float64(len(residuals) - params)
	if df < 1 {
		df = 1
	}
	return math.Sqrt(sumSq / df)
}
