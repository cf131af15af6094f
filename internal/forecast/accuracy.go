package forecast

import (
	"math"

	"github.com/novamart/demand-planner/internal/domain"
)

// Hold-out window sizing for accuracy evaluation: the trailing suffix is at
// most MaxHoldoutDays and never more than half the series; below
// MinHoldoutDays evaluation is skipped instead of scored on noise.
const (
	MinHoldoutDays = 14
	MaxHoldoutDays = 30
)

// mapeEpsilon keeps the MAPE denominator away from zero on days with no
// demand. One unit of demand is the natural floor for integer quantities.
const mapeEpsilon = 1.0

// Evaluator scores a backend against a held-out suffix of real history. It
// holds no state; repeated evaluation of the same series and backend yields
// bit-identical metrics.
type Evaluator struct{}

// NewEvaluator returns an accuracy evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate re-fits the backend on the series minus its trailing window and
// scores the forecast over that window. It returns (nil, nil) when the
// window cannot be formed: short series are reported as "not available", not
// as a failure or a fabricated zero. A fit failure on the training prefix is
// returned as the backend's error.
func (e *Evaluator) Evaluate(series domain.DailyDemandSeries, backend Backend) (*domain.AccuracyMetrics, error) {
	window := series.Len() / 2
	if window > MaxHoldoutDays {
		window = MaxHoldoutDays
	}
	if window < MinHoldoutDays {
		return nil, nil
	}

	split := series.Len() - window
	train := domain.DailyDemandSeries{
		ProductID: series.ProductID,
		Points:    series.Points[:split],
	}
	holdout := series.Points[split:]

	// The backend contract bounds horizons at MinHorizonDays, which the
	// MinHoldoutDays floor already satisfies.
	result, err := backend.FitAndForecast(train, window)
	if err != nil {
		return nil, err
	}

	var sumAPE, sumSq float64
	for i, actual := range holdout {
		predicted := result.Points[i].PointEstimate
		diff := actual.Quantity - predicted
		sumSq += diff * diff
		sumAPE += math.Abs(diff) / math.Max(actual.Quantity, mapeEpsilon)
	}

	n := float64(window)
	return &domain.AccuracyMetrics{
		ModelVariant:          backend.Variant(),
		MAPE:                  sumAPE / n * 100,
		RMSE:                  math.Sqrt(sumSq / n),
		EvaluatedWindowLength: window,
	}, nil
}
