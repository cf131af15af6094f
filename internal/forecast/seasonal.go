package forecast

import (
	"fmt"
	"math"

	"github.com/novamart/demand-planner/internal/domain"
)

// SeasonalConfig holds the seasonal additive model's hyperparameters. The
// smoothing constants are fixed rather than searched so that two fits of the
// same series always agree.
type SeasonalConfig struct {
	// SeasonalPeriod is the length of the repeating pattern in days.
	// 7 captures the weekly retail cycle; 365 would capture a yearly one.
	SeasonalPeriod int
	// Alpha, Beta and Gamma are the level, trend and seasonal smoothing
	// constants in (0,1).
	Alpha float64
	Beta  float64
	Gamma float64
	// ConfidenceZ is the z-score used for interval half-widths.
	ConfidenceZ float64
}

// DefaultSeasonalConfig returns the weekly-cycle configuration used in
// production.
func DefaultSeasonalConfig() SeasonalConfig {
	return SeasonalConfig{
		SeasonalPeriod: 7,
		Alpha:          0.3,
		Beta:           0.05,
		Gamma:          0.15,
		ConfidenceZ:    1.96,
	}
}

// SeasonalAdditive decomposes a demand series into level, trend and an
// additive seasonal pattern (triple exponential smoothing), then forecasts by
// extrapolating the trend and re-applying the fitted pattern. Interval widths
// grow with sqrt of the horizon offset, scaled by the residual spread.
type SeasonalAdditive struct {
	cfg SeasonalConfig
}

// NewSeasonalAdditive creates the seasonal backend. Out-of-range config
// values fall back to defaults.
func NewSeasonalAdditive(cfg SeasonalConfig) *SeasonalAdditive {
	def := DefaultSeasonalConfig()
	if cfg.SeasonalPeriod < 2 {
		cfg.SeasonalPeriod = def.SeasonalPeriod
	}
	if cfg.Alpha <= 0 || cfg.Alpha >= 1 {
		cfg.Alpha = def.Alpha
	}
	if cfg.Beta <= 0 || cfg.Beta >= 1 {
		cfg.Beta = def.Beta
	}
	if cfg.Gamma <= 0 || cfg.Gamma >= 1 {
		cfg.Gamma = def.Gamma
	}
	if cfg.ConfidenceZ <= 0 {
		cfg.ConfidenceZ = def.ConfidenceZ
	}
	return &SeasonalAdditive{cfg: cfg}
}

// Variant implements Backend.
func (m *SeasonalAdditive) Variant() domain.ModelVariant {
	return domain.ModelSeasonalAdditive
}

// MinHistory returns the shortest series the model accepts: two full seasons.
func (m *SeasonalAdditive) MinHistory() int {
	return 2 * m.cfg.SeasonalPeriod
}

// FitAndForecast implements Backend.
func (m *SeasonalAdditive) FitAndForecast(series domain.DailyDemandSeries, horizonDays int) (domain.ForecastResult, error) {
	if err := validateHorizon(horizonDays); err != nil {
		return domain.ForecastResult{}, err
	}

	values := series.Quantities()
	if len(values) < m.MinHistory() {
		return domain.ForecastResult{}, &domain.ModelFitError{
			Variant: m.Variant(),
			Reason:  fmt.Sprintf("need at least %d days (%d seasons), got %d", m.MinHistory(), 2, len(values)),
		}
	}
	if allZero(values) {
		return domain.ForecastResult{}, &domain.ModelFitError{
			Variant: m.Variant(),
			Reason:  "series is constant zero",
		}
	}

	state, residuals := m.fit(values)

	dates := futureDates(series.LastDate(), horizonDays)
	estimates := make([]float64, horizonDays)
	halfWidths := make([]float64, horizonDays)

	stdErr := residualStdErr(residuals, 3)
	n := len(values)
	for h := 1; h <= horizonDays; h++ {
		seasonIdx := (n + h - 1) % m.cfg.SeasonalPeriod
		estimates[h-1] = state.level + float64(h)*state.trend + state.seasonals[seasonIdx]
		halfWidths[h-1] = m.cfg.ConfidenceZ * stdErr * math.Sqrt(float64(h))
	}

	return domain.ForecastResult{
		ModelVariant:  m.Variant(),
		HorizonLength: horizonDays,
		Points:        buildPoints(dates, estimates, halfWidths),
	}, nil
}

// Decompose returns the fitted seasonal components and the in-sample
// residuals, used by demand statistics to measure seasonality strength.
func (m *SeasonalAdditive) Decompose(values []float64) (seasonals, residuals []float64, ok bool) {
	if len(values) < m.MinHistory() || allZero(values) {
		return nil, nil, false
	}
	state, resid := m.fit(values)
	return state.seasonals, resid, true
}

type smoothingState struct {
	level     float64
	trend     float64
	seasonals []float64
}

// fit runs additive triple exponential smoothing over the series and returns
// the final state plus the one-step-ahead residuals.
func (m *SeasonalAdditive) fit(values []float64) (smoothingState, []float64) {
	p := m.cfg.SeasonalPeriod
	n := len(values)

	// Initial level: mean of the first season.
	var level float64
	for i := 0; i < p; i++ {
		level += values[i]
	}
	level /= float64(p)

	// Initial trend: average per-day change between the first two seasons.
	var trend float64
	if n >= 2*p {
		for i := 0; i < p; i++ {
			trend += (values[p+i] - values[i]) / float64(p)
		}
		trend /= float64(p)
	}

	// Initial seasonals: first-season deviations from the level, centered
	// so they sum to zero.
	seasonals := make([]float64, p)
	var seasonalSum float64
	for i := 0; i < p; i++ {
		seasonals[i] = values[i] - level
		seasonalSum += seasonals[i]
	}
	adjust := seasonalSum / float64(p)
	for i := range seasonals {
		seasonals[i] -= adjust
	}

	residuals := make([]float64, 0, n)
	for t := 0; t < n; t++ {
		idx := t % p
		fitted := level + trend + seasonals[idx]
		residuals = append(residuals, values[t]-fitted)

		// Skip updates during the first season to avoid initialization
		// artifacts.
		if t < p-1 {
			continue
		}
		prevLevel := level
		level = m.cfg.Alpha*(values[t]-seasonals[idx]) + (1-m.cfg.Alpha)*(level+trend)
		trend = m.cfg.Beta*(level-prevLevel) + (1-m.cfg.Beta)*trend
		seasonals[idx] = m.cfg.Gamma*(values[t]-level) + (1-m.cfg.Gamma)*seasonals[idx]
	}

	return smoothingState{level: level, trend: trend, seasonals: seasonals}, residuals
}
