package forecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/novamart/demand-planner/internal/domain"
)

// ARConfig holds the autoregressive baseline's order triple (p,d,q). The
// orders are fixed and small: robustness over goodness-of-fit.
type ARConfig struct {
	P, D, Q     int
	ConfidenceZ float64
}

// DefaultARConfig returns ARIMA(1,1,1), the standard baseline for daily
// retail demand.
func DefaultARConfig() ARConfig {
	return ARConfig{P: 1, D: 1, Q: 1, ConfidenceZ: 1.96}
}

// Autoregressive is a linear ARIMA(p,d,q) model: the series is differenced d
// times to remove trend, an AR(p) component is fitted with the Yule-Walker
// equations, and an MA(q) component is estimated from the AR residuals.
// Interval half-widths come from the residual variance and widen with sqrt of
// the horizon offset.
type Autoregressive struct {
	cfg ARConfig
}

// NewAutoregressive creates the baseline backend. Out-of-range orders fall
// back to defaults; d is capped at 2.
func NewAutoregressive(cfg ARConfig) *Autoregressive {
	def := DefaultARConfig()
	if cfg.P < 0 || cfg.P > 5 {
		cfg.P = def.P
	}
	if cfg.D < 0 || cfg.D > 2 {
		cfg.D = def.D
	}
	if cfg.Q < 0 || cfg.Q > 5 {
		cfg.Q = def.Q
	}
	if cfg.ConfidenceZ <= 0 {
		cfg.ConfidenceZ = def.ConfidenceZ
	}
	return &Autoregressive{cfg: cfg}
}

// Variant implements Backend.
func (m *Autoregressive) Variant() domain.ModelVariant {
	return domain.ModelAutoregressive
}

// MinHistory returns the shortest series the model accepts.
func (m *Autoregressive) MinHistory() int {
	min := m.cfg.P + m.cfg.D
	if v := m.cfg.Q + m.cfg.D; v > min {
		min = v
	}
	if min < 10 {
		min = 10
	}
	return min
}

// FitAndForecast implements Backend.
func (m *Autoregressive) FitAndForecast(series domain.DailyDemandSeries, horizonDays int) (domain.ForecastResult, error) {
	if err := validateHorizon(horizonDays); err != nil {
		return domain.ForecastResult{}, err
	}

	values := series.Quantities()
	if len(values) < m.MinHistory() {
		return domain.ForecastResult{}, &domain.ModelFitError{
			Variant: m.Variant(),
			Reason:  fmt.Sprintf("need at least %d days for ARIMA(%d,%d,%d), got %d", m.MinHistory(), m.cfg.P, m.cfg.D, m.cfg.Q, len(values)),
		}
	}
	if allZero(values) {
		return domain.ForecastResult{}, &domain.ModelFitError{
			Variant: m.Variant(),
			Reason:  "series is constant zero",
		}
	}

	fitted, err := m.fit(values)
	if err != nil {
		return domain.ForecastResult{}, &domain.ModelFitError{Variant: m.Variant(), Reason: err.Error()}
	}

	diffForecast := fitted.forecastDifferenced(horizonDays)
	levels := integrate(values, diffForecast, m.cfg.D)

	dates := futureDates(series.LastDate(), horizonDays)
	halfWidths := make([]float64, horizonDays)
	for h := 1; h <= horizonDays; h++ {
		halfWidths[h-1] = m.cfg.ConfidenceZ * fitted.residStdErr * math.Sqrt(float64(h))
	}

	return domain.ForecastResult{
		ModelVariant:  m.Variant(),
		HorizonLength: horizonDays,
		Points:        buildPoints(dates, levels, halfWidths),
	}, nil
}

type arFit struct {
	p, q        int
	mean        float64
	arCoeffs    []float64
	maCoeffs    []float64
	lastDiffs   []float64 // last p centered values of the differenced series
	lastErrors  []float64 // last q residuals
	residStdErr float64
}

func (m *Autoregressive) fit(values []float64) (*arFit, error) {
	stationary := difference(values, m.cfg.D)
	if len(stationary) <= m.cfg.P {
		return nil, fmt.Errorf("series too short after %d-order differencing", m.cfg.D)
	}

	mean := meanOf(stationary)
	centered := make([]float64, len(stationary))
	for i, v := range stationary {
		centered[i] = v - mean
	}

	arCoeffs, err := fitAR(centered, m.cfg.P)
	if err != nil {
		return nil, err
	}

	residuals := arResiduals(centered, arCoeffs, m.cfg.P)
	maCoeffs := fitMA(residuals, m.cfg.Q)

	lastDiffs := make([]float64, m.cfg.P)
	if m.cfg.P > 0 {
		copy(lastDiffs, centered[len(centered)-m.cfg.P:])
	}
	lastErrors := make([]float64, m.cfg.Q)
	if m.cfg.Q > 0 && len(residuals) >= m.cfg.Q {
		copy(lastErrors, residuals[len(residuals)-m.cfg.Q:])
	}

	return &arFit{
		p:           m.cfg.P,
		q:           m.cfg.Q,
		mean:        mean,
		arCoeffs:    arCoeffs,
		maCoeffs:    maCoeffs,
		lastDiffs:   lastDiffs,
		lastErrors:  lastErrors,
		residStdErr: residualStdErr(residuals, m.cfg.P+m.cfg.Q),
	}, nil
}

// forecastDifferenced iterates the ARMA recursion on the differenced series.
// Future shocks are zero, so the MA terms only contribute at the first steps.
func (f *arFit) forecastDifferenced(steps int) []float64 {
	history := make([]float64, len(f.lastDiffs))
	copy(history, f.lastDiffs)
	errs := make([]float64, len(f.lastErrors))
	copy(errs, f.lastErrors)

	out := make([]float64, steps)
	for t := 0; t < steps; t++ {
		var pred float64
		for i := 0; i < f.p && i < len(history); i++ {
			pred += f.arCoeffs[i] * history[len(history)-1-i]
		}
		for j := 0; j < f.q && j < len(errs); j++ {
			pred += f.maCoeffs[j] * errs[len(errs)-1-j]
		}

		out[t] = f.mean + pred
		history = append(history, pred)
		errs = append(errs, 0)
	}
	return out
}

// integrate undoes d-order differencing, turning forecasted differences back
// into demand levels anchored on the observed series.
func integrate(values, diffForecast []float64, d int) []float64 {
	if d == 0 {
		out := make([]float64, len(diffForecast))
		copy(out, diffForecast)
		return out
	}

	// Last value at each differencing level, from the original series down
	// to level d-1.
	anchors := make([]float64, d)
	current := values
	for level := 0; level < d; level++ {
		anchors[level] = current[len(current)-1]
		current = difference(current, 1)
	}

	out := make([]float64, len(diffForecast))
	copy(out, diffForecast)
	for level := d - 1; level >= 0; level-- {
		acc := anchors[level]
		for i := range out {
			acc += out[i]
			out[i] = acc
		}
	}
	return out
}

// difference applies d-order differencing.
func difference(series []float64, d int) []float64 {
	out := make([]float64, len(series))
	copy(out, series)
	for ; d > 0 && len(out) > 1; d-- {
		next := make([]float64, len(out)-1)
		for i := range next {
			next[i] = out[i+1] - out[i]
		}
		out = next
	}
	return out
}

func meanOf(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

func varianceOf(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	mean := meanOf(series)
	var sumSq float64
	for _, v := range series {
		d := v - mean
		sumSq += d * d
	}
	return sumSq / float64(len(series))
}

// fitAR estimates AR coefficients from the Yule-Walker equations solved with
// Levinson-Durbin recursion. A flat (zero-variance) differenced series gets
// zero coefficients: the forecast collapses to the mean.
func fitAR(centered []float64, p int) ([]float64, error) {
	if p == 0 {
		return []float64{}, nil
	}
	if varianceOf(centered) < 1e-10 {
		return make([]float64, p), nil
	}

	acf := make([]float64, p+1)
	for k := 0; k <= p; k++ {
		acf[k] = autocorr(centered, k)
	}
	return levinsonDurbin(acf, p)
}

func autocorr(series []float64, lag int) float64 {
	if lag < 0 || lag >= len(series) {
		return 0
	}
	n := len(series)
	mean := meanOf(series)

	var c0, ck float64
	for i := 0; i < n; i++ {
		c0 += (series[i] - mean) * (series[i] - mean)
	}
	for i := 0; i < n-lag; i++ {
		ck += (series[i] - mean) * (series[i+lag] - mean)
	}
	if c0 == 0 {
		return 0
	}
	return ck / c0
}

func levinsonDurbin(acf []float64, p int) ([]float64, error) {
	phi := make([][]float64, p+1)
	for i := range phi {
		phi[i] = make([]float64, p+1)
	}

	v := acf[0]
	for k := 1; k <= p; k++ {
		num := acf[k]
		for j := 1; j < k; j++ {
			num -= phi[k-1][j] * acf[k-j]
		}
		if v == 0 {
			return nil, errors.New("numerical instability in Levinson-Durbin recursion")
		}
		phi[k][k] = num / v
		for j := 1; j < k; j++ {
			phi[k][j] = phi[k-1][j] - phi[k][k]*phi[k-1][k-j]
		}
		v *= 1 - phi[k][k]*phi[k][k]
		if v < 0 {
			return nil, errors.New("negative innovation variance in Levinson-Durbin recursion")
		}
	}

	coeffs := make([]float64, p)
	for i := 0; i < p; i++ {
		coeffs[i] = phi[p][i+1]
	}
	return coeffs, nil
}

// arResiduals computes the one-step AR prediction errors used to fit the MA
// component.
func arResiduals(centered, arCoeffs []float64, p int) []float64 {
	if len(centered) <= p {
		return []float64{}
	}
	residuals := make([]float64, len(centered)-p)
	for t := p; t < len(centered); t++ {
		var pred float64
		for i := 0; i < p && i < len(arCoeffs); i++ {
			pred += arCoeffs[i] * centered[t-1-i]
		}
		residuals[t-p] = centered[t] - pred
	}
	return residuals
}

// fitMA estimates MA coefficients from the residual autocorrelations, bounded
// into (-0.9, 0.9) to keep the recursion stable.
func fitMA(residuals []float64, q int) []float64 {
	coeffs := make([]float64, q)
	for i := 0; i < q && i < len(residuals); i++ {
		c := autocorr(residuals, i+1)
		if math.Abs(c) > 0.9 {
			c = math.Copysign(0.9, c)
		}
		coeffs[i] = c
	}
	return coeffs
}
