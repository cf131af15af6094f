package policy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novamart/demand-planner/internal/domain"
)

func validParams() Params {
	return Params{
		LeadTimeDays:       7,
		ServiceLevel:       0.95,
		Method:             domain.SafetyStockStatistical,
		OrderingCost:       50,
		HoldingCostPerUnit: 2,
	}
}

func TestStatisticalSafetyStock(t *testing.T) {
	stats := domain.DemandStatisticsRecord{MeanDailyDemand: 10, StdDevDailyDemand: 10}

	pol, err := NewCalculator().Compute(stats, validParams())
	require.NoError(t, err)

	// z(0.95) ~ 1.6449, so SS = 1.6449 * 10 * sqrt(7).
	assert.InDelta(t, 1.6449*10*math.Sqrt(7), pol.SafetyStock, 0.05)
	assert.InDelta(t, 70, pol.ExpectedLeadTimeDemand, 1e-9)
	assert.InDelta(t, 0.05, pol.StockoutProbability, 1e-9)
	assert.True(t, pol.StockoutCalibrated)
}

func TestReorderPointIdentity(t *testing.T) {
	stats := domain.DemandStatisticsRecord{MeanDailyDemand: 12.5, StdDevDailyDemand: 4.2}

	for _, method := range []domain.SafetyStockMethod{domain.SafetyStockStatistical, domain.SafetyStockPercentage} {
		params := validParams()
		params.Method = method

		pol, err := NewCalculator().Compute(stats, params)
		require.NoError(t, err)
		assert.InDelta(t, pol.ExpectedLeadTimeDemand+pol.SafetyStock, pol.ReorderPoint, 1e-9, "method %s", method)
	}
}

func TestPercentageSafetyStock(t *testing.T) {
	stats := domain.DemandStatisticsRecord{MeanDailyDemand: 10, StdDevDailyDemand: 10}
	params := validParams()
	params.Method = domain.SafetyStockPercentage

	pol, err := NewCalculator().Compute(stats, params)
	require.NoError(t, err)

	// Default 20% of the 70-unit expected lead-time demand.
	assert.InDelta(t, 14, pol.SafetyStock, 1e-9)
	assert.Equal(t, 0.0, pol.StockoutProbability)
	assert.False(t, pol.StockoutCalibrated, "percentage buffers carry no calibrated risk estimate")

	params.SafetyStockPct = 0.5
	pol, err = NewCalculator().Compute(stats, params)
	require.NoError(t, err)
	assert.InDelta(t, 35, pol.SafetyStock, 1e-9)
}

func TestEconomicOrderQuantity(t *testing.T) {
	stats := domain.DemandStatisticsRecord{MeanDailyDemand: 10}

	pol, err := NewCalculator().Compute(stats, validParams())
	require.NoError(t, err)

	// EOQ = sqrt(2 * 3650 * 50 / 2) = sqrt(182500).
	assert.InDelta(t, math.Sqrt(182500), pol.EconomicOrderQuantity, 1e-9)
}

func TestTurnoverAndCoverage(t *testing.T) {
	stats := domain.DemandStatisticsRecord{MeanDailyDemand: 10}
	params := validParams()
	params.OnHandQuantity = 100

	pol, err := NewCalculator().Compute(stats, params)
	require.NoError(t, err)
	assert.InDelta(t, 36.5, pol.TurnoverRate, 1e-9)
	assert.InDelta(t, 10, pol.CoverageDays, 1e-9)

	// Without on-hand stock there is nothing to turn over.
	params.OnHandQuantity = 0
	pol, err = NewCalculator().Compute(stats, params)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pol.TurnoverRate)
	assert.Equal(t, 0.0, pol.CoverageDays)
}

func TestNegativeInputsClampedWithWarning(t *testing.T) {
	stats := domain.DemandStatisticsRecord{MeanDailyDemand: -3, StdDevDailyDemand: 2}

	pol, err := NewCalculator().Compute(stats, validParams())
	require.NoError(t, err)
	assert.Equal(t, 0.0, pol.ExpectedLeadTimeDemand)
	assert.NotEmpty(t, pol.Warnings)
	assert.GreaterOrEqual(t, pol.ReorderPoint, 0.0)
}

func TestServiceLevelHigherMeansMoreBuffer(t *testing.T) {
	stats := domain.DemandStatisticsRecord{MeanDailyDemand: 10, StdDevDailyDemand: 5}

	low := validParams()
	low.ServiceLevel = 0.85
	high := validParams()
	high.ServiceLevel = 0.99

	polLow, err := NewCalculator().Compute(stats, low)
	require.NoError(t, err)
	polHigh, err := NewCalculator().Compute(stats, high)
	require.NoError(t, err)

	assert.Greater(t, polHigh.SafetyStock, polLow.SafetyStock)
	assert.Greater(t, polHigh.ReorderPoint, polLow.ReorderPoint)
}

func TestParamsValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero lead time", func(p *Params) { p.LeadTimeDays = 0 }},
		{"negative lead time", func(p *Params) { p.LeadTimeDays = -1 }},
		{"service level too low", func(p *Params) { p.ServiceLevel = 0.5 }},
		{"service level too high", func(p *Params) { p.ServiceLevel = 0.999 }},
		{"unknown method", func(p *Params) { p.Method = "gut_feeling" }},
		{"pct out of range", func(p *Params) { p.SafetyStockPct = 1.5 }},
		{"negative ordering cost", func(p *Params) { p.OrderingCost = -5 }},
		{"zero holding cost", func(p *Params) { p.HoldingCostPerUnit = 0 }},
		{"negative on hand", func(p *Params) { p.OnHandQuantity = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)
			err := params.Validate()
			require.Error(t, err)
			assert.True(t, domain.IsInvalidParameter(err))
		})
	}
}

func TestNormalQuantile(t *testing.T) {
	cases := map[float64]float64{
		0.50:  0,
		0.85:  1.0364,
		0.90:  1.2816,
		0.95:  1.6449,
		0.975: 1.9600,
		0.99:  2.3263,
	}
	for p, want := range cases {
		assert.InDelta(t, want, normalQuantile(p), 1e-3, "p=%v", p)
	}
}
