package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novamart/demand-planner/internal/domain"
)

func samplePlan() domain.ProductPlan {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return domain.ProductPlan{
		ProductID: "SKU-1",
		Backends: []domain.BackendOutcome{
			{
				Variant: domain.ModelSeasonalAdditive,
				Forecast: &domain.ForecastResult{
					ModelVariant:  domain.ModelSeasonalAdditive,
					HorizonLength: 2,
					Points: []domain.ForecastPoint{
						{Date: start, PointEstimate: 10, LowerBound: 8, UpperBound: 12},
						{Date: start.AddDate(0, 0, 1), PointEstimate: 11, LowerBound: 8, UpperBound: 14},
					},
				},
				Accuracy: &domain.AccuracyMetrics{ModelVariant: domain.ModelSeasonalAdditive, MAPE: 12.5, RMSE: 3.1, EvaluatedWindowLength: 30},
			},
			{
				Variant: domain.ModelAutoregressive,
				Error:   "series is constant zero",
			},
		},
		Statistics: domain.DemandStatisticsRecord{MeanDailyDemand: 9.5, StdDevDailyDemand: 2.5},
		Policy: domain.InventoryPolicy{
			ReorderPoint:          80,
			SafetyStock:           13.5,
			EconomicOrderQuantity: 416,
			ServiceLevelTarget:    0.95,
			Warnings:              []string{"mean_daily_demand was negative (-1.0000), clamped to 0"},
		},
	}
}

func TestPlanReport(t *testing.T) {
	data, err := PlanReport([]domain.ProductPlan{samplePlan()})
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	header := rows[0]
	assert.Equal(t, "product_id", header[0])
	assert.Contains(t, header, "reorder_point")
	assert.Contains(t, header, "best_model")

	row := rows[1]
	assert.Equal(t, "SKU-1", row[0])
	assert.Equal(t, "80.0000", row[5])
	// The failed autoregressive backend never competes for best model.
	assert.Equal(t, "seasonal_additive", row[13])
	assert.Equal(t, "12.5000", row[14])
	assert.Contains(t, row[15], "clamped to 0")
}

func TestPlanReportNoAccuracy(t *testing.T) {
	plan := samplePlan()
	plan.Backends[0].Accuracy = nil

	data, err := PlanReport([]domain.ProductPlan{plan})
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "", rows[1][13])
	assert.Equal(t, "", rows[1][14])
}

func TestForecastReportSkipsFailedBackends(t *testing.T) {
	data, err := ForecastReport(samplePlan())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	// Header plus two points from the seasonal backend only.
	require.Len(t, rows, 3)
	assert.Equal(t, "seasonal_additive", rows[1][1])
	assert.Equal(t, "2025-06-01", rows[1][2])
	assert.Equal(t, "10.0000", rows[1][3])
}
