package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/novamart/demand-planner/internal/domain"
	"github.com/novamart/demand-planner/internal/storage"
)

// PlanReport renders one CSV row per product plan: the inventory policy plus
// the best available accuracy score. Column order is stable so downstream
// spreadsheets can rely on it.
func PlanReport(plans []domain.ProductPlan) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"product_id",
		"mean_daily_demand",
		"std_dev_daily_demand",
		"trend_slope",
		"seasonality_strength",
		"reorder_point",
		"safety_stock",
		"economic_order_quantity",
		"stockout_probability",
		"service_level_target",
		"lead_time_days",
		"turnover_rate",
		"coverage_days",
		"best_model",
		"best_mape",
		"warnings",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed writing report header: %w", err)
	}

	for _, plan := range plans {
		bestModel, bestMAPE := bestBackend(plan)
		row := []string{
			plan.ProductID,
			formatFloat(plan.Statistics.MeanDailyDemand),
			formatFloat(plan.Statistics.StdDevDailyDemand),
			formatFloat(plan.Statistics.TrendSlope),
			formatFloat(plan.Statistics.SeasonalityStrength),
			formatFloat(plan.Policy.ReorderPoint),
			formatFloat(plan.Policy.SafetyStock),
			formatFloat(plan.Policy.EconomicOrderQuantity),
			formatFloat(plan.Policy.StockoutProbability),
			formatFloat(plan.Policy.ServiceLevelTarget),
			formatFloat(plan.Policy.LeadTimeDays),
			formatFloat(plan.Policy.TurnoverRate),
			formatFloat(plan.Policy.CoverageDays),
			bestModel,
			bestMAPE,
			joinWarnings(plan.Policy.Warnings),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed writing report row for %s: %w", plan.ProductID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed flushing report: %w", err)
	}
	return buf.Bytes(), nil
}

// ForecastReport renders the daily forecast points of every successful
// backend in one plan, one row per (model, day).
func ForecastReport(plan domain.ProductPlan) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"product_id", "model", "date", "point_estimate", "lower_bound", "upper_bound"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed writing forecast header: %w", err)
	}

	for _, outcome := range plan.Backends {
		if outcome.Forecast == nil {
			continue
		}
		for _, point := range outcome.Forecast.Points {
			row := []string{
				plan.ProductID,
				string(outcome.Variant),
				point.Date.Format("2006-01-02"),
				formatFloat(point.PointEstimate),
				formatFloat(point.LowerBound),
				formatFloat(point.UpperBound),
			}
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("failed writing forecast row for %s: %w", plan.ProductID, err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed flushing forecast report: %w", err)
	}
	return buf.Bytes(), nil
}

// Uploader pushes rendered reports to object storage under a dated key.
type Uploader struct {
	store storage.ObjectStorage
}

func NewUploader(store storage.ObjectStorage) *Uploader {
	return &Uploader{store: store}
}

// UploadPlanReport renders and uploads the plan report, returning the object
// key it was stored under.
func (u *Uploader) UploadPlanReport(ctx context.Context, prefix string, plans []domain.ProductPlan) (string, error) {
	data, err := PlanReport(plans)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/plans_%s.csv", prefix, time.Now().UTC().Format("20060102T150405Z"))
	if err := u.store.UploadObject(ctx, key, data); err != nil {
		return "", err
	}
	log.Info().Str("key", key).Int("products", len(plans)).Msg("Uploaded plan report")
	return key, nil
}

func bestBackend(plan domain.ProductPlan) (model string, mape string) {
	best := -1.0
	for _, outcome := range plan.Backends {
		if outcome.Accuracy == nil {
			continue
		}
		if best < 0 || outcome.Accuracy.MAPE < best {
			best = outcome.Accuracy.MAPE
			model = string(outcome.Variant)
		}
	}
	if best < 0 {
		return "", ""
	}
	return model, formatFloat(best)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func joinWarnings(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	var buf bytes.Buffer
	for i, warning := range warnings {
		if i > 0 {
			buf.WriteString("; ")
		}
		buf.WriteString(warning)
	}
	return buf.String()
}
