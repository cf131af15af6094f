package domain

import "time"

// ModelVariant identifies a forecasting backend.
type ModelVariant string

const (
	ModelSeasonalAdditive ModelVariant = "seasonal_additive"
	ModelAutoregressive   ModelVariant = "autoregressive"
)

// Variants lists every forecasting backend in the order plans report them.
func Variants() []ModelVariant {
	return []ModelVariant{ModelSeasonalAdditive, ModelAutoregressive}
}

// SafetyStockMethod selects how safety stock is sized.
type SafetyStockMethod string

const (
	SafetyStockStatistical SafetyStockMethod = "statistical"
	SafetyStockPercentage  SafetyStockMethod = "percentage"
)

// SalesRecord is one observed transaction row for a product on a day.
// Quantity is a non-negative unit count; UnitPrice is optional (zero when absent).
type SalesRecord struct {
	Date      time.Time `json:"date" db:"date"`
	ProductID string    `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	UnitPrice float64   `json:"unit_price" db:"unit_price"`
	Category  string    `json:"category,omitempty" db:"category"`
}

// DemandPoint is one day of demand in a gap-free series.
type DemandPoint struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
}

// DailyDemandSeries is a contiguous, ascending daily demand series for one
// product. Days with no recorded sale carry quantity 0: absence means
// "no sale", not "missing observation".
type DailyDemandSeries struct {
	ProductID string        `json:"product_id"`
	Points    []DemandPoint `json:"points"`
}

// Len returns the number of days covered by the series.
func (s DailyDemandSeries) Len() int { return len(s.Points) }

// Quantities returns the demand values in date order.
func (s DailyDemandSeries) Quantities() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Quantity
	}
	return out
}

// LastDate returns the final observed date, or the zero time for an empty series.
func (s DailyDemandSeries) LastDate() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Date
}

// ForecastPoint is a point estimate with its uncertainty interval for one
// future day. Invariant: 0 <= LowerBound <= PointEstimate <= UpperBound.
type ForecastPoint struct {
	Date          time.Time `json:"date"`
	PointEstimate float64   `json:"point_estimate"`
	LowerBound    float64   `json:"lower_bound"`
	UpperBound    float64   `json:"upper_bound"`
}

// ForecastResult is the output of one backend over one horizon.
type ForecastResult struct {
	ModelVariant  ModelVariant    `json:"model_variant"`
	HorizonLength int             `json:"horizon_length"`
	Points        []ForecastPoint `json:"points"`
}

// AccuracyMetrics scores one backend against a held-out suffix of real history.
type AccuracyMetrics struct {
	ModelVariant          ModelVariant `json:"model_variant"`
	MAPE                  float64      `json:"mape"`
	RMSE                  float64      `json:"rmse"`
	EvaluatedWindowLength int          `json:"evaluated_window_length"`
}

// DemandStatisticsRecord summarizes a demand series for policy calculations.
// Mean and standard deviation are population statistics over the full
// zero-filled series.
type DemandStatisticsRecord struct {
	MeanDailyDemand     float64 `json:"mean_daily_demand"`
	StdDevDailyDemand   float64 `json:"std_dev_daily_demand"`
	TrendSlope          float64 `json:"trend_slope"`
	SeasonalityStrength float64 `json:"seasonality_strength"`
}

// InventoryPolicy holds the derived inventory-control parameters for one
// product. Invariant: ReorderPoint == ExpectedLeadTimeDemand + SafetyStock.
type InventoryPolicy struct {
	ReorderPoint           float64           `json:"reorder_point" db:"reorder_point"`
	SafetyStock            float64           `json:"safety_stock" db:"safety_stock"`
	EconomicOrderQuantity  float64           `json:"economic_order_quantity" db:"economic_order_quantity"`
	StockoutProbability    float64           `json:"stockout_probability" db:"stockout_probability"`
	StockoutCalibrated     bool              `json:"stockout_calibrated" db:"stockout_calibrated"`
	ServiceLevelTarget     float64           `json:"service_level_target" db:"service_level_target"`
	LeadTimeDays           float64           `json:"lead_time_days" db:"lead_time_days"`
	SafetyStockMethod      SafetyStockMethod `json:"safety_stock_method" db:"safety_stock_method"`
	ExpectedLeadTimeDemand float64           `json:"expected_lead_time_demand" db:"expected_lead_time_demand"`
	TurnoverRate           float64           `json:"turnover_rate" db:"turnover_rate"`
	CoverageDays           float64           `json:"coverage_days" db:"coverage_days"`
	Warnings               []string          `json:"warnings,omitempty" db:"-"`
}

// BackendOutcome carries either a forecast (with optional accuracy metrics)
// or the failure that produced neither. Accuracy may be nil even on success
// when the hold-out window could not be formed.
type BackendOutcome struct {
	Variant  ModelVariant     `json:"variant"`
	Forecast *ForecastResult  `json:"forecast,omitempty"`
	Accuracy *AccuracyMetrics `json:"accuracy,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// ProductPlan is the full engine output for one product and one request.
// It carries no timestamps or other nondeterministic fields: identical inputs
// produce identical plans, which is what makes external memoization safe.
type ProductPlan struct {
	ProductID  string                 `json:"product_id"`
	Backends   []BackendOutcome       `json:"backends"`
	Statistics DemandStatisticsRecord `json:"statistics"`
	Policy     InventoryPolicy        `json:"policy"`
}

// GlobalSummary aggregates headline figures across the whole sales history.
type GlobalSummary struct {
	TotalSales    float64        `json:"total_sales"`
	AvgDailySales float64        `json:"avg_daily_sales"`
	TopProducts   []ProductTotal `json:"top_products"`
	GrowthRatePct float64        `json:"growth_rate_pct"`
	DistinctDays  int            `json:"distinct_days"`
	ProductCount  int            `json:"product_count"`
}

// ProductTotal pairs a product with its total sold quantity.
type ProductTotal struct {
	ProductID string  `json:"product_id"`
	Total     float64 `json:"total"`
}

// ProductSummary holds the per-product descriptive statistics shown alongside
// a plan.
type ProductSummary struct {
	ProductID     string  `json:"product_id"`
	TotalSales    float64 `json:"total_sales"`
	AvgDailySales float64 `json:"avg_daily_sales"`
	StdDailySales float64 `json:"std_daily_sales"`
	TrendSlope    float64 `json:"trend_slope"`
	VolatilityPct float64 `json:"volatility_pct"`
}
