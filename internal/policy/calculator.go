// Package policy converts demand statistics into inventory-control
// parameters: reorder point, safety stock, EOQ, stockout risk and coverage.
package policy

import (
	"fmt"
	"math"

	"github.com/novamart/demand-planner/internal/domain"
)

// Service level bounds accepted by the calculator. The upper bound keeps the
// normal quantile away from its asymptote.
const (
	MinServiceLevel = 0.85
	MaxServiceLevel = 0.99
)

// DefaultSafetyStockPct sizes the percentage-method buffer as a share of
// expected lead-time demand.
const DefaultSafetyStockPct = 0.20

// Params are the caller-supplied inputs to a policy computation.
type Params struct {
	LeadTimeDays       float64
	ServiceLevel       float64
	Method             domain.SafetyStockMethod
	SafetyStockPct     float64 // used by the percentage method; default 0.20
	OrderingCost       float64
	HoldingCostPerUnit float64
	OnHandQuantity     float64 // average on-hand inventory, for turnover/coverage
}

// Validate rejects out-of-range parameters before any computation starts.
func (p Params) Validate() error {
	if p.LeadTimeDays <= 0 {
		return &domain.InvalidParameterError{Param: "lead_time_days", Reason: "must be positive"}
	}
	if p.ServiceLevel < MinServiceLevel || p.ServiceLevel > MaxServiceLevel {
		return &domain.InvalidParameterError{
			Param:  "service_level",
			Reason: fmt.Sprintf("must be between %.2f and %.2f", MinServiceLevel, MaxServiceLevel),
		}
	}
	switch p.Method {
	case domain.SafetyStockStatistical, domain.SafetyStockPercentage:
	default:
		return &domain.InvalidParameterError{Param: "safety_stock_method", Reason: "must be statistical or percentage"}
	}
	if p.SafetyStockPct < 0 || p.SafetyStockPct > 1 {
		return &domain.InvalidParameterError{Param: "safety_stock_pct", Reason: "must be in [0,1]"}
	}
	if p.OrderingCost < 0 {
		return &domain.InvalidParameterError{Param: "ordering_cost", Reason: "must be non-negative"}
	}
	if p.HoldingCostPerUnit <= 0 {
		return &domain.InvalidParameterError{Param: "holding_cost_per_unit", Reason: "must be positive"}
	}
	if p.OnHandQuantity < 0 {
		return &domain.InvalidParameterError{Param: "on_hand_quantity", Reason: "must be non-negative"}
	}
	return nil
}

// Calculator derives inventory policies from demand statistics.
type Calculator struct{}

// NewCalculator returns a policy calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute derives the full inventory policy. The statistical safety stock
// assumes lead-time demand is approximately normal; that is a modeling
// assumption, not a guarantee. The reorder-point identity
// ROP == expected lead-time demand + safety stock holds exactly.
// Negative derived values are clamped to zero and the clamp is recorded as a
// warning on the policy, never silently dropped.
func (c *Calculator) Compute(stats domain.DemandStatisticsRecord, params Params) (domain.InventoryPolicy, error) {
	if err := params.Validate(); err != nil {
		return domain.InventoryPolicy{}, err
	}

	var warnings []string
	clamp := func(name string, v float64) float64 {
		if v < 0 {
			warnings = append(warnings, fmt.Sprintf("%s was negative (%.4f), clamped to 0", name, v))
			return 0
		}
		return v
	}

	meanDemand := clamp("mean_daily_demand", stats.MeanDailyDemand)
	expectedLeadTimeDemand := meanDemand * params.LeadTimeDays

	pct := params.SafetyStockPct
	if pct == 0 {
		pct = DefaultSafetyStockPct
	}

	var safetyStock float64
	var stockoutProb float64
	var calibrated bool
	switch params.Method {
	case domain.SafetyStockStatistical:
		z := normalQuantile(params.ServiceLevel)
		safetyStock = z * stats.StdDevDailyDemand * math.Sqrt(params.LeadTimeDays)
		// The stockout probability is the complement of the service level
		// the buffer was sized for, reported for transparency.
		stockoutProb = 1 - params.ServiceLevel
		calibrated = true
	case domain.SafetyStockPercentage:
		safetyStock = pct * expectedLeadTimeDemand
		// The percentage method carries no distributional claim, so the
		// reported risk is not statistically calibrated.
		stockoutProb = 0
		calibrated = false
	}
	safetyStock = clamp("safety_stock", safetyStock)

	reorderPoint := expectedLeadTimeDemand + safetyStock

	annualDemand := meanDemand * 365
	eoq := math.Sqrt(2 * annualDemand * params.OrderingCost / params.HoldingCostPerUnit)

	var turnover, coverage float64
	if params.OnHandQuantity > 0 {
		turnover = annualDemand / params.OnHandQuantity
		if meanDemand > 0 {
			coverage = params.OnHandQuantity / meanDemand
		}
	}

	return domain.InventoryPolicy{
		ReorderPoint:           reorderPoint,
		SafetyStock:            safetyStock,
		EconomicOrderQuantity:  eoq,
		StockoutProbability:    stockoutProb,
		StockoutCalibrated:     calibrated,
		ServiceLevelTarget:     params.ServiceLevel,
		LeadTimeDays:           params.LeadTimeDays,
		SafetyStockMethod:      params.Method,
		ExpectedLeadTimeDemand: expectedLeadTimeDemand,
		TurnoverRate:           turnover,
		CoverageDays:           coverage,
		Warnings:               warnings,
	}, nil
}
