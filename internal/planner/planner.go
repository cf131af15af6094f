// Package planner composes the engine: series building, both forecasting
// backends, accuracy evaluation, demand statistics and the inventory policy,
// one product per call. It is the only entry point the API and CLI layers use.
package planner

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/novamart/demand-planner/internal/domain"
	"github.com/novamart/demand-planner/internal/forecast"
	"github.com/novamart/demand-planner/internal/policy"
	"github.com/novamart/demand-planner/internal/stats"
	"github.com/novamart/demand-planner/internal/timeseries"
)

// Request carries everything one plan computation needs beyond the sales
// history itself.
type Request struct {
	ProductID          string                   `json:"product_id"`
	HorizonDays        int                      `json:"horizon_days"`
	LeadTimeDays       float64                  `json:"lead_time_days"`
	ServiceLevel       float64                  `json:"service_level"`
	SafetyStockMethod  domain.SafetyStockMethod `json:"safety_stock_method"`
	SafetyStockPct     float64                  `json:"safety_stock_pct,omitempty"`
	OrderingCost       float64                  `json:"ordering_cost"`
	HoldingCostPerUnit float64                  `json:"holding_cost_per_unit"`
	OnHandQuantity     float64                  `json:"on_hand_quantity,omitempty"`

	// Model hyperparameters. Zero values select the defaults.
	SeasonalPeriod int    `json:"seasonal_period,omitempty"`
	AROrder        [3]int `json:"ar_order,omitempty"`
}

func (r Request) policyParams() policy.Params {
	return policy.Params{
		LeadTimeDays:       r.LeadTimeDays,
		ServiceLevel:       r.ServiceLevel,
		Method:             r.SafetyStockMethod,
		SafetyStockPct:     r.SafetyStockPct,
		OrderingCost:       r.OrderingCost,
		HoldingCostPerUnit: r.HoldingCostPerUnit,
		OnHandQuantity:     r.OnHandQuantity,
	}
}

// Validate rejects an out-of-range request before any computation starts.
// Nothing is silently clamped here.
func (r Request) Validate() error {
	if r.HorizonDays < forecast.MinHorizonDays || r.HorizonDays > forecast.MaxHorizonDays {
		return &domain.InvalidParameterError{Param: "horizon_days", Reason: "must be between 7 and 90"}
	}
	if r.SeasonalPeriod != 0 {
		switch r.SeasonalPeriod {
		case 7, 14, 28, 30, 365:
		default:
			return &domain.InvalidParameterError{Param: "seasonal_period", Reason: "must be one of 7, 14, 28, 30, 365"}
		}
	}
	if o := r.AROrder; o != [3]int{} {
		if o[0] < 0 || o[0] > 5 || o[1] < 0 || o[1] > 2 || o[2] < 0 || o[2] > 5 {
			return &domain.InvalidParameterError{Param: "ar_order", Reason: "orders must satisfy p,q in [0,5] and d in [0,2]"}
		}
	}
	return r.policyParams().Validate()
}

func (r Request) backends() []forecast.Backend {
	seasonalCfg := forecast.DefaultSeasonalConfig()
	if r.SeasonalPeriod != 0 {
		seasonalCfg.SeasonalPeriod = r.SeasonalPeriod
	}
	arCfg := forecast.DefaultARConfig()
	if r.AROrder != [3]int{} {
		arCfg.P, arCfg.D, arCfg.Q = r.AROrder[0], r.AROrder[1], r.AROrder[2]
	}
	return []forecast.Backend{
		forecast.NewSeasonalAdditive(seasonalCfg),
		forecast.NewAutoregressive(arCfg),
	}
}

// BatchResult aggregates per-product outcomes of a batch run. Failures carry
// the per-product error text; one product's failure never aborts the rest.
type BatchResult struct {
	Plans    []domain.ProductPlan `json:"plans"`
	Failures map[string]string    `json:"failures,omitempty"`
}

// Planner is the orchestrator. It is stateless apart from its collaborators,
// side-effect free, and therefore safe behind any memoizing cache.
type Planner struct {
	builder    *timeseries.Builder
	evaluator  *forecast.Evaluator
	calculator *policy.Calculator
	workers    int
}

// New creates a Planner. workers bounds batch fan-out; values below 1 mean
// sequential.
func New(workers int) *Planner {
	if workers < 1 {
		workers = 1
	}
	return &Planner{
		builder:    timeseries.NewBuilder(),
		evaluator:  forecast.NewEvaluator(),
		calculator: policy.NewCalculator(),
		workers:    workers,
	}
}

// ComputeProductPlan runs the full pipeline for one product. Per-backend
// failures are isolated: a backend that cannot fit is reported absent on the
// plan while the other backend's forecast still comes back.
func (p *Planner) ComputeProductPlan(records []domain.SalesRecord, req Request) (domain.ProductPlan, error) {
	if err := req.Validate(); err != nil {
		return domain.ProductPlan{}, err
	}

	series, err := p.builder.Build(records, req.ProductID)
	if err != nil {
		return domain.ProductPlan{}, err
	}

	outcomes := make([]domain.BackendOutcome, 0, 2)
	for _, backend := range req.backends() {
		outcomes = append(outcomes, p.runBackend(series, backend, req.HorizonDays))
	}

	statistics := stats.Summarize(series)
	pol, err := p.calculator.Compute(statistics, req.policyParams())
	if err != nil {
		return domain.ProductPlan{}, err
	}

	return domain.ProductPlan{
		ProductID:  req.ProductID,
		Backends:   outcomes,
		Statistics: statistics,
		Policy:     pol,
	}, nil
}

func (p *Planner) runBackend(series domain.DailyDemandSeries, backend forecast.Backend, horizon int) domain.BackendOutcome {
	outcome := domain.BackendOutcome{Variant: backend.Variant()}

	result, err := backend.FitAndForecast(series, horizon)
	if err != nil {
		log.Debug().
			Str("product", series.ProductID).
			Str("variant", string(backend.Variant())).
			Err(err).
			Msg("backend failed to fit")
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Forecast = &result

	metrics, err := p.evaluator.Evaluate(series, backend)
	if err != nil {
		// A fit failure on the shortened training prefix leaves accuracy
		// "not available"; the full-series forecast above still stands.
		log.Debug().
			Str("product", series.ProductID).
			Str("variant", string(backend.Variant())).
			Err(err).
			Msg("accuracy evaluation skipped")
		return outcome
	}
	outcome.Accuracy = metrics
	return outcome
}

// ComputeBatch computes plans for every product in products, fanning out
// across the planner's worker budget. Output ordering is deterministic
// regardless of scheduling: plans come back sorted by product ID.
func (p *Planner) ComputeBatch(ctx context.Context, records []domain.SalesRecord, products []string, base Request) (BatchResult, error) {
	if err := base.Validate(); err != nil {
		return BatchResult{}, err
	}

	var (
		mu       sync.Mutex
		plans    []domain.ProductPlan
		failures = make(map[string]string)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, productID := range products {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			req := base
			req.ProductID = productID
			plan, err := p.ComputeProductPlan(records, req)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[productID] = err.Error()
				return nil
			}
			plans = append(plans, plan)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	sort.Slice(plans, func(i, j int) bool { return plans[i].ProductID < plans[j].ProductID })
	return BatchResult{Plans: plans, Failures: failures}, nil
}
