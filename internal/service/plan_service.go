package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/novamart/demand-planner/internal/cache"
	"github.com/novamart/demand-planner/internal/domain"
	"github.com/novamart/demand-planner/internal/planner"
	"github.com/novamart/demand-planner/internal/repository"
	"github.com/novamart/demand-planner/internal/stats"
	"github.com/novamart/demand-planner/internal/timeseries"
)

// PlanService wires the engine to its collaborators: the sales history store,
// the optional plan archive, and the memoizing cache. The engine itself is
// pure; everything stateful lives out here.
type PlanService struct {
	sales   repository.SalesRepository
	plans   repository.PlanRepository
	cache   cache.PlanCache
	planner *planner.Planner
	builder *timeseries.Builder
}

// NewPlanService creates a PlanService. plans may be nil when persistence is
// disabled; cacheImpl falls back to a noop cache when nil.
func NewPlanService(sales repository.SalesRepository, plans repository.PlanRepository, cacheImpl cache.PlanCache, p *planner.Planner) *PlanService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopPlanCache()
	}
	return &PlanService{
		sales:   sales,
		plans:   plans,
		cache:   cacheImpl,
		planner: p,
		builder: timeseries.NewBuilder(),
	}
}

// ComputePlan computes (or recalls) the plan for one product. Cache lookups
// key on a hash of the request and the product's sales rows, so a stale hit
// is impossible; cache failures degrade to recomputation.
func (s *PlanService) ComputePlan(ctx context.Context, req planner.Request) (*domain.ProductPlan, error) {
	records, err := s.sales.GetSalesRecords(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	key := cache.PlanKey(req, records, req.ProductID)
	if plan, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return plan, nil
	} else if err != nil {
		log.Warn().Err(err).Str("product", req.ProductID).Msg("plan cache get failed")
	}

	plan, err := s.planner.ComputeProductPlan(records, req)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, plan); err != nil {
		log.Warn().Err(err).Str("product", req.ProductID).Msg("plan cache set failed")
	}
	if s.plans != nil {
		if err := s.plans.SavePlan(ctx, plan); err != nil {
			log.Warn().Err(err).Str("product", req.ProductID).Msg("plan persistence failed")
		}
	}

	return &plan, nil
}

// ComputeAllPlans runs the batch pipeline over every product in the history.
// Per-product failures come back inside the batch result.
func (s *PlanService) ComputeAllPlans(ctx context.Context, base planner.Request) (planner.BatchResult, error) {
	records, err := s.sales.GetAllSalesRecords(ctx)
	if err != nil {
		return planner.BatchResult{}, err
	}
	products, err := s.sales.GetProducts(ctx)
	if err != nil {
		return planner.BatchResult{}, err
	}

	result, err := s.planner.ComputeBatch(ctx, records, products, base)
	if err != nil {
		return planner.BatchResult{}, err
	}

	if s.plans != nil {
		for _, plan := range result.Plans {
			if err := s.plans.SavePlan(ctx, plan); err != nil {
				log.Warn().Err(err).Str("product", plan.ProductID).Msg("plan persistence failed")
			}
		}
	}
	return result, nil
}

// LatestPlan returns the most recently persisted plan for a product, or nil
// when none has been stored (or persistence is disabled).
func (s *PlanService) LatestPlan(ctx context.Context, productID string) (*repository.StoredPlan, error) {
	if s.plans == nil {
		return nil, nil
	}
	return s.plans.GetLatestPlan(ctx, productID)
}

// PlannedProducts lists products that have at least one persisted plan.
func (s *PlanService) PlannedProducts(ctx context.Context, limit int) ([]string, error) {
	if s.plans == nil {
		return nil, nil
	}
	return s.plans.ListPlanProducts(ctx, limit)
}

// Products lists the product IDs present in the sales history.
func (s *PlanService) Products(ctx context.Context) ([]string, error) {
	return s.sales.GetProducts(ctx)
}

// Summary aggregates headline figures over the whole history.
func (s *PlanService) Summary(ctx context.Context) (domain.GlobalSummary, error) {
	records, err := s.sales.GetAllSalesRecords(ctx)
	if err != nil {
		return domain.GlobalSummary{}, err
	}
	return stats.GlobalSummary(records), nil
}

// ProductSummary returns the per-product descriptive statistics.
func (s *PlanService) ProductSummary(ctx context.Context, productID string) (domain.ProductSummary, error) {
	records, err := s.sales.GetSalesRecords(ctx, productID)
	if err != nil {
		return domain.ProductSummary{}, err
	}
	series, err := s.builder.Build(records, productID)
	if err != nil {
		return domain.ProductSummary{}, err
	}
	return stats.ProductSummary(series), nil
}

// IngestRecords stores freshly ingested sales rows.
func (s *PlanService) IngestRecords(ctx context.Context, records []domain.SalesRecord) error {
	return s.sales.InsertSalesRecords(ctx, records)
}
