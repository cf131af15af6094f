package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novamart/demand-planner/internal/domain"
	"github.com/novamart/demand-planner/internal/planner"
	"github.com/novamart/demand-planner/internal/repository"
)

// memorySales is an in-memory SalesRepository for tests.
type memorySales struct {
	mu      sync.Mutex
	records []domain.SalesRecord
}

func (m *memorySales) GetSalesRecords(_ context.Context, productID string) ([]domain.SalesRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SalesRecord
	for _, r := range m.records {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memorySales) GetAllSalesRecords(context.Context) ([]domain.SalesRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SalesRecord(nil), m.records...), nil
}

func (m *memorySales) GetProducts(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{})
	var out []string
	for _, r := range m.records {
		if _, ok := seen[r.ProductID]; !ok {
			seen[r.ProductID] = struct{}{}
			out = append(out, r.ProductID)
		}
	}
	return out, nil
}

func (m *memorySales) InsertSalesRecords(_ context.Context, records []domain.SalesRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

// memoryPlans records saved plans.
type memoryPlans struct {
	mu    sync.Mutex
	saved []domain.ProductPlan
}

func (m *memoryPlans) SavePlan(_ context.Context, plan domain.ProductPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, plan)
	return nil
}

func (m *memoryPlans) GetLatestPlan(_ context.Context, productID string) (*repository.StoredPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].ProductID == productID {
			return &repository.StoredPlan{
				ID:        int64(i + 1),
				ProductID: productID,
				Plan:      m.saved[i],
			}, nil
		}
	}
	return nil, nil
}

func (m *memoryPlans) ListPlanProducts(_ context.Context, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{})
	var out []string
	for _, p := range m.saved {
		if _, ok := seen[p.ProductID]; ok {
			continue
		}
		seen[p.ProductID] = struct{}{}
		out = append(out, p.ProductID)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func seedSales(productID string, n int) []domain.SalesRecord {
	shape := []int{10, 12, 11, 14, 18, 30, 26}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]domain.SalesRecord, n)
	for i := range records {
		records[i] = domain.SalesRecord{
			Date:      start.AddDate(0, 0, i),
			ProductID: productID,
			Quantity:  shape[i%7],
		}
	}
	return records
}

func testRequest(productID string) planner.Request {
	return planner.Request{
		ProductID:          productID,
		HorizonDays:        14,
		LeadTimeDays:       7,
		ServiceLevel:       0.95,
		SafetyStockMethod:  domain.SafetyStockStatistical,
		OrderingCost:       50,
		HoldingCostPerUnit: 2,
	}
}

func newTestService(sales *memorySales, plans *memoryPlans) *PlanService {
	var planRepo repository.PlanRepository
	if plans != nil {
		planRepo = plans
	}
	return NewPlanService(sales, planRepo, nil, planner.New(2))
}

func TestComputePlanPersists(t *testing.T) {
	sales := &memorySales{records: seedSales("SKU-1", 70)}
	plans := &memoryPlans{}
	svc := newTestService(sales, plans)

	plan, err := svc.ComputePlan(context.Background(), testRequest("SKU-1"))
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, "SKU-1", plan.ProductID)

	require.Len(t, plans.saved, 1)
	assert.Equal(t, *plan, plans.saved[0])
}

func TestComputePlanWithoutPersistence(t *testing.T) {
	sales := &memorySales{records: seedSales("SKU-1", 70)}
	svc := newTestService(sales, nil)

	plan, err := svc.ComputePlan(context.Background(), testRequest("SKU-1"))
	require.NoError(t, err)
	assert.NotNil(t, plan)
}

func TestComputePlanMissingProduct(t *testing.T) {
	svc := newTestService(&memorySales{}, nil)

	_, err := svc.ComputePlan(context.Background(), testRequest("SKU-404"))
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientData(err))
}

func TestComputeAllPlans(t *testing.T) {
	sales := &memorySales{records: append(seedSales("SKU-1", 70), seedSales("SKU-2", 3)...)}
	plans := &memoryPlans{}
	svc := newTestService(sales, plans)

	result, err := svc.ComputeAllPlans(context.Background(), testRequest(""))
	require.NoError(t, err)

	require.Len(t, result.Plans, 1)
	assert.Equal(t, "SKU-1", result.Plans[0].ProductID)
	assert.Contains(t, result.Failures, "SKU-2")
	assert.Len(t, plans.saved, 1)
}

func TestSummaryAndProducts(t *testing.T) {
	sales := &memorySales{records: append(seedSales("SKU-1", 30), seedSales("SKU-2", 30)...)}
	svc := newTestService(sales, nil)

	products, err := svc.Products(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"SKU-1", "SKU-2"}, products)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ProductCount)
	assert.Equal(t, 30, summary.DistinctDays)
	assert.Greater(t, summary.TotalSales, 0.0)
}

func TestProductSummary(t *testing.T) {
	sales := &memorySales{records: seedSales("SKU-1", 30)}
	svc := newTestService(sales, nil)

	summary, err := svc.ProductSummary(context.Background(), "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", summary.ProductID)
	assert.Greater(t, summary.AvgDailySales, 0.0)

	_, err = svc.ProductSummary(context.Background(), "SKU-404")
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientData(err))
}

func TestLatestPlanReturnsMostRecent(t *testing.T) {
	sales := &memorySales{records: seedSales("SKU-1", 70)}
	plans := &memoryPlans{}
	svc := newTestService(sales, plans)

	req := testRequest("SKU-1")
	_, err := svc.ComputePlan(context.Background(), req)
	require.NoError(t, err)

	req.HorizonDays = 28
	second, err := svc.ComputePlan(context.Background(), req)
	require.NoError(t, err)

	stored, err := svc.LatestPlan(context.Background(), "SKU-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "SKU-1", stored.ProductID)
	assert.Equal(t, *second, stored.Plan)
	require.NotNil(t, stored.Plan.Backends[0].Forecast)
	assert.Equal(t, 28, stored.Plan.Backends[0].Forecast.HorizonLength)
}

func TestLatestPlanUnknownProduct(t *testing.T) {
	svc := newTestService(&memorySales{}, &memoryPlans{})

	stored, err := svc.LatestPlan(context.Background(), "SKU-404")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestLatestPlanWithoutStore(t *testing.T) {
	svc := newTestService(&memorySales{}, nil)

	stored, err := svc.LatestPlan(context.Background(), "SKU-1")
	require.NoError(t, err)
	assert.Nil(t, stored)

	products, err := svc.PlannedProducts(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestPlannedProducts(t *testing.T) {
	sales := &memorySales{records: append(seedSales("SKU-1", 70), seedSales("SKU-2", 70)...)}
	plans := &memoryPlans{}
	svc := newTestService(sales, plans)

	_, err := svc.ComputeAllPlans(context.Background(), testRequest(""))
	require.NoError(t, err)

	products, err := svc.PlannedProducts(context.Background(), 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"SKU-1", "SKU-2"}, products)

	products, err = svc.PlannedProducts(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestIngestRecordsFeedsPlanning(t *testing.T) {
	sales := &memorySales{}
	svc := newTestService(sales, nil)

	require.NoError(t, svc.IngestRecords(context.Background(), seedSales("SKU-9", 40)))

	plan, err := svc.ComputePlan(context.Background(), testRequest("SKU-9"))
	require.NoError(t, err)
	assert.Equal(t, "SKU-9", plan.ProductID)
}
