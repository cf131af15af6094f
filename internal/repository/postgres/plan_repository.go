package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/novamart/demand-planner/internal/domain"
	"github.com/novamart/demand-planner/internal/repository"
)

type planRepository struct {
	db *DB
}

// NewPlanRepository returns the Postgres-backed plan store. The full plan is
// kept as a JSONB payload; the headline policy figures are denormalized into
// columns for dashboard queries.
func NewPlanRepository(db *DB) repository.PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) SavePlan(ctx context.Context, plan domain.ProductPlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}

	query := `
		INSERT INTO product_plans (
			product_id, reorder_point, safety_stock, economic_order_quantity,
			service_level_target, lead_time_days, plan, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	_, err = r.db.ExecContext(ctx, query,
		plan.ProductID,
		plan.Policy.ReorderPoint,
		plan.Policy.SafetyStock,
		plan.Policy.EconomicOrderQuantity,
		plan.Policy.ServiceLevelTarget,
		plan.Policy.LeadTimeDays,
		payload,
	)
	if err != nil {
		return fmt.Errorf("error saving plan for %s: %w", plan.ProductID, err)
	}
	return nil
}

func (r *planRepository) GetLatestPlan(ctx context.Context, productID string) (*repository.StoredPlan, error) {
	query := `
		SELECT id, product_id, plan, created_at
		FROM product_plans
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var row struct {
		ID        int64        `db:"id"`
		ProductID string       `db:"product_id"`
		Plan      []byte       `db:"plan"`
		CreatedAt sql.NullTime `db:"created_at"`
	}
	if err := r.db.GetContext(ctx, &row, query, productID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting latest plan for %s: %w", productID, err)
	}

	stored := &repository.StoredPlan{ID: row.ID, ProductID: row.ProductID}
	if row.CreatedAt.Valid {
		stored.CreatedAt = row.CreatedAt.Time
	}
	if err := json.Unmarshal(row.Plan, &stored.Plan); err != nil {
		return nil, fmt.Errorf("error decoding stored plan for %s: %w", productID, err)
	}
	return stored, nil
}

func (r *planRepository) ListPlanProducts(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT DISTINCT product_id
		FROM product_plans
		ORDER BY product_id ASC
		LIMIT $1
	`

	var products []string
	if err := r.db.SelectContext(ctx, &products, query, limit); err != nil {
		return nil, fmt.Errorf("error listing plan products: %w", err)
	}
	return products, nil
}
