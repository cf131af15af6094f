package repository

import (
	"context"
	"time"

	"github.com/novamart/demand-planner/internal/domain"
)

// SalesRepository provides access to the raw sales history.
type SalesRepository interface {
	GetSalesRecords(ctx context.Context, productID string) ([]domain.SalesRecord, error)
	GetAllSalesRecords(ctx context.Context) ([]domain.SalesRecord, error)
	GetProducts(ctx context.Context) ([]string, error)
	InsertSalesRecords(ctx context.Context, records []domain.SalesRecord) error
}

// StoredPlan is a persisted plan with its storage metadata.
type StoredPlan struct {
	ID        int64              `json:"id" db:"id"`
	ProductID string             `json:"product_id" db:"product_id"`
	Plan      domain.ProductPlan `json:"plan" db:"-"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
}

// PlanRepository persists computed plans for later retrieval.
type PlanRepository interface {
	SavePlan(ctx context.Context, plan domain.ProductPlan) error
	GetLatestPlan(ctx context.Context, productID string) (*StoredPlan, error)
	ListPlanProducts(ctx context.Context, limit int) ([]string, error)
}
