package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/novamart/demand-planner/internal/domain"
	"github.com/novamart/demand-planner/internal/repository"
)

type salesRepository struct {
	db *DB
}

// NewSalesRepository returns the Postgres-backed sales history store.
func NewSalesRepository(db *DB) repository.SalesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) GetSalesRecords(ctx context.Context, productID string) ([]domain.SalesRecord, error) {
	query := `
		SELECT date, product_id, quantity, unit_price, COALESCE(category, '') AS category
		FROM sales_records
		WHERE product_id = $1
		ORDER BY date ASC
	`

	var records []domain.SalesRecord
	if err := r.db.SelectContext(ctx, &records, query, productID); err != nil {
		return nil, fmt.Errorf("error getting sales records for %s: %w", productID, err)
	}
	return records, nil
}

func (r *salesRepository) GetAllSalesRecords(ctx context.Context) ([]domain.SalesRecord, error) {
	query := `
		SELECT date, product_id, quantity, unit_price, COALESCE(category, '') AS category
		FROM sales_records
		ORDER BY date ASC, product_id ASC
	`

	var records []domain.SalesRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("error getting sales records: %w", err)
	}
	return records, nil
}

func (r *salesRepository) GetProducts(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT product_id
		FROM sales_records
		ORDER BY product_id ASC
	`

	var products []string
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("error getting products: %w", err)
	}
	return products, nil
}

func (r *salesRepository) InsertSalesRecords(ctx context.Context, records []domain.SalesRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO sales_records (date, product_id, quantity, unit_price, category)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (date, product_id)
			DO UPDATE SET
				quantity = sales_records.quantity + EXCLUDED.quantity,
				unit_price = EXCLUDED.unit_price,
				category = EXCLUDED.category
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			if _, err := stmt.ExecContext(ctx, rec.Date, rec.ProductID, rec.Quantity, rec.UnitPrice, nullIfEmpty(rec.Category)); err != nil {
				return fmt.Errorf("failed to insert sales record: %w", err)
			}
		}
		return nil
	})
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
