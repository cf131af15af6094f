package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/novamart/demand-planner/internal/config"
	"github.com/novamart/demand-planner/internal/domain"
	"github.com/novamart/demand-planner/internal/export"
	"github.com/novamart/demand-planner/internal/ingest"
	"github.com/novamart/demand-planner/internal/planner"
	"github.com/novamart/demand-planner/internal/storage"
	"github.com/novamart/demand-planner/pkg/logger"
)

func newInputFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "input",
		Usage:    "Sales CSV: a local path, or an s3:// object key (s3://prefix/ pulls every CSV under the prefix) in the configured bucket",
		Required: true,
		EnvVars:  []string{"SALES_CSV"},
	}
}

const s3Scheme = "s3://"

// loadSales resolves the input flag: local CSV path or remote object(s). The
// storage client is only built when the input actually points at s3.
func loadSales(ctx context.Context, input string) ([]domain.SalesRecord, error) {
	if !strings.HasPrefix(input, s3Scheme) {
		return ingest.LoadFile(input)
	}
	store, err := storage.NewS3Client(config.Load().Storage)
	if err != nil {
		return nil, fmt.Errorf("failed initializing object storage: %w", err)
	}
	return fetchRemoteSales(ctx, store, strings.TrimPrefix(input, s3Scheme))
}

// fetchRemoteSales downloads one object, or every CSV under a trailing-slash
// prefix, into a scratch dir and parses the lot into one record set.
func fetchRemoteSales(ctx context.Context, store storage.ObjectStorage, key string) ([]domain.SalesRecord, error) {
	keys := []string{key}
	if strings.HasSuffix(key, "/") {
		objects, err := store.ListObjects(ctx, strings.TrimSuffix(key, "/"))
		if err != nil {
			return nil, err
		}
		keys = keys[:0]
		for _, obj := range objects {
			if strings.HasSuffix(obj.Key, ".csv") {
				keys = append(keys, obj.Key)
			}
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("no CSV objects under prefix %q", key)
		}
	}

	dir, err := os.MkdirTemp("", "sales-*")
	if err != nil {
		return nil, fmt.Errorf("failed creating scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	var records []domain.SalesRecord
	for _, k := range keys {
		dest := filepath.Join(dir, filepath.Base(k))
		if err := store.DownloadObject(ctx, k, dest); err != nil {
			return nil, fmt.Errorf("failed downloading %s: %w", k, err)
		}
		batch, err := ingest.LoadFile(dest)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		records = append(records, batch...)
	}
	return records, nil
}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		logger.SetLevel(level)
	}

	app := &cli.App{
		Name:  "plan",
		Usage: "Compute demand forecasts and inventory plans from sales history",
		Commands: []*cli.Command{
			{
				Name:  "compute",
				Usage: "Compute plans for every product in a sales CSV",
				Flags: []cli.Flag{
					newInputFlag(),
					&cli.StringFlag{
						Name:  "out",
						Usage: "Path for the plan report CSV (stdout when empty)",
					},
					&cli.StringFlag{
						Name:  "product",
						Usage: "Compute a single product instead of the full catalog",
					},
					&cli.IntFlag{
						Name:  "horizon",
						Usage: "Forecast horizon in days",
					},
					&cli.BoolFlag{
						Name:  "upload",
						Usage: "Upload the plan report to object storage",
					},
					&cli.StringFlag{
						Name:  "upload-prefix",
						Usage: "Object key prefix for uploaded reports",
						Value: "reports",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print full plans as JSON instead of the CSV report",
					},
				},
				Action: runCompute,
			},
			{
				Name:  "forecast",
				Usage: "Print the daily forecast points for one product",
				Flags: []cli.Flag{
					newInputFlag(),
					&cli.StringFlag{
						Name:     "product",
						Usage:    "Product to forecast",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "horizon",
						Usage: "Forecast horizon in days",
					},
				},
				Action: runForecast,
			},
			{
				Name:  "seed",
				Usage: "Load a sales CSV into the database",
				Flags: []cli.Flag{
					newInputFlag(),
					newDBURLFlag(),
				},
				Action: runSeed,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("plan command failed")
	}
}

func baseRequest(c *cli.Context) planner.Request {
	cfg := config.Load().Planner
	req := planner.Request{
		HorizonDays:        cfg.HorizonDays,
		LeadTimeDays:       cfg.LeadTimeDays,
		ServiceLevel:       cfg.ServiceLevel,
		SafetyStockMethod:  domain.SafetyStockMethod(cfg.SafetyStockMethod),
		SafetyStockPct:     cfg.SafetyStockPct,
		OrderingCost:       cfg.OrderingCost,
		HoldingCostPerUnit: cfg.HoldingCostPerUnit,
	}
	if horizon := c.Int("horizon"); horizon > 0 {
		req.HorizonDays = horizon
	}
	return req
}

func runCompute(c *cli.Context) error {
	records, err := loadSales(c.Context, c.String("input"))
	if err != nil {
		return fmt.Errorf("failed loading sales data: %w", err)
	}

	products := ingest.Products(records)
	if product := c.String("product"); product != "" {
		products = []string{product}
	}

	cfg := config.Load()
	p := planner.New(cfg.Planner.Workers)
	result, err := p.ComputeBatch(c.Context, records, products, baseRequest(c))
	if err != nil {
		return err
	}
	for product, reason := range result.Failures {
		log.Warn().Str("product", product).Str("reason", reason).Msg("Plan skipped")
	}
	log.Info().
		Int("planned", len(result.Plans)).
		Int("skipped", len(result.Failures)).
		Msg("Batch plan complete")

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	report, err := export.PlanReport(result.Plans)
	if err != nil {
		return err
	}

	if out := c.String("out"); out != "" {
		if err := os.WriteFile(out, report, 0o644); err != nil {
			return fmt.Errorf("failed writing report to %s: %w", out, err)
		}
		log.Info().Str("path", out).Msg("Wrote plan report")
	} else {
		os.Stdout.Write(report)
	}

	if c.Bool("upload") {
		store, err := storage.NewS3Client(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed initializing object storage: %w", err)
		}
		key, err := export.NewUploader(store).UploadPlanReport(c.Context, c.String("upload-prefix"), result.Plans)
		if err != nil {
			return err
		}
		log.Info().Str("key", key).Msg("Report uploaded")
	}

	return nil
}

func runForecast(c *cli.Context) error {
	records, err := loadSales(c.Context, c.String("input"))
	if err != nil {
		return fmt.Errorf("failed loading sales data: %w", err)
	}

	req := baseRequest(c)
	req.ProductID = c.String("product")

	plan, err := planner.New(1).ComputeProductPlan(records, req)
	if err != nil {
		return err
	}

	report, err := export.ForecastReport(plan)
	if err != nil {
		return err
	}
	os.Stdout.Write(report)
	return nil
}

func runSeed(c *cli.Context) error {
	dbURL := c.String("db-url")
	if dbURL == "" {
		return fmt.Errorf("db-url is required for seeding")
	}

	records, err := loadSales(c.Context, c.String("input"))
	if err != nil {
		return fmt.Errorf("failed loading sales data: %w", err)
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := insertSalesRecords(c.Context, db, records); err != nil {
		return err
	}
	log.Info().Int("records", len(records)).Msg("Seeded sales history")
	return nil
}

// insertSalesRecords upserts through database/sql directly so the seeder can
// target any Postgres via a plain connection string. Quantities accumulate on
// conflict because multiple CSV rows may cover the same product-day.
func insertSalesRecords(ctx context.Context, db *sql.DB, records []domain.SalesRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sales_records (date, product_id, quantity, unit_price, category)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date, product_id) DO UPDATE
		SET quantity = sales_records.quantity + EXCLUDED.quantity,
		    unit_price = EXCLUDED.unit_price`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		category := sql.NullString{String: rec.Category, Valid: rec.Category != ""}
		if _, err := stmt.ExecContext(ctx, rec.Date, rec.ProductID, rec.Quantity, rec.UnitPrice, category); err != nil {
			return fmt.Errorf("failed inserting record for %s: %w", rec.ProductID, err)
		}
	}

	return tx.Commit()
}
