// Package ingest loads raw sales history from CSV files. It sits outside the
// engine proper: the planner only ever sees in-memory records.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/novamart/demand-planner/internal/domain"
)

// Required CSV columns. Header matching is case-insensitive and tolerant of
// surrounding whitespace; extra columns are ignored.
const (
	colDate     = "date"
	colProduct  = "product"
	colQuantity = "quantity"
	colPrice    = "unit_price"
	colCategory = "category"
)

var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2/1/2006",
}

// LoadFile reads a sales CSV from disk.
func LoadFile(path string) ([]domain.SalesRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sales file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses sales records from r. Rows with a malformed date or a negative
// quantity are rejected; the row number is included so bad exports are easy
// to chase down.
func Load(r io.Reader) ([]domain.SalesRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[normalizeHeader(col)] = i
	}
	for _, required := range []string{colDate, colProduct, colQuantity} {
		if _, ok := colMap[required]; !ok {
			return nil, fmt.Errorf("sales CSV missing required column %q", required)
		}
	}

	var records []domain.SalesRecord
	rowNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading row %d: %w", rowNum, err)
		}
		rowNum++

		record, err := parseRow(row, colMap)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		records = append(records, record)
	}

	log.Debug().Int("records", len(records)).Msg("sales CSV loaded")
	return records, nil
}

func parseRow(row []string, colMap map[string]int) (domain.SalesRecord, error) {
	get := func(col string) string {
		idx, ok := colMap[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	productID := get(colProduct)
	if productID == "" {
		return domain.SalesRecord{}, fmt.Errorf("missing product id")
	}

	date, err := parseDate(get(colDate))
	if err != nil {
		return domain.SalesRecord{}, err
	}

	quantity, err := strconv.Atoi(get(colQuantity))
	if err != nil {
		return domain.SalesRecord{}, fmt.Errorf("invalid quantity %q", get(colQuantity))
	}
	if quantity < 0 {
		return domain.SalesRecord{}, fmt.Errorf("negative quantity %d", quantity)
	}

	var unitPrice float64
	if raw := get(colPrice); raw != "" {
		unitPrice, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.SalesRecord{}, fmt.Errorf("invalid unit price %q", raw)
		}
		if unitPrice < 0 {
			return domain.SalesRecord{}, fmt.Errorf("negative unit price %v", unitPrice)
		}
	}

	return domain.SalesRecord{
		Date:      date,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Category:  get(colCategory),
	}, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, format := range dateFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

func normalizeHeader(col string) string {
	col = strings.ToLower(strings.TrimSpace(col))
	col = strings.ReplaceAll(col, " ", "_")
	switch col {
	case "sku", "product_id", "product_name":
		return colProduct
	case "qty", "units":
		return colQuantity
	case "price":
		return colPrice
	}
	return col
}

// Products returns the distinct product IDs present in records, in first-seen
// order.
func Products(records []domain.SalesRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		if _, ok := seen[r.ProductID]; ok {
			continue
		}
		seen[r.ProductID] = struct{}{}
		out = append(out, r.ProductID)
	}
	return out
}
