package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesWellFormedCSV(t *testing.T) {
	csvData := `date,product,quantity,unit_price,category
2025-01-02,SKU-1,5,3.50,beverages
2025-01-03,SKU-2,2,,snacks
2025-01-04,SKU-1,0,1.25,`

	records, err := Load(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), records[0].Date)
	assert.Equal(t, "SKU-1", records[0].ProductID)
	assert.Equal(t, 5, records[0].Quantity)
	assert.Equal(t, 3.5, records[0].UnitPrice)
	assert.Equal(t, "beverages", records[0].Category)

	// Missing price parses as zero, zero quantity is legal.
	assert.Equal(t, 0.0, records[1].UnitPrice)
	assert.Equal(t, 0, records[2].Quantity)
}

func TestLoadHeaderAliases(t *testing.T) {
	csvData := ` Date , SKU , Qty , Price
2025-01-02,SKU-1,5,2.00`

	records, err := Load(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "SKU-1", records[0].ProductID)
	assert.Equal(t, 5, records[0].Quantity)
	assert.Equal(t, 2.0, records[0].UnitPrice)
}

func TestLoadDateFormats(t *testing.T) {
	csvData := `date,product,quantity
2025-01-02,SKU-1,1
2025-01-02T10:30:00Z,SKU-1,2
2025-01-02 10:30:00,SKU-1,3
2/1/2025,SKU-1,4`

	records, err := Load(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, records, 4)
	for _, r := range records {
		assert.Equal(t, 2025, r.Date.Year())
		assert.Equal(t, time.January, r.Date.Month())
		assert.Equal(t, 2, r.Date.Day())
	}
}

func TestLoadMissingRequiredColumn(t *testing.T) {
	csvData := `date,quantity
2025-01-02,5`

	_, err := Load(strings.NewReader(csvData))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product")
}

func TestLoadRejectsBadRows(t *testing.T) {
	cases := []struct {
		name string
		row  string
		want string
	}{
		{"bad date", "not-a-date,SKU-1,5", "row 2"},
		{"negative quantity", "2025-01-02,SKU-1,-3", "negative quantity"},
		{"bad quantity", "2025-01-02,SKU-1,many", "invalid quantity"},
		{"missing product", "2025-01-02,,5", "missing product"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader("date,product,quantity\n" + tc.row))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadRejectsNegativePrice(t *testing.T) {
	csvData := `date,product,quantity,unit_price
2025-01-02,SKU-1,5,-1.00`

	_, err := Load(strings.NewReader(csvData))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative unit price")
}

func TestProductsFirstSeenOrder(t *testing.T) {
	csvData := `date,product,quantity
2025-01-02,SKU-B,1
2025-01-02,SKU-A,1
2025-01-03,SKU-B,1
2025-01-03,SKU-C,1`

	records, err := Load(strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, []string{"SKU-B", "SKU-A", "SKU-C"}, Products(records))
}
