package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/warehouse/internal/domain/models"
)

func sampleLedger() ([]models.Item, []models.Transaction) {
	items := []models.Item{{SKU: "A1", Name: "Bolt", StockInit: 10, CostPrice: decimal.NewFromInt(2)}}
	txs := []models.Transaction{
		{ID: "T1", SKU: "A1", Type: models.TransactionIn, Qty: 5, Confirmed: true},
		{ID: "T2", SKU: "A1", Type: models.TransactionOut, Qty: 3, Price: decimal.NewFromInt(9)},
		{ID: "T3", SKU: "A1", Type: models.TransactionBreakage, Qty: 1, Confirmed: true},
	}
	return items, txs
}

func TestCompute_StockIgnoresConfirmation(t *testing.T) {
	items, txs := sampleLedger()

	rows := Compute(items, txs)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, int64(5), row.In)
	assert.Equal(t, int64(3), row.Out)
	assert.Equal(t, int64(1), row.Broken)
	assert.Equal(t, int64(11), row.Stock)
	assert.True(t, decimal.NewFromInt(22).Equal(row.Value))
	assert.Equal(t, int64(3), row.SoldTotal)
	assert.Equal(t, int64(1), row.BrokenTotal)
	assert.False(t, row.Low)

	stats := Summarize(rows, txs)
	assert.True(t, stats.TotalSoldValue.IsZero(), "unconfirmed sale is not revenue")
	assert.True(t, decimal.NewFromInt(2).Equal(stats.TotalLoss))

	txs[1].Confirmed = true
	rows = Compute(items, txs)
	stats = Summarize(rows, txs)
	assert.Equal(t, int64(11), rows[0].Stock)
	assert.True(t, decimal.NewFromInt(27).Equal(stats.TotalSoldValue))
}

func TestCompute_SkipsDanglingAndUnknown(t *testing.T) {
	items := []models.Item{{SKU: "A1", StockInit: 3}, {SKU: "B2", StockInit: 0}}
	txs := []models.Transaction{
		{ID: "T1", SKU: "GONE", Type: models.TransactionIn, Qty: 100},
		{ID: "T2", SKU: "A1", Type: "ADJUST", Qty: 100},
		{ID: "T3", SKU: "GONE", Type: models.TransactionOut, Qty: 2, Price: decimal.NewFromInt(5), Confirmed: true},
	}

	rows := Compute(items, txs)
	require.Len(t, rows, 2)
	assert.Equal(t, "A1", rows[0].SKU)
	assert.Equal(t, "B2", rows[1].SKU)
	assert.Equal(t, int64(3), rows[0].Stock)
	assert.Equal(t, int64(0), rows[1].Stock)

	stats := Summarize(rows, txs)
	assert.Equal(t, 2, stats.SKUs)
	assert.Equal(t, int64(3), stats.TotalUnits)
	assert.True(t, decimal.NewFromInt(10).Equal(stats.TotalSoldValue), "dangling confirmed sales still count")
}

func TestCompute_EmptyCatalog(t *testing.T) {
	rows := Compute(nil, []models.Transaction{{ID: "T", SKU: "A1", Type: models.TransactionIn, Qty: 1}})
	assert.Empty(t, rows)
	assert.Equal(t, int64(0), TotalUnits(rows))
	assert.Empty(t, LowStock(rows))
}

func TestIsLow_Boundaries(t *testing.T) {
	cases := []struct {
		stock int64
		low   bool
	}{
		{-1, false},
		{0, true},
		{4, true},
		{5, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.low, IsLow(tc.stock), "stock %d", tc.stock)
	}
}

func TestLowStock_KeepsOrder(t *testing.T) {
	items := []models.Item{
		{SKU: "A", StockInit: 4},
		{SKU: "B", StockInit: 9},
		{SKU: "C", StockInit: 0},
		{SKU: "D", StockInit: 1},
	}
	txs := []models.Transaction{{ID: "T", SKU: "D", Type: models.TransactionOut, Qty: 2}}

	low := LowStock(Compute(items, txs))
	require.Len(t, low, 2)
	assert.Equal(t, "A", low[0].SKU)
	assert.Equal(t, "C", low[1].SKU)
}
