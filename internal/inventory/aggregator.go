// Package inventory derives stock levels and valuations from the item
// catalog and the transaction log.
package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/warehouse/internal/domain/models"
)

// LowStockThreshold is the inclusive upper bound of the low-stock signal.
const LowStockThreshold = 4

// Row is the derived inventory line of one item.
type Row struct {
	models.Item
	In          int64           `json:"in"`
	Out         int64           `json:"out"`
	Broken      int64           `json:"broken"`
	Stock       int64           `json:"stock"`
	Value       decimal.Decimal `json:"value"`
	SoldTotal   int64           `json:"soldTotal"`
	BrokenTotal int64           `json:"brokenTotal"`
	Low         bool            `json:"low"`
}

// Compute folds the transaction log over the catalog. Rows keep catalog order.
// Transactions whose SKU is not in the catalog, or whose type is unknown, are
// skipped. Confirmation does not affect stock.
func Compute(items []models.Item, txs []models.Transaction) []Row {
	rows := make([]Row, len(items))
	index := make(map[string]int, len(items))
	for i, it := range items {
		rows[i] = Row{Item: it}
		index[it.SKU] = i
	}

	for _, tx := range txs {
		i, ok := index[tx.SKU]
		if !ok {
			continue
		}

		switch tx.Type {
		case models.TransactionIn:
			rows[i].In += tx.Qty
		case models.TransactionOut:
			rows[i].Out += tx.Qty
		case models.TransactionBreakage:
			rows[i].Broken += tx.Qty
		}
	}

	for i := range rows {
		r := &rows[i]
		r.Stock = r.StockInit + r.In - r.Out - r.Broken
		r.Value = decimal.NewFromInt(r.Stock).Mul(r.CostPrice)
		r.SoldTotal = r.Out
		r.BrokenTotal = r.Broken
		r.Low = IsLow(r.Stock)
	}

	return rows
}

// IsLow reports whether a stock level should raise the low-stock signal.
// Negative stock is not flagged.
func IsLow(stock int64) bool {
	return stock >= 0 && stock <= LowStockThreshold
}

// LowStock returns the rows flagged low, in input order.
func LowStock(rows []Row) []Row {
	low := make([]Row, 0)
	for _, r := range rows {
		if IsLow(r.Stock) {
			low = append(low, r)
		}
	}
	return low
}
