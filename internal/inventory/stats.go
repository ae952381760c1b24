package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/warehouse/internal/domain/models"
)

// Stats holds the headline figures of the inventory view.
type Stats struct {
	SKUs           int             `json:"skus"`
	TotalUnits     int64           `json:"totalUnits"`
	TotalValue     decimal.Decimal `json:"totalValue"`
	TotalLoss      decimal.Decimal `json:"totalLoss"`
	TotalSoldValue decimal.Decimal `json:"totalSoldValue"`
}

// Summarize totals the rows and the realized sales of the log.
func Summarize(rows []Row, txs []models.Transaction) Stats {
	stats := Stats{
		SKUs:           len(rows),
		TotalValue:     decimal.Zero,
		TotalLoss:      decimal.Zero,
		TotalSoldValue: SoldValue(txs),
	}

	for _, r := range rows {
		stats.TotalUnits += r.Stock
		stats.TotalValue = stats.TotalValue.Add(r.Value)
		stats.TotalLoss = stats.TotalLoss.Add(decimal.NewFromInt(r.BrokenTotal).Mul(r.CostPrice))
	}

	return stats
}

// TotalUnits sums the stock of every row.
func TotalUnits(rows []Row) int64 {
	var total int64
	for _, r := range rows {
		total += r.Stock
	}
	return total
}

// SoldValue sums qty × price over confirmed OUT transactions. Unlike stock,
// realized revenue waits for confirmation. Dangling SKUs still count.
func SoldValue(txs []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type != models.TransactionOut || !tx.Confirmed {
			continue
		}
		total = total.Add(decimal.NewFromInt(tx.Qty).Mul(tx.Price))
	}
	return total
}
