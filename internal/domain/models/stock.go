package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType enumerates the supported stock movements.
type TransactionType string

const (
	TransactionIn       TransactionType = "IN"
	TransactionOut      TransactionType = "OUT"
	TransactionBreakage TransactionType = "BREAKAGE"

	// legacyBreakage is the tag older exports used for breakage.
	legacyBreakage TransactionType = "ROTTURA"
)

// IsValid reports whether t is one of the known movement types.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionIn, TransactionOut, TransactionBreakage:
		return true
	}
	return false
}

// NormalizeTransactionType upper-cases a movement tag and maps legacy aliases.
func NormalizeTransactionType(raw string) TransactionType {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(raw)))
	if t == legacyBreakage {
		return TransactionBreakage
	}
	return t
}

// Item is a catalog entry identified by its SKU.
type Item struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Position  string          `json:"position"`
	StockInit int64           `json:"stockInit"`
	CostPrice decimal.Decimal `json:"costPrice"`
	SellPrice decimal.Decimal `json:"sellPrice"`
}

// Transaction is one entry of the stock movement log.
type Transaction struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"ts"`
	SKU       string          `json:"sku"`
	Type      TransactionType `json:"type"`
	Qty       int64           `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Confirmed bool            `json:"confirmed"`
}

// Snapshot is a trend sample of the total units in stock.
type Snapshot struct {
	Timestamp  time.Time `json:"ts"`
	TotalUnits int64     `json:"totalUnits"`
}

// Store is the whole ledger state, persisted as one document.
type Store struct {
	Items        []Item
	Transactions []Transaction
	Snapshots    []Snapshot
	LogoDataURL  string
	CompanyName  string
}

// FindItem returns the index of the item with the given SKU, or -1.
func (s *Store) FindItem(sku string) int {
	for i := range s.Items {
		if s.Items[i].SKU == sku {
			return i
		}
	}
	return -1
}

// FindTransaction returns the index of the transaction with the given id, or -1.
func (s *Store) FindTransaction(id string) int {
	for i := range s.Transactions {
		if s.Transactions[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (s *Store) Clone() *Store {
	if s == nil {
		return &Store{}
	}
	out := &Store{
		LogoDataURL: s.LogoDataURL,
		CompanyName: s.CompanyName,
	}
	out.Items = append([]Item(nil), s.Items...)
	out.Transactions = append([]Transaction(nil), s.Transactions...)
	out.Snapshots = append([]Snapshot(nil), s.Snapshots...)
	return out
}
