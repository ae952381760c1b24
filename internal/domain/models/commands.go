package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// CommandType enumerates the actions an operator can dispatch.
type CommandType string

const (
	CommandUpsertItem         CommandType = "upsert_item"
	CommandDeleteItem         CommandType = "delete_item"
	CommandAddTransaction     CommandType = "add_transaction"
	CommandConfirmTransaction CommandType = "confirm_transaction"
	CommandSetCompany         CommandType = "set_company"
	CommandSetLogo            CommandType = "set_logo"
	CommandImport             CommandType = "import"
	CommandSync               CommandType = "sync"
	CommandUnknown            CommandType = "unknown"
)

var knownCommands = map[CommandType]struct{}{
	CommandUpsertItem:         {},
	CommandDeleteItem:         {},
	CommandAddTransaction:     {},
	CommandConfirmTransaction: {},
	CommandSetCompany:         {},
	CommandSetLogo:            {},
	CommandImport:             {},
	CommandSync:               {},
}

// Command is an action name plus its JSON payload.
type Command struct {
	Type    CommandType
	Payload json.RawMessage
}

// ParseCommandType normalizes a free-form action name ("/Add-Transaction",
// "add_transaction") into a CommandType.
func ParseCommandType(name string) CommandType {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.TrimPrefix(normalized, "/")
	normalized = strings.ReplaceAll(normalized, "-", "_")

	if _, ok := knownCommands[CommandType(normalized)]; ok {
		return CommandType(normalized)
	}
	return CommandUnknown
}

// UpsertItemRequest creates or updates a catalog entry keyed on SKU.
type UpsertItemRequest struct {
	SKU       string          `json:"sku" validate:"required"`
	Name      string          `json:"name"`
	Position  string          `json:"position"`
	StockInit int64           `json:"stockInit"`
	CostPrice decimal.Decimal `json:"costPrice"`
	SellPrice decimal.Decimal `json:"sellPrice"`
}

// DeleteItemRequest removes an item and every transaction referencing it.
// Confirm must be true; deletion cannot be undone.
type DeleteItemRequest struct {
	SKU     string `json:"sku" validate:"required"`
	Confirm bool   `json:"confirm"`
}

// AddTransactionRequest appends a stock movement.
type AddTransactionRequest struct {
	SKU   string          `json:"sku" validate:"required"`
	Type  TransactionType `json:"type" validate:"required,oneof=IN OUT BREAKAGE"`
	Qty   int64           `json:"qty" validate:"gt=0"`
	Price decimal.Decimal `json:"price"`
}

// ConfirmTransactionRequest marks an OUT transaction as a realized sale.
// A non-nil Price replaces the recorded one.
type ConfirmTransactionRequest struct {
	ID    string           `json:"id" validate:"required"`
	Price *decimal.Decimal `json:"price"`
}

// SetCompanyRequest updates the company name shown on reports.
type SetCompanyRequest struct {
	CompanyName string `json:"companyName"`
}

// SetLogoRequest updates the logo, given as a data URL.
type SetLogoRequest struct {
	LogoDataURL string `json:"logoDataUrl" validate:"omitempty,datauri"`
}
