package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/warehouse/internal/config"
	"github.com/mamadbah2/warehouse/internal/inventory"
)

const (
	inventoryWriteRange = "Inventory!A:H"
	dateFormat          = "2006-01-02 15:04"
)

// Repository defines the persistence operations supported by the Google Sheets adapter.
type Repository interface {
	WriteRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRows appends the provided rows to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRows(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}
	if len(rows) == 0 {
		return nil
	}

	payload := &sheetsapi.ValueRange{Values: rows}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append rows into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("rows appended to sheet", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return nil
}

// Publisher appends inventory snapshots to the spreadsheet.
type Publisher struct {
	repo Repository
}

// NewPublisher wraps a sheets repository.
func NewPublisher(repo Repository) *Publisher {
	return &Publisher{repo: repo}
}

// PublishInventory appends one line per inventory row, stamped with at:
// date, SKU, name, position, stock, cost price, value, low flag.
func (p *Publisher) PublishInventory(ctx context.Context, at time.Time, rows []inventory.Row) error {
	return p.repo.WriteRows(ctx, inventoryWriteRange, InventoryValues(at, rows))
}

// InventoryValues converts inventory rows to sheet values.
func InventoryValues(at time.Time, rows []inventory.Row) [][]interface{} {
	stamp := at.Format(dateFormat)
	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		values = append(values, []interface{}{
			stamp,
			r.SKU,
			r.Name,
			r.Position,
			r.Stock,
			r.CostPrice.StringFixed(2),
			r.Value.StringFixed(2),
			r.Low,
		})
	}
	return values
}
