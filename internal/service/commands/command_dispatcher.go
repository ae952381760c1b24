package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/pkg/clients/webapp"
)

// ErrInvalidArguments indicates the command payload could not be parsed or misses required fields.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// ErrConfirmationRequired indicates a destructive command was sent without confirmation.
var ErrConfirmationRequired = errors.New("confirmation required")

// ErrSyncFailed indicates the remote push did not succeed. It is never retried.
var ErrSyncFailed = errors.New("sync failed")

// Ledger is the state container the dispatcher drives.
type Ledger interface {
	UpsertItem(ctx context.Context, item models.Item) (bool, error)
	DeleteItem(ctx context.Context, sku string) (int, error)
	AddTransaction(ctx context.Context, sku string, txType models.TransactionType, qty int64, price decimal.Decimal) (models.Transaction, error)
	ConfirmTransaction(ctx context.Context, id string, price *decimal.Decimal) (models.Transaction, error)
	SetCompanyName(ctx context.Context, name string) error
	SetLogo(ctx context.Context, dataURL string) error
	Import(ctx context.Context, raw []byte) error
	Export() ([]byte, error)
}

// Notice is the user-facing outcome of a command.
type Notice struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Dispatcher executes named commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command) (Notice, error)
	Sync(ctx context.Context) error
}

type handlerFunc func(ctx context.Context, payload json.RawMessage) (Notice, error)

// Service implements the Dispatcher interface with an action-name to handler table.
type Service struct {
	ledger   Ledger
	syncer   webapp.Client
	validate *validator.Validate
	logger   *zap.Logger
	handlers map[models.CommandType]handlerFunc
}

// NewService constructs a command dispatcher. syncer may be nil, in which case
// the sync command fails.
func NewService(ledger Ledger, syncer webapp.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		ledger:   ledger,
		syncer:   syncer,
		validate: validator.New(),
		logger:   logger,
	}
	s.handlers = map[models.CommandType]handlerFunc{
		models.CommandUpsertItem:         s.upsertItem,
		models.CommandDeleteItem:         s.deleteItem,
		models.CommandAddTransaction:     s.addTransaction,
		models.CommandConfirmTransaction: s.confirmTransaction,
		models.CommandSetCompany:         s.setCompany,
		models.CommandSetLogo:            s.setLogo,
		models.CommandImport:             s.importDocument,
		models.CommandSync:               s.syncNow,
	}
	return s
}

// HandleCommand looks up the handler for cmd.Type and runs it.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command) (Notice, error) {
	handler, ok := s.handlers[cmd.Type]
	if !ok {
		return Notice{}, fmt.Errorf("%w: %s", ErrUnsupportedCommand, cmd.Type)
	}

	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.Int("payload_bytes", len(cmd.Payload)))

	notice, err := handler(ctx, cmd.Payload)
	if err != nil {
		s.logger.Info("command rejected", zap.String("command", string(cmd.Type)), zap.Error(err))
		return Notice{}, err
	}
	return notice, nil
}

// Sync pushes the exported document to the remote endpoint once.
func (s *Service) Sync(ctx context.Context) error {
	if s.syncer == nil {
		return fmt.Errorf("%w: %w", ErrSyncFailed, webapp.ErrNoEndpoint)
	}

	document, err := s.ledger.Export()
	if err != nil {
		return err
	}

	if err := s.syncer.Push(ctx, document); err != nil {
		return fmt.Errorf("%w: %w", ErrSyncFailed, err)
	}

	s.logger.Info("ledger synced", zap.Int("bytes", len(document)))
	return nil
}

func (s *Service) upsertItem(ctx context.Context, payload json.RawMessage) (Notice, error) {
	var req models.UpsertItemRequest
	if err := json.Unmarshal(orEmpty(payload), &req); err != nil {
		return Notice{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	req.SKU = strings.TrimSpace(req.SKU)
	if err := s.check(req); err != nil {
		return Notice{}, err
	}
	if req.CostPrice.IsNegative() || req.SellPrice.IsNegative() {
		return Notice{}, fmt.Errorf("%w: prices must not be negative", ErrInvalidArguments)
	}

	item := models.Item{
		SKU:       req.SKU,
		Name:      strings.TrimSpace(req.Name),
		Position:  strings.TrimSpace(req.Position),
		StockInit: req.StockInit,
		CostPrice: req.CostPrice,
		SellPrice: req.SellPrice,
	}

	created, err := s.ledger.UpsertItem(ctx, item)
	if err != nil {
		return Notice{}, err
	}

	verb := "updated"
	if created {
		verb = "created"
	}
	return Notice{Message: fmt.Sprintf("Item %s %s.", item.SKU, verb), Data: item}, nil
}

func (s *Service) deleteItem(ctx context.Context, payload json.RawMessage) (Notice, error) {
	var req models.DeleteItemRequest
	if err := json.Unmarshal(orEmpty(payload), &req); err != nil {
		return Notice{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	req.SKU = strings.TrimSpace(req.SKU)
	if err := s.check(req); err != nil {
		return Notice{}, err
	}
	if !req.Confirm {
		return Notice{}, fmt.Errorf("%w: deleting %s also removes its transactions and cannot be undone", ErrConfirmationRequired, req.SKU)
	}

	removed, err := s.ledger.DeleteItem(ctx, req.SKU)
	if err != nil {
		return Notice{}, err
	}
	return Notice{Message: fmt.Sprintf("Item %s deleted with %d transactions.", req.SKU, removed)}, nil
}

func (s *Service) addTransaction(ctx context.Context, payload json.RawMessage) (Notice, error) {
	var req models.AddTransactionRequest
	if err := json.Unmarshal(orEmpty(payload), &req); err != nil {
		return Notice{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	req.SKU = strings.TrimSpace(req.SKU)
	req.Type = models.NormalizeTransactionType(string(req.Type))
	if err := s.check(req); err != nil {
		return Notice{}, err
	}
	if req.Price.IsNegative() {
		return Notice{}, fmt.Errorf("%w: price must not be negative", ErrInvalidArguments)
	}

	tx, err := s.ledger.AddTransaction(ctx, req.SKU, req.Type, req.Qty, req.Price)
	if err != nil {
		return Notice{}, err
	}
	return Notice{Message: fmt.Sprintf("%s of %d recorded for %s.", tx.Type, tx.Qty, tx.SKU), Data: tx}, nil
}

func (s *Service) confirmTransaction(ctx context.Context, payload json.RawMessage) (Notice, error) {
	var req models.ConfirmTransactionRequest
	if err := json.Unmarshal(orEmpty(payload), &req); err != nil {
		return Notice{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	req.ID = strings.TrimSpace(req.ID)
	if err := s.check(req); err != nil {
		return Notice{}, err
	}
	if req.Price != nil && req.Price.IsNegative() {
		return Notice{}, fmt.Errorf("%w: price must not be negative", ErrInvalidArguments)
	}

	tx, err := s.ledger.ConfirmTransaction(ctx, req.ID, req.Price)
	if err != nil {
		return Notice{}, err
	}
	return Notice{Message: fmt.Sprintf("Transaction %s confirmed.", tx.ID), Data: tx}, nil
}

func (s *Service) setCompany(ctx context.Context, payload json.RawMessage) (Notice, error) {
	var req models.SetCompanyRequest
	if err := json.Unmarshal(orEmpty(payload), &req); err != nil {
		return Notice{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	name := strings.TrimSpace(req.CompanyName)
	if err := s.ledger.SetCompanyName(ctx, name); err != nil {
		return Notice{}, err
	}
	return Notice{Message: "Company name saved."}, nil
}

func (s *Service) setLogo(ctx context.Context, payload json.RawMessage) (Notice, error) {
	var req models.SetLogoRequest
	if err := json.Unmarshal(orEmpty(payload), &req); err != nil {
		return Notice{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if err := s.check(req); err != nil {
		return Notice{}, err
	}

	if err := s.ledger.SetLogo(ctx, req.LogoDataURL); err != nil {
		return Notice{}, err
	}
	if req.LogoDataURL == "" {
		return Notice{Message: "Logo removed."}, nil
	}
	return Notice{Message: "Logo saved."}, nil
}

func (s *Service) importDocument(ctx context.Context, payload json.RawMessage) (Notice, error) {
	if err := s.ledger.Import(ctx, payload); err != nil {
		return Notice{}, err
	}
	return Notice{Message: "Ledger imported."}, nil
}

func (s *Service) syncNow(ctx context.Context, _ json.RawMessage) (Notice, error) {
	if err := s.Sync(ctx); err != nil {
		return Notice{}, err
	}
	return Notice{Message: "Sync completed."}, nil
}

func (s *Service) check(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

func orEmpty(payload json.RawMessage) []byte {
	if len(payload) == 0 {
		return []byte("{}")
	}
	return payload
}
