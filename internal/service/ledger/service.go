// Package ledger owns the in-memory ledger state and decides when it is persisted.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/internal/inventory"
	"github.com/mamadbah2/warehouse/internal/repository"
	"github.com/mamadbah2/warehouse/internal/trend"
)

var (
	// ErrItemNotFound indicates no catalog entry has the requested SKU.
	ErrItemNotFound = errors.New("item not found")
	// ErrTransactionNotFound indicates no transaction has the requested id.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Repository is the single-document storage the service persists into.
type Repository interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
	Clear(ctx context.Context) error
}

// Dashboard is everything the inventory view shows.
type Dashboard struct {
	CompanyName  string          `json:"companyName"`
	Rows         []inventory.Row `json:"rows"`
	Stats        inventory.Stats `json:"stats"`
	LowStock     []inventory.Row `json:"lowStock"`
	Trend        trend.Series    `json:"trend"`
	GeneratedAt  time.Time       `json:"generatedAt"`
	HasLogo      bool            `json:"hasLogo"`
	Transactions int             `json:"transactions"`

	// LogoDataURL is captured with the rest of the view for the report. It is
	// not part of the JSON payload.
	LogoDataURL string `json:"-"`
}

// Service is the state container. Every read and write goes through it and
// is serialized by one mutex; each successful mutation is saved as a whole
// document.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
	loc    *time.Location

	mu    sync.Mutex
	store *models.Store
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides transaction id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithLocation sets the time zone used for chart labels.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// NewService wires a state container over the repository. The state starts
// empty until Load is called.
func NewService(repo Repository, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return "TX" + uuid.NewString() },
		loc:    time.Local,
		store:  &models.Store{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the state with the stored document. A missing document yields
// an empty ledger. A corrupt one is logged, cleared and replaced by an empty ledger.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.repo.Load(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		s.store = &models.Store{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	store, err := models.DecodeStore(raw)
	if err != nil {
		s.logger.Error("discarding corrupt ledger document", zap.Error(err), zap.Int("bytes", len(raw)))
		if clearErr := s.repo.Clear(ctx); clearErr != nil {
			s.logger.Warn("failed to clear corrupt ledger document", zap.Error(clearErr))
		}
		s.store = &models.Store{}
		return nil
	}

	s.store = store
	s.logger.Info("ledger loaded",
		zap.Int("items", len(store.Items)),
		zap.Int("transactions", len(store.Transactions)),
		zap.Int("snapshots", len(store.Snapshots)))
	return nil
}

// Save persists the current state.
func (s *Service) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, s.store)
}

// Mutate applies fn to a copy of the state. When fn fails nothing changes.
// Otherwise the inventory is recomputed, a trend sample appended and the
// whole document saved before the copy becomes the live state.
func (s *Service) Mutate(ctx context.Context, fn func(*models.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.store.Clone()
	if err := fn(next); err != nil {
		return err
	}

	s.recordSnapshot(next)
	if err := s.persist(ctx, next); err != nil {
		return err
	}

	s.store = next
	return nil
}

// View recomputes the inventory, appends a trend sample and returns the dashboard.
// A failure to persist the sample is logged, not returned.
func (s *Service) View(ctx context.Context) Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.recordSnapshot(s.store)
	if err := s.persist(ctx, s.store); err != nil {
		s.logger.Warn("failed to persist trend sample", zap.Error(err))
	}

	return Dashboard{
		CompanyName:  s.store.CompanyName,
		Rows:         rows,
		Stats:        inventory.Summarize(rows, s.store.Transactions),
		LowStock:     inventory.LowStock(rows),
		Trend:        trend.Chart(s.store.Snapshots, s.loc),
		GeneratedAt:  s.now(),
		HasLogo:      s.store.LogoDataURL != "",
		Transactions: len(s.store.Transactions),
		LogoDataURL:  s.store.LogoDataURL,
	}
}

// Document returns a copy of the whole state.
func (s *Service) Document() *models.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Clone()
}

// Export encodes the current state as the exchange document.
func (s *Service) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.EncodeStore(s.store)
}

// Import replaces the whole state with the given document. Nothing is merged.
// An unparsable or invalid document aborts the import and keeps the current state.
func (s *Service) Import(ctx context.Context, raw []byte) error {
	store, err := models.DecodeStore(raw)
	if err != nil {
		return err
	}

	return s.Mutate(ctx, func(current *models.Store) error {
		*current = *store
		return nil
	})
}

// Items returns the catalog in insertion order.
func (s *Service) Items() []models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Item(nil), s.store.Items...)
}

// Item returns the catalog entry for sku.
func (s *Service) Item(sku string) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.store.FindItem(sku)
	if idx < 0 {
		return models.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, sku)
	}
	return s.store.Items[idx], nil
}

// Transactions returns the log newest first.
func (s *Service) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Transaction, 0, len(s.store.Transactions))
	for i := len(s.store.Transactions) - 1; i >= 0; i-- {
		out = append(out, s.store.Transactions[i])
	}
	return out
}

// Trend projects the recorded samples without adding one.
func (s *Service) Trend() trend.Series {
	s.mu.Lock()
	defer s.mu.Unlock()
	return trend.Chart(s.store.Snapshots, s.loc)
}

func (s *Service) recordSnapshot(store *models.Store) []inventory.Row {
	rows := inventory.Compute(store.Items, store.Transactions)
	store.Snapshots = trend.Append(store.Snapshots, models.Snapshot{
		Timestamp:  s.now().UTC(),
		TotalUnits: inventory.TotalUnits(rows),
	})
	return rows
}

func (s *Service) persist(ctx context.Context, store *models.Store) error {
	raw, err := models.EncodeStore(store)
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, raw); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}
