package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/config"
	"github.com/mamadbah2/warehouse/internal/inventory"
	"github.com/mamadbah2/warehouse/internal/service/ledger"
)

const jobTimeout = 2 * time.Minute

// Syncer pushes the ledger to the remote endpoint.
type Syncer interface {
	Sync(ctx context.Context) error
}

// InventoryPublisher appends inventory rows to an external sheet.
type InventoryPublisher interface {
	PublishInventory(ctx context.Context, at time.Time, rows []inventory.Row) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	cfg       config.ScheduleConfig
	syncer    Syncer
	publisher InventoryPublisher
	ledger    *ledger.Service
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance. publisher may be nil when
// spreadsheet publishing is not configured.
func NewScheduler(cfg config.ScheduleConfig, loc *time.Location, ledgerSvc *ledger.Service, syncer Syncer, publisher InventoryPublisher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		cfg:       cfg,
		syncer:    syncer,
		publisher: publisher,
		ledger:    ledgerSvc,
		logger:    logger,
	}
}

// Start registers the configured jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if s.cfg.SyncCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.SyncCron, s.runSync); err != nil {
			return fmt.Errorf("schedule sync %q: %w", s.cfg.SyncCron, err)
		}
		s.logger.Info("sync job scheduled", zap.String("cron", s.cfg.SyncCron))
	}

	if s.cfg.PublishCron != "" && s.publisher != nil {
		if _, err := s.cron.AddFunc(s.cfg.PublishCron, s.runPublish); err != nil {
			return fmt.Errorf("schedule publish %q: %w", s.cfg.PublishCron, err)
		}
		s.logger.Info("publish job scheduled", zap.String("cron", s.cfg.PublishCron))
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runSync() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.syncer.Sync(ctx); err != nil {
		s.logger.Error("scheduled sync failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled sync completed")
}

func (s *Scheduler) runPublish() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	dash := s.ledger.View(ctx)
	if err := s.publisher.PublishInventory(ctx, dash.GeneratedAt, dash.Rows); err != nil {
		s.logger.Error("scheduled publish failed", zap.Error(err))
		return
	}
	s.logger.Info("inventory published", zap.Int("rows", len(dash.Rows)))
}
