// Package app assembles the ledger services from configuration.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/config"
	"github.com/mamadbah2/warehouse/internal/repository/file"
	"github.com/mamadbah2/warehouse/internal/repository/mongodb"
	"github.com/mamadbah2/warehouse/internal/service/commands"
	"github.com/mamadbah2/warehouse/internal/service/ledger"
	"github.com/mamadbah2/warehouse/internal/service/reporting"
	"github.com/mamadbah2/warehouse/pkg/clients/webapp"
)

// App groups the wired services.
type App struct {
	Ledger     *ledger.Service
	Dispatcher *commands.Service
	Reports    *reporting.Service

	closers []func(context.Context) error
}

// New opens the configured store, loads the ledger and wires the services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{}

	repo, err := a.openRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a.Ledger = ledger.NewService(repo, logger.Named("svc.ledger"), ledger.WithLocation(cfg.Location()))
	if err := a.Ledger.Load(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	syncClient := webapp.NewClient(cfg.Sync.URL, cfg.Sync.Timeout)
	a.Dispatcher = commands.NewService(a.Ledger, syncClient, logger.Named("svc.commands"))
	a.Reports = reporting.NewService(logger.Named("svc.reporting"))

	return a, nil
}

// Close releases the store connection, if any.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

func (a *App) openRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ledger.Repository, error) {
	switch cfg.Store.Backend {
	case config.BackendMongoDB:
		repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, repo.Close)
		logger.Info("using mongodb store", zap.String("db", cfg.MongoDB.DBName))
		return repo, nil
	case config.BackendFile:
		repo, err := file.NewRepository(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("using file store", zap.String("path", repo.Path()))
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}
