package api

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/category"
	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/handler"
	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/parser"
	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/repository"
	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/service"

	"github.com/FACorreiaa/card-alert-ledger/pkg/config"
	"github.com/FACorreiaa/card-alert-ledger/pkg/db"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	// Exactly one of DB and SQLite is set, depending on database.driver.
	DB     *db.DB
	SQLite *sql.DB

	// Repositories
	TransactionRepo repository.TransactionRepository

	// Services
	Engine        *parser.Engine
	IngestService *service.IngestService

	// Handlers
	NotificationHandler *handler.NotificationHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := deps.initDatabase(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	// Initialize repositories
	if err := deps.initRepositories(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	// Initialize services
	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	// Initialize handlers
	if err := deps.initHandlers(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase opens the configured database and runs migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	switch d.Config.Database.Driver {
	case "postgres":
		database, err := db.New(db.Config{
			DSN:             d.Config.Database.DSN(),
			MaxConns:        d.Config.Database.MaxConns,
			MinConns:        d.Config.Database.MinConns,
			MaxConnLifetime: 5 * time.Minute,
			MaxConnIdleTime: 10 * time.Minute,
		}, d.Logger)
		if err != nil {
			return err
		}
		d.DB = database

		if err := d.DB.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	case "sqlite":
		sqlDB, err := db.OpenSQLite(d.Config.Database.Path)
		if err != nil {
			return err
		}
		d.SQLite = sqlDB

		if err := db.MigrateSQLite(ctx, sqlDB, d.Logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	default:
		return fmt.Errorf("unsupported database driver %q", d.Config.Database.Driver)
	}

	d.Logger.Info("database connected and migrations completed successfully",
		slog.String("driver", d.Config.Database.Driver))
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	if d.DB != nil {
		d.TransactionRepo = repository.NewPostgresTransactionRepository(d.DB.Pool)
	} else {
		d.TransactionRepo = repository.NewSQLiteTransactionRepository(d.SQLite)
	}

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices builds the parsing engine and the ingest service
func (d *Dependencies) initServices() error {
	ingest := d.Config.Ingest

	loc, err := ingest.Location()
	if err != nil {
		return err
	}

	classifier := category.Default()
	if ingest.CategoryRulesPath != "" {
		rules, err := category.LoadRulesFile(ingest.CategoryRulesPath)
		if err != nil {
			return fmt.Errorf("failed to load category rules: %w", err)
		}
		classifier = category.NewClassifier(rules)
		d.Logger.Info("loaded category rules",
			slog.String("path", ingest.CategoryRulesPath), slog.Int("rules", len(rules)))
	}

	d.Engine = parser.NewEngine(
		parser.WithClassifier(classifier),
		parser.WithLocation(loc),
	)
	d.IngestService = service.NewIngestService(d.Engine, d.TransactionRepo, d.Logger, service.Config{
		DefaultYear: ingest.DefaultYear,
		RequireDate: ingest.RequireDate,
		BatchLimit:  ingest.BatchLimit,
	})

	d.Logger.Info("services initialized", slog.String("timezone", loc.String()))
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.NotificationHandler = handler.NewNotificationHandler(d.IngestService, d.Logger, d.Config.Ingest.SeedEnabled)

	d.Logger.Info("handlers initialized")
	return nil
}

// Health checks the active database
func (d *Dependencies) Health(ctx context.Context) error {
	if d.TransactionRepo == nil {
		return fmt.Errorf("repository not initialized")
	}
	return d.TransactionRepo.Health(ctx)
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	if d.SQLite != nil {
		if err := d.SQLite.Close(); err != nil {
			d.Logger.Warn("failed to close sqlite database", slog.Any("error", err))
		}
	}
	d.Logger.Info("cleanup completed")
}
