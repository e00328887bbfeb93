package main

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/huangang/evalstats/internal/config"
	"github.com/huangang/evalstats/internal/events"
	"github.com/huangang/evalstats/internal/models"
	"github.com/huangang/evalstats/internal/services"
	"github.com/huangang/evalstats/internal/stats"
	"github.com/huangang/evalstats/internal/utils"
	"github.com/huangang/evalstats/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds every component the routes and shutdown need.
type appServices struct {
	db       *gorm.DB
	hooks    *stats.MemoryHooks
	bus      events.Bus
	worker   *events.Worker
	relay    *events.Relay
	deletion *stats.DeletionWorkflow

	entries     *services.EntryService
	flags       *services.FlagService
	evaluations *services.EvaluationService
	sessions    *services.SessionService
	settings    *services.SettingsService
	stats       *services.StatsService
	audit       *services.AuditService
}

// bootstrap initializes all application dependencies: database, event
// pipeline, aggregators and write services.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	db, err := models.InitDB(&cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.SeedDefaultData(db, cfg.Stats.DefaultTargetReviews); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	hooks := stats.NewMemoryHooks()
	coord := stats.NewCoordinator(stats.NewGormStore(db), stats.Options{
		MaxAttempts:     cfg.Stats.MaxAttempts,
		InitialInterval: time.Duration(cfg.Stats.RetryInitialMS) * time.Millisecond,
		MaxInterval:     time.Duration(cfg.Stats.RetryMaxMS) * time.Millisecond,
		Hooks:           hooks,
	})

	router := events.NewRouter()
	stats.NewAggregators(coord, cfg.Stats.DefaultTargetReviews).Register(router)

	// Uses Redis when enabled, otherwise dispatches in process
	bus := events.NewBus(&cfg.Redis, router)
	var worker *events.Worker
	if bus.IsAsync() {
		worker = events.NewWorker(&cfg.Redis, router)
		if worker != nil {
			if err := worker.Start(); err != nil {
				logger.Fatalf("Failed to start worker: %v", err)
			}
		}
	}

	relay := events.NewRelay(db, bus, cfg.Relay, instanceName())
	if err := relay.StartScheduler(); err != nil {
		logger.Fatalf("Failed to start relay scheduler: %v", err)
	}

	d := services.Deps{DB: db, Coord: coord, Relay: relay}
	return &appServices{
		db:          db,
		hooks:       hooks,
		bus:         bus,
		worker:      worker,
		relay:       relay,
		deletion:    stats.NewDeletionWorkflow(db, coord, relay),
		entries:     services.NewEntryService(d),
		flags:       services.NewFlagService(d),
		evaluations: services.NewEvaluationService(d),
		sessions:    services.NewSessionService(d),
		settings:    services.NewSettingsService(d, cfg.Stats.DefaultTargetReviews),
		stats:       services.NewStatsService(db),
		audit:       services.NewAuditService(db),
	}
}

func instanceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "evalstats"
	}
	return host + "-" + uuid.NewString()[:8]
}

// shutdown stops the relay, drains the bus and closes the database.
func (s *appServices) shutdown() {
	s.relay.StopScheduler()
	logger.Info().Msg("Relay scheduler stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.bus != nil {
		if err := s.bus.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close event bus")
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}
