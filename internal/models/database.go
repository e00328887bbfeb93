package models

import (
	"errors"
	"fmt"

	"github.com/huangang/evalstats/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the document store. The handle is owned by the caller and
// passed explicitly to every service that needs it.
func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	logMode := logger.Warn
	if cfg.LogSQL {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logMode),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Entry{},
		&EntryFlag{},
		&Evaluation{},
		&ParticipantSession{},
		&AdminSettings{},
		&OverviewStats{},
		&ResponseAggregates{},
		&DemographicsSummary{},
		&AuditLog{},
		&ChangeEvent{},
		&ProcessedEvent{},
		&SchedulerLock{},
	)
}

// SeedDefaultData creates the global settings document if it does not exist.
// Aggregate documents are deliberately not seeded: the aggregators create
// them on first write.
func SeedDefaultData(db *gorm.DB, defaultTarget int64) error {
	var settings AdminSettings
	err := db.Where("id = ?", SettingsDocID).First(&settings).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	settings = AdminSettings{
		ID:                       SettingsDocID,
		MinTargetReviewsPerEntry: defaultTarget,
	}
	return db.Create(&settings).Error
}
