package config

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/collegelover/college-lover-api/models"
)

// InitDB opens the database selected by DB_DRIVER and migrates the schema.
func InitDB(cfg *Config, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	memory := false

	switch cfg.Database.Driver {
	case "sqlite":
		path := cfg.Database.Path
		memory = path == ":memory:" || path == "file::memory:"
		dialector = sqlite.Open(path)
		log.WithField("path", path).Info("connecting to SQLite")
	case "postgres", "":
		dialector = postgres.Open(cfg.Database.PostgresDSN())
		log.WithField("host", cfg.Database.Host).Info("connecting to PostgreSQL")
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Database.Driver)
	}

	level := logger.Info
	if cfg.IsProduction() {
		level = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if memory {
		// every connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	log.Info("database connected & migrated")
	return db, nil
}

func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
