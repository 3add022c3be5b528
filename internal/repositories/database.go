package repositories

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vsharma2491/ALGO/internal/logger"
	"github.com/vsharma2491/ALGO/internal/models"
)

// Open connects to postgres with SQL tracing routed through log.
func Open(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the tables the repositories use.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Price{}, &models.BacktestRun{}, &models.TradeRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
