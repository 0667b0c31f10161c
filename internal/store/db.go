package store

import (
	"errors"
	"strings"

	"feedback-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database named by dsn.
// SQLite DSNs start with "file:" and are used for tests and local runs.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_DSN environment variable is required")
	}

	cfg := &gorm.Config{TranslateError: true, Logger: logger.Default.LogMode(logger.Silent)}
	if strings.HasPrefix(dsn, "file:") {
		return gorm.Open(sqlite.Open(dsn), cfg)
	}
	return gorm.Open(postgres.Open(dsn), cfg)
}

// Migrate creates or updates every table the service owns
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Feedback{},
		&models.SubmissionToken{},
	)
}
