package database

import (
	"fmt"

	"foodcatalog/internal/model"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewConnection initializes a new connection pool using GORM. Driver errors are
// translated so unique violations surface as gorm.ErrDuplicatedKey.
func NewConnection(dsn string, autoMigrate bool, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if autoMigrate {
		if err := AutoMigrate(db); err != nil {
			log.Warn().Err(err).Msg("failed to auto-migrate models")
		}
	}

	return db, nil
}

// AutoMigrate syncs the schema from the models. SQL migrations are the primary path.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Product{},
		&model.AuditLog{},
	)
}
