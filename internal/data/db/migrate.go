package db

import (
	"gorm.io/gorm"

	"github.com/fieldmate/fieldmate-backend/internal/domain"
)

func (s *PostgresService) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Client{},
		&domain.Visit{},
		&domain.Note{},
		&domain.Suggestion{},
	)
}
