package persistence

import (
	"local-electrician/internal/interface/repository"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewPostgresDB opens the ledger database and ensures the legacy ledger table
// exists.
func NewPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&repository.LedgerRow{}); err != nil {
		return nil, err
	}
	return db, nil
}
