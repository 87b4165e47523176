package database

import (
	"time"

	"eventoensina-backend/internal/models"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from DSN, retrying with exponential backoff so the
// server survives a database that comes up slightly after it.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") when using connection poolers.
func Open(dsn string) (*gorm.DB, error) {
	var db *gorm.DB

	open := func() error {
		var err error
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{})
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(open, b); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate runs migrations for all core models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Participant{},
		&models.Event{},
		&models.Enrollment{},
		&models.Certificate{},
		&models.EmailJob{},
	)
}
