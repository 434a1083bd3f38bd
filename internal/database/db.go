package database

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DSN builds the sqlite connection string used by both gorm and migrations.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
}

// Open opens the sqlite database at path. The schema is owned by Migrate;
// Open never alters it.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(DSN(path)), &gorm.Config{
		TranslateError: true,
		NowFunc:        Now,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("Open: failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("Open: failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1) // sqlite
	sqlDB.SetConnMaxLifetime(0)

	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Now returns the current time in UTC. All timestamps are stored in UTC so
// that range comparisons in sqlite are consistent.
func Now() time.Time {
	return time.Now().UTC()
}
