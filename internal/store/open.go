package store

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func OpenPostgres(dsn string, logMode logger.LogLevel) (*GormStore, error) {
	return open(postgres.Open(dsn), logMode)
}

func OpenSQLite(path string, logMode logger.LogLevel) (*GormStore, error) {
	return open(sqlite.Open(path), logMode)
}

// OpenMemory opens a private in-memory sqlite database, mostly for tests.
func OpenMemory() (*GormStore, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	s, err := OpenSQLite(dsn, logger.Silent)
	if err != nil {
		return nil, err
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, err
	}
	// shared-cache memory databases lock per table; one connection avoids
	// spurious "table is locked" errors under concurrent writers
	sqlDB.SetMaxOpenConns(1)
	return s, nil
}

func open(dialector gorm.Dialector, logMode logger.LogLevel) (*GormStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, err
	}
	s := NewGormStore(db)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}
