package postgresql

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	MaxOpenConns int
	MaxIdleConns int
	LogLevel     logger.LogLevel
}

// Initialize opens the db session, retrying while the server comes up, and auto
// migrates given models
func Initialize(connStr string, models []any, opts Options) (db *gorm.DB, err error) {
	retryTicker := time.NewTicker(time.Second * 2)
	defer retryTicker.Stop()

	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(opts.LogLevel)}

	// retry connect
	for range 5 {
		db, err = gorm.Open(postgres.Open(connStr), cfg)
		if err == nil {
			break
		}
		<-retryTicker.C
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDb, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		sqlDb.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDb.SetMaxIdleConns(opts.MaxIdleConns)
	}

	if err = db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to migrate models: %w", err)
	}

	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDb, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDb.Close()
}
