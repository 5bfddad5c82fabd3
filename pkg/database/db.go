package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config carries connection settings. DSN wins when set, otherwise it is assembled from the parts.
type Config struct {
	DSN      string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	Debug    bool
}

func (c Config) dsn() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.User, c.Password, c.Name, c.Port,
	)
}

// Connect opens the Postgres pool. TranslateError lets dialect errors surface as gorm sentinels.
func Connect(cfg Config) (*gorm.DB, error) {
	return Open(postgres.Open(cfg.dsn()), cfg.Debug)
}

// Open wraps gorm.Open with the settings every dialector shares.
func Open(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	return db, nil
}
