// Package dbsql keeps user records in MySQL or PostgreSQL through gorm.
package dbsql

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"userdirectory/internal/config"
	"userdirectory/internal/user"
)

// Open connects to the SQL database selected by STORE_DRIVER (mysql or
// postgres), falling back to DB_DRIVER, and migrates the users table.
func Open(cnf *config.Config) (*gorm.DB, error) {
	driver := cnf.Database.Driver
	if cnf.Store.Driver == "mysql" || cnf.Store.Driver == "postgres" {
		driver = cnf.Store.Driver
	}
	cnf.Database.Driver = driver

	dialector, err := newDialector(driver, cnf.DSN())
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, newGormConfig(cnf.Logging.Level))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB error: %w", err)
	}
	sqlDB.SetMaxOpenConns(cnf.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cnf.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	log.Printf("Connected to %s successfully", driver)
	return db, nil
}

func newDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
}

func newGormConfig(level string) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(level)),
		PrepareStmt:    true,
		TranslateError: true,
	}
}

// gormLogLevel maps the application log level. SQL statements are only
// logged at debug.
func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.Info
	case "info", "warn", "warning":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Warn
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&user.User{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
