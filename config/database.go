package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"auction-harvester/models"
)

var DB *gorm.DB

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	defaultDatabasePath = "data/subastas.db"
)

// DatabaseDriver returns the configured DB_DRIVER, sqlite when unset.
func DatabaseDriver() string {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("DB_DRIVER")))
	if driver == "" {
		return DriverSQLite
	}
	return driver
}

func InitDB() {
	db, err := OpenDB(DatabaseDriver())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	DB = db
	log.Printf("Database connected successfully (%s)", DatabaseDriver())
}

// OpenDB opens the store selected by driver with the shared gorm settings.
func OpenDB(driver string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			os.Getenv("DB_USERNAME"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_DATABASE"),
		)
		dialector = mysql.Open(dsn)
	case DriverSQLite:
		path := os.Getenv("DATABASE_PATH")
		if path == "" {
			path = defaultDatabasePath
		}
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dialector = sqlite.Open(SQLiteDSN(path))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	return gorm.Open(dialector, &gorm.Config{Logger: gormLogger()})
}

// SQLiteDSN enables foreign keys so asset rows follow their auction on delete.
func SQLiteDSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Migrate creates or updates the harvest tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Auction{}, &models.Asset{}, &models.HarvestRun{})
}

func gormLogger() logger.Interface {
	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	debugSQL := strings.ToLower(os.Getenv("DEBUG_SQL"))

	// SQL statements are noisy; production only logs them with DEBUG_SQL=true.
	logLevel := logger.Info
	if environment == "production" && debugSQL != "true" {
		logLevel = logger.Warn
	}

	return logger.New(
		log.New(LogWriter, "\r\n", log.LstdFlags),
		logger.Config{LogLevel: logLevel, IgnoreRecordNotFoundError: true},
	)
}
