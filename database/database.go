package database

import (
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Romarate18/StockaDoodle-IMS/models"
)

const sqlitePrefix = "sqlite://"

// Open connects to the store named by url.
// postgres:// and postgresql:// URLs go through lib/pq; sqlite://<path> (or a bare
// path) opens a SQLite file with foreign keys enforced.
func Open(url string, log logrus.FieldLogger) (*gorm.DB, error) {
	dialector, isSQLite := dialectorFor(url)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newQueryLogger(log),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if isSQLite {
		// One connection serialises writers and keeps :memory: databases alive.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.WithField("driver", dialector.Name()).Info("database connection established")
	return db, nil
}

func dialectorFor(url string) (gorm.Dialector, bool) {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        url,
		}), false
	}

	path := strings.TrimPrefix(url, sqlitePrefix)
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return sqlite.New(sqlite.Config{
		DriverName: sqliteDriverName,
		DSN:        path + sep + "_foreign_keys=on",
	}), true
}

// Migrate creates or updates every table the API owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.ActivityLog{},
		&models.RetailerMetrics{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
