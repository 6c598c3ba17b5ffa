package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/krishkalaria12/card-images/models"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Open connects to the database named by dsn. Postgres URLs and key=value DSNs go to
// Postgres; anything else is treated as a SQLite file path. SQLAlchemy-style URLs
// (sqlite:///path, postgresql+psycopg2://...) are accepted as well.
func Open(dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	dsn = normalizeDSN(dsn)

	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	postgresDSN := isPostgres(dsn)

	var dialector gorm.Dialector
	if postgresDSN {
		dialector = postgres.Open(withConnectTimeout(dsn))
	} else {
		// modernc.org/sqlite registers itself as "sqlite", which keeps the build free of cgo.
		dialector = sqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB object: %w", err)
	}

	if postgresDSN {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(30 * time.Minute)
	} else {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY between our own goroutines.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	log.Info().Str("dialect", db.Dialector.Name()).Msg("connected to database")
	return db, nil
}

// Migrate creates the card-images table and its indexes when missing.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.CardImage{})
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// normalizeDSN rewrites SQLAlchemy URLs into forms the GORM drivers understand:
// the "+driver" part of the scheme is dropped and sqlite:///path becomes path.
func normalizeDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	if base, _, found := strings.Cut(scheme, "+"); found {
		scheme = base
	}
	if scheme == "sqlite" {
		if rest == "" || rest == "/" {
			return ":memory:"
		}
		return strings.TrimPrefix(rest, "/")
	}
	return scheme + "://" + rest
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

func withConnectTimeout(dsn string) string {
	if strings.Contains(dsn, "connect_timeout") {
		return dsn
	}
	if strings.Contains(dsn, "://") {
		if strings.Contains(dsn, "?") {
			return dsn + "&connect_timeout=1"
		}
		return dsn + "?connect_timeout=1"
	}
	return dsn + " connect_timeout=1"
}
