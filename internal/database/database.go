package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/newtechs/backend/internal/config"
	"github.com/newtechs/backend/internal/entities"
)

// Write transactions take the lock at BEGIN so a concurrent commit makes
// them wait on the busy timeout instead of failing on a stale snapshot.
const sqliteParams = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"

type Database struct {
	DB *gorm.DB
}

func NewDatabase(cfg config.Database, log *zap.Logger) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("database initialized", zap.String("driver", driverName(cfg)), zap.String("path", cfg.Path))

	return &Database{DB: db}, nil
}

func migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&entities.Post{}, "Categories", &entities.PostCategory{}); err != nil {
		return err
	}
	if err := db.SetupJoinTable(&entities.Category{}, "Posts", &entities.PostCategory{}); err != nil {
		return err
	}
	return db.AutoMigrate(
		&entities.Blog{},
		&entities.Author{},
		&entities.Category{},
		&entities.Post{},
		&entities.PostCategory{},
		&entities.Comment{},
		&entities.NewsletterSubscriber{},
		&entities.ImportRun{},
	)
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	switch driverName(cfg) {
	case config.DriverSQLite:
		return sqlite.Open(sqliteDSN(cfg.Path)), nil
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for driver %q", cfg.Driver)
		}
		return postgres.Open(cfg.DSN), nil
	case config.DriverMySQL:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for driver %q", cfg.Driver)
		}
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func driverName(cfg config.Database) string {
	if cfg.Driver == "" {
		return config.DriverSQLite
	}
	return strings.ToLower(cfg.Driver)
}

func sqliteDSN(path string) string {
	if path == "" {
		path = config.DefaultDatabasePath
	}
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?" + sqliteParams
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
