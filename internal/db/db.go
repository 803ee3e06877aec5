package db

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	sqlite3 "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Handle struct {
	DB     *gorm.DB
	Driver string
	Path   string // DSN albo ścieżka pliku
}

// OpenAt otwiera domyślną bazę SQLite (pure Go) w katalogu aplikacji.
func OpenAt(dir string) (*Handle, error) {
	return Open("sqlite", filepath.Join(dir, "feedsync.db"), false)
}

// Open otwiera bazę dla wskazanego sterownika: sqlite (glebarez, bez cgo),
// sqlite3 (mattn, cgo), postgres, mysql.
func Open(driver, dsn string, verbose bool) (*Handle, error) {
	var dial gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		driver = "sqlite"
		dial = sqlite.Open(dsn)
	case "sqlite3":
		dial = sqlite3.Open(dsn)
	case "postgres", "postgresql":
		driver = "postgres"
		dial = postgres.Open(dsn)
	case "mysql":
		dial = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("nieznany sterownik bazy %q", driver)
	}

	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if verbose {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	gdb, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	// SQLite: jeden writer naraz, inaczej fan-out batchy kończy się SQLITE_BUSY
	if driver == "sqlite" || driver == "sqlite3" {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return &Handle{DB: gdb, Driver: driver, Path: dsn}, nil
}

func (h *Handle) Close() error {
	sqlDB, err := h.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
