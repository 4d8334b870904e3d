package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/NanamiChiaki-7/Notiobsidian/pkg/logx"
)

var ErrDisabled = errors.New("store disabled")

// Page is one note document: free text that may embed calendar events and
// notice rules.
type Page struct {
	ID      int64
	Title   string
	Content string
}

// Store is the minimal read API the reminder engine needs.
type Store interface {
	ListPages(ctx context.Context) ([]Page, error)
	Close() error
}

// Config configures the notes database connection.
//
// Driver values:
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", the store is disabled and Open returns
// (nil, nil); the scheduler then runs on live-pushed records only.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // 0 means driver default
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
