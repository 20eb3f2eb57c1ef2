package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/fiwb/twin-gateway/pkg/config"
)

// NewSQLite opens (and creates on first use) the local gateway store. The
// store is a single-user sqlite file, the moral equivalent of the browser's
// local storage in the original product.
func NewSQLite(cfg config.SessionConfig) (*sqlx.DB, error) {
	path := cfg.StorePath
	if path == "" {
		path = "./twin-session.db"
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	// sqlite tolerates exactly one writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping session store: %w", err)
	}

	return db, nil
}
