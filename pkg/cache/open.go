package cache

import "fmt"

// Config selects and configures a Store.
type Config struct {
	Driver      string // memory, sqlite or postgres
	Path        string // sqlite file
	DSN         string // postgres
	AutoMigrate bool
}

// Open returns the Store named by cfg.Driver.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = "card_cache.db"
		}
		return OpenSQLite(path)
	case "memory":
		return NewMemory(), nil
	case "postgres":
		return OpenPostgres(cfg.DSN, cfg.AutoMigrate)
	}
	return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
}
