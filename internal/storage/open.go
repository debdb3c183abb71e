package storage

import (
	"fmt"
	"strings"

	logx "visawatch/pkg/logx"
)

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(cfg.Key) == "" {
		cfg.Key = DefaultKey
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	var (
		st  Store
		err error
	)
	switch driver {
	case "", "file":
		st, err = openFile(cfg)
	case "sqlite", "sqlite3":
		st, err = openSQLite(cfg)
	case "redis":
		st, err = openRedis(cfg)
	case "postgres", "pgx":
		st, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	log.Info("storage opened", logx.String("driver", driver))
	return st, nil
}
