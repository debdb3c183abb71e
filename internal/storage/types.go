package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnknownDriver = errors.New("unknown storage driver")
	ErrClosed        = errors.New("storage closed")
)

// DefaultKey names the record in keyed backends (sqlite, redis, postgres).
const DefaultKey = "visawatch:last_message"

// Config configures storage.
//
// Driver values: "file", "sqlite", "redis", "postgres".
type Config struct {
	Driver      string
	Path        string        // file, sqlite
	DSN         string        // postgres
	Addr        string        // redis
	Password    string        // redis
	DB          int           // redis
	Key         string        // record key; DefaultKey when empty
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store holds the last successfully sent message.
// Single-writer: callers must not Write concurrently.
type Store interface {
	// Read returns "" with a nil error when no record exists.
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, msg string) error
	Close() error
}
