// Package storage remembers the display name chosen for a session, so a
// reconnect or restart joins under the same name.
package storage

import (
	"context"
	"fmt"

	"github.com/yourusername/watchroom-chat/internal/config"
)

// Store persists one display name under the key it was opened with.
// Load returns "" and no error when nothing is stored.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, username string) error
	Clear(ctx context.Context) error
	Close() error
}

// Open returns the store selected by cfg, scoped to key.
func Open(cfg config.StorageConfig, key string) (Store, error) {
	switch cfg.Driver {
	case config.DriverFile, "":
		return NewFileStore(cfg.Path, key), nil
	case config.DriverSQLite:
		return NewSQLiteStore(cfg.Path, key)
	default:
		return nil, fmt.Errorf("open storage %q: %w", cfg.Driver, config.ErrUnknownDriver)
	}
}

// Key scopes a stored name to one room of one session.
func Key(sessionID, roomType string) string {
	return "chat_username:" + sessionID + ":" + roomType
}
