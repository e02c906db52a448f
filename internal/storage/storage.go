// Package storage persists named collections. Each collection is a single
// JSON value that is read whole and rewritten whole on every mutation.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/rs/zerolog"
)

// Collection keys.
const (
	KeyRSVPs   = "rsvp_list"
	KeyArchive = "publish_archive"
)

// ErrInvalidKey is returned for keys outside [a-z0-9_-].
var ErrInvalidKey = errors.New("invalid collection key")

var keyPattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// Store reads and writes named collections.
type Store interface {
	// Load decodes the collection into dest. found is false when the
	// collection has never been written; dest is left untouched.
	Load(ctx context.Context, key string, dest any) (found bool, err error)
	// Save replaces the collection with value.
	Save(ctx context.Context, key string, value any) error
	Close() error
}

// Open creates the backend named by backend under dataDir.
func Open(backend, dataDir string, log zerolog.Logger) (Store, error) {
	var (
		s   Store
		err error
	)

	switch backend {
	case "file":
		s, err = NewFileStore(dataDir)
	case "sqlite":
		s, err = NewSQLiteStore(filepath.Join(dataDir, "portal.db"))
	case "badger":
		s, err = NewBadgerStore(filepath.Join(dataDir, "badger"))
	case "memory":
		s = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", backend, err)
	}

	log.Info().Str("backend", backend).Str("dir", dataDir).Msg("Storage opened")
	return s, nil
}

func checkKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
