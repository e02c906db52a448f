// Package archive keeps the history of published invitations.
package archive

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/models"
	"wedding-invitation/internal/storage"
)

// ErrNotFound is returned when no archived invitation has the id.
var ErrNotFound = errors.New("archived invitation not found")

// Archive stores published invitations keyed by config id. Publishing an
// id that exists replaces that entry in place; a new id is prepended.
type Archive struct {
	store storage.Store
	clock clockwork.Clock
	log   zerolog.Logger

	mu sync.Mutex
}

func New(store storage.Store, clock clockwork.Clock, log zerolog.Logger) *Archive {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Archive{store: store, clock: clock, log: log}
}

// Publish upserts cfg with its share link. A config without an id is
// given one.
func (a *Archive) Publish(ctx context.Context, cfg models.InvitationConfig, link string) (models.Published, error) {
	now := a.clock.Now()
	if cfg.ID == "" {
		cfg.ID = models.NewEventID(now)
	}

	entry := models.Published{Config: cfg.Clone(), Link: link, PublishedAt: now}

	a.mu.Lock()
	defer a.mu.Unlock()

	list, err := a.load(ctx)
	if err != nil {
		return models.Published{}, err
	}

	replaced := false
	for i := range list {
		if list[i].Config.ID == cfg.ID {
			list[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		list = append([]models.Published{entry}, list...)
	}

	if err := a.store.Save(ctx, storage.KeyArchive, list); err != nil {
		return models.Published{}, fmt.Errorf("failed to save archive: %w", err)
	}

	a.log.Info().Str("id", cfg.ID).Bool("replaced", replaced).Msg("Invitation published")
	return entry, nil
}

// List returns the archive in stored order.
func (a *Archive) List(ctx context.Context) ([]models.Published, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.load(ctx)
}

// Get returns the entry for id.
func (a *Archive) Get(ctx context.Context, id string) (models.Published, error) {
	list, err := a.List(ctx)
	if err != nil {
		return models.Published{}, err
	}
	for _, p := range list {
		if p.Config.ID == id {
			return p, nil
		}
	}
	return models.Published{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes the entry for id.
func (a *Archive) Delete(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	list, err := a.load(ctx)
	if err != nil {
		return err
	}

	kept := list[:0]
	for _, p := range list {
		if p.Config.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(list) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := a.store.Save(ctx, storage.KeyArchive, kept); err != nil {
		return fmt.Errorf("failed to save archive: %w", err)
	}
	return nil
}

func (a *Archive) load(ctx context.Context) ([]models.Published, error) {
	list := []models.Published{}
	if _, err := a.store.Load(ctx, storage.KeyArchive, &list); err != nil {
		return nil, fmt.Errorf("failed to load archive: %w", err)
	}
	if list == nil {
		list = []models.Published{}
	}
	for i := range list {
		list[i].Config = list[i].Config.Normalize()
	}
	return list, nil
}
