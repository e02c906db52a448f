package portal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/archive"
	"wedding-invitation/internal/codec"
	"wedding-invitation/internal/countdown"
	"wedding-invitation/internal/models"
)

var (
	// ErrNotConfirmed is returned when create-new is not confirmed.
	ErrNotConfirmed = errors.New("create new invitation requires confirmation")
	// ErrUnknownField is returned for edits to fields that do not exist or are read-only.
	ErrUnknownField = errors.New("unknown invitation field")
	// ErrInvalidValue is returned when a value cannot be parsed for its field.
	ErrInvalidValue = errors.New("invalid field value")
)

// WorkspaceOptions configures a Workspace.
type WorkspaceOptions struct {
	Initial   models.InvitationConfig
	Location  *time.Location
	ZoneLabel string
	BaseURL   string
	Clock     clockwork.Clock
	Archive   *archive.Archive
	// Engine, when set, follows every change of eventDateIso.
	Engine *countdown.Engine
	Logger zerolog.Logger
}

// Workspace is the invitation being edited by the admin.
type Workspace struct {
	loc       *time.Location
	zoneLabel string
	baseURL   string
	clock     clockwork.Clock
	archive   *archive.Archive
	engine    *countdown.Engine
	log       zerolog.Logger

	// syncMu is held across a config write and the matching engine update
	// so the engine always follows the last stored eventDateIso.
	syncMu sync.Mutex

	mu  sync.RWMutex
	cfg models.InvitationConfig
}

func NewWorkspace(opts WorkspaceOptions) *Workspace {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	w := &Workspace{
		loc:       opts.Location,
		zoneLabel: opts.ZoneLabel,
		baseURL:   opts.BaseURL,
		clock:     opts.Clock,
		archive:   opts.Archive,
		engine:    opts.Engine,
		log:       opts.Logger,
		cfg:       opts.Initial.Normalize().Clone(),
	}
	w.syncEngine(w.cfg.EventDateIso)
	return w
}

// Config returns a copy of the working config.
func (w *Workspace) Config() models.InvitationConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg.Clone()
}

// Replace swaps in cfg as-is; display strings are not recomputed.
func (w *Workspace) Replace(cfg models.InvitationConfig) models.InvitationConfig {
	cfg = cfg.Normalize().Clone()

	w.syncMu.Lock()
	defer w.syncMu.Unlock()

	w.mu.Lock()
	w.cfg = cfg
	w.mu.Unlock()

	w.syncEngine(cfg.EventDateIso)
	return cfg.Clone()
}

// Edit sets one field by its JSON name. Editing eventDateIso to a
// parseable value also rewrites eventDateDisplay and eventTime; those two
// can still be edited on their own afterwards.
func (w *Workspace) Edit(field, value string) (models.InvitationConfig, error) {
	w.syncMu.Lock()
	defer w.syncMu.Unlock()

	w.mu.Lock()
	cfg := w.cfg.Clone()

	switch field {
	case "line1":
		cfg.Line1 = value
	case "line2":
		cfg.Line2 = value
	case "line3":
		cfg.Line3 = value
	case "line4":
		cfg.Line4 = value
	case "venueName":
		cfg.VenueName = value
	case "venueAddress":
		cfg.VenueAddress = value
	case "message":
		cfg.Message = value
	case "eventDateDisplay":
		cfg.EventDateDisplay = value
	case "eventTime":
		cfg.EventTime = value
	case "showMuballigh":
		b, err := strconv.ParseBool(value)
		if err != nil {
			w.mu.Unlock()
			return models.InvitationConfig{}, fmt.Errorf("%w: showMuballigh %q", ErrInvalidValue, value)
		}
		cfg.ShowMuballigh = b
	case "eventDateIso":
		cfg.EventDateIso = value
		if t, ok := countdown.ParseEventInstant(value, w.loc); ok {
			t = t.In(w.loc)
			cfg.EventDateDisplay = FormatDisplayDate(t)
			cfg.EventTime = FormatEventTime(t, w.zoneLabel)
		}
	default:
		w.mu.Unlock()
		return models.InvitationConfig{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	w.cfg = cfg
	w.mu.Unlock()

	if field == "eventDateIso" {
		w.syncEngine(cfg.EventDateIso)
	}
	return cfg.Clone(), nil
}

// SetSpeakers replaces the speaker list. Blank entries are kept.
func (w *Workspace) SetSpeakers(speakers []string) models.InvitationConfig {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cfg.Muballighs = append([]string{}, speakers...)
	return w.cfg.Clone()
}

// CreateNew discards the working config for a blank one.
func (w *Workspace) CreateNew(confirmed bool) (models.InvitationConfig, error) {
	if !confirmed {
		return models.InvitationConfig{}, ErrNotConfirmed
	}

	cfg := models.BlankInvitation(w.clock.Now().In(w.loc))

	w.syncMu.Lock()
	defer w.syncMu.Unlock()

	w.mu.Lock()
	w.cfg = cfg
	w.mu.Unlock()

	w.syncEngine(cfg.EventDateIso)
	w.log.Info().Str("id", cfg.ID).Msg("Started new invitation")
	return cfg.Clone(), nil
}

// ShareLink encodes the working config into a guest link.
func (w *Workspace) ShareLink() (string, error) {
	return codec.ShareURL(w.baseURL, w.Config())
}

// Publish builds the share link and upserts the config into the archive.
func (w *Workspace) Publish(ctx context.Context) (models.Published, error) {
	w.mu.Lock()
	if w.cfg.ID == "" {
		w.cfg.ID = models.NewEventID(w.clock.Now())
	}
	cfg := w.cfg.Clone()
	w.mu.Unlock()

	link, err := codec.ShareURL(w.baseURL, cfg)
	if err != nil {
		return models.Published{}, fmt.Errorf("failed to build share link: %w", err)
	}
	if w.archive == nil {
		return models.Published{Config: cfg, Link: link, PublishedAt: w.clock.Now()}, nil
	}
	return w.archive.Publish(ctx, cfg, link)
}

// Restore loads an archived config back into the workspace.
func (w *Workspace) Restore(ctx context.Context, id string) (models.InvitationConfig, error) {
	if w.archive == nil {
		return models.InvitationConfig{}, fmt.Errorf("%w: %s", archive.ErrNotFound, id)
	}
	entry, err := w.archive.Get(ctx, id)
	if err != nil {
		return models.InvitationConfig{}, err
	}
	return w.Replace(entry.Config), nil
}

func (w *Workspace) syncEngine(iso string) {
	if w.engine != nil {
		w.engine.SetEventDate(iso)
	}
}
