// Package rsvp records guest responses in the persisted guest list.
package rsvp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/id"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/storage"
	"wedding-invitation/internal/validation"
)

// MaxPartySize caps the number of people one response can bring.
const MaxPartySize = 50

var (
	// ErrClosed is returned when the event has already passed.
	ErrClosed = errors.New("rsvp closed: the event has passed")
	// ErrNameRequired is returned when an attending guest leaves the name blank.
	ErrNameRequired = errors.New("name is required when attending")
)

// Gate reports whether submissions are closed.
type Gate interface {
	IsExpired() bool
}

// Submission is a guest's response as entered.
type Submission struct {
	Name      string            `json:"name"`
	Status    models.RSVPStatus `json:"status" validate:"required,oneof=attending not_attending"`
	PartySize int               `json:"partySize" validate:"min=0,max=50"`
	Channel   string            `json:"channel,omitempty" validate:"omitempty,max=32"`
}

// Summary aggregates the guest list.
type Summary struct {
	Responses    int `json:"responses"`
	Attending    int `json:"attending"`
	NotAttending int `json:"notAttending"`
	Guests       int `json:"guests"`
}

// Service appends RSVPs to the guest list. The list is stored newest first
// and rewritten in full on every change.
type Service struct {
	store     storage.Store
	clock     clockwork.Clock
	validator *validation.Validator
	log       zerolog.Logger

	mu sync.Mutex
}

// NewService creates an RSVP service. A nil clock uses the real clock.
func NewService(store storage.Store, clock clockwork.Clock, log zerolog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		store:     store,
		clock:     clock,
		validator: validation.New(),
		log:       log,
	}
}

// Submit records a response unless gate reports the event has passed.
func (s *Service) Submit(ctx context.Context, gate Gate, sub Submission) (models.RSVP, error) {
	if gate != nil && gate.IsExpired() {
		s.log.Debug().Str("status", string(sub.Status)).Msg("Rejected RSVP after event")
		return models.RSVP{}, ErrClosed
	}

	sub.Name = strings.TrimSpace(sub.Name)
	switch sub.Status {
	case models.RSVPNotAttending:
		sub.PartySize = 0
		if sub.Name == "" {
			sub.Name = models.GuestPlaceholder
		}
	case models.RSVPAttending:
		if sub.Name == "" {
			return models.RSVP{}, ErrNameRequired
		}
		if sub.PartySize < 1 {
			sub.PartySize = 1
		}
	}

	if err := s.validator.Validate(sub); err != nil {
		return models.RSVP{}, err
	}

	rsvpID, err := id.Generate("rsvp")
	if err != nil {
		return models.RSVP{}, err
	}

	record := models.RSVP{
		ID:          rsvpID,
		Name:        sub.Name,
		Status:      sub.Status,
		PartySize:   sub.PartySize,
		SubmittedAt: s.clock.Now(),
		Channel:     sub.Channel,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return models.RSVP{}, err
	}

	list = append([]models.RSVP{record}, list...)
	if err := s.store.Save(ctx, storage.KeyRSVPs, list); err != nil {
		return models.RSVP{}, fmt.Errorf("failed to save rsvp: %w", err)
	}

	s.log.Info().
		Str("id", record.ID).
		Str("status", string(record.Status)).
		Int("party_size", record.PartySize).
		Msg("RSVP recorded")

	return record, nil
}

// List returns all responses, newest first.
func (s *Service) List(ctx context.Context) ([]models.RSVP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Clear removes every response.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, storage.KeyRSVPs, []models.RSVP{}); err != nil {
		return fmt.Errorf("failed to clear rsvps: %w", err)
	}
	s.log.Info().Msg("Guest list cleared")
	return nil
}

// Summary totals the guest list.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	list, err := s.List(ctx)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, r := range list {
		sum.Responses++
		switch r.Status {
		case models.RSVPAttending:
			sum.Attending++
			sum.Guests += r.PartySize
		case models.RSVPNotAttending:
			sum.NotAttending++
		}
	}
	return sum, nil
}

func (s *Service) load(ctx context.Context) ([]models.RSVP, error) {
	list := []models.RSVP{}
	if _, err := s.store.Load(ctx, storage.KeyRSVPs, &list); err != nil {
		return nil, fmt.Errorf("failed to load rsvps: %w", err)
	}
	if list == nil {
		list = []models.RSVP{}
	}
	return list, nil
}
