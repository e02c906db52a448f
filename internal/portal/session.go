package portal

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"wedding-invitation/internal/codec"
	"wedding-invitation/internal/greeting"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/navigation"
)

// SessionState is what one viewer currently sees.
type SessionState struct {
	View            models.View             `json:"view"`
	Config          models.InvitationConfig `json:"config"`
	Greeting        string                  `json:"greeting"`
	LoadingGreeting bool                    `json:"loadingGreeting"`
}

// Session tracks one viewer: the location, the active view and the
// greeting for it. Switching views abandons any greeting still in flight.
type Session struct {
	loc    navigation.Location
	gen    greeting.Generator
	portal string
	log    zerolog.Logger

	mu       sync.Mutex
	state    SessionState
	cancel   context.CancelFunc
	switches int
}

func NewSession(loc navigation.Location, gen greeting.Generator, portalName string, log zerolog.Logger) *Session {
	return &Session{
		loc:    loc,
		gen:    gen,
		portal: portalName,
		log:    log,
		state: SessionState{
			View:     models.ViewLanding,
			Greeting: greeting.Landing(portalName),
		},
	}
}

// Load applies the location on first display.
func (s *Session) Load(fallback models.InvitationConfig) Resolution {
	res := Resolve(s.loc, fallback, s.log)

	s.mu.Lock()
	s.state.View = res.View
	s.state.Config = res.Config
	s.mu.Unlock()

	return res
}

// SwitchView moves to view. Landing clears the view and state parameters
// and restores the landing greeting. Other views show a loading greeting
// and request a new one without waiting for it.
func (s *Session) SwitchView(ctx context.Context, view models.View) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.switches++
	s.state.View = view

	if view == models.ViewLanding {
		s.loc.DelQuery(codec.ParamView)
		s.loc.DelQuery(codec.ParamState)
		s.state.Greeting = greeting.Landing(s.portal)
		s.state.LoadingGreeting = false
		return
	}

	role := greeting.RoleGuest
	if view == models.ViewAdmin {
		role = greeting.RoleAdmin
	}

	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state.LoadingGreeting = true
	gen := s.switches

	greeting.Prefetch(reqCtx, s.gen, role, func(text string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.switches {
			return
		}
		s.state.Greeting = text
		s.state.LoadingGreeting = false
	})
}

// SetConfig replaces the config shown in this session.
func (s *Session) SetConfig(cfg models.InvitationConfig) {
	s.mu.Lock()
	s.state.Config = cfg.Clone()
	s.mu.Unlock()
}

// State returns a snapshot.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Config = st.Config.Clone()
	return st
}

// Location returns the current address.
func (s *Session) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loc.String()
}

// Close abandons any pending greeting.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.switches++
}
