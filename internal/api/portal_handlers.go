package api

import (
	"net/http"

	"github.com/rs/zerolog/hlog"

	"wedding-invitation/internal/codec"
	"wedding-invitation/internal/countdown"
	"wedding-invitation/internal/greeting"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/navigation"
	"wedding-invitation/internal/portal"
)

// PortalResponse is everything a view needs to render.
type PortalResponse struct {
	portal.Resolution
	Speakers  []string        `json:"speakers"`
	Countdown countdown.State `json:"countdown"`
	Greeting  string          `json:"greeting"`
}

// handlePortal resolves ?view= and ?d= the way a page load does. A
// malformed payload falls back to the admin's working config.
func (s *Server) handlePortal(w http.ResponseWriter, r *http.Request) {
	res := portal.Resolve(navigation.FromURL(r.URL), s.services.Workspace.Config(), *hlog.FromRequest(r))

	s.writeJSON(w, http.StatusOK, PortalResponse{
		Resolution: res,
		Speakers:   res.Config.RenderedSpeakers(),
		Countdown:  s.countdownFor(res.Config.EventDateIso),
		Greeting:   s.greetingFor(r, res.View),
	})
}

func (s *Server) greetingFor(r *http.Request, view models.View) string {
	switch view {
	case models.ViewAdmin:
		return s.services.Greeting.Greeting(r.Context(), greeting.RoleAdmin)
	case models.ViewInvitation:
		return s.services.Greeting.Greeting(r.Context(), greeting.RoleGuest)
	default:
		return greeting.Landing(s.opts.PortalName)
	}
}

func (s *Server) countdownFor(iso string) countdown.State {
	return countdown.Compute(iso, s.opts.Clock.Now(), s.opts.Location)
}

// eventDateFor returns the timestamp the request refers to: the one in a
// valid ?d= payload, else the working config's.
func (s *Server) eventDateFor(r *http.Request) (string, bool) {
	if payload := r.URL.Query().Get(codec.ParamState); payload != "" {
		cfg, err := codec.Decode(payload)
		if err == nil {
			return cfg.EventDateIso, true
		}
		hlog.FromRequest(r).Warn().Err(err).Msg("Ignoring invitation payload from link")
	}
	return s.services.Workspace.Config().EventDateIso, false
}
