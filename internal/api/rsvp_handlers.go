package api

import (
	"net/http"

	"wedding-invitation/internal/countdown"
	"wedding-invitation/internal/rsvp"
)

const channelWeb = "web"

// handleSubmitRSVP records a guest response. Submissions made from a
// shared link are gated on that link's timestamp. The service validates
// after normalizing, so a declined response with a stray count still goes
// through.
func (s *Server) handleSubmitRSVP(w http.ResponseWriter, r *http.Request) {
	var sub rsvp.Submission
	if err := decodeBody(r, &sub); err != nil {
		s.handleError(w, r, err)
		return
	}
	if sub.Channel == "" {
		sub.Channel = channelWeb
	}

	var gate rsvp.Gate = s.services.Engine
	if iso, fromLink := s.eventDateFor(r); fromLink {
		gate = countdown.Compute(iso, s.opts.Clock.Now(), s.opts.Location)
	}

	record, err := s.services.RSVPs.Submit(r.Context(), gate, sub)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleListRSVPs(w http.ResponseWriter, r *http.Request) {
	list, err := s.services.RSVPs.List(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleRSVPSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.services.RSVPs.Summary(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleClearRSVPs(w http.ResponseWriter, r *http.Request) {
	if err := s.services.RSVPs.Clear(r.Context()); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
