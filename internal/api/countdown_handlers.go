package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"wedding-invitation/internal/countdown"
)

func (s *Server) handleCountdown(w http.ResponseWriter, r *http.Request) {
	iso, _ := s.eventDateFor(r)
	s.writeJSON(w, http.StatusOK, s.countdownFor(iso))
}

// handleCountdownStream sends one "countdown" event per tick until the
// event expires, the timestamp turns out invalid, or the client leaves.
func (s *Server) handleCountdownStream(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	iso, _ := s.eventDateFor(r)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		log.Error().Err(err).Msg("Streaming not supported")
		s.writeError(w, http.StatusInternalServerError, CodeInternal, "Streaming not supported", nil)
		return
	}

	states := make(chan countdown.State, 8)
	engine := countdown.NewEngine(s.opts.Clock, s.opts.Location, iso)
	unsubscribe := engine.Subscribe(func(st countdown.State) {
		select {
		case states <- st:
		default:
		}
	})
	defer unsubscribe()

	engine.Start(r.Context())
	defer engine.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case st := <-states:
			data, err := json.Marshal(st)
			if err != nil {
				log.Error().Err(err).Msg("Failed to encode countdown")
				return
			}
			if _, err := fmt.Fprintf(w, "event: countdown\ndata: %s\n\n", data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
			if st.Expired || st.Idle {
				return
			}
		}
	}
}
