package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"wedding-invitation/internal/models"
)

// PatchConfigRequest edits one field, or replaces the speaker list when
// Muballighs is present.
type PatchConfigRequest struct {
	Field      string    `json:"field" validate:"required_without=Muballighs"`
	Value      string    `json:"value"`
	Muballighs *[]string `json:"muballighs"`
}

// NewConfigRequest confirms discarding the working config.
type NewConfigRequest struct {
	Confirm bool `json:"confirm"`
}

// ShareRequest sends the current invitation to one guest.
type ShareRequest struct {
	Phone string `json:"phone" validate:"required,min=6,max=20"`
	Name  string `json:"name" validate:"max=100"`
}

// ShareResponse reports the link that was sent.
type ShareResponse struct {
	Link string `json:"link"`
	Sent bool   `json:"sent"`
}

// ConfigResponse is the working config with its derived speaker list.
type ConfigResponse struct {
	Config   models.InvitationConfig `json:"config"`
	Speakers []string                `json:"speakers"`
}

func configResponse(cfg models.InvitationConfig) ConfigResponse {
	return ConfigResponse{Config: cfg, Speakers: cfg.RenderedSpeakers()}
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, configResponse(s.services.Workspace.Config()))
}

func (s *Server) handlePatchConfig(w http.ResponseWriter, r *http.Request) {
	var req PatchConfigRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	if req.Muballighs != nil {
		s.writeJSON(w, http.StatusOK, configResponse(s.services.Workspace.SetSpeakers(*req.Muballighs)))
		return
	}

	cfg, err := s.services.Workspace.Edit(req.Field, req.Value)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, configResponse(cfg))
}

func (s *Server) handleNewConfig(w http.ResponseWriter, r *http.Request) {
	var req NewConfigRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	cfg, err := s.services.Workspace.CreateNew(req.Confirm)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, configResponse(cfg))
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	entry, err := s.services.Workspace.Publish(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

// handleShare sends the share link over WhatsApp. A failed send is a
// notice for the admin; the workspace is untouched either way.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	if s.services.Sharer == nil {
		s.writeError(w, http.StatusServiceUnavailable, CodeShareUnavailable, "WhatsApp sharing is not enabled", nil)
		return
	}

	var req ShareRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}

	link, err := s.services.Workspace.ShareLink()
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.services.Sharer.ShareInvitation(r.Context(), req.Phone, req.Name, s.services.Workspace.Config(), link); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("phone", req.Phone).Msg("Failed to share invitation")
		s.writeError(w, http.StatusBadGateway, CodeShareFailed, "Gagal membagikan undangan", map[string]string{"link": link})
		return
	}

	s.writeJSON(w, http.StatusOK, ShareResponse{Link: link, Sent: true})
}

func (s *Server) handleListArchive(w http.ResponseWriter, r *http.Request) {
	list, err := s.services.Archive.List(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetArchived(w http.ResponseWriter, r *http.Request) {
	entry, err := s.services.Archive.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleRestoreArchived(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.services.Workspace.Restore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, configResponse(cfg))
}

func (s *Server) handleDeleteArchived(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Archive.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
