// Package portal holds the admin's working invitation and decides which
// view a visitor sees.
package portal

import (
	"github.com/rs/zerolog"

	"wedding-invitation/internal/codec"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/navigation"
)

// Resolution is the outcome of reading a location on load.
type Resolution struct {
	View     models.View             `json:"view"`
	Config   models.InvitationConfig `json:"config"`
	FromLink bool                    `json:"fromLink"`
}

// Resolve picks the config and view for loc. A decodable state parameter
// wins over everything and forces the invitation view. A malformed one is
// logged and ignored, and the view selector applies to fallback.
func Resolve(loc navigation.Location, fallback models.InvitationConfig, log zerolog.Logger) Resolution {
	if payload := loc.Query(codec.ParamState); payload != "" {
		cfg, err := codec.Decode(payload)
		if err == nil {
			return Resolution{View: models.ViewInvitation, Config: cfg, FromLink: true}
		}
		log.Warn().Err(err).Msg("Ignoring invitation payload from link")
	}

	view := models.ParseView(loc.Query(codec.ParamView))
	return Resolution{View: view, Config: fallback.Clone()}
}
