package models

import (
	"fmt"
	"strings"
	"time"
)

// DefaultEventID identifies the seeded invitation.
const DefaultEventID = "default-event-2025"

// IsoMinuteLayout is the canonical eventDateIso layout written by the editor.
const IsoMinuteLayout = "2006-01-02T15:04"

// InvitationConfig is the full, shareable state of one invitation.
//
// EventDateIso is canonical. EventDateDisplay and EventTime are cosmetic
// projections recomputed when EventDateIso is edited, but they stay
// independently editable and are never parsed, so they can drift.
type InvitationConfig struct {
	ID string `json:"id,omitempty"`

	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
	Line3 string `json:"line3"`
	Line4 string `json:"line4"`

	ShowMuballigh bool     `json:"showMuballigh"`
	Muballighs    []string `json:"muballighs"`

	EventDateIso     string `json:"eventDateIso"`
	EventDateDisplay string `json:"eventDateDisplay"`
	EventTime        string `json:"eventTime"`

	VenueName    string `json:"venueName"`
	VenueAddress string `json:"venueAddress"`
	Message      string `json:"message"`
}

// DefaultInvitation returns the seeded event shown before anything is edited.
func DefaultInvitation() InvitationConfig {
	return InvitationConfig{
		ID:               DefaultEventID,
		Line1:            "Maulid Nabi Muhammad Saw",
		Line2:            "Haul Masyayikh Pon-Pes Darul Huda",
		Line3:            "IKSADAH",
		Line4:            "Ikatan Alumni Santri Darul Huda",
		ShowMuballigh:    true,
		Muballighs:       []string{"KH. Abdurrahman Wahid", "KH. Maimun Zubair"},
		EventDateIso:     "2025-05-12T19:30",
		EventDateDisplay: "Senin, 12 Mei 2025",
		EventTime:        "19:30 WIB - Selesai",
		VenueName:        "Halaman Utama Pon-Pes Darul Huda",
		VenueAddress:     "Jl. Pengarang No. 12, Jawa Timur",
		Message:          "Kami mengharap kehadiran Bapak/Ibu/Saudara/i dalam acara tahunan kami sebagai bentuk syukur dan mempererat tali silaturahmi.",
	}
}

// BlankInvitation returns the empty config used by "create new".
// The event is placed 30 days after now, truncated to the minute.
func BlankInvitation(now time.Time) InvitationConfig {
	return InvitationConfig{
		ID:           NewEventID(now),
		Muballighs:   []string{""},
		EventDateIso: now.Add(30 * 24 * time.Hour).Format(IsoMinuteLayout),
	}
}

// NewEventID derives an archive id from a timestamp.
func NewEventID(now time.Time) string {
	return fmt.Sprintf("event-%d", now.UnixMilli())
}

// Normalize fills defaults for fields older or hand-crafted payloads omit.
// Empty speaker entries are kept.
func (c InvitationConfig) Normalize() InvitationConfig {
	if c.Muballighs == nil {
		c.Muballighs = []string{}
	}
	return c
}

// Clone returns a copy that shares no slices with c.
func (c InvitationConfig) Clone() InvitationConfig {
	if c.Muballighs != nil {
		c.Muballighs = append([]string(nil), c.Muballighs...)
	}
	return c
}

// RenderedSpeakers returns the speakers to display: none when the list is
// toggled off, otherwise the non-blank entries in order.
func (c InvitationConfig) RenderedSpeakers() []string {
	out := []string{}
	if !c.ShowMuballigh {
		return out
	}
	for _, m := range c.Muballighs {
		if strings.TrimSpace(m) != "" {
			out = append(out, m)
		}
	}
	return out
}

// Title joins the non-empty title lines, used for share messages.
func (c InvitationConfig) Title() string {
	var parts []string
	for _, l := range []string{c.Line1, c.Line2} {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, " - ")
}
