package models

import "time"

// GuestPlaceholder replaces a blank guest name.
const GuestPlaceholder = "Tamu Undangan"

// RSVPStatus represents the attendance decision
type RSVPStatus string

const (
	RSVPAttending    RSVPStatus = "attending"
	RSVPNotAttending RSVPStatus = "not_attending"
)

// RSVP is one guest response. Records are never edited after submission.
type RSVP struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Status      RSVPStatus `json:"status"`
	PartySize   int        `json:"partySize"`
	SubmittedAt time.Time  `json:"submittedAt"`
	Channel     string     `json:"channel,omitempty"`
}

// Published is an entry of the publish archive.
type Published struct {
	Config      InvitationConfig `json:"config"`
	Link        string           `json:"link"`
	PublishedAt time.Time        `json:"publishedAt"`
}
