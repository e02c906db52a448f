// Package countdown computes the time left until an event and whether it
// has passed. Only the canonical eventDateIso timestamp is consulted.
package countdown

import (
	"fmt"
	"strings"
	"time"
)

const (
	msPerSecond = int64(time.Second / time.Millisecond)
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// Local layouts carry no offset and are read in the event location.
var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// Breakdown is the remaining time as two-digit strings. Days may use more
// than two digits.
type Breakdown struct {
	Days    string `json:"days"`
	Hours   string `json:"hours"`
	Minutes string `json:"minutes"`
	Seconds string `json:"seconds"`
}

// Zero is the breakdown shown when expired or idle.
var Zero = Breakdown{Days: "00", Hours: "00", Minutes: "00", Seconds: "00"}

// State is one evaluation of the countdown.
//
// Idle is set when the timestamp is empty or unparseable; an idle state is
// never expired.
type State struct {
	Breakdown
	Expired     bool  `json:"expired"`
	Idle        bool  `json:"idle"`
	RemainingMs int64 `json:"remainingMs"`
}

// IsExpired lets a computed State gate RSVP submission directly.
func (s State) IsExpired() bool { return s.Expired }

// ParseEventInstant reads eventDateIso. Values without an offset are
// interpreted in loc; RFC 3339 values keep their own offset.
func ParseEventInstant(iso string, loc *time.Location) (time.Time, bool) {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, iso, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, iso); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Compute evaluates the countdown for iso at now. It never fails: bad input
// yields an idle state.
func Compute(iso string, now time.Time, loc *time.Location) State {
	at, ok := ParseEventInstant(iso, loc)
	if !ok {
		return State{Breakdown: Zero, Idle: true}
	}

	remaining := at.UnixMilli() - now.UnixMilli()
	if remaining <= 0 {
		return State{Breakdown: Zero, Expired: true}
	}

	return State{
		Breakdown: Breakdown{
			Days:    pad(remaining / msPerDay),
			Hours:   pad(remaining % msPerDay / msPerHour),
			Minutes: pad(remaining % msPerHour / msPerMinute),
			Seconds: pad(remaining % msPerMinute / msPerSecond),
		},
		RemainingMs: remaining,
	}
}

func pad(n int64) string {
	return fmt.Sprintf("%02d", n)
}
