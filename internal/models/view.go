package models

import "strings"

// View selects which portal surface is shown.
type View string

const (
	ViewLanding    View = "landing"
	ViewAdmin      View = "admin"
	ViewInvitation View = "invitation"
)

// ParseView maps a query value to a view; unknown values fall back to landing.
func ParseView(s string) View {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case ViewAdmin:
		return ViewAdmin
	case ViewInvitation:
		return ViewInvitation
	default:
		return ViewLanding
	}
}
