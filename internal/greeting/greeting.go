// Package greeting produces the short welcome line shown on the portal.
// Text generation is best effort: every failure turns into a fixed
// fallback and is never reported to the caller.
package greeting

import (
	"context"
	"fmt"
)

// Role selects which section the greeting is for.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
)

// Generator returns a greeting for role. Implementations never fail.
type Generator interface {
	Greeting(ctx context.Context, role Role) string
}

// Landing is the greeting shown on the landing view.
func Landing(portal string) string {
	return "Selamat datang kembali di " + portal
}

// NoCredentials is used when no API key is configured.
func NoCredentials(portal string, role Role) string {
	if role == RoleAdmin {
		return fmt.Sprintf("Selamat datang di panel kendali %s. Siap mengelola hari bahagia Anda?", portal)
	}
	return "Selamat datang! Suatu kehormatan bagi kami atas kunjungan Anda di portal undangan ini."
}

// Failure is used when the generator errors or is rate limited.
func Failure(role Role) string {
	if role == RoleAdmin {
		return "Sistem siap. Selamat bekerja di panel admin."
	}
	return "Terima kasih telah berkunjung ke undangan kami."
}

// Empty is used when the generator answers with no text.
func Empty(role Role) string {
	return fmt.Sprintf("Selamat datang di portal %s.", role)
}

// Static always answers with the no-credentials text.
type Static struct {
	Portal string
}

func (s Static) Greeting(_ context.Context, role Role) string {
	return NoCredentials(s.Portal, role)
}

// Prefetch asks gen for a greeting in the background and passes it to fn.
// The result is dropped when ctx ends first, so a view that has been left
// never receives a stale greeting.
func Prefetch(ctx context.Context, gen Generator, role Role, fn func(string)) {
	go func() {
		text := gen.Greeting(ctx, role)
		if ctx.Err() != nil {
			return
		}
		fn(text)
	}()
}
