package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-invitation/internal/archive"
	"wedding-invitation/internal/countdown"
	"wedding-invitation/internal/greeting"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/navigation"
	"wedding-invitation/internal/portal"
	"wedding-invitation/internal/rsvp"
	"wedding-invitation/internal/storage"
)

type fakeSharer struct {
	phone string
	err   error
}

func (f *fakeSharer) ShareInvitation(_ context.Context, phone, _ string, _ models.InvitationConfig, _ string) error {
	f.phone = phone
	return f.err
}

func newConsole(t *testing.T, input string) (*console, *bytes.Buffer) {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	store := storage.NewMemoryStore()
	engine := countdown.NewEngine(clock, time.UTC, "")
	arch := archive.New(store, clock, zerolog.Nop())
	ws := portal.NewWorkspace(portal.WorkspaceOptions{
		Initial:  models.DefaultInvitation(),
		Location: time.UTC,
		BaseURL:  "https://undangan.example/",
		Clock:    clock,
		Archive:  arch,
		Engine:   engine,
		Logger:   zerolog.Nop(),
	})

	loc, err := navigation.Parse("https://undangan.example/")
	require.NoError(t, err)

	var out bytes.Buffer
	c := &console{
		workspace: ws,
		engine:    engine,
		rsvps:     rsvp.NewService(store, clock, zerolog.Nop()),
		session:   portal.NewSession(loc, greeting.Static{Portal: "Darul Huda Portal"}, "Darul Huda Portal", zerolog.Nop()),
		in:        strings.NewReader(input),
		out:       &out,
	}
	t.Cleanup(c.session.Close)
	return c, &out
}

func TestConsole_ExitStops(t *testing.T) {
	c, out := newConsole(t, "6\n7\n")

	stopped := false
	c.run(context.Background(), func() { stopped = true })

	assert.True(t, stopped)
	assert.Contains(t, out.String(), "📌 "+models.DefaultInvitation().Title())
	assert.Contains(t, out.String(), "11 hari 09:30:00")
	assert.Contains(t, out.String(), "Exiting...")
}

func TestConsole_FollowsWorkspaceEdits(t *testing.T) {
	c, out := newConsole(t, "6\n")

	_, err := c.workspace.Edit("line1", "Walimatul Ursy")
	require.NoError(t, err)

	c.run(context.Background(), func() {})

	assert.Contains(t, out.String(), "📌 Walimatul Ursy")
	assert.Equal(t, "Walimatul Ursy", c.session.State().Config.Line1)
	assert.Equal(t, models.ViewAdmin, c.session.State().View)
}

func TestConsole_PublishAndRSVPs(t *testing.T) {
	c, out := newConsole(t, "1\n3\n4\n")

	_, err := c.rsvps.Submit(context.Background(), nil, rsvp.Submission{Name: "Ahmad", Status: models.RSVPAttending, PartySize: 2})
	require.NoError(t, err)

	c.run(context.Background(), func() {})

	assert.Contains(t, out.String(), "✅ Published")
	assert.Contains(t, out.String(), "https://undangan.example/?d=")
	assert.Contains(t, out.String(), "Name: Ahmad")
	assert.Contains(t, out.String(), "Attending: 1 (2 guests)")
}

func TestConsole_ClearNeedsConfirmation(t *testing.T) {
	c, out := newConsole(t, "5\nn\n5\ny\n")

	_, err := c.rsvps.Submit(context.Background(), nil, rsvp.Submission{Status: models.RSVPNotAttending})
	require.NoError(t, err)

	c.run(context.Background(), func() {})

	assert.Contains(t, out.String(), "Cancelled.")
	assert.Contains(t, out.String(), "RSVPs cleared.")
	list, err := c.rsvps.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestConsole_Share(t *testing.T) {
	c, out := newConsole(t, "2\n")
	c.run(context.Background(), func() {})
	assert.Contains(t, out.String(), "WhatsApp is not enabled")

	c, out = newConsole(t, "2\nBudi\n08123456789\n")
	sh := &fakeSharer{}
	c.sharer = sh
	c.run(context.Background(), func() {})
	assert.Equal(t, "08123456789", sh.phone)
	assert.Contains(t, out.String(), "Invitation sent successfully")

	c, out = newConsole(t, "2\nBudi\n0812\n")
	c.sharer = &fakeSharer{err: errors.New("not connected")}
	c.run(context.Background(), func() {})
	assert.Contains(t, out.String(), "Gagal membagikan")
}
