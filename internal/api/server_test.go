package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-invitation/internal/archive"
	"wedding-invitation/internal/codec"
	"wedding-invitation/internal/countdown"
	"wedding-invitation/internal/greeting"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/portal"
	"wedding-invitation/internal/rsvp"
	"wedding-invitation/internal/storage"
)

type fakeSharer struct {
	phone, name, link string
	err               error
}

func (f *fakeSharer) ShareInvitation(_ context.Context, phone, name string, _ models.InvitationConfig, link string) error {
	f.phone, f.name, f.link = phone, name, link
	return f.err
}

type testServer struct {
	server    *Server
	clock     *clockwork.FakeClock
	workspace *portal.Workspace
	rsvps     *rsvp.Service
}

func setupTestServer(t *testing.T, sharer Sharer) *testServer {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	store := storage.NewMemoryStore()
	engine := countdown.NewEngine(clock, time.UTC, "")
	arch := archive.New(store, clock, zerolog.Nop())
	ws := portal.NewWorkspace(portal.WorkspaceOptions{
		Initial:   models.DefaultInvitation(),
		Location:  time.UTC,
		ZoneLabel: "WIB",
		BaseURL:   "https://undangan.example/",
		Clock:     clock,
		Archive:   arch,
		Engine:    engine,
		Logger:    zerolog.Nop(),
	})
	rsvps := rsvp.NewService(store, clock, zerolog.Nop())

	services := Services{
		Workspace: ws,
		Engine:    engine,
		RSVPs:     rsvps,
		Archive:   arch,
		Greeting:  greeting.Static{Portal: "Darul Huda Portal"},
	}
	if sharer != nil {
		services.Sharer = sharer
	}

	srv := NewServer(services, Options{PortalName: "Darul Huda Portal", Location: time.UTC, Clock: clock}, zerolog.Nop())
	return &testServer{server: srv, clock: clock, workspace: ws, rsvps: rsvps}
}

func (ts *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func linkPayload(t *testing.T, iso string) string {
	t.Helper()
	cfg := models.DefaultInvitation()
	cfg.ID = "event-link"
	cfg.Line1 = "Walimatul Ursy"
	cfg.EventDateIso = iso
	payload, err := codec.Encode(cfg)
	require.NoError(t, err)
	return payload
}

func TestHealthCheck_Success(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[HealthResponse](t, rec).Status)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestPortal_Views(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/portal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[PortalResponse](t, rec)
	assert.Equal(t, models.ViewLanding, resp.View)
	assert.False(t, resp.FromLink)
	assert.Equal(t, greeting.Landing("Darul Huda Portal"), resp.Greeting)

	rec = ts.do(t, http.MethodGet, "/api/v1/portal?view=admin", nil)
	resp = decode[PortalResponse](t, rec)
	assert.Equal(t, models.ViewAdmin, resp.View)
	assert.Equal(t, greeting.NoCredentials("Darul Huda Portal", greeting.RoleAdmin), resp.Greeting)
}

func TestPortal_LinkOverridesView(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/portal?view=admin&d="+linkPayload(t, "2025-05-02T10:00"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[PortalResponse](t, rec)
	assert.Equal(t, models.ViewInvitation, resp.View)
	assert.True(t, resp.FromLink)
	assert.Equal(t, "Walimatul Ursy", resp.Config.Line1)
	assert.Equal(t, "01", resp.Countdown.Days)
	assert.False(t, resp.Countdown.Expired)
}

func TestPortal_MalformedLinkFallsBack(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/portal?d=@@not-base64@@", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[PortalResponse](t, rec)
	assert.Equal(t, models.ViewLanding, resp.View)
	assert.Equal(t, models.DefaultInvitation().Line1, resp.Config.Line1)
}

func TestCountdown(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/countdown?d="+linkPayload(t, "2025-05-01T11:30"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	st := decode[countdown.State](t, rec)
	assert.Equal(t, "00", st.Days)
	assert.Equal(t, "01", st.Hours)
	assert.Equal(t, "30", st.Minutes)
	assert.False(t, st.Expired)
}

func TestCountdownStream_EndsWhenExpired(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/countdown/stream?d="+linkPayload(t, "2025-04-30T10:00"), nil)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var events []countdown.State
	sc := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	for sc.Scan() {
		if data, ok := strings.CutPrefix(sc.Text(), "data: "); ok {
			var st countdown.State
			require.NoError(t, json.Unmarshal([]byte(data), &st))
			events = append(events, st)
		}
	}
	require.Len(t, events, 1)
	assert.True(t, events[0].Expired)
	assert.Equal(t, countdown.Zero, events[0].Breakdown)
}

func TestCountdownStream_EndsWhenIdle(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, err := ts.workspace.Edit("eventDateIso", "")
	require.NoError(t, err)

	rec := ts.do(t, http.MethodGet, "/api/v1/countdown/stream", nil)

	assert.Equal(t, 1, strings.Count(rec.Body.String(), "event: countdown"))
	assert.Contains(t, rec.Body.String(), `"idle":true`)
}

func TestSubmitRSVP(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/rsvps", map[string]any{"name": "Ahmad", "status": "attending", "partySize": 3})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	record := decode[models.RSVP](t, rec)
	assert.Equal(t, "Ahmad", record.Name)
	assert.Equal(t, 3, record.PartySize)
	assert.Equal(t, "web", record.Channel)

	rec = ts.do(t, http.MethodPost, "/api/v1/rsvps", map[string]any{"status": "not_attending", "partySize": 4})
	require.Equal(t, http.StatusCreated, rec.Code)
	record = decode[models.RSVP](t, rec)
	assert.Equal(t, models.GuestPlaceholder, record.Name)
	assert.Equal(t, 0, record.PartySize)

	rec = ts.do(t, http.MethodGet, "/api/v1/rsvps", nil)
	list := decode[[]models.RSVP](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, models.GuestPlaceholder, list[0].Name)

	rec = ts.do(t, http.MethodGet, "/api/v1/rsvps/summary", nil)
	assert.Equal(t, rsvp.Summary{Responses: 2, Attending: 1, NotAttending: 1, Guests: 3}, decode[rsvp.Summary](t, rec))

	rec = ts.do(t, http.MethodDelete, "/api/v1/rsvps", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/v1/rsvps", nil)
	assert.Empty(t, decode[[]models.RSVP](t, rec))
}

func TestSubmitRSVP_NormalizesCountBeforeValidating(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/rsvps", map[string]any{"name": "", "status": "not_attending", "partySize": 60})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	record := decode[models.RSVP](t, rec)
	assert.Equal(t, 0, record.PartySize)
	assert.Equal(t, models.GuestPlaceholder, record.Name)

	rec = ts.do(t, http.MethodPost, "/api/v1/rsvps", map[string]any{"name": "Ali", "status": "attending", "partySize": -1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[models.RSVP](t, rec).PartySize)
}

func TestSubmitRSVP_Errors(t *testing.T) {
	ts := setupTestServer(t, nil)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing name", map[string]any{"status": "attending"}, http.StatusBadRequest, CodeNameRequired},
		{"bad status", map[string]any{"name": "A", "status": "maybe"}, http.StatusBadRequest, CodeValidation},
		{"too many guests", map[string]any{"name": "A", "status": "attending", "partySize": 51}, http.StatusBadRequest, CodeValidation},
		{"unknown field", map[string]any{"name": "A", "status": "attending", "extra": 1}, http.StatusBadRequest, CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/v1/rsvps", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[errorEnvelope](t, rec).Error.Code)
		})
	}
}

func TestSubmitRSVP_ClosedForExpiredLink(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/rsvps?d="+linkPayload(t, "2025-05-01T10:00"), map[string]any{"name": "A", "status": "attending"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeRSVPClosed, decode[errorEnvelope](t, rec).Error.Code)

	list, err := ts.rsvps.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmitRSVP_ClosedForExpiredWorkspace(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, err := ts.workspace.Edit("eventDateIso", "2025-04-01T09:00")
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/api/v1/rsvps", map[string]any{"name": "A", "status": "attending"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// A valid link for a future event is still open.
	rec = ts.do(t, http.MethodPost, "/api/v1/rsvps?d="+linkPayload(t, "2025-06-01T09:00"), map[string]any{"name": "A", "status": "attending"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAdminConfig(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodPatch, "/api/v1/admin/config", map[string]any{"field": "eventDateIso", "value": "2025-08-17T07:05"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ConfigResponse](t, rec)
	assert.Equal(t, "Minggu, 17 Agustus 2025", resp.Config.EventDateDisplay)
	assert.Equal(t, "07:05 WIB - Selesai", resp.Config.EventTime)

	rec = ts.do(t, http.MethodPatch, "/api/v1/admin/config", map[string]any{"muballighs": []string{"KH. A", ""}})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[ConfigResponse](t, rec)
	assert.Equal(t, []string{"KH. A", ""}, resp.Config.Muballighs)

	rec = ts.do(t, http.MethodPatch, "/api/v1/admin/config", map[string]any{"field": "id", "value": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/api/v1/admin/config", map[string]any{"value": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidation, decode[errorEnvelope](t, rec).Error.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/admin/config", nil)
	assert.Equal(t, "2025-08-17T07:05", decode[ConfigResponse](t, rec).Config.EventDateIso)
}

func TestAdminConfig_New(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/admin/config/new", map[string]any{"confirm": false})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeNotConfirmed, decode[errorEnvelope](t, rec).Error.Code)
	assert.Equal(t, models.DefaultInvitation().Line1, ts.workspace.Config().Line1)

	rec = ts.do(t, http.MethodPost, "/api/v1/admin/config/new", map[string]any{"confirm": true})
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decode[ConfigResponse](t, rec).Config
	assert.Empty(t, cfg.Line1)
	assert.Equal(t, "2025-05-31T10:00", cfg.EventDateIso)
}

func TestPublishAndArchive(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/admin/publish", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entry := decode[models.Published](t, rec)
	assert.True(t, strings.HasPrefix(entry.Link, "https://undangan.example/?"))

	// Same id upserts.
	ts.do(t, http.MethodPatch, "/api/v1/admin/config", map[string]any{"field": "line1", "value": "Edited"})
	ts.do(t, http.MethodPost, "/api/v1/admin/publish", nil)

	rec = ts.do(t, http.MethodGet, "/api/v1/admin/archive", nil)
	list := decode[[]models.Published](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Edited", list[0].Config.Line1)

	id := list[0].Config.ID
	rec = ts.do(t, http.MethodGet, "/api/v1/admin/archive/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.do(t, http.MethodPatch, "/api/v1/admin/config", map[string]any{"field": "line1", "value": "Unsaved"})
	rec = ts.do(t, http.MethodPost, "/api/v1/admin/archive/"+id+"/restore", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Edited", ts.workspace.Config().Line1)

	rec = ts.do(t, http.MethodDelete, "/api/v1/admin/archive/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/admin/archive/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, decode[errorEnvelope](t, rec).Error.Code)
}

func TestShare(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		ts := setupTestServer(t, nil)
		rec := ts.do(t, http.MethodPost, "/api/v1/admin/share", map[string]any{"phone": "08123456789"})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("sent", func(t *testing.T) {
		sharer := &fakeSharer{}
		ts := setupTestServer(t, sharer)

		rec := ts.do(t, http.MethodPost, "/api/v1/admin/share", map[string]any{"phone": "08123456789", "name": "Budi"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode[ShareResponse](t, rec)
		assert.True(t, resp.Sent)
		assert.Equal(t, resp.Link, sharer.link)
		assert.Equal(t, "Budi", sharer.name)
	})

	t.Run("failure is a notice", func(t *testing.T) {
		sharer := &fakeSharer{err: errors.New("not connected")}
		ts := setupTestServer(t, sharer)
		before := ts.workspace.Config()

		rec := ts.do(t, http.MethodPost, "/api/v1/admin/share", map[string]any{"phone": "08123456789"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, CodeShareFailed, decode[errorEnvelope](t, rec).Error.Code)
		assert.Equal(t, before, ts.workspace.Config())
	})

	t.Run("phone required", func(t *testing.T) {
		ts := setupTestServer(t, &fakeSharer{})
		rec := ts.do(t, http.MethodPost, "/api/v1/admin/share", map[string]any{"name": "Budi"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
