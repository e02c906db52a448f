package codec

import (
	"encoding/base64"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-invitation/internal/models"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cfg  models.InvitationConfig
	}{
		{"default", models.DefaultInvitation()},
		{"unicode", models.InvitationConfig{
			ID:            "event-1",
			Line1:         "مولد النبي ﷺ",
			Line2:         "Pernikahan 💍 Anisa & Bima",
			Line3:         "日本語のテキスト",
			ShowMuballigh: true,
			Muballighs:    []string{"KH. Ñoño", "", "Ärger"},
			EventDateIso:  "2025-05-12T19:30",
			Message:       "Line one\nLine \"two\" <tag> & more",
		}},
		{"empty speaker list", models.InvitationConfig{Muballighs: []string{}, EventDateIso: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := Encode(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, url.QueryEscape(payload), payload, "payload must be query safe")

			got, err := Decode(payload)
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.Normalize(), got)
		})
	}
}

func TestDecode_Idempotent(t *testing.T) {
	payload, err := Encode(models.DefaultInvitation())
	require.NoError(t, err)

	first, err := Decode(payload)
	require.NoError(t, err)

	again, err := Encode(first)
	require.NoError(t, err)
	second, err := Decode(again)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDecode_MissingFieldsGetDefaults(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"line1":"Walimah","eventDateIso":"2025-06-01T10:00"}`))

	cfg, err := Decode(payload)
	require.NoError(t, err)

	assert.Equal(t, "Walimah", cfg.Line1)
	assert.NotNil(t, cfg.Muballighs)
	assert.Empty(t, cfg.Muballighs)
	assert.Empty(t, cfg.RenderedSpeakers())
}

func TestDecode_LegacyStandardAlphabet(t *testing.T) {
	// Legacy links were produced with btoa, which uses padding and may
	// include '+' and '/'.
	raw := `{"line1":"??>>","venueName":"Aula"}`
	payload := base64.StdEncoding.EncodeToString([]byte(raw))
	require.True(t, strings.ContainsAny(payload, "+/="), "fixture should exercise the standard alphabet")

	cfg, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "??>>", cfg.Line1)

	// '+' turned into a space by form decoding.
	cfg, err = Decode(strings.ReplaceAll(payload, "+", " "))
	require.NoError(t, err)
	assert.Equal(t, "Aula", cfg.VenueName)
}

func TestDecode_Malformed(t *testing.T) {
	valid, err := Encode(models.DefaultInvitation())
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"truncated", valid[:len(valid)/2+1]},
		{"not base64", "%%%###"},
		{"not json", base64.RawURLEncoding.EncodeToString([]byte("hello"))},
		{"json array", base64.RawURLEncoding.EncodeToString([]byte(`["a"]`))},
		{"json null", base64.RawURLEncoding.EncodeToString([]byte(`null`))},
		{"wrong types", base64.RawURLEncoding.EncodeToString([]byte(`{"muballighs":"x"}`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, err := Decode(tt.payload)
				assert.ErrorIs(t, err, ErrMalformedPayload)
			})
		})
	}
}

func TestShareURL(t *testing.T) {
	cfg := models.DefaultInvitation()

	link, err := ShareURL("https://undangan.example/portal?view=admin&utm=x#top", cfg)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/portal", u.Path)
	assert.Empty(t, u.Fragment)
	assert.Equal(t, "invitation", u.Query().Get(ParamView))
	assert.Empty(t, u.Query().Get("utm"))

	got, err := Decode(u.Query().Get(ParamState))
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestShareURL_BadBase(t *testing.T) {
	_, err := ShareURL("://nope", models.DefaultInvitation())
	assert.Error(t, err)
}
