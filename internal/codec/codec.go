// Package codec turns an invitation into a URL query payload and back.
//
// The payload is JSON encoded with base64's URL alphabet. It carries no
// signature: anyone holding the link can rewrite the invitation it shows.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"wedding-invitation/internal/models"
)

// Query parameter names.
const (
	ParamView  = "view"
	ParamState = "d"
)

// ErrMalformedPayload is returned when a payload cannot be decoded.
var ErrMalformedPayload = errors.New("malformed invitation payload")

// Encode serializes cfg into a query-safe payload.
func Encode(cfg models.InvitationConfig) (string, error) {
	data, err := json.Marshal(cfg.Normalize())
	if err != nil {
		return "", fmt.Errorf("marshal invitation: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode parses a payload produced by Encode. Standard-alphabet payloads
// with padding (older links) are accepted too. Absent fields are filled
// with defaults instead of failing.
func Decode(payload string) (models.InvitationConfig, error) {
	var cfg models.InvitationConfig

	payload = strings.TrimSpace(payload)
	if payload == "" {
		return cfg, fmt.Errorf("%w: empty", ErrMalformedPayload)
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return cfg, fmt.Errorf("%w: not a JSON object", ErrMalformedPayload)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return models.InvitationConfig{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return cfg.Normalize(), nil
}

// ShareURL builds the link guests open: base plus view=invitation and the
// encoded state. Any other query parameters on base are dropped.
func ShareURL(base string, cfg models.InvitationConfig) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	payload, err := Encode(cfg)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set(ParamView, string(models.ViewInvitation))
	q.Set(ParamState, payload)
	u.RawQuery = q.Encode()
	u.Fragment = ""

	return u.String(), nil
}

func decodeBase64(s string) ([]byte, error) {
	// URL-safe alphabet is the native form; '+' and '/' only appear in
	// standard-alphabet links, and a '+' may have been turned into a space
	// by query unescaping.
	s = strings.ReplaceAll(s, " ", "+")
	s = strings.TrimRight(s, "=")

	if strings.ContainsAny(s, "+/") {
		return base64.RawStdEncoding.DecodeString(s)
	}
	return base64.RawURLEncoding.DecodeString(s)
}
