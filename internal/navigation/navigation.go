// Package navigation abstracts the address bar so view selection can run
// against a plain URL instead of ambient browser state.
package navigation

import (
	"fmt"
	"net/url"
)

// Location is the query-string surface the portal reads and rewrites.
type Location interface {
	Query(key string) string
	SetQuery(key, value string)
	DelQuery(key string)
	String() string
}

// URLLocation is a Location backed by a net/url.URL.
type URLLocation struct {
	u *url.URL
}

// Parse builds a URLLocation from a raw URL.
func Parse(raw string) (*URLLocation, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse location: %w", err)
	}
	return &URLLocation{u: u}, nil
}

// FromURL wraps a copy of u.
func FromURL(u *url.URL) *URLLocation {
	cp := *u
	return &URLLocation{u: &cp}
}

func (l *URLLocation) Query(key string) string {
	return l.u.Query().Get(key)
}

func (l *URLLocation) SetQuery(key, value string) {
	q := l.u.Query()
	q.Set(key, value)
	l.u.RawQuery = q.Encode()
}

func (l *URLLocation) DelQuery(key string) {
	q := l.u.Query()
	q.Del(key)
	l.u.RawQuery = q.Encode()
}

func (l *URLLocation) String() string {
	return l.u.String()
}
