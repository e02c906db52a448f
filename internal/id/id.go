package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Lowercase and digits only so ids survive being read out or typed back
// from a chat message.
const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	size     = 12
)

// Generate returns prefix-xxxxxxxxxxxx.
func Generate(prefix string) (string, error) {
	suffix, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return prefix + "-" + suffix, nil
}
