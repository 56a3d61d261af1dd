package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	APIKeyPrefix    = "qrk_"
	apiKeyLength    = 32
	apiKeyPrefixLen = 8
)

// GenerateAPIKey returns a new raw key together with its display prefix and lookup hash.
// The raw key is shown to the user once and never stored.
func GenerateAPIKey() (raw, prefix, hash string, err error) {
	const op = "auth.GenerateAPIKey"

	id, err := gonanoid.New(apiKeyLength)
	if err != nil {
		return "", "", "", fmt.Errorf("%s: failed to generate key: %w", op, err)
	}

	raw = APIKeyPrefix + id

	return raw, raw[:apiKeyPrefixLen], HashAPIKey(raw), nil
}

// HashAPIKey returns the hex encoded SHA-256 of a raw key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
