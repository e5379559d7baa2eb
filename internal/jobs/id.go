package jobs

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"

	"github.com/rs/zerolog/log"
)

// BatchPrefix is the ID prefix of finished batch reports.
const BatchPrefix = "batch-"

var hexID = regexp.MustCompile(`^[0-9a-f]{32}$`)

// GenerateID creates a new cryptographically random ID with the given prefix.
// The prefix should include a trailing dash, e.g. "batch-", "plan-".
func GenerateID(prefix string) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		log.Fatal().Err(err).Msgf("Failed to generate random %s ID", prefix)
	}
	return prefix + hex.EncodeToString(b)
}

// ValidID reports whether id is prefix followed by 32 lowercase hex digits.
func ValidID(id, prefix string) bool {
	if len(id) < len(prefix) || id[:len(prefix)] != prefix {
		return false
	}
	return hexID.MatchString(id[len(prefix):])
}
