package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key hashes the parts that determine a rendered projection into a short cache key.
// Parts are order sensitive.
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return namespace + ":" + hex.EncodeToString(hash[:16])
}
