package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// hashKey returns "prefix:sha256(json(parts))".
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// keyType returns the segment before the first colon after any scope
// prefix, for metrics labels ("state", "snapshot", "export").
func keyType(key string) string {
	for _, t := range []string{"state:", "snapshot:", "export:"} {
		if strings.Contains(key, t) {
			return strings.TrimSuffix(t, ":")
		}
	}
	return "other"
}
