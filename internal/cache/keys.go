package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keys follow the pattern <entity>:<kind>:<id-or-hash>, e.g.
// "product:detail:42" or "station:list:ab12...". Every consumer that
// mutates the underlying rows must invalidate through the same
// builders, or staleness beyond TTL is possible.

// EntityKey derives the cache key for a single entity by id.
func EntityKey(namespace, kind string, id uint) string {
	return fmt.Sprintf("%s:%s:%d", namespace, kind, id)
}

// QueryKey derives the cache key for a query shape. Two shapes that
// are equal by value produce the same key regardless of property
// insertion order: the shape is canonicalized (re-marshaled through a
// generic value, so map keys serialize sorted) and digested with
// SHA-256, giving bounded, fixed-length keys.
func QueryKey(namespace, kind string, shape interface{}) (string, error) {
	canonical, err := canonicalize(shape)
	if err != nil {
		return "", fmt.Errorf("canonicalize query shape: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return fmt.Sprintf("%s:%s:%s", namespace, kind, hex.EncodeToString(sum[:])), nil
}

// canonicalize produces a byte-stable serialization of the shape.
// Round-tripping through interface{} normalizes structs and maps to
// the same representation, with object keys in sorted order.
func canonicalize(shape interface{}) ([]byte, error) {
	raw, err := json.Marshal(shape)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}
