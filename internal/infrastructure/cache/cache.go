// Package cache provides the food result cache stores. Rows are keyed
// by (provider, external_id) so the same item reached through different
// queries is stored once; a secondary index maps normalized query
// strings to row keys.
package cache

import (
	"regexp"
	"strings"
	"time"
)

// DefaultTTL is the result TTL the service falls back to when none is
// configured. Stores honor a Put with ttl <= 0 literally: the row is
// born expired.
const DefaultTTL = 24 * time.Hour

var multipleSpacesRegex = regexp.MustCompile(`\s+`)

// normalizeQuery lowercases, trims and collapses whitespace so lookups
// are insensitive to cosmetic differences in the query string.
func normalizeQuery(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	return multipleSpacesRegex.ReplaceAllString(q, " ")
}

// rowKey is the identity key for one cached food.
func rowKey(provider, externalID string) string {
	return provider + "|" + externalID
}
