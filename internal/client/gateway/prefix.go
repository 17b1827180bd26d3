package gateway

import (
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
)

// maxSortRune is the largest code point; appended to a prefix it gives the
// exclusive upper bound of every key starting with that prefix.
const maxSortRune = utf8.MaxRune

// PrefixRange returns the half-open key range [lo, hi) holding exactly the
// keys that start with prefix. The prefix is normalized like usernames.
func PrefixRange(prefix string) (lo, hi string) {
	lo = models.NormalizeUsername(prefix)
	return lo, lo + string(maxSortRune)
}

// InPrefixRange reports whether key falls in PrefixRange(prefix).
func InPrefixRange(key, prefix string) bool {
	lo, hi := PrefixRange(prefix)
	return key >= lo && key < hi
}

// ClampLimit substitutes DefaultSuggestionLimit for non-positive limits.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultSuggestionLimit
	}
	return limit
}

// BlankPrefix reports prefixes that would match the whole index. Stores
// answer those with an empty result instead of listing every user.
func BlankPrefix(prefix string) bool {
	return strings.TrimSpace(prefix) == ""
}
