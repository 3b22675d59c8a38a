package cache

import (
	"crypto/sha1" //nolint:gosec // used for naming, not for security
	"encoding/hex"
	"sort"
	"strings"
)

// Hasher turns a fingerprint source string into a backend-safe entry name.
type Hasher func(s string) string

// SHA1 is the default Hasher: lowercase hex SHA-1.
func SHA1(s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// FormPair is one form field that contributes to a fingerprint.
type FormPair struct {
	Key   string
	Value string
}

// Fingerprint derives the entry name for a request from its query string,
// its form pairs and the base URL it targets.
//
// Form pairs are sorted by key before hashing so two requests carrying the
// same fields in a different declaration order share an entry. A nil
// hasher falls back to SHA1.
func Fingerprint(h Hasher, query string, form []FormPair, baseURL string) string {
	if h == nil {
		h = SHA1
	}

	sorted := make([]FormPair, len(form))
	copy(sorted, form)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Key < sorted[j].Key
	})

	var sb strings.Builder
	sb.WriteString(query)
	for _, p := range sorted {
		sb.WriteString(p.Key)
		sb.WriteString(p.Value)
	}
	sb.WriteString(baseURL)

	return h(sb.String())
}
