package httpds

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// filenameCleaner replaces sequences of characters outside [A-Za-z0-9._-]
// with "_".
var filenameCleaner = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// HashString returns a stable SHA1 hex digest of s.
func HashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// SafeFilenameFromURL derives a filesystem-safe filename from a raw URL. It
// uses the last path segment ("sales_100.csv" for .../main/sales_100.csv),
// falls back to the cleaned query string, and finally to a hash of the whole
// URL when neither yields a usable name.
func SafeFilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return HashString(rawURL)
	}

	if base := path.Base(u.Path); base != "." && base != "/" {
		if clean := strings.Trim(filenameCleaner.ReplaceAllString(base, "_"), "._"); clean != "" {
			return clean
		}
	}

	if clean := strings.Trim(filenameCleaner.ReplaceAllString(u.RawQuery, "_"), "._"); clean != "" {
		return clean
	}
	return HashString(rawURL)
}
