package utils

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

// ContainsString returns true iff the provided string slice hay contains string
// needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}

// ContainsAnyKeyword reports whether text contains any of the keywords,
// case-insensitive substring match. An empty keyword list matches everything.
func ContainsAnyKeyword(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// TextToMd5Hash returns the hex md5 digest of the input text.
func TextToMd5Hash(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// TruncateRunes shortens s to at most n runes. Truncation is rune-aware so we
// never split a multibyte character in the middle.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// HostFromURL extracts the bare host of a URL, dropping a leading "www.".
// Used as the human readable source name for RSS items.
func HostFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Host, "www.")
}
