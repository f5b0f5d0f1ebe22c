package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"a", "b"}, "a"))
	assert.False(t, ContainsString([]string{}, "a"))
	assert.False(t, ContainsString([]string{"a", "b"}, "c"))
}

func TestContainsAnyKeyword(t *testing.T) {
	assert.True(t, ContainsAnyKeyword("OpenAI ships new AI model", []string{"ai"}))
	assert.True(t, ContainsAnyKeyword("big LLM news", []string{"blockchain", "llm"}))
	assert.False(t, ContainsAnyKeyword("quarterly earnings call", []string{"ai", "llm"}))

	// empty keyword list accepts everything
	assert.True(t, ContainsAnyKeyword("anything at all", nil))
	// blank keywords are ignored rather than matching everything
	assert.False(t, ContainsAnyKeyword("quarterly earnings call", []string{" ", "ai"}))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", TruncateRunes("abc", 10))
	assert.Equal(t, "ab", TruncateRunes("abcd", 2))
	assert.Equal(t, "", TruncateRunes("abcd", 0))
	// rune aware: must not split multibyte characters
	assert.Equal(t, "привет", TruncateRunes("привет мир", 6))
}

func TestHostFromURL(t *testing.T) {
	assert.Equal(t, "techcrunch.com", HostFromURL("https://techcrunch.com/feed/"))
	assert.Equal(t, "example.org", HostFromURL("https://www.example.org/rss"))
	assert.Equal(t, "not a url", HostFromURL("not a url"))
}

func TestTextToMd5Hash(t *testing.T) {
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", TextToMd5Hash("hello"))
	assert.Len(t, TextToMd5Hash(""), 32)
}
