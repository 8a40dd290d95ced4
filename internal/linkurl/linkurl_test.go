package linkurl

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare host", "example.com", "http://example.com"},
		{"bare host with path", "example.com/a", "http://example.com/a"},
		{"keeps http", "http://example.com", "http://example.com"},
		{"keeps https", "https://example.com/x", "https://example.com/x"},
		{"trims whitespace", "  example.com  ", "http://example.com"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Normalize(tt.raw), tt.want)
		})
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"root path", "http://example.com", "example.com/", true},
		{"explicit root", "https://example.com/", "example.com/", true},
		{"host is lowercased", "https://EXAMPLE.com/A", "example.com/A", true},
		{"query ignored", "https://example.com/a?b=c#d", "example.com/a", true},
		{"port ignored", "http://example.com:8080/a", "example.com/a", true},
		{"bare host retried with https", "example.com/a", "example.com/a", true},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Key(tt.raw)
			assert.Equal(t, ok, tt.wantOK)
			assert.Equal(t, got, tt.want)
		})
	}
}

func TestKey_SameLink(t *testing.T) {
	same := func(a, b string) bool {
		ka, okA := Key(a)
		kb, okB := Key(b)
		return okA && okB && ka == kb
	}

	assert.Assert(t, same("http://example.com/a", "https://example.com/a"))
	assert.Assert(t, same("example.com/a", "http://example.com/a"))
	assert.Assert(t, same("http://example.com", "https://example.com/"))
	assert.Assert(t, same("https://GO.dev/doc", "https://go.dev/doc"))
	assert.Assert(t, !same("http://example.com/a", "http://example.com/b"))
	assert.Assert(t, !same("http://example.com/a", "http://example.org/a"))
	assert.Assert(t, !same("", ""))
}

func TestParse_NoRetryWithScheme(t *testing.T) {
	_, ok := Parse("http://exa mple.com")
	assert.Assert(t, !ok)

	u, ok := Parse("example.com/a")
	assert.Assert(t, ok)
	assert.Equal(t, u.Scheme, "https")
}
