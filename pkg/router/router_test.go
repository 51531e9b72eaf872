package router

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/benhli40/Orion/pkg/memory"
	"github.com/benhli40/Orion/pkg/skills"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unit(name string, patterns ...string) *skills.Loaded {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile("(?i)"+p))
	}
	return &skills.Loaded{Name: name, Patterns: compiled}
}

func TestRouteFirstMatchWins(t *testing.T) {
	r := New([]*skills.Loaded{
		unit("alpha", `\bping\b`),
		unit("beta", `\bping\b`, `\bpong\b`),
	})

	// Both match "ping"; the earlier unit wins every time.
	for i := 0; i < 5; i++ {
		hit := r.Route("ping me")
		require.NotNil(t, hit)
		assert.Equal(t, "alpha", hit.Name)
	}

	hit := r.Route("pong back")
	require.NotNil(t, hit)
	assert.Equal(t, "beta", hit.Name)
}

func TestRouteMatchesAnywhereInUtterance(t *testing.T) {
	r := New([]*skills.Loaded{unit("weather", `\bweather\b`)})

	hit := r.Route("orion, what's the WEATHER like today?")
	require.NotNil(t, hit)
	assert.Equal(t, "weather", hit.Name)
}

func TestRouteNoMatch(t *testing.T) {
	r := New([]*skills.Loaded{unit("weather", `\bweather\b`)})
	assert.Nil(t, r.Route("tell me a story"))
}

func TestRouteEmptyTable(t *testing.T) {
	r := New(nil)
	assert.Nil(t, r.Route("anything"))
}

func TestRouteLegacyTable(t *testing.T) {
	testcases := []struct {
		name string
		text string
		want string
		hit  bool
	}{
		{"weather", "will it rain tomorrow", "weather", true},
		{"news", "any breaking headlines?", "news", true},
		{"search", "look up the tallest mountain", "search", true},
		{"remember-prefix", "remember: favorite_color = navy", "remember", true},
		{"remember-not-prefix", "I remember that day", "", false},
		{"no-match", "sing me a song", "", false},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := RouteLegacy(tc.text)
			assert.Equal(t, tc.hit, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLegacyPrecedenceIsTableOrder(t *testing.T) {
	// "find the weather" matches both weather and search; weather is
	// earlier in the fixed table.
	got, ok := RouteLegacy("find the weather")
	require.True(t, ok)
	assert.Equal(t, "weather", got)
}

func TestRunLegacyRemember(t *testing.T) {
	mem, err := memory.NewStore(filepath.Join(t.TempDir(), "memory.json"), 0)
	require.NoError(t, err)
	sc := &skills.Context{Mem: mem}

	reply, err := RunLegacy(context.Background(), "remember", "remember: favorite_color = navy", sc)
	require.NoError(t, err)
	assert.Contains(t, reply, "favorite_color")
	assert.Contains(t, reply, "navy")

	v, ok := mem.Recall("favorite_color")
	assert.True(t, ok)
	assert.Equal(t, "navy", v)
}

func TestRunLegacyRememberUsage(t *testing.T) {
	reply, err := RunLegacy(context.Background(), "remember", "remember something", nil)
	require.NoError(t, err)
	assert.Contains(t, reply, "Usage: remember:")
}

func TestParseRemember(t *testing.T) {
	testcases := []struct {
		name    string
		rest    string
		wantKey string
		wantVal string
	}{
		{"key-equals-value", "topic = some value", "topic", "some value"},
		{"key-space-value", "topic some value", "topic", "some value"},
		{"free-text-note", "single", "note", "single"},
		{"empty", "   ", "note", ""},
		{"empty-key", "= just a value", "note", "just a value"},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			key, val := parseRemember(tc.rest)
			assert.Equal(t, tc.wantKey, key)
			assert.Equal(t, tc.wantVal, val)
		})
	}
}
