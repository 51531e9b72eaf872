package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetGetList(t *testing.T) {
	a, out, store := newTestAssistant(t, &fakeProvider{})
	ctx := context.Background()

	a.HandleUtterance(ctx, "memory set favorite_color = Navy")
	// The grammar matches on the lowercased utterance, so the stored
	// value is lowercased too.
	assert.Contains(t, out.String(), "Saved Favorite Color: navy")
	val, ok := store.Recall("favorite_color")
	require.True(t, ok)
	assert.Equal(t, "navy", val)

	out.Reset()
	a.HandleUtterance(ctx, "memory get color")
	assert.Contains(t, out.String(), "Color: navy")

	out.Reset()
	a.HandleUtterance(ctx, "list memory")
	assert.Contains(t, out.String(), "Memory facts:")
	assert.Contains(t, out.String(), "• Favorite Color: navy")
}

func TestMemoryGetMissingKey(t *testing.T) {
	a, out, _ := newTestAssistant(t, &fakeProvider{})

	a.HandleUtterance(context.Background(), "memory get shoe size")

	assert.Contains(t, out.String(), "No value saved for Shoe Size.")
}

func TestMemoryListEmptyShowsHint(t *testing.T) {
	a, out, _ := newTestAssistant(t, &fakeProvider{})

	a.HandleUtterance(context.Background(), "show memory")

	assert.Contains(t, out.String(), "Your memory is empty.")
}

func TestListSkillsShowsBuiltins(t *testing.T) {
	a, out, _ := newTestAssistant(t, &fakeProvider{})

	a.HandleUtterance(context.Background(), "list skills")

	assert.Contains(t, out.String(), "Installed skills:")
	assert.Contains(t, out.String(), "• hello [on]")
	assert.Contains(t, out.String(), "• weather [on]")
}

func TestDisableAndReload(t *testing.T) {
	a, out, _ := newTestAssistant(t, &fakeProvider{})
	ctx := context.Background()

	a.HandleUtterance(ctx, "skills, disable weather")
	assert.Contains(t, out.String(), "Disabled skill 'weather'.")

	out.Reset()
	a.HandleUtterance(ctx, "reload")
	assert.Contains(t, out.String(), "Reloaded skills:")
	assert.NotContains(t, out.String(), "weather")

	out.Reset()
	a.HandleUtterance(ctx, "skill list")
	assert.Contains(t, out.String(), "• weather [off]")
}

func TestReloadToleratesFiller(t *testing.T) {
	a, out, _ := newTestAssistant(t, &fakeProvider{})

	a.HandleUtterance(context.Background(), "skill reload please")

	assert.Contains(t, out.String(), "Reloaded skills:")
}

func TestScaffoldFuzzyVerb(t *testing.T) {
	a, out, _ := newTestAssistant(t, &fakeProvider{})

	a.HandleUtterance(context.Background(), "skill scafold party time")

	assert.Contains(t, out.String(), "Created party_time.go.")
	_, err := os.Stat(filepath.Join(a.cfg.SkillsDir(), "party_time.go"))
	assert.NoError(t, err)
}

func TestSkillCommandUsage(t *testing.T) {
	a, out, _ := newTestAssistant(t, &fakeProvider{})

	a.HandleUtterance(context.Background(), "skill frobnicate everything")

	assert.Contains(t, out.String(), "Usage: skill list | skill reload")
}

func TestStripWakePrefix(t *testing.T) {
	a, _, _ := newTestAssistant(t, &fakeProvider{})

	assert.Equal(t, "what's the weather", a.stripWakePrefix("orion, what's the weather"))
	assert.Equal(t, "hello there", a.stripWakePrefix("Orion: hello there"))
	assert.Equal(t, "no prefix here", a.stripWakePrefix("no prefix here"))
}
