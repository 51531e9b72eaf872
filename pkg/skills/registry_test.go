package skills

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSkill struct {
	name        string
	description string
	triggers    []string
	reply       string
}

func (f *fakeSkill) Name() string        { return f.name }
func (f *fakeSkill) Description() string { return f.description }
func (f *fakeSkill) Triggers() []string  { return f.triggers }
func (f *fakeSkill) Run(ctx context.Context, query string, sc *Context) (string, error) {
	return f.reply, nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(t.TempDir())
}

func TestDiscoverIncludesBuiltins(t *testing.T) {
	r := newTestRegistry(t)
	names := r.Discover()

	for _, want := range []string{"hello", "news", "search", "weather"} {
		assert.Contains(t, names, want)
	}
}

func TestDiscoverExcludesPrivateAndReservedFiles(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "_enabled.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_private.go"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "registry.go"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mycustom.go"), []byte("x"), 0o644))

	names := r.Discover()
	assert.NotContains(t, names, "_enabled")
	assert.NotContains(t, names, "_private")
	assert.NotContains(t, names, "registry")
	assert.Contains(t, names, "mycustom")
}

func TestLoadUnknownCandidateIsAbsent(t *testing.T) {
	r := newTestRegistry(t)
	_, ok := r.Load("no-such-skill")
	assert.False(t, ok)
}

func TestLoadDropsBadTriggerPatterns(t *testing.T) {
	RegisterFactory("badtrigger-test", func() Skill {
		return &fakeSkill{
			name:        "badtrigger-test",
			description: "has a broken pattern",
			triggers:    []string{`\bvalid\b`, `([unclosed`},
		}
	})

	r := newTestRegistry(t)
	unit, ok := r.Load("badtrigger-test")
	require.True(t, ok)
	require.Len(t, unit.Patterns, 1)
	assert.True(t, unit.Patterns[0].MatchString("a VALID word"))
}

func TestEnableDisableRoundTrip(t *testing.T) {
	r := newTestRegistry(t)

	active := r.LoadAll()
	names := map[string]bool{}
	for _, u := range active {
		names[u.Name] = true
	}
	require.True(t, names["hello"])

	msg := r.SetEnabled("hello", false)
	assert.Contains(t, msg, "Disabled skill 'hello'")

	active = r.LoadAll()
	for _, u := range active {
		assert.NotEqual(t, "hello", u.Name)
	}

	msg = r.SetEnabled("hello", true)
	assert.Contains(t, msg, "Enabled skill 'hello'")

	active = r.LoadAll()
	found := false
	for _, u := range active {
		if u.Name == "hello" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSetEnabledUnknownNamePersists(t *testing.T) {
	r := newTestRegistry(t)
	// State can name skills that don't currently exist.
	r.SetEnabled("ghost", false)

	state := r.readState()
	enabled, ok := state["ghost"]
	assert.True(t, ok)
	assert.False(t, enabled)
}

func TestListAllShowsDisabledSkills(t *testing.T) {
	r := newTestRegistry(t)
	r.SetEnabled("news", false)

	statuses := r.ListAll()
	var newsStatus *Status
	for i := range statuses {
		if statuses[i].Name == "news" {
			newsStatus = &statuses[i]
		}
	}
	require.NotNil(t, newsStatus)
	assert.False(t, newsStatus.Enabled)
	assert.NotEmpty(t, newsStatus.Description)
}

func TestLoadAllAtomicSwap(t *testing.T) {
	r := newTestRegistry(t)
	first := r.LoadAll()
	require.NotEmpty(t, first)

	// The previous snapshot is unaffected by a reload.
	r.SetEnabled("hello", false)
	second := r.LoadAll()
	assert.Len(t, first, len(second)+1)

	_, ok := r.Get("hello")
	assert.False(t, ok)
}

func TestScaffoldSanitizesAndIsIdempotent(t *testing.T) {
	r := newTestRegistry(t)

	path, err := r.Scaffold("Foo Bar!")
	require.NoError(t, err)
	assert.Equal(t, "foo_bar_.go", filepath.Base(path))

	original, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(original), `"foo_bar_"`)

	// Mark the file, scaffold again, content must be untouched.
	require.NoError(t, os.WriteFile(path, []byte("edited by hand"), 0o644))
	again, err := r.Scaffold("Foo Bar!")
	require.NoError(t, err)
	assert.Equal(t, path, again)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "edited by hand", string(after))
}

func TestScaffoldedCandidateIsDiscovered(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Scaffold("lights")
	require.NoError(t, err)

	assert.Contains(t, r.Discover(), "lights")
	// No factory registered yet, so it does not load.
	_, ok := r.Load("lights")
	assert.False(t, ok)
}
