package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "memory.json"), 0)
	require.NoError(t, err)
	return s
}

func TestRememberRecallRoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Remember("favorite_color", "navy"))
	v, ok := s.Recall("favorite_color")
	assert.True(t, ok)
	assert.Equal(t, "navy", v)

	// Last write wins.
	require.NoError(t, s.Remember("favorite_color", "teal"))
	v, _ = s.Recall("favorite_color")
	assert.Equal(t, "teal", v)
}

func TestNormalizeKey(t *testing.T) {
	testcases := []struct {
		in   string
		want string
	}{
		{"Favorite Color", "favorite_color"},
		{"coffee-order", "coffee_order"},
		{"  user name ", "user_name"},
		{"timezone", "timezone"},
	}
	for _, tc := range testcases {
		assert.Equal(t, tc.want, NormalizeKey(tc.in))
	}
}

func TestRememberNormalizesKey(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Remember("Coffee Order", "flat white"))

	v, ok := s.Recall("coffee_order")
	assert.True(t, ok)
	assert.Equal(t, "flat white", v)
}

func TestFactsLike(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Remember("user_name", "Ben"))
	require.NoError(t, s.Remember("home_city", "Austin"))
	require.NoError(t, s.Remember("favorite_color", "navy"))

	all := s.FactsLike("")
	assert.Len(t, all, 3)
	seen := map[string]bool{}
	for _, f := range all {
		assert.False(t, seen[f.Key], "fact %q returned twice", f.Key)
		seen[f.Key] = true
	}

	// Matches key or value, case-insensitive.
	assert.Len(t, s.FactsLike("NAVY"), 1)
	assert.Len(t, s.FactsLike("home"), 1)
	assert.Empty(t, s.FactsLike("zebra"))
}

func TestConversationCap(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "memory.json"), 10)
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		require.NoError(t, s.AppendConversation(Turn{User: fmt.Sprintf("msg %d", i)}))
	}

	recent := s.Recent(0)
	require.Len(t, recent, 10)
	// Most recent turns retained in original order.
	assert.Equal(t, "msg 15", recent[0].User)
	assert.Equal(t, "msg 24", recent[9].User)
}

func TestAppendConversationSkipsEmptyTurn(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AppendConversation(Turn{}))
	assert.Empty(t, s.Recent(0))
}

func TestCorruptDocumentResetsToEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memory.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := NewStore(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, s.FactCount())
	assert.Empty(t, s.FactsLike(""))
}

func TestWriteIsAtomic(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Remember("k", "v"))

	// No temp file left behind after a successful write.
	_, err := os.Stat(s.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestRecallMissingKey(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.Recall("nope")
	assert.False(t, ok)
}
