package memory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveAppendAndRecent(t *testing.T) {
	a, err := NewArchive(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.AppendTurn("user", "hello"))
	require.NoError(t, a.AppendTurn("bot", "hi there"))
	require.NoError(t, a.AppendTurn("user", "what's the weather"))

	n, err := a.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	turns, err := a.Recent(2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	// Chronological order, most recent window.
	assert.Equal(t, "hi there", turns[0].Content)
	assert.Equal(t, "what's the weather", turns[1].Content)
	assert.NotEmpty(t, turns[0].ID)
}

func TestArchiveSkipsEmptyContent(t *testing.T) {
	a, err := NewArchive(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.AppendTurn("bot", ""))
	n, err := a.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
