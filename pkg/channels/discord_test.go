package channels

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMessageShortPassesThrough(t *testing.T) {
	chunks := splitMessage("hello", 1500)
	assert.Equal(t, []string{"hello"}, chunks)
}

func TestSplitMessageBreaksOnNewline(t *testing.T) {
	content := strings.Repeat("line one\n", 300)
	chunks := splitMessage(content, 1500)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 1500)
	}
}

func TestSplitMessageKeepsCodeBlockIntact(t *testing.T) {
	block := "```go\n" + strings.Repeat("x := 1\n", 50) + "```"
	content := strings.Repeat("padding text ", 100) + "\n" + block

	chunks := splitMessage(content, 1400)

	for _, c := range chunks {
		fences := strings.Count(c, "```")
		assert.Equal(t, 0, fences%2, "chunk should not split a code fence: %q", c)
	}
}

func TestPreviewTruncates(t *testing.T) {
	assert.Equal(t, "short", preview("short", 50))
	long := strings.Repeat("a", 60)
	assert.Equal(t, strings.Repeat("a", 50)+"...", preview(long, 50))
}
