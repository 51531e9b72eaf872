package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "Orion", cfg.Assistant.Name)
	assert.Equal(t, "orion", cfg.Assistant.WakeWord)
	assert.Equal(t, 500, cfg.Memory.MaxConversations)
	assert.Equal(t, 10, cfg.MicTimeout())
	assert.False(t, cfg.Heartbeat.Enabled)
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, "Orion", cfg.Assistant.Name)
}

func TestLoadConfigFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"assistant": {"name": "Jarvis", "wake_word": "jarvis"},
		"memory": {"max_conversations": 100},
		"channels": {"discord": {"allow_from": ["alice", 123456]}}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Jarvis", cfg.Assistant.Name)
	assert.Equal(t, "jarvis", cfg.Assistant.WakeWord)
	assert.Equal(t, 100, cfg.MaxConversations())
	assert.Equal(t, FlexibleStringSlice{"alice", "123456"}, cfg.Channels.Discord.AllowFrom)
	// Untouched sections keep defaults.
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.Provider.APIBase)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("ORION_WAKE_WORD", "computer")
	t.Setenv("ORION_MEMORY_MAX_CONVERSATIONS", "42")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "computer", cfg.Assistant.WakeWord)
	assert.Equal(t, 42, cfg.Memory.MaxConversations)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Assistant.Name = "Echo"
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Echo", loaded.Assistant.Name)
}

func TestPathHelpers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Assistant.DataDir = "/tmp/orion-test"
	cfg.Skills.Dir = ""

	assert.Equal(t, "/tmp/orion-test/memory.json", cfg.MemoryPath())
	assert.Equal(t, "/tmp/orion-test/archive.db", cfg.ArchivePath())
	assert.Equal(t, filepath.Join("/tmp/orion-test", "skills"), cfg.SkillsDir())
}
