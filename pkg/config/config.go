package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so allow_from can contain both "123" and 123.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Assistant AssistantConfig `json:"assistant"`
	Provider  ProviderConfig  `json:"provider"`
	Voice     VoiceConfig     `json:"voice"`
	Skills    SkillsConfig    `json:"skills"`
	Memory    MemoryConfig    `json:"memory"`
	Channels  ChannelsConfig  `json:"channels"`
	Heartbeat HeartbeatConfig `json:"heartbeat"`
	mu        sync.RWMutex
}

type AssistantConfig struct {
	Name              string `json:"name" env:"ORION_ASSISTANT_NAME"`
	DataDir           string `json:"data_dir" env:"ORION_ASSISTANT_DATA_DIR"`
	WakeWord          string `json:"wake_word" env:"ORION_WAKE_WORD"`
	SleepTerms        string `json:"sleep_terms" env:"ORION_WAKE_CLOSE"` // bar-separated
	SystemInstruction string `json:"system_instruction" env:"ORION_SYSTEM_INSTRUCTION"`
}

type ProviderConfig struct {
	APIKey      string  `json:"api_key" env:"ORION_PROVIDER_API_KEY"`
	APIBase     string  `json:"api_base" env:"ORION_PROVIDER_API_BASE"`
	Model       string  `json:"model" env:"ORION_PROVIDER_MODEL"`
	MaxTokens   int     `json:"max_tokens" env:"ORION_PROVIDER_MAX_TOKENS"`
	Temperature float64 `json:"temperature" env:"ORION_PROVIDER_TEMPERATURE"`
}

type VoiceConfig struct {
	ElevenAPIKey  string `json:"eleven_api_key" env:"ORION_VOICE_ELEVEN_API_KEY"`
	VoiceID       string `json:"voice_id" env:"ORION_VOICE_ID"`
	VoiceName     string `json:"voice_name" env:"ORION_VOICE_NAME"`
	PlayerCommand string `json:"player_command" env:"ORION_VOICE_PLAYER_COMMAND"`
	RecorderCmd   string `json:"recorder_command" env:"ORION_VOICE_RECORDER_COMMAND"`
	MicTimeoutSec int    `json:"mic_timeout_seconds" env:"ORION_VOICE_MIC_TIMEOUT_SECONDS"`
}

type SkillsConfig struct {
	Dir               string `json:"dir" env:"ORION_SKILLS_DIR"`
	OpenWeatherAPIKey string `json:"openweather_api_key" env:"ORION_OPENWEATHER_API_KEY"`
}

type MemoryConfig struct {
	MaxConversations int  `json:"max_conversations" env:"ORION_MEMORY_MAX_CONVERSATIONS"`
	MaxRelevantFacts int  `json:"max_relevant_facts" env:"ORION_MEMORY_MAX_RELEVANT_FACTS"`
	ArchiveEnabled   bool `json:"archive_enabled" env:"ORION_MEMORY_ARCHIVE_ENABLED"`
}

type ChannelsConfig struct {
	Discord DiscordConfig `json:"discord"`
}

type DiscordConfig struct {
	Token     string              `json:"token" env:"ORION_CHANNELS_DISCORD_TOKEN"`
	AllowFrom FlexibleStringSlice `json:"allow_from" env:"ORION_CHANNELS_DISCORD_ALLOW_FROM"`
}

type HeartbeatConfig struct {
	Enabled  bool   `json:"enabled" env:"ORION_HEARTBEAT_ENABLED"`
	Schedule string `json:"schedule" env:"ORION_HEARTBEAT_SCHEDULE"` // cron expression
	Channel  string `json:"channel" env:"ORION_HEARTBEAT_CHANNEL"`
	ChatID   string `json:"chat_id" env:"ORION_HEARTBEAT_CHAT_ID"`
}

func DefaultConfig() *Config {
	return &Config{
		Assistant: AssistantConfig{
			Name:              "Orion",
			DataDir:           "~/.orion",
			WakeWord:          "orion",
			SleepTerms:        "",
			SystemInstruction: "You are Orion, a helpful JARVIS-like assistant.",
		},
		Provider: ProviderConfig{
			APIBase:     "https://openrouter.ai/api/v1",
			Model:       "google/gemini-2.5-flash",
			MaxTokens:   200,
			Temperature: 0.7,
		},
		Voice: VoiceConfig{
			PlayerCommand: "",
			MicTimeoutSec: 10,
		},
		Skills: SkillsConfig{
			Dir: "~/.orion/skills",
		},
		Memory: MemoryConfig{
			MaxConversations: 500,
			MaxRelevantFacts: 6,
			ArchiveEnabled:   false,
		},
		Channels: ChannelsConfig{
			Discord: DiscordConfig{
				Token:     "",
				AllowFrom: FlexibleStringSlice{},
			},
		},
		Heartbeat: HeartbeatConfig{
			Enabled:  false,
			Schedule: "0 * * * *",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func (c *Config) DataDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Assistant.DataDir)
}

func (c *Config) SkillsDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Skills.Dir != "" {
		return expandHome(c.Skills.Dir)
	}
	return filepath.Join(expandHome(c.Assistant.DataDir), "skills")
}

func (c *Config) MemoryPath() string {
	return filepath.Join(c.DataDir(), "memory.json")
}

func (c *Config) ArchivePath() string {
	return filepath.Join(c.DataDir(), "archive.db")
}

func (c *Config) MicTimeout() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Voice.MicTimeoutSec <= 0 {
		return 10
	}
	return c.Voice.MicTimeoutSec
}

func (c *Config) MaxConversations() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Memory.MaxConversations <= 0 {
		return 500
	}
	return c.Memory.MaxConversations
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
