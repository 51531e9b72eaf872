package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/benhli40/Orion/pkg/agent"
	"github.com/benhli40/Orion/pkg/config"
	"github.com/benhli40/Orion/pkg/logger"
	"github.com/benhli40/Orion/pkg/memory"
	"github.com/benhli40/Orion/pkg/providers"
	"github.com/benhli40/Orion/pkg/skills"
	"github.com/benhli40/Orion/pkg/voice"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const appName = "orion"

func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func formatBuildInfo() (build string, goVer string) {
	if buildTime != "" {
		build = buildTime
	}
	goVer = goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return
}

func printVersion() {
	fmt.Printf("%s %s\n", appName, formatVersion())
	build, goVer := formatBuildInfo()
	if build != "" {
		fmt.Printf("  Build: %s\n", build)
	}
	if goVer != "" {
		fmt.Printf("  Go: %s\n", goVer)
	}
}

func getConfigPath() string {
	if p := os.Getenv("ORION_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".orion", "config.json")
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(getConfigPath())
}

// buildAssistant wires the shared collaborators. Voice is only set up
// for the voice loop; text sessions never need an ElevenLabs key.
func buildAssistant(ctx context.Context, cfg *config.Config, withVoice bool) (*agent.Assistant, *skills.Registry, error) {
	if err := os.MkdirAll(cfg.DataDir(), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := memory.NewStore(cfg.MemoryPath(), cfg.MaxConversations())
	if err != nil {
		return nil, nil, fmt.Errorf("open memory: %w", err)
	}
	fmt.Printf("[Memory] path: %s (%d facts)\n", store.Path(), store.FactCount())

	var archive *memory.Archive
	if cfg.Memory.ArchiveEnabled {
		archive, err = memory.NewArchive(cfg.ArchivePath())
		if err != nil {
			logger.WarnCF("main", "Archive unavailable, continuing without it",
				map[string]interface{}{"error": err.Error()})
			archive = nil
		}
	}

	provider, err := providers.CreateProvider(cfg)
	if err != nil {
		return nil, nil, err
	}

	registry := skills.NewRegistry(cfg.SkillsDir())

	var speaker voice.Speaker
	var voiceID string
	if withVoice {
		tts, err := voice.NewTTS(voice.TTSOptions{
			APIKey:    cfg.Voice.ElevenAPIKey,
			PlayerCmd: cfg.Voice.PlayerCommand,
		})
		if err != nil {
			return nil, nil, err
		}
		preferred := cfg.Voice.VoiceID
		if preferred == "" {
			preferred = cfg.Voice.VoiceName
		}
		voiceID, err = tts.ResolveVoiceID(ctx, preferred)
		if err != nil {
			return nil, nil, fmt.Errorf("%w\nTip: set voice.voice_id in %s to a valid voice id from your ElevenLabs dashboard", err, getConfigPath())
		}
		fmt.Printf("[TTS] using voice_id: %s\n", voiceID)
		speaker = tts
	}

	a := agent.New(agent.Options{
		Config:   cfg,
		Provider: provider,
		Speaker:  speaker,
		VoiceID:  voiceID,
		Store:    store,
		Archive:  archive,
		Registry: registry,
	})

	active := registry.Active()
	if len(active) == 0 {
		fmt.Println("[Skills] loaded: (none)")
	} else {
		names := make([]string, 0, len(active))
		for _, u := range active {
			names = append(names, u.Name)
		}
		fmt.Printf("[Skills] loaded: %s\n", joinComma(names))
	}

	return a, registry, nil
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

func onboard() error {
	path := getConfigPath()
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists at %s\n", path)
		return nil
	}

	cfg := config.DefaultConfig()
	if err := config.SaveConfig(path, cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir(), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.SkillsDir(), 0o755); err != nil {
		return fmt.Errorf("create skills dir: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println("Next steps:")
	fmt.Println("  1. Set provider.api_key (or export ORION_PROVIDER_API_KEY)")
	fmt.Println("  2. For voice: set voice.eleven_api_key and voice.recorder_command")
	fmt.Println("  3. Run 'orion chat' to talk, or 'orion voice' for the wake-word loop")
	return nil
}

func main() {
	if err := executeCLI(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
