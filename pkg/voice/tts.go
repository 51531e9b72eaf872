package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/benhli40/Orion/pkg/logger"
)

const defaultElevenAPIBase = "https://api.elevenlabs.io"

// Speaker is the voice-output collaborator. Failures are caught and
// logged by callers, never fatal.
type Speaker interface {
	Speak(ctx context.Context, text, voiceID string) error
}

// TTS speaks text through the ElevenLabs API, piping the returned audio
// into an external player command.
type TTS struct {
	apiKey     string
	apiBase    string
	playerCmd  string
	modelID    string
	format     string
	httpClient *http.Client
}

type TTSOptions struct {
	APIKey    string
	APIBase   string
	PlayerCmd string
}

// NewTTS constructs the client. A missing API key is fatal at this
// feature boundary.
func NewTTS(opts TTSOptions) (*TTS, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("elevenlabs API key missing")
	}
	apiBase := strings.TrimRight(opts.APIBase, "/")
	if apiBase == "" {
		apiBase = defaultElevenAPIBase
	}
	return &TTS{
		apiKey:     opts.APIKey,
		apiBase:    apiBase,
		playerCmd:  opts.PlayerCmd,
		modelID:    "eleven_flash_v2_5",
		format:     "mp3_44100_128",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (t *TTS) Speak(ctx context.Context, text, voiceID string) error {
	if text == "" {
		return nil
	}

	body, err := json.Marshal(map[string]string{
		"text":     text,
		"model_id": t.modelID,
	})
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", t.apiBase, voiceID, t.format)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if status := elevenErrorStatus(payload); status == "voice_not_found" {
			return fmt.Errorf("elevenlabs voice not found: %q; set a valid voice id in config", voiceID)
		} else if status == "missing_permissions" {
			return fmt.Errorf("elevenlabs API key is missing text_to_speech permissions")
		}
		return fmt.Errorf("tts request failed: HTTP %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}
	return t.play(ctx, audio)
}

func elevenErrorStatus(payload []byte) string {
	var parsed struct {
		Detail struct {
			Status string `json:"status"`
		} `json:"detail"`
	}
	_ = json.Unmarshal(payload, &parsed)
	return parsed.Detail.Status
}

// play pipes the audio bytes into the configured player command. With
// no player configured, the audio is dropped with a log line so text
// replies still flow.
func (t *TTS) play(ctx context.Context, audio []byte) error {
	if strings.TrimSpace(t.playerCmd) == "" {
		logger.DebugCF("voice", "No player command configured, skipping playback",
			map[string]interface{}{"bytes": len(audio)})
		return nil
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", t.playerCmd)
	cmd.Stdin = bytes.NewReader(audio)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("audio player: %w", err)
	}
	return nil
}

type voiceEntry struct {
	VoiceID string `json:"voice_id"`
	Name    string `json:"name"`
}

// ResolveVoiceID picks the voice to speak with. An explicit-looking ID
// is used directly (no listing required); a name needs the voices
// endpoint; otherwise try common defaults, then the first available
// voice.
func (t *TTS) ResolveVoiceID(ctx context.Context, preferred string) (string, error) {
	preferred = strings.TrimSpace(preferred)
	if preferred != "" && !strings.Contains(preferred, " ") && len(preferred) >= 12 {
		return preferred, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.apiBase+"/v1/voices", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("list voices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if elevenErrorStatus(payload) == "missing_permissions" {
			return "", fmt.Errorf("elevenlabs API key is missing voices_read; set an explicit voice id instead")
		}
		return "", fmt.Errorf("list voices: HTTP %d", resp.StatusCode)
	}

	var parsed struct {
		Voices []voiceEntry `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("parse voices: %w", err)
	}

	if preferred != "" {
		for _, v := range parsed.Voices {
			if strings.EqualFold(v.Name, preferred) {
				return v.VoiceID, nil
			}
		}
	}
	for _, v := range parsed.Voices {
		switch strings.ToLower(v.Name) {
		case "rachel", "alloy", "bella":
			return v.VoiceID, nil
		}
	}
	if len(parsed.Voices) > 0 {
		return parsed.Voices[0].VoiceID, nil
	}
	return "", fmt.Errorf("no voices available on this account")
}
