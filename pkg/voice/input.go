package voice

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/benhli40/Orion/pkg/logger"
)

// Recorder turns one stretch of microphone audio into text. Text blocks
// until the user stops speaking or the backend fails.
type Recorder interface {
	Text(ctx context.Context) (string, error)
	Shutdown()
}

type captureResult struct {
	text string
	err  error
}

// CaptureWithTimeout races one capture against a deadline. On timeout
// it returns ok=false and abandons the worker; the buffered channel
// lets the late result land without blocking the goroutine, and the
// recorder backend is expected to tolerate an unread capture.
func CaptureWithTimeout(ctx context.Context, rec Recorder, timeout time.Duration) (string, bool, error) {
	results := make(chan captureResult, 1)

	go func() {
		text, err := rec.Text(ctx)
		results <- captureResult{text: text, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-results:
		if r.err != nil {
			return "", true, r.err
		}
		return strings.TrimSpace(r.text), true, nil
	case <-timer.C:
		logger.DebugCF("voice", "Mic capture timed out",
			map[string]interface{}{"timeout": timeout.String()})
		return "", false, nil
	case <-ctx.Done():
		return "", true, ctx.Err()
	}
}

// ExecRecorder shells out to a transcription command that prints the
// recognized utterance on stdout, one invocation per capture.
type ExecRecorder struct {
	command string
}

func NewExecRecorder(command string) (*ExecRecorder, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("recorder command missing")
	}
	return &ExecRecorder{command: command}, nil
}

func (r *ExecRecorder) Text(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "sh", "-c", r.command).Output()
	if err != nil {
		return "", fmt.Errorf("recorder command: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *ExecRecorder) Shutdown() {}
