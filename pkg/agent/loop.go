package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/benhli40/Orion/pkg/logger"
	"github.com/benhli40/Orion/pkg/voice"
)

// RunLoop is the wake-word voice loop. Each pass captures one stretch
// of audio; a mic timeout falls back to a typed line so the assistant
// stays usable without a microphone.
func (a *Assistant) RunLoop(ctx context.Context, rec voice.Recorder, input io.Reader) error {
	defer func() {
		rec.Shutdown()
		fmt.Fprintln(a.out, "Recorder shut down. Goodbye!")
	}()

	reader := bufio.NewReader(input)
	timeout := time.Duration(a.cfg.MicTimeout()) * time.Second
	fmt.Fprintf(a.out, "[Wake] word: '%s'\n", a.wake.Word())
	fmt.Fprintln(a.out, "Say the wake word to activate. Say 'clear.' to clear the screen, 'close.' to exit.")
	fmt.Fprintln(a.out)

	awake := false
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fmt.Fprint(a.out, "You: ")
		raw, heard, err := voice.CaptureWithTimeout(ctx, rec, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.WarnCF("agent", "Mic capture failed",
				map[string]interface{}{"error": err.Error()})
			heard = false
		}
		if !heard {
			fmt.Fprintln(a.out, "[no audio detected]")
			fmt.Fprint(a.out, "Type instead (or just press Enter to keep listening): ")
			line, rerr := reader.ReadString('\n')
			raw = strings.TrimSpace(line)
			if rerr != nil && raw == "" {
				return nil
			}
		} else {
			fmt.Fprintln(a.out, raw)
		}
		if raw == "" {
			continue
		}

		norm := strings.ToLower(strings.TrimSpace(raw))

		// Global controls work asleep or awake.
		if norm == "clear" || norm == "clear." {
			fmt.Fprint(a.out, "\033[2J\033[H")
			continue
		}
		if norm == "close." {
			fmt.Fprintln(a.out, "Closing program...")
			return nil
		}

		if !awake {
			if !a.wake.HeardWake(norm) {
				continue
			}
			leftover := a.wake.StripWake(raw)
			awake = true
			fmt.Fprintf(a.out, "[Wake] %s is now AWAKE\n", a.name())
			if leftover == "" {
				a.Say(ctx, "I'm listening.")
				continue
			}
			raw = leftover
		} else if a.wake.HeardSleep(norm) {
			awake = false
			fmt.Fprintf(a.out, "[Wake] %s is now SLEEPING\n", a.name())
			a.Say(ctx, "Going to sleep.")
			continue
		}

		a.HandleUtterance(ctx, a.stripWakePrefix(raw))
	}
}

// RunConsole is the text-only chat loop behind `orion chat`. Wake-word
// gating does not apply; every line is an utterance.
func (a *Assistant) RunConsole(ctx context.Context, input io.Reader) error {
	reader := bufio.NewReader(input)
	fmt.Fprintf(a.out, "%s ready. Type a message, or 'close.' to exit.\n\n", a.name())

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fmt.Fprint(a.out, "You: ")
		line, err := reader.ReadString('\n')
		text := strings.TrimSpace(line)
		if text == "" {
			if err != nil {
				return nil
			}
			continue
		}

		norm := strings.ToLower(text)
		if norm == "close." || norm == "exit" || norm == "quit" {
			fmt.Fprintln(a.out, "Closing program...")
			return nil
		}
		if norm == "clear" || norm == "clear." {
			fmt.Fprint(a.out, "\033[2J\033[H")
			continue
		}

		a.HandleUtterance(ctx, text)
		if err != nil {
			return nil
		}
	}
}
