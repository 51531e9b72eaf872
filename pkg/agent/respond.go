package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/benhli40/Orion/pkg/logger"
	"github.com/benhli40/Orion/pkg/memory"
)

const apologyReply = "Sorry, I couldn't generate a response just now. Please try again."

// respond is the LLM fallback ladder: stream, then a blocking send,
// then reset-and-send, then a fixed apology. Exactly one bot turn is
// recorded no matter which stage produced the reply.
func (a *Assistant) respond(ctx context.Context, user string, say func(string), live bool) {
	limit := a.cfg.Memory.MaxRelevantFacts
	if limit <= 0 {
		limit = 6
	}
	prompt := user
	if preface := memory.FormatFactContext(memory.RelevantFacts(a.mem, user, limit)); preface != "" {
		prompt = preface + "\n\nUser: " + user
	}

	printed := false
	var full strings.Builder
	for chunk := range a.provider.Stream(ctx, prompt) {
		if chunk == "" {
			continue
		}
		full.WriteString(chunk)
		if live {
			if !printed {
				fmt.Fprintf(a.out, "%s: ", a.name())
				printed = true
			}
			fmt.Fprint(a.out, chunk)
		}
	}
	if printed {
		fmt.Fprintln(a.out)
	}

	reply := strings.TrimSpace(full.String())

	if reply == "" {
		var err error
		reply, err = a.provider.Send(ctx, prompt)
		if err != nil {
			logger.WarnCF("agent", "Send fallback failed",
				map[string]interface{}{"error": err.Error()})
		}
	}

	if reply == "" {
		a.provider.Reset()
		var err error
		reply, err = a.provider.Send(ctx, prompt)
		if err != nil {
			logger.WarnCF("agent", "Send after reset failed",
				map[string]interface{}{"error": err.Error()})
		}
	}

	if reply == "" {
		reply = apologyReply
	}

	if printed {
		// Already on screen from the stream; just voice and record it.
		a.speak(ctx, reply)
		a.recordBotTurn(reply)
		return
	}
	say(reply)
}
