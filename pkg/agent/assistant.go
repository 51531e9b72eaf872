// Package agent wires memory, skills, routing, and the LLM provider
// into the conversational pipeline.
package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/benhli40/Orion/pkg/config"
	"github.com/benhli40/Orion/pkg/logger"
	"github.com/benhli40/Orion/pkg/memory"
	"github.com/benhli40/Orion/pkg/providers"
	"github.com/benhli40/Orion/pkg/router"
	"github.com/benhli40/Orion/pkg/skills"
	"github.com/benhli40/Orion/pkg/voice"
	"github.com/benhli40/Orion/pkg/wake"
)

// Assistant holds the per-process collaborators. One instance serves
// the console loop, channels, and the heartbeat alike.
type Assistant struct {
	cfg      *config.Config
	provider providers.LLMProvider
	speaker  voice.Speaker
	voiceID  string
	mem      *memory.Store
	archive  *memory.Archive
	registry *skills.Registry
	router   *router.Router
	wake     *wake.WakeWord
	out      io.Writer

	wakePrefixRx *regexp.Regexp
}

type Options struct {
	Config   *config.Config
	Provider providers.LLMProvider
	Speaker  voice.Speaker // nil for text-only sessions
	VoiceID  string
	Store    *memory.Store
	Archive  *memory.Archive // nil when archiving is disabled
	Registry *skills.Registry
	Out      io.Writer // defaults to stdout
}

func New(opts Options) *Assistant {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	a := &Assistant{
		cfg:      opts.Config,
		provider: opts.Provider,
		speaker:  opts.Speaker,
		voiceID:  opts.VoiceID,
		mem:      opts.Store,
		archive:  opts.Archive,
		registry: opts.Registry,
		out:      out,
	}
	a.router = router.New(a.registry.LoadAll())
	a.wake = wake.New(opts.Config.Assistant.WakeWord, opts.Config.Assistant.SleepTerms)
	a.wakePrefixRx = regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(a.wake.Word()) + `[\s,:\-]+\s*`)
	return a
}

func (a *Assistant) name() string {
	if n := a.cfg.Assistant.Name; n != "" {
		return n
	}
	return "Orion"
}

func (a *Assistant) skillContext() *skills.Context {
	return &skills.Context{Mem: a.mem, Cfg: a.cfg}
}

// Say prints, speaks, and logs one bot reply.
func (a *Assistant) Say(ctx context.Context, text string) {
	fmt.Fprintf(a.out, "%s: %s\n", a.name(), text)
	a.speak(ctx, text)
	a.recordBotTurn(text)
}

// speak voices a reply. Failures are logged, never fatal.
func (a *Assistant) speak(ctx context.Context, text string) {
	if a.speaker == nil {
		return
	}
	if err := a.speaker.Speak(ctx, text, a.voiceID); err != nil {
		logger.WarnCF("agent", "TTS failed", map[string]interface{}{"error": err.Error()})
	}
}

func (a *Assistant) recordBotTurn(text string) {
	if err := a.mem.AppendConversation(memory.Turn{Bot: text}); err != nil {
		logger.WarnCF("agent", "Failed to log bot turn", map[string]interface{}{"error": err.Error()})
	}
	if a.archive != nil {
		if err := a.archive.AppendTurn("assistant", text); err != nil {
			logger.WarnCF("agent", "Archive write failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (a *Assistant) recordUserTurn(text string) {
	if err := a.mem.AppendConversation(memory.Turn{User: text}); err != nil {
		logger.WarnCF("agent", "Failed to log user turn", map[string]interface{}{"error": err.Error()})
	}
	if a.archive != nil {
		if err := a.archive.AppendTurn("user", text); err != nil {
			logger.WarnCF("agent", "Archive write failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// HandleUtterance runs the full pipeline for one console or voice
// utterance, printing and speaking replies as they happen.
func (a *Assistant) HandleUtterance(ctx context.Context, user string) {
	a.process(ctx, user, func(text string) { a.Say(ctx, text) }, true)
}

// Reply runs the same pipeline for a channel message and returns the
// reply text. Channel replies are not spoken.
func (a *Assistant) Reply(ctx context.Context, user string) string {
	var replies []string
	a.process(ctx, user, func(text string) {
		replies = append(replies, text)
		a.recordBotTurn(text)
	}, false)
	return strings.Join(replies, "\n")
}

// process is the routing ladder: admin grammar, memory fast path,
// plugin router, legacy router, then the LLM. Failed skills fall
// through to the next stage rather than surfacing errors to the user.
func (a *Assistant) process(ctx context.Context, user string, say func(string), live bool) {
	user = strings.TrimSpace(user)
	if user == "" {
		return
	}
	low := strings.ToLower(user)

	if a.handleSkillAdmin(low, say) {
		return
	}
	if a.handleMemoryAdmin(low, say) {
		return
	}

	if ans, ok := memory.Answer(a.mem, user); ok {
		say(ans)
		return
	}

	a.recordUserTurn(user)

	sc := a.skillContext()
	if unit := a.router.Route(user); unit != nil {
		result, err := unit.Run(ctx, user, sc)
		if err == nil {
			say(result)
			return
		}
		logger.WarnCF("agent", "Skill failed, falling back",
			map[string]interface{}{"skill": unit.Name, "error": err.Error()})
	}

	if name, ok := router.RouteLegacy(user); ok {
		result, err := router.RunLegacy(ctx, name, user, sc)
		if err == nil {
			say(result)
			return
		}
		logger.WarnCF("agent", "Legacy skill failed, falling back",
			map[string]interface{}{"skill": name, "error": err.Error()})
	}

	a.respond(ctx, user, say, live)
}

// stripWakePrefix drops a leading wake word so "orion, weather in
// Austin" routes as "weather in Austin".
func (a *Assistant) stripWakePrefix(text string) string {
	return strings.TrimSpace(a.wakePrefixRx.ReplaceAllString(text, ""))
}
