package skills

import (
	"context"
	"regexp"

	"github.com/benhli40/Orion/pkg/config"
	"github.com/benhli40/Orion/pkg/memory"
)

// Skill is the plugin contract. A skill exposes a name, a description,
// an ordered set of trigger patterns, and a query handler. Skills must
// return errors rather than panic; the orchestrator treats a failing
// skill as a fall-through to the next routing stage.
type Skill interface {
	Name() string
	Description() string
	Triggers() []string
	Run(ctx context.Context, query string, sc *Context) (string, error)
}

// Context is what a skill gets to work with.
type Context struct {
	Mem *memory.Store
	Cfg *config.Config
}

// Loaded is an immutable skill unit with its triggers compiled. Reload
// replaces the whole set; units are never mutated in place.
type Loaded struct {
	Name        string
	Description string
	Patterns    []*regexp.Regexp
	skill       Skill
}

func (l *Loaded) Run(ctx context.Context, query string, sc *Context) (string, error) {
	return l.skill.Run(ctx, query, sc)
}

// compileTriggers compiles each pattern case-insensitively. Unparseable
// patterns are dropped, never fatal.
func compileTriggers(triggers []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(triggers))
	for _, t := range triggers {
		rx, err := regexp.Compile("(?i)" + t)
		if err != nil {
			continue
		}
		out = append(out, rx)
	}
	return out
}
