package skills

import (
	"context"
	"fmt"
)

// HelloSkill greets and shows a remembered fact. It doubles as the
// smallest possible example of the skill contract.
type HelloSkill struct{}

func (s *HelloSkill) Name() string        { return "hello" }
func (s *HelloSkill) Description() string { return "Greets and shows a memory fact." }

func (s *HelloSkill) Triggers() []string {
	return []string{`\bhello\b`, `\bhi orion\b`}
}

func (s *HelloSkill) Run(ctx context.Context, query string, sc *Context) (string, error) {
	greeting := "Hello!"
	if sc.Mem != nil {
		if name, ok := sc.Mem.Recall("user_name"); ok && name != "" {
			greeting = fmt.Sprintf("Hello, %s!", name)
		}
		if fav, ok := sc.Mem.Recall("favorite_color"); ok && fav != "" {
			greeting += fmt.Sprintf(" Your favorite color is %s.", fav)
		}
	}
	return greeting, nil
}

func init() {
	RegisterFactory("hello", func() Skill { return &HelloSkill{} })
}
