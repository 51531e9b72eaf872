package router

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/benhli40/Orion/pkg/skills"
)

// The legacy router predates the plugin registry: a fixed keyword table
// for the original built-in capabilities plus the "remember:" prefix.
// It is consulted only when the primary router finds nothing.

var legacyRules = []rule{
	{"weather", regexp.MustCompile(`(?i)\b(weather|forecast|temp(?:erature)?|rain|wind|snow|humidity|humid)\b`)},
	{"news", regexp.MustCompile(`(?i)\b(news|headline[s]?|top stor(?:y|ies)|breaking)\b`)},
	{"search", regexp.MustCompile(`(?i)\b(search|look\s*up|lookup|find|query)\b`)},
	{"remember", regexp.MustCompile(`(?i)^\s*remember\s*:`)},
}

// RouteLegacy returns the first legacy rule name matching the text.
func RouteLegacy(text string) (string, bool) {
	for _, rl := range legacyRules {
		if rl.pattern.MatchString(text) {
			return rl.name, true
		}
	}
	return "", false
}

// legacySkills maps legacy names to fresh skill instances, independent
// of the plugin registry and its enable-state.
var legacySkills = map[string]func() skills.Skill{
	"weather": func() skills.Skill { return &skills.WeatherSkill{} },
	"news":    func() skills.Skill { return &skills.NewsSkill{} },
	"search":  func() skills.Skill { return &skills.SearchSkill{} },
}

// RunLegacy dispatches a legacy hit. "remember" is handled inline.
func RunLegacy(ctx context.Context, name, query string, sc *skills.Context) (string, error) {
	if name == "remember" {
		return runRemember(query, sc)
	}
	factory, ok := legacySkills[name]
	if !ok {
		return "", fmt.Errorf("unknown legacy skill %q", name)
	}
	return factory().Run(ctx, query, sc)
}

// parseRemember parses the text after "remember:" into (key, value).
// Accepts "topic = value", "topic value", and free-text notes.
func parseRemember(rest string) (string, string) {
	s := strings.TrimSpace(rest)
	if s == "" {
		return "note", ""
	}
	if idx := strings.Index(s, "="); idx >= 0 {
		key := strings.TrimSpace(s[:idx])
		if key == "" {
			key = "note"
		}
		return key, strings.TrimSpace(s[idx+1:])
	}
	parts := strings.Fields(s)
	if len(parts) >= 2 {
		return parts[0], strings.Join(parts[1:], " ")
	}
	return "note", s
}

func runRemember(query string, sc *skills.Context) (string, error) {
	idx := strings.Index(query, ":")
	if idx < 0 {
		return "Usage: remember: key = value  (or)  remember: some note", nil
	}
	key, val := parseRemember(query[idx+1:])

	if sc == nil || sc.Mem == nil {
		return "I couldn't access memory.", nil
	}
	if val == "" && key != "note" {
		return "What should I store for that key? Try: remember: favorite_color = navy", nil
	}

	if err := sc.Mem.Remember(key, val); err != nil {
		return "", fmt.Errorf("store fact: %w", err)
	}
	if val == "" {
		val = "(empty)"
	}
	return fmt.Sprintf("Got it. I'll remember %s: %s.", key, val), nil
}
