package memory

import (
	"fmt"
	"regexp"
	"strings"
)

// The bridge answers direct factual questions from the store without
// invoking the LLM, and selects facts to inject as LLM context.

type questionRule struct {
	rx       *regexp.Regexp
	key      string
	template string
}

// Fixed question patterns, tried in order before the generic form.
var questionRules = []questionRule{
	{regexp.MustCompile(`\bwhat(?:'s| is)\s+my\s+name\b`), "user_name", "Your name is %s."},
	{regexp.MustCompile(`\bwho\s+am\s+i\b`), "user_name", "You are %s."},
	{regexp.MustCompile(`\bwhere\s+(?:do\s+i\s+live|is\s+my\s+home)\b`), "home_city", "You live in %s."},
	{regexp.MustCompile(`\bwhat(?:'s| is)\s+my\s+role\b`), "role", "Your role is %s."},
	{regexp.MustCompile(`\bwhat(?:'s| is)\s+my\s+favorite\s+color\b`), "favorite_color", "Your favorite color is %s."},
	{regexp.MustCompile(`\bwhat(?:'s| is)\s+my\s+coffee\s+order\b`), "coffee_order", "Your coffee order is %s."},
	{regexp.MustCompile(`\bwhat(?:'s| is)\s+my\s+timezone\b`), "timezone", "Your timezone is %s."},
}

var genericQuestionRx = regexp.MustCompile(`\bwhat(?:'s| is)\s+my\s+([a-z][a-z _-]{1,40})\??$`)

// PreferredFactKeys is the fallback priority order when no fact key
// matches the utterance.
var PreferredFactKeys = []string{
	"user_name", "role", "home_city", "home_country",
	"weather_default", "units", "favorite_color", "coffee_order", "timezone",
}

func spoken(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

// Answer tries to answer a user question directly from memory facts.
// The second return is false only if no question pattern matched at all.
func Answer(s *Store, text string) (string, bool) {
	low := strings.ToLower(strings.TrimSpace(text))

	for _, rule := range questionRules {
		if rule.rx.MatchString(low) {
			if val, ok := s.Recall(rule.key); ok && val != "" {
				return fmt.Sprintf(rule.template, val), true
			}
			return fmt.Sprintf("I don't have your %s yet.", spoken(rule.key)), true
		}
	}

	// Generic form: "what is my X" -> key "x", then "favorite_x".
	if m := genericQuestionRx.FindStringSubmatch(low); m != nil {
		key := NormalizeKey(m[1])
		val, ok := s.Recall(key)
		if !ok || val == "" {
			val, ok = s.Recall("favorite_" + key)
		}
		if ok && val != "" {
			return fmt.Sprintf("Your %s is %s.", spoken(key), val), true
		}
		return fmt.Sprintf("I don't have your %s yet.", spoken(key)), true
	}

	return "", false
}

// RelevantFacts picks a handful of facts to help the LLM: naive keyword
// match against the utterance, else the preferred set in priority order.
func RelevantFacts(s *Store, text string, limit int) []Fact {
	all := s.FactsLike("")
	if len(all) == 0 {
		return nil
	}

	low := strings.ToLower(text)
	var picks []Fact
	for _, f := range all {
		for _, word := range strings.Split(f.Key, "_") {
			if word != "" && strings.Contains(low, word) {
				picks = append(picks, f)
				break
			}
		}
	}

	if len(picks) == 0 {
		for _, key := range PreferredFactKeys {
			if val, ok := s.Recall(key); ok && val != "" {
				picks = append(picks, Fact{Key: key, Value: val})
			}
		}
	}

	out := make([]Fact, 0, limit)
	seen := map[string]bool{}
	for _, f := range picks {
		if seen[f.Key] {
			continue
		}
		out = append(out, f)
		seen[f.Key] = true
		if len(out) >= limit {
			break
		}
	}
	return out
}

// FormatFactContext renders facts as a labeled bullet list the caller
// prepends to the utterance before sending to the LLM.
func FormatFactContext(facts []Fact) string {
	if len(facts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(facts))
	for _, f := range facts {
		lines = append(lines, fmt.Sprintf("- %s: %s", titleCase(spoken(f.Key)), f.Value))
	}
	return "Known user facts:\n" + strings.Join(lines, "\n")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
