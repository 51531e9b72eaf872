// Package wake gates the voice loop on a spoken wake word and matching
// sleep phrases.
package wake

import (
	"regexp"
	"strings"
)

const stripCutset = " ,.:;!?-—\t"

// WakeWord matches the configured wake word and sleep phrases with
// word boundaries, case-insensitively.
type WakeWord struct {
	wake       string
	sleepTerms []string
	wakeRx     *regexp.Regexp
	sleepRx    []*regexp.Regexp
}

func defaultSleepTerms() []string {
	return []string{"wake_close", "sleep", "go to sleep", "goodnight", "orion sleep"}
}

// parseTerms splits a bar-separated phrase list; blank input falls back
// to the defaults.
func parseTerms(value string, defaults []string) []string {
	if strings.TrimSpace(value) == "" {
		return defaults
	}
	var terms []string
	for _, p := range strings.Split(value, "|") {
		p = strings.TrimSpace(p)
		if p != "" {
			terms = append(terms, p)
		}
	}
	if len(terms) == 0 {
		return defaults
	}
	return terms
}

func boundaryRx(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(strings.ToLower(term)) + `\b`)
}

// New builds the matcher. wakeWord defaults to "orion"; sleepTerms is a
// bar-separated list of phrases, blank for defaults.
func New(wakeWord, sleepTerms string) *WakeWord {
	wakeWord = strings.TrimSpace(wakeWord)
	if wakeWord == "" {
		wakeWord = "orion"
	}
	terms := parseTerms(sleepTerms, defaultSleepTerms())

	w := &WakeWord{
		wake:       wakeWord,
		sleepTerms: terms,
		wakeRx:     boundaryRx(wakeWord),
	}
	for _, t := range terms {
		w.sleepRx = append(w.sleepRx, boundaryRx(t))
	}
	return w
}

func (w *WakeWord) Word() string { return w.wake }

func (w *WakeWord) HeardWake(text string) bool {
	return w.wakeRx.MatchString(text)
}

// StripWake removes the first occurrence of the wake word and trims the
// punctuation that tends to cling to it. "Orion, what's the weather?"
// becomes "what's the weather?".
func (w *WakeWord) StripWake(text string) string {
	loc := w.wakeRx.FindStringIndex(text)
	if loc == nil {
		return strings.Trim(text, stripCutset)
	}
	return strings.Trim(text[:loc[0]]+text[loc[1]:], stripCutset)
}

func (w *WakeWord) HeardSleep(text string) bool {
	for _, rx := range w.sleepRx {
		if rx.MatchString(text) {
			return true
		}
	}
	return false
}
