// Package router matches utterances to skill units. The primary router
// is data-driven from the loaded skill set; a fixed legacy rule table
// exists as an independent fallback with its own dispatcher. The two
// layers are deliberately not merged: the primary is consulted first
// and their behavior subtly differs.
package router

import (
	"regexp"

	"github.com/benhli40/Orion/pkg/skills"
)

type rule struct {
	name    string
	pattern *regexp.Regexp
}

// Router routes text to the first matching skill trigger, if any.
// The rule table is built once per registry load: units are iterated in
// their discovery order, each contributing its patterns in declared
// order. First match wins; no scoring, no longest-match preference.
type Router struct {
	rules  []rule
	byName map[string]*skills.Loaded
}

// New builds the flat rule table from the active skill units.
func New(units []*skills.Loaded) *Router {
	r := &Router{byName: make(map[string]*skills.Loaded, len(units))}
	for _, unit := range units {
		r.byName[unit.Name] = unit
		for _, pat := range unit.Patterns {
			r.rules = append(r.rules, rule{name: unit.Name, pattern: pat})
		}
	}
	return r
}

// Route returns the first skill whose trigger matches anywhere in the
// utterance, or nil if nothing matches.
func (r *Router) Route(text string) *skills.Loaded {
	for _, rl := range r.rules {
		if rl.pattern.MatchString(text) {
			return r.byName[rl.name]
		}
	}
	return nil
}

// Rules exposes the rule names in table order, for admin inspection.
func (r *Router) Rules() []string {
	out := make([]string, 0, len(r.rules))
	for _, rl := range r.rules {
		out = append(out, rl.name)
	}
	return out
}
