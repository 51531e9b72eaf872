package agent

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/benhli40/Orion/pkg/memory"
	"github.com/benhli40/Orion/pkg/router"
	"github.com/benhli40/Orion/pkg/skills"
)

// Spoken admin grammar. Ordered, first match wins, and tolerant of the
// trailing filler speech-to-text tends to add.
var (
	adminReloadRx = regexp.MustCompile(`(?i)^(reload|reload it|reload now|refresh|refresh it|refresh now)[.!]?$`)
	listSkillsRx  = regexp.MustCompile(`(?i)^(list skills|show skills|what skills|skills\??)[.!]?$`)
	skillCmdRx    = regexp.MustCompile(`(?i)\bskills?\b[,\s:\-]+(.*)$`)

	memListRx = regexp.MustCompile(`(?i)^(list memory|show memory|dump memory|memory list)[.!]?$`)
	memGetRx  = regexp.MustCompile(`(?i)^memory get\s+([a-z0-9_ \-]{1,40})[.!]?$`)
	memSetRx  = regexp.MustCompile(`(?i)^memory set\s+([a-z0-9_ \-]{1,40})\s*=\s*(.+)$`)

	trailingFillerRx = regexp.MustCompile(`(?i)\b(it|please|now|thanks?)\b$`)
	scaffoldFuzzRx   = regexp.MustCompile(`(?i)^(gaffled|scaf|scafold)\b`)
)

const skillUsage = "Usage: skill list | skill reload | skill enable <name> | skill disable <name> | skill scaffold <name>"

const memoryEmptyHint = "Your memory is empty. Try adding some:\n" +
	"  remember: user_name = Benjamin\n" +
	"  remember: favorite_color = navy\n" +
	"  remember: weather_default = Marble Falls, TX, US"

// reloadSkills rebuilds the active set and the router in one atomic
// swap.
func (a *Assistant) reloadSkills() string {
	active := a.registry.LoadAll()
	a.router = router.New(active)
	if len(active) == 0 {
		return "Reloaded skills: (none)"
	}
	names := make([]string, 0, len(active))
	for _, u := range active {
		names = append(names, u.Name)
	}
	return "Reloaded skills: " + strings.Join(names, ", ")
}

func formatSkillList(statuses []skills.Status) string {
	if len(statuses) == 0 {
		return "Installed skills:\n(none)"
	}
	rows := make([]string, 0, len(statuses))
	for _, st := range statuses {
		state := "off"
		if st.Enabled {
			state = "on"
		}
		rows = append(rows, fmt.Sprintf("• %s [%s] — %s", st.Name, state, st.Description))
	}
	return "Installed skills:\n" + strings.Join(rows, "\n")
}

// handleSkillAdmin covers reload, listing, and "skill ..." commands.
// Returns true when the utterance was consumed.
func (a *Assistant) handleSkillAdmin(low string, say func(string)) bool {
	if adminReloadRx.MatchString(low) {
		say(a.reloadSkills())
		return true
	}
	if listSkillsRx.MatchString(low) {
		say(formatSkillList(a.registry.ListAll()))
		return true
	}

	m := skillCmdRx.FindStringSubmatch(low)
	if m == nil {
		return false
	}

	cmd := strings.TrimSpace(m[1])
	cmd = strings.TrimRight(cmd, ".!,?")
	cmd = strings.TrimSpace(trailingFillerRx.ReplaceAllString(cmd, ""))
	cmd = scaffoldFuzzRx.ReplaceAllString(cmd, "scaffold")

	switch {
	case cmd == "list":
		say(formatSkillList(a.registry.ListAll()))
	case cmd == "reload":
		say(a.reloadSkills())
	case strings.HasPrefix(cmd, "enable "):
		name := strings.TrimSpace(strings.TrimPrefix(cmd, "enable "))
		say(a.registry.SetEnabled(name, true))
	case strings.HasPrefix(cmd, "disable "):
		name := strings.TrimSpace(strings.TrimPrefix(cmd, "disable "))
		say(a.registry.SetEnabled(name, false))
	case cmd == "scaffold" || strings.HasPrefix(cmd, "scaffold "):
		name := strings.TrimSpace(strings.TrimPrefix(cmd, "scaffold"))
		if name == "" {
			say("Usage: skill scaffold <name>")
			return true
		}
		path, err := a.registry.Scaffold(name)
		if err != nil {
			say("Could not scaffold: " + err.Error())
			return true
		}
		say(fmt.Sprintf("Created %s. Edit it, then say 'skill reload'.", filepath.Base(path)))
	default:
		say(skillUsage)
	}
	return true
}

// handleMemoryAdmin covers list/get/set over the fact store.
func (a *Assistant) handleMemoryAdmin(low string, say func(string)) bool {
	if memListRx.MatchString(low) {
		facts := a.mem.FactsLike("")
		if len(facts) == 0 {
			say(memoryEmptyHint)
			return true
		}
		if len(facts) > 50 {
			facts = facts[:50]
		}
		rows := make([]string, 0, len(facts))
		for _, f := range facts {
			rows = append(rows, fmt.Sprintf("• %s: %s", titleKey(f.Key), f.Value))
		}
		say("Memory facts:\n" + strings.Join(rows, "\n"))
		return true
	}

	if m := memGetRx.FindStringSubmatch(low); m != nil {
		key := memory.NormalizeKey(m[1])
		val, ok := a.mem.Recall(key)
		if !ok {
			val, ok = a.mem.Recall("favorite_" + key)
		}
		if ok {
			say(fmt.Sprintf("%s: %s", titleKey(key), val))
		} else {
			say(fmt.Sprintf("No value saved for %s.", titleKey(key)))
		}
		return true
	}

	if m := memSetRx.FindStringSubmatch(low); m != nil {
		key := memory.NormalizeKey(m[1])
		val := strings.TrimSpace(m[2])
		if err := a.mem.Remember(key, val); err != nil {
			say("Could not save that: " + err.Error())
			return true
		}
		say(fmt.Sprintf("Saved %s: %s", titleKey(key), val))
		return true
	}

	return false
}

// titleKey renders a fact key for humans: "home_city" -> "Home City".
func titleKey(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
