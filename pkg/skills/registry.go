package skills

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/benhli40/Orion/pkg/logger"
)

const enableStateFile = "_enabled.json"

// Reserved candidate names that never load as skills.
var reservedNames = map[string]bool{
	"registry": true,
	"skill":    true,
	"init":     true,
}

var scaffoldSafeRegex = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Factory builds a skill instance. Instantiation goes through this
// typed factory keyed by name; the skills directory is scanned for
// discovery only.
type Factory func() Skill

var (
	factoryMu    sync.RWMutex
	factories    = map[string]Factory{}
	factoryOrder []string
)

// RegisterFactory adds a skill factory under name. Built-in skills
// register themselves in init order; registration order is the
// discovery (and therefore routing) order.
func RegisterFactory(name string, f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	if _, dup := factories[name]; !dup {
		factoryOrder = append(factoryOrder, name)
	}
	factories[name] = f
}

// Status describes one discovered candidate for admin inspection.
type Status struct {
	Name        string
	Enabled     bool
	Description string
}

// Registry owns the set of currently loaded skill units, their
// persisted enable-state, and the scaffolding of new candidates.
type Registry struct {
	dir string

	mu     sync.RWMutex
	active []*Loaded
	byName map[string]*Loaded
}

// NewRegistry creates a registry over the given skills directory. The
// directory holds scaffolded candidates and the enable-state document.
func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir, byName: map[string]*Loaded{}}
}

func (r *Registry) statePath() string {
	return filepath.Join(r.dir, enableStateFile)
}

// readState loads the persisted enable-state mapping. A missing or
// corrupt document means: default enable everything found.
func (r *Registry) readState() map[string]bool {
	data, err := os.ReadFile(r.statePath())
	if err != nil {
		return map[string]bool{}
	}
	var state map[string]bool
	if err := json.Unmarshal(data, &state); err != nil {
		logger.WarnCF("skills", "Enable-state document unreadable, using defaults",
			map[string]interface{}{"path": r.statePath(), "error": err.Error()})
		return map[string]bool{}
	}
	if state == nil {
		state = map[string]bool{}
	}
	return state
}

func (r *Registry) writeState(state map[string]bool) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create skills dir: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.statePath(), data, 0o644)
}

// isEnabled defaults to enabled unless explicitly false.
func isEnabled(name string, state map[string]bool) bool {
	enabled, ok := state[name]
	return !ok || enabled
}

// Discover enumerates candidate names: registered factories in their
// registration order, then scaffolded files in the skills directory.
// Private/reserved names are excluded.
func (r *Registry) Discover() []string {
	factoryMu.RLock()
	names := append([]string(nil), factoryOrder...)
	factoryMu.RUnlock()

	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return names
	}
	var fromDir []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if strings.HasPrefix(stem, "_") || reservedNames[stem] || seen[stem] {
			continue
		}
		seen[stem] = true
		fromDir = append(fromDir, stem)
	}
	sort.Strings(fromDir)
	return append(names, fromDir...)
}

// Load instantiates one candidate through its factory. Candidates
// without a registered factory (e.g. a scaffold that has not been built
// in yet) are simply absent. A factory that panics is excluded rather
// than taking down the load.
func (r *Registry) Load(name string) (unit *Loaded, ok bool) {
	factoryMu.RLock()
	factory, exists := factories[name]
	factoryMu.RUnlock()
	if !exists {
		return nil, false
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorCF("skills", "Skill factory panicked",
				map[string]interface{}{"skill": name, "panic": fmt.Sprint(rec)})
			unit, ok = nil, false
		}
	}()

	sk := factory()
	if sk == nil {
		return nil, false
	}
	unitName := sk.Name()
	if unitName == "" {
		unitName = name
	}
	desc := sk.Description()
	if desc == "" {
		desc = unitName + " skill"
	}
	return &Loaded{
		Name:        unitName,
		Description: desc,
		Patterns:    compileTriggers(sk.Triggers()),
		skill:       sk,
	}, true
}

// LoadAll loads every discovered candidate, keeping only those whose
// enable-state resolves true, and swaps the active set in one step so a
// half-populated set is never visible. Returns the new active units in
// discovery order.
func (r *Registry) LoadAll() []*Loaded {
	state := r.readState()

	var units []*Loaded
	byName := map[string]*Loaded{}
	for _, name := range r.Discover() {
		unit, ok := r.Load(name)
		if !ok {
			continue
		}
		if !isEnabled(unit.Name, state) {
			continue
		}
		if _, dup := byName[unit.Name]; dup {
			continue
		}
		units = append(units, unit)
		byName[unit.Name] = unit
	}

	r.mu.Lock()
	r.active = units
	r.byName = byName
	r.mu.Unlock()

	return units
}

// Active returns the current active skill set in discovery order.
func (r *Registry) Active() []*Loaded {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Get looks up an active unit by name.
func (r *Registry) Get(name string) (*Loaded, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	unit, ok := r.byName[name]
	return unit, ok
}

// ListAll reports every discovered candidate that loads, enabled or
// not, for admin inspection.
func (r *Registry) ListAll() []Status {
	state := r.readState()
	var out []Status
	for _, name := range r.Discover() {
		unit, ok := r.Load(name)
		if !ok {
			continue
		}
		out = append(out, Status{
			Name:        unit.Name,
			Enabled:     isEnabled(unit.Name, state),
			Description: unit.Description,
		})
	}
	return out
}

// SetEnabled updates the persisted enable-state for exactly that name.
// The name is not validated against discovered candidates; the caller
// must reload for the active set to reflect the change.
func (r *Registry) SetEnabled(name string, enabled bool) string {
	state := r.readState()
	state[name] = enabled
	if err := r.writeState(state); err != nil {
		logger.ErrorCF("skills", "Failed to persist enable-state",
			map[string]interface{}{"skill": name, "error": err.Error()})
		return fmt.Sprintf("Couldn't persist state for skill '%s': %v", name, err)
	}
	verb := "Enabled"
	if !enabled {
		verb = "Disabled"
	}
	return fmt.Sprintf("%s skill '%s'. Say 'skill reload' to apply.", verb, name)
}

// Scaffold creates a new candidate file with a minimal skill template.
// The name is sanitized to [A-Za-z0-9_] and lowercased. If the file
// already exists it is returned unchanged, never overwritten.
func (r *Registry) Scaffold(name string) (string, error) {
	safe := strings.ToLower(scaffoldSafeRegex.ReplaceAllString(name, "_"))
	path := filepath.Join(r.dir, safe+".go")

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create skills dir: %w", err)
	}

	template := fmt.Sprintf(`// Scaffolded skill %[1]q. Move this file into pkg/skills and rebuild
// to register it.
package skills

import "context"

type %[1]sSkill struct{}

func (s *%[1]sSkill) Name() string        { return %[1]q }
func (s *%[1]sSkill) Description() string { return "Describe what %[1]s does." }

func (s *%[1]sSkill) Triggers() []string {
	return []string{`+"`"+`\b%[1]s\b`+"`"+`} // adjust as needed
}

func (s *%[1]sSkill) Run(ctx context.Context, query string, sc *Context) (string, error) {
	// implement your logic here
	return "Hello from %[1]s!", nil
}

func init() {
	RegisterFactory(%[1]q, func() Skill { return &%[1]sSkill{} })
}
`, safe)

	if err := os.WriteFile(path, []byte(template), 0o644); err != nil {
		return "", fmt.Errorf("write skill template: %w", err)
	}
	return path, nil
}
