package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/benhli40/Orion/pkg/logger"
)

// DefaultMaxConversations caps growth so the file doesn't balloon.
const DefaultMaxConversations = 500

// Turn is a single conversation entry. Empty fields are omitted from
// the persisted document.
type Turn struct {
	User string `json:"user,omitempty"`
	Bot  string `json:"bot,omitempty"`
}

// Fact is a remembered key/value pair.
type Fact struct {
	Key   string
	Value string
}

type document struct {
	Facts         map[string]string `json:"facts"`
	Conversations []Turn            `json:"conversations"`
}

func emptyDocument() document {
	return document{Facts: map[string]string{}, Conversations: []Turn{}}
}

// Store holds long-term facts and the bounded conversation log in a
// single JSON document replaced atomically on every mutation.
type Store struct {
	path             string
	maxConversations int
	mu               sync.Mutex
}

// NewStore opens (or initializes) the memory document at path. A missing
// or corrupt document is reset to empty; the store must never prevent
// the assistant from starting.
func NewStore(path string, maxConversations int) (*Store, error) {
	if maxConversations <= 0 {
		maxConversations = DefaultMaxConversations
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}

	s := &Store{path: path, maxConversations: maxConversations}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.write(emptyDocument()); err != nil {
			return nil, err
		}
		return s, nil
	}

	if _, err := s.readChecked(); err != nil {
		logger.WarnCF("memory", "Memory document unreadable, resetting",
			map[string]interface{}{"path": path, "error": err.Error()})
		if err := s.write(emptyDocument()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) readChecked() (document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return emptyDocument(), err
	}
	if strings.TrimSpace(string(data)) == "" {
		return emptyDocument(), nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return emptyDocument(), err
	}
	if doc.Facts == nil {
		doc.Facts = map[string]string{}
	}
	return doc, nil
}

// read treats any malformed persisted state as the empty document.
func (s *Store) read() document {
	doc, err := s.readChecked()
	if err != nil {
		return emptyDocument()
	}
	return doc
}

// write replaces the document atomically: write to a temp file in the
// same directory, then rename over the visible path. A crash mid-write
// never corrupts the visible file.
func (s *Store) write(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode memory document: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write memory document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace memory document: %w", err)
	}
	return nil
}

// NormalizeKey lowercases and maps spaces/hyphens to underscores so
// spoken keys like "Favorite Color" land on "favorite_color".
func NormalizeKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.ReplaceAll(k, " ", "_")
	k = strings.ReplaceAll(k, "-", "_")
	return k
}

// Remember upserts a fact. Last write wins.
func (s *Store) Remember(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.read()
	doc.Facts[NormalizeKey(key)] = value
	return s.write(doc)
}

// Recall is an exact-key lookup. No fuzzy matching at this layer.
func (s *Store) Recall(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.read().Facts[NormalizeKey(key)]
	return v, ok
}

// FactsLike returns facts whose key or value contains needle
// (case-insensitive). An empty needle matches everything. Results are
// sorted by key for stable output.
func (s *Store) FactsLike(needle string) []Fact {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle = strings.ToLower(needle)

	doc := s.read()
	out := make([]Fact, 0, len(doc.Facts))
	for k, v := range doc.Facts {
		if strings.Contains(strings.ToLower(k), needle) || strings.Contains(strings.ToLower(v), needle) {
			out = append(out, Fact{Key: k, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// AppendConversation appends a turn; empty fields are treated as absent.
// The log is trimmed from the front to the conversation cap.
func (s *Store) AppendConversation(turn Turn) error {
	if turn.User == "" && turn.Bot == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.read()
	doc.Conversations = append(doc.Conversations, turn)
	if len(doc.Conversations) > s.maxConversations {
		doc.Conversations = doc.Conversations[len(doc.Conversations)-s.maxConversations:]
	}
	return s.write(doc)
}

// Recent returns the last n conversation turns (best-effort).
func (s *Store) Recent(n int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.read().Conversations
	if n <= 0 || n > len(conv) {
		n = len(conv)
	}
	return append([]Turn(nil), conv[len(conv)-n:]...)
}

// FactCount reports the number of stored facts, for startup summaries.
func (s *Store) FactCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.read().Facts)
}
