// internal/experience/store.go
package experience

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Entry is one retrievable record: a past request and what worked for it.
type Entry struct {
	Request     string    `yaml:"request"`
	Application string    `yaml:"application,omitempty"`
	Example     string    `yaml:"example"`
	Tips        string    `yaml:"tips,omitempty"`
	CreatedAt   time.Time `yaml:"created_at,omitempty"`
}

// String renders the entry the way it is shown to the App agent.
func (e Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Request: %s", e.Request)
	if e.Application != "" {
		fmt.Fprintf(&b, "\nApplication: %s", e.Application)
	}
	if e.Example != "" {
		fmt.Fprintf(&b, "\nExample: %s", e.Example)
	}
	if e.Tips != "" {
		fmt.Fprintf(&b, "\nTips: %s", e.Tips)
	}
	return b.String()
}

// Store is a YAML file of entries searched by keyword overlap with a query.
// It serves the experience, demonstration and offline docs sources.
type Store struct {
	path string

	mu      sync.RWMutex
	entries []Entry
	index   [][]string
}

// Open loads the store at path. A missing file is an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store %s: %w", path, err)
	}
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse store %s: %w", path, err)
	}
	s.Add(entries...)
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries returns a copy of the stored entries in insertion order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...)
}

// Add appends entries in memory; Save persists them.
func (s *Store) Add(entries ...Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.entries = append(s.entries, e)
		s.index = append(s.index, keywords(e.Request+" "+e.Application+" "+e.Example+" "+e.Tips))
	}
}

// Save writes the store to its path, replacing the previous file atomically.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := yaml.Marshal(s.entries)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write store %s: %w", s.path, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace store %s: %w", s.path, err)
	}
	return nil
}

// Retrieve returns up to topK entries sharing the most keywords with query,
// best first. Entries with no shared keyword are never returned.
func (s *Store) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, nil
	}
	terms := keywords(query)
	if len(terms) == 0 {
		return nil, nil
	}
	want := make(map[string]bool, len(terms))
	for _, t := range terms {
		want[t] = true
	}

	type hit struct {
		pos   int
		score float64
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var hits []hit
	for i, words := range s.index {
		shared := 0
		seen := make(map[string]bool, len(words))
		for _, w := range words {
			if want[w] && !seen[w] {
				seen[w] = true
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		hits = append(hits, hit{pos: i, score: float64(shared) / float64(len(want))})
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = s.entries[h.pos].String()
	}
	return out, nil
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "to": true, "of": true, "in": true,
	"on": true, "for": true, "with": true, "is": true, "it": true, "my": true, "me": true,
	"please": true, "then": true, "from": true, "into": true, "at": true, "by": true,
}

// keywords lowercases text and splits it into words, dropping stop words.
func keywords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 1 && !stopWords[f] {
			out = append(out, f)
		}
	}
	return out
}
