// Package subs persists the list of symbols the poller keeps fresh.
// The list lives in a small JSON document and is rewritten atomically
// (write-to-temp-then-rename) so readers never see a torn file.
package subs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/seenimoa/faststock/pkg/symbols"
)

// document is the on-disk shape: {"symbols": ["SYM1", ...]}.
type document struct {
	Symbols []string `json:"symbols"`
}

// Store is the subscription set. Symbols are deduplicated
// case-insensitively after uppercasing; order is not preserved across
// restarts.
type Store struct {
	mu   sync.Mutex
	path string
	set  map[string]struct{}
}

// New creates a store backed by the JSON document at path. Nothing is
// read until Load.
func New(path string) *Store {
	return &Store{path: path, set: make(map[string]struct{})}
}

// Load reads the document. A missing file is not an error: the store
// starts from the given defaults instead.
func (s *Store) Load(defaults []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.resetLocked(defaults)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read subscriptions: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse subscriptions %s: %w", s.path, err)
	}
	if len(doc.Symbols) == 0 {
		s.resetLocked(defaults)
		return nil
	}
	s.resetLocked(doc.Symbols)
	return nil
}

func (s *Store) resetLocked(syms []string) {
	s.set = make(map[string]struct{}, len(syms))
	for _, sym := range syms {
		if sym = symbols.Normalize(sym); sym != "" {
			s.set[sym] = struct{}{}
		}
	}
}

// Add inserts a symbol. It reports whether the symbol was new.
func (s *Store) Add(symbol string) bool {
	symbol = symbols.Normalize(symbol)
	if symbol == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.set[symbol]; ok {
		return false
	}
	s.set[symbol] = struct{}{}
	return true
}

// Remove deletes a symbol. It reports whether the symbol was present.
func (s *Store) Remove(symbol string) bool {
	symbol = symbols.Normalize(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.set[symbol]; !ok {
		return false
	}
	delete(s.set, symbol)
	return true
}

// Has reports whether a symbol is subscribed.
func (s *Store) Has(symbol string) bool {
	symbol = symbols.Normalize(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.set[symbol]
	return ok
}

// List returns the subscribed symbols as a sorted copy.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.set))
	for sym := range s.set {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Len returns the subscription count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.set)
}

// Save rewrites the document atomically. The temp file is created in
// the target directory so the rename cannot cross filesystems.
func (s *Store) Save() error {
	doc := document{Symbols: s.List()}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode subscriptions: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".subscriptions-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
