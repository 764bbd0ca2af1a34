// Package index implements the in-memory full-text lookup store. It keeps
// two coupled mappings, document name to content and normalised token to the
// set of names containing it, and maintains them together so callers can
// never observe a partially-updated index.
package index

import (
	"sort"
	"sync"

	"github.com/lookup-labs/doclookup/internal/tokenizer"
)

// Store is an inverted index over named text documents. The zero value is
// not usable; construct with NewStore. All methods are safe for concurrent
// use.
type Store struct {
	mu    sync.RWMutex
	docs  map[string]string
	terms map[string]map[string]struct{}
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		docs:  make(map[string]string),
		terms: make(map[string]map[string]struct{}),
	}
}

// Register stores content under name and indexes every distinct token the
// content produces. If name is already registered, its previous token
// contributions are purged first, so queries never report tokens from
// superseded content. Any string is a valid name or content, including the
// empty string.
func (s *Store) Register(name, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, exists := s.docs[name]; exists {
		s.unindex(name, old)
	}
	s.docs[name] = content
	for _, token := range tokenizer.Tokenize(content) {
		set, ok := s.terms[token]
		if !ok {
			set = make(map[string]struct{})
			s.terms[token] = set
		}
		set[name] = struct{}{}
	}
}

// Remove erases the document and all of its index entries. Removing an
// unregistered name is a no-op.
func (s *Store) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, exists := s.docs[name]
	if !exists {
		return
	}
	s.unindex(name, content)
	delete(s.docs, name)
}

// Query returns the names of all documents whose current content contains
// word, after applying the same normalisation used at indexing time. The
// result is a sorted copy; later mutation of the store does not affect it.
// An unindexed or unindexable word yields an empty result.
func (s *Store) Query(word string) []string {
	token := tokenizer.Normalize(word)

	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.terms[token]
	if !ok {
		return []string{}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear discards all documents and index entries, returning the store to
// its initial empty state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]string)
	s.terms = make(map[string]map[string]struct{})
}

// Content returns the stored content for name and whether it is registered.
func (s *Store) Content(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.docs[name]
	return content, ok
}

// DocCount returns the number of registered documents.
func (s *Store) DocCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// TermCount returns the number of distinct tokens currently indexed.
func (s *Store) TermCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.terms)
}

// unindex removes name from the posting set of every token content produces,
// deleting posting sets that become empty. Caller must hold the write lock.
func (s *Store) unindex(name, content string) {
	for _, token := range tokenizer.Tokenize(content) {
		set, ok := s.terms[token]
		if !ok {
			continue
		}
		delete(set, name)
		if len(set) == 0 {
			delete(s.terms, token)
		}
	}
}
