package index

import (
	"reflect"
	"testing"
)

func queryEquals(t *testing.T, s *Store, word string, want []string) {
	t.Helper()
	got := s.Query(word)
	if want == nil {
		want = []string{}
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Query(%q) = %v, want %v", word, got, want)
	}
}

func TestRegisterAndQuery(t *testing.T) {
	s := NewStore()
	s.Register("doc1", "hello world")
	s.Register("doc2", "hello kotlin")

	queryEquals(t, s, "hello", []string{"doc1", "doc2"})
	queryEquals(t, s, "world", []string{"doc1"})
	queryEquals(t, s, "missing", nil)
}

func TestRoundTrip(t *testing.T) {
	s := NewStore()
	content := "alpha beta gamma, delta; epsilon?"
	s.Register("doc", content)

	for _, word := range []string{"alpha", "beta", "gamma", "delta", "epsilon"} {
		queryEquals(t, s, word, []string{"doc"})
	}
}

func TestReplacementIsolation(t *testing.T) {
	s := NewStore()
	s.Register("doc1", "unique1 unique2")
	s.Register("doc2", "shared unique3")
	s.Register("doc1", "shared unique4")

	queryEquals(t, s, "unique1", nil)
	queryEquals(t, s, "unique2", nil)
	queryEquals(t, s, "unique3", []string{"doc2"})
	queryEquals(t, s, "unique4", []string{"doc1"})
	queryEquals(t, s, "shared", []string{"doc1", "doc2"})
}

func TestRemovalCompleteness(t *testing.T) {
	s := NewStore()
	s.Register("doc", "solitary words only here")
	s.Remove("doc")

	for _, word := range []string{"solitary", "words", "only", "here"} {
		queryEquals(t, s, word, nil)
	}
	if got := s.TermCount(); got != 0 {
		t.Errorf("TermCount() = %d after removing sole document, want 0", got)
	}
	if got := s.DocCount(); got != 0 {
		t.Errorf("DocCount() = %d after removing sole document, want 0", got)
	}
}

func TestRemovePreservesOtherDocuments(t *testing.T) {
	s := NewStore()
	s.Register("doc1", "shared solo1")
	s.Register("doc2", "shared solo2")
	s.Remove("doc1")

	queryEquals(t, s, "shared", []string{"doc2"})
	queryEquals(t, s, "solo1", nil)
	queryEquals(t, s, "solo2", []string{"doc2"})
}

func TestRemoveIdempotent(t *testing.T) {
	s := NewStore()
	s.Remove("never-registered")
	s.Register("doc", "content")
	s.Remove("doc")
	s.Remove("doc")

	queryEquals(t, s, "content", nil)
	if got := s.DocCount(); got != 0 {
		t.Errorf("DocCount() = %d, want 0", got)
	}
}

func TestCaseNormalization(t *testing.T) {
	s := NewStore()
	s.Register("doc", "Hello ÉCOLE Straße ΟΔΌΣ")

	cases := []struct {
		word string
		want []string
	}{
		{"HELLO", []string{"doc"}},
		{"Hello", []string{"doc"}},
		{"hello", []string{"doc"}},
		{"école", []string{"doc"}},
		{"ÉCOLE", []string{"doc"}},
		{"strasse", []string{"doc"}},
		{"STRASSE", []string{"doc"}},
		{"οδός", []string{"doc"}},
	}
	for _, tc := range cases {
		queryEquals(t, s, tc.word, tc.want)
	}
}

func TestSeparatorHandling(t *testing.T) {
	s := NewStore()
	s.Register("doc", "covid19 rocket🚀launch, foo...bar 日本語!")

	queryEquals(t, s, "covid19", []string{"doc"})
	queryEquals(t, s, "rocket", []string{"doc"})
	queryEquals(t, s, "launch", []string{"doc"})
	queryEquals(t, s, "foo", []string{"doc"})
	queryEquals(t, s, "bar", []string{"doc"})
	queryEquals(t, s, "日本語", []string{"doc"})
	queryEquals(t, s, "🚀", nil)
	queryEquals(t, s, "...", nil)
}

func TestDuplicateTokensContributeOnce(t *testing.T) {
	s := NewStore()
	s.Register("doc", "echo echo ECHO echo")

	queryEquals(t, s, "echo", []string{"doc"})
}

func TestEmptyContent(t *testing.T) {
	s := NewStore()
	s.Register("doc1", "")

	queryEquals(t, s, "anything", nil)
	if got := s.DocCount(); got != 1 {
		t.Errorf("DocCount() = %d, want 1", got)
	}
	if got := s.TermCount(); got != 0 {
		t.Errorf("TermCount() = %d, want 0", got)
	}

	// Replacing non-empty content with empty content purges all tokens.
	s.Register("doc2", "transient")
	s.Register("doc2", "")
	queryEquals(t, s, "transient", nil)
}

func TestEmptyNameIsValid(t *testing.T) {
	s := NewStore()
	s.Register("", "nameless content")

	queryEquals(t, s, "nameless", []string{""})
	s.Remove("")
	queryEquals(t, s, "nameless", nil)
}

func TestEmptyQueryWord(t *testing.T) {
	s := NewStore()
	s.Register("doc", "something")

	queryEquals(t, s, "", nil)
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.Register("doc1", "one two")
	s.Register("doc2", "three four")
	s.Clear()

	queryEquals(t, s, "one", nil)
	queryEquals(t, s, "three", nil)
	if got := s.DocCount(); got != 0 {
		t.Errorf("DocCount() = %d after Clear, want 0", got)
	}
	if got := s.TermCount(); got != 0 {
		t.Errorf("TermCount() = %d after Clear, want 0", got)
	}

	// The store stays usable after Clear.
	s.Register("doc3", "five")
	queryEquals(t, s, "five", []string{"doc3"})
}

func TestQueryReturnsSnapshot(t *testing.T) {
	s := NewStore()
	s.Register("doc1", "stable")
	s.Register("doc2", "stable")

	before := s.Query("stable")
	s.Remove("doc1")
	s.Register("doc3", "stable")

	if !reflect.DeepEqual(before, []string{"doc1", "doc2"}) {
		t.Errorf("earlier result mutated by later index changes: %v", before)
	}
}

func TestContent(t *testing.T) {
	s := NewStore()
	s.Register("doc", "original")

	if content, ok := s.Content("doc"); !ok || content != "original" {
		t.Errorf("Content(doc) = %q, %v; want %q, true", content, ok, "original")
	}
	s.Register("doc", "replaced")
	if content, _ := s.Content("doc"); content != "replaced" {
		t.Errorf("Content(doc) = %q after replacement, want %q", content, "replaced")
	}
	if _, ok := s.Content("absent"); ok {
		t.Error("Content(absent) reported ok for unregistered name")
	}
}

func TestQuerySortedAndDeduplicated(t *testing.T) {
	s := NewStore()
	s.Register("zeta", "word")
	s.Register("alpha", "word word")
	s.Register("mid", "word")

	queryEquals(t, s, "word", []string{"alpha", "mid", "zeta"})
}
