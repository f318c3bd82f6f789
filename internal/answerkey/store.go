// Package answerkey loads the canonical question-to-correct-index mapping
// and matches nested per-quiz keys to submitted quiz titles.
package answerkey

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/voinici/quiz-feedback/internal/quiz"
)

// Key maps a question identifier (as a string) to the correct option index.
type Key map[string]int

// Lookup returns the correct option index for a question ID.
func (k Key) Lookup(id int) (int, bool) {
	if k == nil {
		return 0, false
	}
	v, ok := k[strconv.Itoa(id)]
	return v, ok
}

type entry struct {
	name string
	key  Key
}

// Store holds a parsed answer-key resource. The resource is either flat
// ({question_id: index}, applies to any quiz) or nested by quiz title
// ({title: {question_id: index}}). Nested entries keep file order because
// the selection policy breaks ties by position.
type Store struct {
	flat   Key
	nested []entry
}

// Load reads and parses an answer-key file. The returned store is always
// usable: on read or parse failure it is empty (no answer can be marked
// correct) and the error is diagnostic only.
func Load(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return &Store{}, fmt.Errorf("answerkey: read %q: %w", path, err)
	}
	s, err := Parse(b)
	if err != nil {
		return &Store{}, fmt.Errorf("answerkey: parse %q: %w", path, err)
	}
	return s, nil
}

// Parse builds a store from raw YAML (JSON is accepted as a YAML subset).
// The shape is detected by checking whether any top-level value is itself a
// mapping.
func Parse(b []byte) (*Store, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return &Store{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("top level must be a mapping, got %v", root.Tag)
	}

	s := &Store{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode := root.Content[i]
		valNode := root.Content[i+1]

		var name string
		if err := keyNode.Decode(&name); err != nil {
			return nil, fmt.Errorf("key at line %d: %w", keyNode.Line, err)
		}

		if valNode.Kind == yaml.MappingNode {
			var k Key
			if err := valNode.Decode(&k); err != nil {
				return nil, fmt.Errorf("entry %q: %w", name, err)
			}
			s.nested = append(s.nested, entry{name: name, key: k})
			continue
		}

		var idx int
		if err := valNode.Decode(&idx); err != nil {
			return nil, fmt.Errorf("entry %q: %w", name, err)
		}
		if s.flat == nil {
			s.flat = make(Key)
		}
		s.flat[name] = idx
	}
	return s, nil
}

// Nested reports whether the resource contains per-quiz mappings.
func (s *Store) Nested() bool {
	return s != nil && len(s.nested) > 0
}

// Empty reports whether the store holds no answers at all.
func (s *Store) Empty() bool {
	return s == nil || (len(s.flat) == 0 && len(s.nested) == 0)
}

// Titles returns the nested entry names in file order.
func (s *Store) Titles() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.nested))
	for _, e := range s.nested {
		out = append(out, e.name)
	}
	return out
}

// Select returns the mapping that applies to the given quiz.
//
// Flat resources apply to every quiz. For nested resources the policy is
// precision over recall, trusting exact title identity most and structural
// containment least:
//  1. exact normalized-title match
//  2. first entry whose normalized name is a substring of the title, or
//     vice versa
//  3. first entry containing any of the quiz's question IDs
//  4. union of all entries, later entries overriding earlier on collision
func (s *Store) Select(q *quiz.Quiz) Key {
	if s == nil {
		return nil
	}
	if len(s.nested) == 0 {
		return s.flat
	}

	var title string
	if q != nil {
		title = q.Title
	}
	want := quiz.NormalizeTitle(title)

	if want != "" {
		for _, e := range s.nested {
			if quiz.NormalizeTitle(e.name) == want {
				return e.key
			}
		}
		for _, e := range s.nested {
			have := quiz.NormalizeTitle(e.name)
			if have == "" {
				continue
			}
			if strings.Contains(want, have) || strings.Contains(have, want) {
				return e.key
			}
		}
	}

	if q != nil {
		for _, e := range s.nested {
			for _, question := range q.Questions {
				if _, ok := e.key.Lookup(question.ID); ok {
					return e.key
				}
			}
		}
	}

	merged := make(Key)
	for _, e := range s.nested {
		for id, idx := range e.key {
			merged[id] = idx
		}
	}
	return merged
}
