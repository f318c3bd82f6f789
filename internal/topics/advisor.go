// Package topics maps missed questions to short review-topic suggestions.
package topics

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/voinici/quiz-feedback/internal/quiz"
	"github.com/voinici/quiz-feedback/internal/scorer"
)

// MaxSuggestions bounds the number of distinct topics surfaced in feedback.
const MaxSuggestions = 2

// defaultTopics is the built-in fallback table used when a missed question
// has no entry in the loaded topic resource.
var defaultTopics = map[int]string{
	1: "conservation of momentum",
	2: "elastic collisions and kinetic energy conservation",
	3: "energy dissipation (heat & deformation)",
	4: "effects of mass ratio in collisions",
	5: "coefficient of restitution and velocity ratios",
}

type entry struct {
	name   string
	topics map[int]string
}

// Advisor holds per-quiz (or flat) topic tables loaded from a resource with
// the same shape options as the answer key. Nested entries keep file order
// so substring matching stays deterministic.
type Advisor struct {
	flat   map[int]string
	nested []entry
}

// Load reads and parses a topic-map file. The returned advisor is always
// usable: on read or parse failure it is empty (default topics still apply)
// and the error is diagnostic only.
func Load(path string) (*Advisor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return &Advisor{}, fmt.Errorf("topics: read %q: %w", path, err)
	}
	a, err := Parse(b)
	if err != nil {
		return &Advisor{}, fmt.Errorf("topics: parse %q: %w", path, err)
	}
	return a, nil
}

// Parse builds an advisor from raw YAML, detecting flat vs nested shape by
// checking whether any top-level value is itself a mapping.
func Parse(b []byte) (*Advisor, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return &Advisor{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("top level must be a mapping, got %v", root.Tag)
	}

	a := &Advisor{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode := root.Content[i]
		valNode := root.Content[i+1]

		var name string
		if err := keyNode.Decode(&name); err != nil {
			return nil, fmt.Errorf("key at line %d: %w", keyNode.Line, err)
		}

		if valNode.Kind == yaml.MappingNode {
			var m map[int]string
			if err := valNode.Decode(&m); err != nil {
				return nil, fmt.Errorf("entry %q: %w", name, err)
			}
			a.nested = append(a.nested, entry{name: name, topics: m})
			continue
		}

		var topic string
		if err := valNode.Decode(&topic); err != nil {
			return nil, fmt.Errorf("entry %q: %w", name, err)
		}
		var id int
		if err := keyNode.Decode(&id); err != nil {
			return nil, fmt.Errorf("entry %q: flat key must be a question id", name)
		}
		if a.flat == nil {
			a.flat = make(map[int]string)
		}
		a.flat[id] = topic
	}
	return a, nil
}

// forTitle selects the topic table for one quiz title: exact normalized
// match, then substring containment, then none. Flat resources apply to any
// title.
func (a *Advisor) forTitle(title string) map[int]string {
	if a == nil {
		return nil
	}
	if len(a.nested) == 0 {
		return a.flat
	}

	want := quiz.NormalizeTitle(title)
	if want == "" {
		return nil
	}
	for _, e := range a.nested {
		if quiz.NormalizeTitle(e.name) == want {
			return e.topics
		}
	}
	for _, e := range a.nested {
		have := quiz.NormalizeTitle(e.name)
		if have == "" {
			continue
		}
		if strings.Contains(want, have) || strings.Contains(have, want) {
			return e.topics
		}
	}
	return nil
}

// Suggest returns up to MaxSuggestions distinct review topics for the missed
// questions, in first-seen order. Topic tables are selected per source quiz
// so suggestions never mix across quizzes; questions with no topic in either
// the loaded resource or the default table are omitted.
func (a *Advisor) Suggest(results []scorer.Result, quizzes []quiz.Quiz) []string {
	byQuiz := make(map[int]map[int]string, len(quizzes))
	for i := range quizzes {
		byQuiz[i+1] = a.forTitle(quizzes[i].Title)
	}

	var out []string
	seen := make(map[string]struct{})
	for _, res := range results {
		if res.Correct {
			continue
		}
		topic := byQuiz[res.QuizIndex][res.QuestionID]
		if topic == "" {
			topic = defaultTopics[res.QuestionID]
		}
		if topic == "" {
			continue
		}
		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}
		out = append(out, topic)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}
