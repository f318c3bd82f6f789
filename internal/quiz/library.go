package quiz

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Library holds the known quiz templates, loaded from a directory of YAML
// files. Templates carry question IDs (and optionally prompt text and
// options) but no user answers; compact attempts are expanded against them.
type Library struct {
	quizzes []Quiz
}

// LoadLibrary loads and validates all quiz templates from a directory.
// A missing directory is not an error: it yields an empty library, and
// expansion then fails per attempt instead of failing startup.
func LoadLibrary(dir string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Library{}, nil
		}
		return nil, fmt.Errorf("quiz: read dir %q: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	lib := &Library{quizzes: make([]Quiz, 0, len(paths))}
	for _, path := range paths {
		q, err := loadTemplate(path)
		if err != nil {
			return nil, err
		}
		lib.quizzes = append(lib.quizzes, *q)
	}
	return lib, nil
}

func loadTemplate(path string) (*Quiz, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("quiz: read %q: %w", path, err)
	}

	var q Quiz
	if err := yaml.Unmarshal(b, &q); err != nil {
		return nil, fmt.Errorf("quiz: parse %q: %w", path, err)
	}
	if strings.TrimSpace(q.Title) == "" {
		return nil, fmt.Errorf("quiz: template %q: missing title", path)
	}
	if len(q.Questions) == 0 {
		return nil, fmt.Errorf("quiz: template %q: no questions", path)
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("quiz: template %q: %w", path, err)
	}
	return &q, nil
}

// Titles returns the template titles in load order.
func (l *Library) Titles() []string {
	if l == nil {
		return nil
	}
	out := make([]string, 0, len(l.quizzes))
	for _, q := range l.quizzes {
		out = append(out, q.Title)
	}
	return out
}

// Find returns a copy of the template whose normalized title matches,
// preferring exact normalized equality, then substring containment in
// either direction.
func (l *Library) Find(title string) (*Quiz, bool) {
	if l == nil || len(l.quizzes) == 0 {
		return nil, false
	}

	want := NormalizeTitle(title)
	if want != "" {
		for i := range l.quizzes {
			if NormalizeTitle(l.quizzes[i].Title) == want {
				return copyQuiz(&l.quizzes[i]), true
			}
		}
		for i := range l.quizzes {
			have := NormalizeTitle(l.quizzes[i].Title)
			if have == "" {
				continue
			}
			if strings.Contains(have, want) || strings.Contains(want, have) {
				return copyQuiz(&l.quizzes[i]), true
			}
		}
	}
	return nil, false
}

// Expand turns a compact attempt into a full quiz by applying its answers to
// the matching template. An attempt without a title uses the first template.
// Answers referring to unknown question IDs are ignored.
func (l *Library) Expand(attempt *Attempt) (*Quiz, error) {
	if l == nil || len(l.quizzes) == 0 {
		return nil, fmt.Errorf("quiz: no templates loaded")
	}
	if attempt == nil {
		return nil, fmt.Errorf("quiz: nil attempt")
	}

	var base *Quiz
	if strings.TrimSpace(attempt.Title) == "" {
		base = copyQuiz(&l.quizzes[0])
	} else {
		found, ok := l.Find(attempt.Title)
		if !ok {
			// Unknown title falls back to the default template rather
			// than rejecting the attempt.
			found = copyQuiz(&l.quizzes[0])
		}
		base = found
	}

	byID := make(map[int]int, len(base.Questions))
	for i, q := range base.Questions {
		byID[q.ID] = i
	}
	for _, ans := range attempt.Answers {
		idx, ok := byID[ans.QuestionID]
		if !ok {
			continue
		}
		base.Questions[idx].UserAnswer = ans.UserAnswer
	}
	return base, nil
}

func copyQuiz(q *Quiz) *Quiz {
	out := &Quiz{
		Title:     q.Title,
		Questions: make([]Question, len(q.Questions)),
	}
	copy(out.Questions, q.Questions)
	for i := range out.Questions {
		if q.Questions[i].UserAnswer != nil {
			v := *q.Questions[i].UserAnswer
			out.Questions[i].UserAnswer = &v
		}
		if len(q.Questions[i].Options) > 0 {
			opts := make([]string, len(q.Questions[i].Options))
			copy(opts, q.Questions[i].Options)
			out.Questions[i].Options = opts
		}
	}
	return out
}
