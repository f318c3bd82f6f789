package quiz

import (
	"fmt"
	"strings"
	"unicode"
)

// Question is one multiple-choice question. Options and Text are optional:
// compact submissions carry only the ID and the user's answer, and the
// correct index lives in the answer-key resource, not here.
type Question struct {
	ID         int      `json:"id" yaml:"id"`
	Text       string   `json:"text,omitempty" yaml:"text,omitempty"`
	Options    []string `json:"options,omitempty" yaml:"options,omitempty"`
	UserAnswer *int     `json:"user_answer" yaml:"user_answer,omitempty"`
}

// Answered reports whether the user selected an option.
func (q *Question) Answered() bool {
	return q != nil && q.UserAnswer != nil
}

// Quiz is an ordered sequence of questions under a title. The title doubles
// as the lookup key when matching against nested answer-key and topic
// resources.
type Quiz struct {
	Title     string     `json:"title" yaml:"title"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Validate checks structural invariants: question IDs unique within the quiz
// and answer indices in range when options are present.
func (q *Quiz) Validate() error {
	if q == nil {
		return fmt.Errorf("quiz: nil quiz")
	}
	seen := make(map[int]struct{}, len(q.Questions))
	for i, question := range q.Questions {
		if _, ok := seen[question.ID]; ok {
			return fmt.Errorf("quiz %q: questions[%d]: duplicate id %d", q.Title, i, question.ID)
		}
		seen[question.ID] = struct{}{}

		if question.UserAnswer != nil && *question.UserAnswer < 0 {
			return fmt.Errorf("quiz %q: questions[%d]: user_answer must be >= 0", q.Title, i)
		}
		if len(q.Questions[i].Options) > 0 && question.UserAnswer != nil && *question.UserAnswer >= len(question.Options) {
			return fmt.Errorf("quiz %q: questions[%d]: user_answer %d out of range", q.Title, i, *question.UserAnswer)
		}
	}
	return nil
}

// Submission is the inbound grading request: either one quiz or an ordered
// sequence of quizzes.
type Submission struct {
	Quiz    *Quiz  `json:"quiz,omitempty"`
	Quizzes []Quiz `json:"quizzes,omitempty"`
}

// Normalize resolves the single-vs-multi shape once, returning the ordered
// quiz list. An empty slice means no quiz was provided.
func (s *Submission) Normalize() []Quiz {
	if s == nil {
		return nil
	}
	if len(s.Quizzes) > 0 {
		return s.Quizzes
	}
	if s.Quiz != nil {
		return []Quiz{*s.Quiz}
	}
	return nil
}

// Validate checks every quiz in the submission.
func (s *Submission) Validate() error {
	if s == nil {
		return fmt.Errorf("quiz: nil submission")
	}
	for i := range s.Quizzes {
		if err := s.Quizzes[i].Validate(); err != nil {
			return fmt.Errorf("quizzes[%d]: %w", i, err)
		}
	}
	if s.Quiz != nil {
		if err := s.Quiz.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Answer is one entry of a compact attempt: a question reference plus the
// selected option index, nil meaning unanswered.
type Answer struct {
	QuestionID int  `json:"question_id" yaml:"question_id"`
	UserAnswer *int `json:"user_answer" yaml:"user_answer"`
}

// Attempt is the compact submission form: a quiz title plus answer indices.
// It must be expanded against a known quiz template before scoring.
type Attempt struct {
	Title   string   `json:"title,omitempty" yaml:"title,omitempty"`
	Answers []Answer `json:"answers" yaml:"answers"`
}

// NormalizeTitle lower-cases a title and strips everything that is not a
// letter or digit, so "Collisions and Momentum" and "collisions and
// momentum!!" compare equal. Shared by the answer-key store, the topic
// advisor and the template library.
func NormalizeTitle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
