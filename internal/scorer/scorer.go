// Package scorer compares submitted answers against the answer key and
// renders the deterministic analysis report.
package scorer

import (
	"fmt"
	"strings"

	"github.com/voinici/quiz-feedback/internal/answerkey"
	"github.com/voinici/quiz-feedback/internal/quiz"
)

// Result records the outcome for one question. UserAnswer and CorrectIndex
// are nil for "no answer" and "unknown" respectively. QuizIndex is 1-based
// and ties the result back to its source quiz so later stages do not mix
// topic suggestions across quizzes.
type Result struct {
	QuestionID   int
	QuizIndex    int
	UserAnswer   *int
	CorrectIndex *int
	Correct      bool
}

// Report aggregates scoring across the whole submission.
type Report struct {
	Analysis string
	Score    int
	Total    int
	Results  []Result
}

// Perfect reports a non-empty submission with every answer correct.
func (r *Report) Perfect() bool {
	return r != nil && r.Total > 0 && r.Score == r.Total
}

// Missed returns the results for incorrectly answered questions, in order.
func (r *Report) Missed() []Result {
	if r == nil {
		return nil
	}
	var out []Result
	for _, res := range r.Results {
		if !res.Correct {
			out = append(out, res)
		}
	}
	return out
}

const perQuizSeparator = "\n\n--- Per-quiz analysis ---\n\n"

// Score grades every quiz in order against the store. A question is correct
// iff it was answered, the correct index is known, and the two are equal;
// unknown correct answers and absent submissions score incorrect, never
// error. Zero quizzes (or zero questions) yield a well-formed 0/0 report.
func Score(quizzes []quiz.Quiz, store *answerkey.Store) *Report {
	if len(quizzes) == 0 {
		return &Report{
			Analysis: "No quiz provided.",
			Results:  []Result{},
		}
	}

	out := &Report{Results: make([]Result, 0, totalQuestions(quizzes))}
	parts := make([]string, 0, len(quizzes))

	for qi := range quizzes {
		q := &quizzes[qi]
		key := store.Select(q)

		correct := 0
		results := make([]Result, 0, len(q.Questions))
		for _, question := range q.Questions {
			res := Result{
				QuestionID: question.ID,
				QuizIndex:  qi + 1,
				UserAnswer: question.UserAnswer,
			}
			if idx, ok := key.Lookup(question.ID); ok {
				v := idx
				res.CorrectIndex = &v
			}
			res.Correct = question.UserAnswer != nil &&
				res.CorrectIndex != nil &&
				*question.UserAnswer == *res.CorrectIndex
			if res.Correct {
				correct++
			}
			results = append(results, res)
		}

		parts = append(parts, renderQuizAnalysis(q, correct, results))
		out.Results = append(out.Results, results...)
		out.Score += correct
		out.Total += len(q.Questions)
	}

	out.Analysis = strings.Join(parts, perQuizSeparator)
	return out
}

func renderQuizAnalysis(q *quiz.Quiz, correct int, results []Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quiz: %s\n", q.Title)
	fmt.Fprintf(&b, "Total Questions: %d\n", len(q.Questions))
	fmt.Fprintf(&b, "Correct Answers: %d\n", correct)
	fmt.Fprintf(&b, "Score: %d/%d\n\n", correct, len(q.Questions))
	b.WriteString("Question Details:\n")

	for _, res := range results {
		status := "✗ Incorrect"
		if res.Correct {
			status = "✓ Correct"
		}
		fmt.Fprintf(&b, "Q%d: %s\n", res.QuestionID, status)
		fmt.Fprintf(&b, "  Your answer: %s\n", answerLabel(res.UserAnswer, "No answer"))
		if !res.Correct {
			fmt.Fprintf(&b, "  Correct answer index: %s\n", answerLabel(res.CorrectIndex, "Unknown"))
		}
	}
	return b.String()
}

func answerLabel(v *int, absent string) string {
	if v == nil {
		return absent
	}
	return fmt.Sprintf("%d", *v)
}

func totalQuestions(quizzes []quiz.Quiz) int {
	n := 0
	for i := range quizzes {
		n += len(quizzes[i].Questions)
	}
	return n
}
