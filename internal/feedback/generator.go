// Package feedback phrases the final message for a graded submission,
// either from a deterministic template or by delegating to a text-generation
// provider with a bounded timeout and a deterministic fallback.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/voinici/quiz-feedback/internal/llm"
	"github.com/voinici/quiz-feedback/internal/quiz"
	"github.com/voinici/quiz-feedback/internal/scorer"
	"github.com/voinici/quiz-feedback/internal/topics"
)

// NoQuestionsMessage is returned for submissions with no questions at all.
const NoQuestionsMessage = "Cannot generate feedback for a quiz with no questions."

// Source tells which path produced the feedback text.
type Source string

const (
	// SourceDeterministic is the template path: no provider configured.
	SourceDeterministic Source = "deterministic"
	// SourceModel is the delegated path: provider text used verbatim.
	SourceModel Source = "model"
	// SourceFallback is the template path after a failed delegated call.
	SourceFallback Source = "fallback"
)

// Outcome is the collaborator-call result made explicit so the fallback is
// a visible branch. Err is diagnostic only and must never be shown to the
// end user.
type Outcome struct {
	Feedback string
	Source   Source
	TimedOut bool
	Err      error
}

// Config tunes the delegated path.
type Config struct {
	Timeout   time.Duration
	MaxTokens int
	Language  string
}

// Generator produces feedback text. A nil provider selects the
// deterministic path unconditionally.
type Generator struct {
	provider llm.Provider
	advisor  *topics.Advisor
	cfg      Config
}

func NewGenerator(provider llm.Provider, advisor *topics.Advisor, cfg Config) *Generator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = "English"
	}
	return &Generator{
		provider: provider,
		advisor:  advisor,
		cfg:      cfg,
	}
}

// Generate produces feedback for a scored submission. The delegated path is
// attempted at most once; any failure falls back to the deterministic
// template, which still surfaces the numeric score.
func (g *Generator) Generate(ctx context.Context, rep *scorer.Report, quizzes []quiz.Quiz) Outcome {
	if rep == nil || rep.Total == 0 {
		return Outcome{Feedback: NoQuestionsMessage, Source: SourceDeterministic}
	}

	var advisor *topics.Advisor
	if g != nil {
		advisor = g.advisor
	}
	suggestions := advisor.Suggest(rep.Results, quizzes)

	if g == nil || g.provider == nil {
		return Outcome{
			Feedback: deterministicFeedback(rep, suggestions),
			Source:   SourceDeterministic,
		}
	}

	text, err := g.delegate(ctx, rep, suggestions)
	if err == nil {
		return Outcome{Feedback: text, Source: SourceModel}
	}

	return Outcome{
		Feedback: deterministicFeedback(rep, suggestions),
		Source:   SourceFallback,
		TimedOut: errors.Is(err, context.DeadlineExceeded),
		Err:      err,
	}
}

// deterministicFeedback is a single celebratory sentence for a perfect
// score, otherwise exactly three short sentences: the score, a review
// sentence naming up to two topics, and a fixed retry encouragement.
func deterministicFeedback(rep *scorer.Report, suggestions []string) string {
	if rep.Perfect() {
		return fmt.Sprintf("Excellent — all %d answers are correct. Well done!", rep.Total)
	}

	first := fmt.Sprintf("Score: %d/%d.", rep.Score, rep.Total)
	second := "Review the topics you missed."
	if len(suggestions) > 0 {
		second = fmt.Sprintf("Review: %s.", strings.Join(suggestions, ", "))
	}
	third := "Try again after reviewing the concepts."

	return strings.Join([]string{first, second, third}, " ")
}

func (g *Generator) delegate(ctx context.Context, rep *scorer.Report, suggestions []string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	resp, err := g.provider.Complete(ctx, &llm.Request{
		System:      g.systemPrompt(),
		Messages:    []llm.Message{{Role: "user", Content: g.userPrompt(rep, suggestions)}},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("feedback: delegate: %w", err)
	}
	if resp == nil {
		return "", errors.New("feedback: delegate: nil response")
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", errors.New("feedback: delegate: empty response")
	}
	return text, nil
}

func (g *Generator) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a concise educational tutor. Provide feedback in 2-3 short sentences.\n")
	b.WriteString("If all answers are correct, reply with a single short celebratory sentence.\n")
	b.WriteString("If there are incorrect answers, briefly state the score, name up to two key topics to review (based on the provided mapping), and finish with a short encouraging sentence.\n")
	b.WriteString("Always use a positive, supportive tone and keep replies very short.\n")
	fmt.Fprintf(&b, "Responses MUST be in %s.\n", strings.ToUpper(g.cfg.Language))
	return b.String()
}

func (g *Generator) userPrompt(rep *scorer.Report, suggestions []string) string {
	var b strings.Builder
	b.WriteString("Please provide concise feedback for this quiz submission (2-3 short sentences).\n\n")
	b.WriteString("Quiz analysis:\n")
	b.WriteString(rep.Analysis)
	b.WriteString("\n\n")

	if len(suggestions) > 0 {
		b.WriteString("If there are incorrect answers, suggest these topics to review (choose up to two):\n")
		for _, topic := range suggestions {
			fmt.Fprintf(&b, "- %s\n", topic)
		}
		b.WriteString("\n")
	}

	b.WriteString("Rules:\n")
	b.WriteString("- If all answers are correct: return a single short celebratory sentence.\n")
	b.WriteString("- If some answers are incorrect: mention the score in one short sentence, suggest up to two topics in one short sentence, and finish with a short encouraging sentence.\n\n")
	fmt.Fprintf(&b, "RESPONSES MUST BE IN %s.\n", strings.ToUpper(g.cfg.Language))
	return b.String()
}
