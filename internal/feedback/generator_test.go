package feedback

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/voinici/quiz-feedback/internal/llm"
	"github.com/voinici/quiz-feedback/internal/quiz"
	"github.com/voinici/quiz-feedback/internal/scorer"
	"github.com/voinici/quiz-feedback/internal/topics"
)

type fakeProvider struct {
	text    string
	err     error
	delay   time.Duration
	lastReq *llm.Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	f.lastReq = req
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.text}, nil
}

func report(score, total int, missedIDs ...int) *scorer.Report {
	rep := &scorer.Report{Analysis: "analysis", Score: score, Total: total}
	for _, id := range missedIDs {
		rep.Results = append(rep.Results, scorer.Result{QuestionID: id, QuizIndex: 1})
	}
	return rep
}

func TestGenerateDeterministic(t *testing.T) {
	t.Parallel()

	g := NewGenerator(nil, nil, Config{})

	{
		out := g.Generate(context.Background(), report(5, 5), nil)
		if out.Source != SourceDeterministic {
			t.Fatalf("source: got %s", out.Source)
		}
		if out.Feedback != "Excellent — all 5 answers are correct. Well done!" {
			t.Fatalf("got %q", out.Feedback)
		}
	}
	{
		out := g.Generate(context.Background(), report(4, 5, 5), []quiz.Quiz{{Title: "x"}})
		want := "Score: 4/5. Review: coefficient of restitution and velocity ratios. Try again after reviewing the concepts."
		if out.Feedback != want {
			t.Fatalf("got %q", out.Feedback)
		}
	}
	{
		// No topic for the missed question: generic review sentence.
		out := g.Generate(context.Background(), report(0, 1, 42), []quiz.Quiz{{Title: "x"}})
		want := "Score: 0/1. Review the topics you missed. Try again after reviewing the concepts."
		if out.Feedback != want {
			t.Fatalf("got %q", out.Feedback)
		}
	}
}

func TestGenerateEmptySubmission(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{text: "should not be called"}
	g := NewGenerator(p, nil, Config{})

	out := g.Generate(context.Background(), report(0, 0), nil)
	if out.Feedback != NoQuestionsMessage || out.Source != SourceDeterministic {
		t.Fatalf("got %q source=%s", out.Feedback, out.Source)
	}
	if p.lastReq != nil {
		t.Fatalf("provider called for empty submission")
	}

	out = g.Generate(context.Background(), nil, nil)
	if out.Feedback != NoQuestionsMessage {
		t.Fatalf("nil report: got %q", out.Feedback)
	}
}

func TestGenerateDelegated(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{text: "  Great score, keep going!  "}
	g := NewGenerator(p, nil, Config{Language: "Romanian", MaxTokens: 64})

	out := g.Generate(context.Background(), report(4, 5, 5), []quiz.Quiz{{Title: "x"}})
	if out.Source != SourceModel {
		t.Fatalf("source: got %s", out.Source)
	}
	if out.Feedback != "Great score, keep going!" {
		t.Fatalf("got %q", out.Feedback)
	}
	if out.Err != nil || out.TimedOut {
		t.Fatalf("got err=%v timedOut=%v", out.Err, out.TimedOut)
	}

	req := p.lastReq
	if req == nil {
		t.Fatalf("provider not called")
	}
	if req.MaxTokens != 64 {
		t.Fatalf("max tokens: got %d", req.MaxTokens)
	}
	if !strings.Contains(req.System, "ROMANIAN") {
		t.Fatalf("system prompt missing language:\n%s", req.System)
	}
	if len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "analysis") {
		t.Fatalf("user prompt missing analysis: %#v", req.Messages)
	}
	if !strings.Contains(req.Messages[0].Content, "coefficient of restitution") {
		t.Fatalf("user prompt missing topic suggestion:\n%s", req.Messages[0].Content)
	}
}

func TestGenerateFallback(t *testing.T) {
	t.Parallel()

	{
		p := &fakeProvider{err: errors.New("boom")}
		g := NewGenerator(p, nil, Config{})

		out := g.Generate(context.Background(), report(4, 5, 5), []quiz.Quiz{{Title: "x"}})
		if out.Source != SourceFallback {
			t.Fatalf("source: got %s", out.Source)
		}
		if !strings.HasPrefix(out.Feedback, "Score: 4/5.") {
			t.Fatalf("fallback must surface the score, got %q", out.Feedback)
		}
		if out.Err == nil || out.TimedOut {
			t.Fatalf("got err=%v timedOut=%v", out.Err, out.TimedOut)
		}
	}
	{
		// Empty model output counts as failure.
		p := &fakeProvider{text: "   "}
		g := NewGenerator(p, nil, Config{})

		out := g.Generate(context.Background(), report(4, 5, 5), nil)
		if out.Source != SourceFallback || out.Err == nil {
			t.Fatalf("got source=%s err=%v", out.Source, out.Err)
		}
	}
}

func TestGenerateTimeout(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{text: "late", delay: 200 * time.Millisecond}
	g := NewGenerator(p, nil, Config{Timeout: 10 * time.Millisecond})

	out := g.Generate(context.Background(), report(4, 5, 5), nil)
	if out.Source != SourceFallback {
		t.Fatalf("source: got %s", out.Source)
	}
	if !out.TimedOut {
		t.Fatalf("expected TimedOut, err=%v", out.Err)
	}
	if !strings.HasPrefix(out.Feedback, "Score: 4/5.") {
		t.Fatalf("got %q", out.Feedback)
	}
}

func TestGenerateUsesAdvisor(t *testing.T) {
	t.Parallel()

	advisor, err := topics.Parse([]byte("Algebra:\n  1: linear equations\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	g := NewGenerator(nil, advisor, Config{})

	out := g.Generate(context.Background(), report(0, 1, 1), []quiz.Quiz{{Title: "Algebra"}})
	want := "Score: 0/1. Review: linear equations. Try again after reviewing the concepts."
	if out.Feedback != want {
		t.Fatalf("got %q", out.Feedback)
	}
}

func TestGenerateNilGenerator(t *testing.T) {
	t.Parallel()

	var g *Generator
	out := g.Generate(context.Background(), report(1, 2, 2), nil)
	if out.Source != SourceDeterministic || !strings.HasPrefix(out.Feedback, "Score: 1/2.") {
		t.Fatalf("got %q source=%s", out.Feedback, out.Source)
	}
}
