// Package pipeline sequences scoring, feedback generation and the guardrail
// check over one per-run state value.
package pipeline

import (
	"context"

	"github.com/voinici/quiz-feedback/internal/answerkey"
	"github.com/voinici/quiz-feedback/internal/feedback"
	"github.com/voinici/quiz-feedback/internal/guardrail"
	"github.com/voinici/quiz-feedback/internal/quiz"
	"github.com/voinici/quiz-feedback/internal/scorer"
)

// Stage marks how far a run has progressed. Progression is strictly linear
// with no retries or branching back.
type Stage string

const (
	StageInit    Stage = "INIT"
	StageScored  Stage = "SCORED"
	StageFedBack Stage = "FED_BACK"
	StageGuarded Stage = "GUARDED"
	StageDone    Stage = "DONE"
)

// State is the single record threaded through all stages. Each run owns its
// state exclusively; nothing here is shared across concurrent runs.
type State struct {
	Quizzes []quiz.Quiz

	Analysis string
	Score    int
	Total    int
	Results  []scorer.Result

	Feedback       string
	FeedbackSource feedback.Source
	FeedbackErr    error // diagnostic only, never shown to the caller

	Verdict          guardrail.Verdict
	GuardrailMatches []string

	Stage Stage
}

// Pipeline wires the three stages together. The answer-key store and topic
// tables behind gen are read-only, so one Pipeline may serve concurrent runs
// without coordination.
type Pipeline struct {
	keys   *answerkey.Store
	gen    *feedback.Generator
	filter *guardrail.Filter
}

func New(keys *answerkey.Store, gen *feedback.Generator, filter *guardrail.Filter) *Pipeline {
	if filter == nil {
		filter = guardrail.NewFilter()
	}
	return &Pipeline{keys: keys, gen: gen, filter: filter}
}

// Run processes one submission to completion. Every stage runs even for an
// empty submission, so all state fields are always populated and the output
// contract is well-formed; errors never propagate past this boundary.
func (p *Pipeline) Run(ctx context.Context, sub *quiz.Submission) *State {
	st := &State{
		Quizzes: sub.Normalize(),
		Stage:   StageInit,
		Results: []scorer.Result{},
	}

	rep := scorer.Score(st.Quizzes, p.storeOrEmpty())
	st.Analysis = rep.Analysis
	st.Score = rep.Score
	st.Total = rep.Total
	st.Results = rep.Results
	st.Stage = StageScored

	out := p.generator().Generate(ctx, rep, st.Quizzes)
	st.Feedback = out.Feedback
	st.FeedbackSource = out.Source
	st.FeedbackErr = out.Err
	st.Stage = StageFedBack

	res := p.filterOrDefault().Check(st.Analysis, st.Feedback, st.Score, st.Total)
	st.Feedback = res.Feedback
	st.Verdict = res.Verdict
	st.GuardrailMatches = res.Matches
	st.Stage = StageGuarded

	st.Stage = StageDone
	return st
}

func (p *Pipeline) filterOrDefault() *guardrail.Filter {
	if p == nil || p.filter == nil {
		return guardrail.NewFilter()
	}
	return p.filter
}

func (p *Pipeline) storeOrEmpty() *answerkey.Store {
	if p == nil {
		return nil
	}
	return p.keys
}

func (p *Pipeline) generator() *feedback.Generator {
	if p == nil || p.gen == nil {
		return feedback.NewGenerator(nil, nil, feedback.Config{})
	}
	return p.gen
}
