package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/voinici/quiz-feedback/internal/pipeline"
)

// stateView is the JSON shape shared by `grade --json` output and saved
// records, mirroring the API response fields.
type stateView struct {
	Score            int      `json:"overall_score"`
	Total            int      `json:"total_questions"`
	Feedback         string   `json:"feedback"`
	FeedbackSource   string   `json:"feedback_source"`
	Verdict          string   `json:"guardrail"`
	GuardrailMatches []string `json:"guardrail_matches,omitempty"`
	Analysis         string   `json:"analysis"`
}

func printStateJSON(w io.Writer, state *pipeline.State) error {
	view := stateView{
		Score:            state.Score,
		Total:            state.Total,
		Feedback:         state.Feedback,
		FeedbackSource:   string(state.FeedbackSource),
		Verdict:          string(state.Verdict),
		GuardrailMatches: state.GuardrailMatches,
		Analysis:         state.Analysis,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func printState(w io.Writer, state *pipeline.State) {
	fmt.Fprintf(w, "Score: %d/%d\n", state.Score, state.Total)
	fmt.Fprintf(w, "Guardrail: %s", state.Verdict)
	if len(state.GuardrailMatches) > 0 {
		fmt.Fprintf(w, " (%s)", strings.Join(state.GuardrailMatches, ", "))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, state.Feedback)
}
