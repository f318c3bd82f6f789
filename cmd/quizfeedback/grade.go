package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voinici/quiz-feedback/internal/answerkey"
	"github.com/voinici/quiz-feedback/internal/config"
	"github.com/voinici/quiz-feedback/internal/feedback"
	"github.com/voinici/quiz-feedback/internal/llm"
	"github.com/voinici/quiz-feedback/internal/pipeline"
	"github.com/voinici/quiz-feedback/internal/quiz"
	"github.com/voinici/quiz-feedback/internal/store"
	"github.com/voinici/quiz-feedback/internal/topics"
)

func newGradeCmd(st *cliState) *cobra.Command {
	var (
		file   string
		simple bool
		asJSON bool
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade a submission file and print the guarded feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(st.configPath)
			if err != nil {
				return err
			}

			raw, err := readInput(file)
			if err != nil {
				return err
			}

			sub, err := decodeSubmission(raw, simple, cfg.Resources.QuizzesDir)
			if err != nil {
				return err
			}

			provider, err := llm.OptionalProviderFromConfig(cfg)
			if err != nil {
				return err
			}

			keys, _ := answerkey.Load(cfg.Resources.AnswerKeys)
			advisor, _ := topics.Load(cfg.Resources.Topics)
			gen := feedback.NewGenerator(provider, advisor, feedback.Config{
				Timeout:   cfg.Feedback.Timeout,
				MaxTokens: cfg.Feedback.MaxTokens,
				Language:  cfg.Feedback.Language,
			})

			state := pipeline.New(keys, gen, nil).Run(context.Background(), sub)

			if save {
				if err := saveState(cmd, cfg, state); err != nil {
					return err
				}
			}

			if asJSON {
				return printStateJSON(cmd.OutOrStdout(), state)
			}
			printState(cmd.OutOrStdout(), state)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "submission JSON file (- for stdin)")
	cmd.Flags().BoolVar(&simple, "simple", false, "treat input as a compact attempt (title + answers)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "persist the result for history queries")
	return cmd
}

func readInput(file string) ([]byte, error) {
	file = strings.TrimSpace(file)
	if file == "" || file == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", file, err)
	}
	return b, nil
}

func decodeSubmission(raw []byte, simple bool, quizzesDir string) (*quiz.Submission, error) {
	if simple {
		var attempt quiz.Attempt
		if err := json.Unmarshal(raw, &attempt); err != nil {
			return nil, fmt.Errorf("parse attempt: %w", err)
		}
		lib, err := quiz.LoadLibrary(quizzesDir)
		if err != nil {
			return nil, err
		}
		expanded, err := lib.Expand(&attempt)
		if err != nil {
			return nil, err
		}
		return &quiz.Submission{Quiz: expanded}, nil
	}

	var sub quiz.Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("parse submission: %w", err)
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	return &sub, nil
}

func saveState(cmd *cobra.Command, cfg *config.Config, state *pipeline.State) error {
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	rec := recordFromState(state)
	if err := st.SaveResult(cmd.Context(), rec); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved: %s\n", rec.ID)
	return nil
}

func recordFromState(state *pipeline.State) *store.Record {
	titles := make([]string, 0, len(state.Quizzes))
	for _, q := range state.Quizzes {
		titles = append(titles, q.Title)
	}
	results := make([]store.QuestionRecord, 0, len(state.Results))
	for _, r := range state.Results {
		results = append(results, store.QuestionRecord{
			QuestionID:   r.QuestionID,
			QuizIndex:    r.QuizIndex,
			UserAnswer:   r.UserAnswer,
			CorrectIndex: r.CorrectIndex,
			Correct:      r.Correct,
		})
	}
	return &store.Record{
		QuizTitles:     titles,
		Score:          state.Score,
		Total:          state.Total,
		Verdict:        string(state.Verdict),
		FeedbackSource: string(state.FeedbackSource),
		Feedback:       state.Feedback,
		Analysis:       state.Analysis,
		Results:        results,
	}
}
