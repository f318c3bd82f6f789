package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voinici/quiz-feedback/internal/answerkey"
	"github.com/voinici/quiz-feedback/internal/config"
	"github.com/voinici/quiz-feedback/internal/quiz"
)

func newKeysCmd(st *cliState) *cobra.Command {
	var quizTitle string

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Inspect the configured answer-key resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(st.configPath)
			if err != nil {
				return err
			}

			keys, err := answerkey.Load(cfg.Resources.AnswerKeys)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Source: %s\n", cfg.Resources.AnswerKeys)
			switch {
			case keys.Empty():
				fmt.Fprintln(out, "Shape: empty")
			case keys.Nested():
				fmt.Fprintln(out, "Shape: nested (per-quiz)")
				for _, title := range keys.Titles() {
					fmt.Fprintf(out, "  - %s\n", title)
				}
			default:
				fmt.Fprintln(out, "Shape: flat")
			}

			if strings.TrimSpace(quizTitle) != "" {
				selected := keys.Select(&quiz.Quiz{Title: quizTitle})
				fmt.Fprintf(out, "Selected for %q (%d entries):\n", quizTitle, len(selected))
				printKey(out, selected)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&quizTitle, "quiz", "", "preview the key selected for this quiz title")
	return cmd
}

func printKey(out io.Writer, key answerkey.Key) {
	ids := make([]string, 0, len(key))
	for id := range key {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(out, "  Q%s -> %d\n", id, key[id])
	}
}
