package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voinici/quiz-feedback/internal/guardrail"
)

func newCheckCmd() *cobra.Command {
	var (
		file  string
		score int
		total int
	)

	cmd := &cobra.Command{
		Use:   "check [text]",
		Short: "Run the guardrail check over a piece of feedback text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				raw, err := readInput(file)
				if err != nil {
					return err
				}
				text = string(raw)
			}
			text = strings.TrimSpace(text)
			if text == "" {
				return fmt.Errorf("check: no text to inspect")
			}

			res := guardrail.NewFilter().Check("", text, score, total)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Verdict: %s\n", res.Verdict)
			if len(res.Matches) > 0 {
				fmt.Fprintf(out, "Matches: %s\n", strings.Join(res.Matches, ", "))
			}
			if res.Blocked() {
				fmt.Fprintf(out, "Replacement: %s\n", res.Feedback)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "text file to check (- for stdin)")
	cmd.Flags().IntVar(&score, "score", 0, "score claimed by the feedback")
	cmd.Flags().IntVar(&total, "total", 0, "total questions claimed by the feedback")
	return cmd
}
