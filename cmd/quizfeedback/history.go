package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voinici/quiz-feedback/internal/config"
	"github.com/voinici/quiz-feedback/internal/store"
)

func newHistoryCmd(st *cliState) *cobra.Command {
	var (
		limit   int
		verdict string
		title   string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "List stored feedback runs, or show one by id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(st.configPath)
			if err != nil {
				return err
			}
			db, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			out := cmd.OutOrStdout()

			if len(args) == 1 {
				rec, err := db.GetResult(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(out, rec)
				}
				printRecord(cmd, rec)
				return nil
			}

			recs, err := db.ListResults(cmd.Context(), store.Filter{
				Title:   title,
				Verdict: verdict,
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out, recs)
			}
			if len(recs) == 0 {
				fmt.Fprintln(out, "no stored runs")
				return nil
			}
			for _, rec := range recs {
				fmt.Fprintf(out, "%s  %s  %d/%d  %-8s  %s\n",
					rec.ID,
					rec.CreatedAt.Format("2006-01-02 15:04:05"),
					rec.Score, rec.Total,
					rec.Verdict,
					strings.Join(rec.QuizTitles, ", "))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of runs to list")
	cmd.Flags().StringVar(&verdict, "verdict", "", "only list runs with this guardrail verdict")
	cmd.Flags().StringVar(&title, "title", "", "only list runs whose quiz titles contain this text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	return cmd
}

func printRecord(cmd *cobra.Command, rec *store.Record) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:       %s\n", rec.ID)
	fmt.Fprintf(out, "Created:  %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Quizzes:  %s\n", strings.Join(rec.QuizTitles, ", "))
	fmt.Fprintf(out, "Score:    %d/%d\n", rec.Score, rec.Total)
	fmt.Fprintf(out, "Verdict:  %s\n", rec.Verdict)
	fmt.Fprintf(out, "Source:   %s\n", rec.FeedbackSource)
	fmt.Fprintln(out)
	fmt.Fprintln(out, rec.Feedback)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
