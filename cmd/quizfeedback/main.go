package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/voinici/quiz-feedback/internal/config"
)

type cliState struct {
	configPath string
}

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderrWriter, err)
		osExit(1)
	}
}

func newRootCmd() *cobra.Command {
	st := &cliState{configPath: config.DefaultPath}

	root := &cobra.Command{
		Use:           "quizfeedback",
		Short:         "Grade quiz submissions and generate guarded feedback",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", st.configPath, "path to config file")

	root.AddCommand(newGradeCmd(st))
	root.AddCommand(newCheckCmd())
	root.AddCommand(newKeysCmd(st))
	root.AddCommand(newHistoryCmd(st))
	return root
}
