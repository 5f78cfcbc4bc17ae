package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sourceplane/devsetup/internal/render"
	"github.com/sourceplane/devsetup/internal/store/sqlite"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded install runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showHistory(cmd, args)
	},
}

func registerHistoryCommand(root *cobra.Command) {
	root.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list")
}

func showHistory(cmd *cobra.Command, args []string) error {
	store, err := sqlite.Open(cfg.State.Dir)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer store.Close()

	r := render.NewRenderer()
	if len(args) == 1 {
		run, err := store.GetRun(args[0])
		if err != nil {
			return err
		}
		steps, err := store.GetSteps(run.RunID)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), r.RunDetail(run, steps))
		return nil
	}

	runs, err := store.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), r.Runs(runs))
	return nil
}
