package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sourceplane/devsetup/internal/runner"
	"github.com/sourceplane/devsetup/internal/shell"
)

var remediateCmd = &cobra.Command{
	Use:   "remediate <command>",
	Short: "Run a remediation command through the safety filter",
	Long:  "Run one remediation command after the safety filter approves it. Commands starting with sudo go through the administrator prompt.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return remediate(cmd, strings.Join(args, " "))
	},
}

func registerRemediateCommand(root *cobra.Command) {
	root.AddCommand(remediateCmd)
}

func remediate(cmd *cobra.Command, command string) error {
	out := cmd.OutOrStdout()
	if !shell.IsAllowed(command) {
		fmt.Fprintln(out, remediationBlocked)
		return runner.ErrBlockedCommand
	}

	logger, err := newSessionLogger()
	if err != nil {
		return err
	}
	defer logger.Close()

	executor, err := newExecutor()
	if err != nil {
		return err
	}
	run := runner.New(executor, nil, logger, newPrinter(out, false))

	res, err := run.RunRemediation(cmd.Context(), command)
	if errors.Is(err, runner.ErrBlockedCommand) {
		fmt.Fprintln(out, remediationBlocked)
		return err
	}
	if err != nil {
		return err
	}
	if !res.Succeeded() {
		fmt.Fprintln(out, remediationFailed)
		return fmt.Errorf("remediation exited with code %d", res.ExitCode)
	}
	fmt.Fprintln(out, remediationSucceeded)
	return nil
}
