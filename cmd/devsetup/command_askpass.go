package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errNoPassword = errors.New("no password was provided")

var askpassCmd = &cobra.Command{
	Use:    "askpass [prompt]",
	Short:  "SUDO_ASKPASS helper: read a password from the terminal",
	Hidden: true,
	Args:   cobra.ArbitraryArgs,
	// sudo calls the helper directly; it must not depend on config.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := strings.TrimSpace(strings.Join(args, " "))
		if prompt == "" {
			prompt = "Password:"
		}
		password, err := readPassword(prompt)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), password)
		return err
	},
}

func registerAskpassCommand(root *cobra.Command) {
	root.AddCommand(askpassCmd)
}

// readPassword prompts on the controlling terminal, not stdout, which sudo reads.
func readPassword(prompt string) (string, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return "", fmt.Errorf("no terminal available for the password prompt: %w", err)
	}
	defer tty.Close()

	fmt.Fprintf(tty, "%s ", prompt)
	raw, err := term.ReadPassword(int(tty.Fd()))
	fmt.Fprintln(tty)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return "", errNoPassword
	}
	return string(raw), nil
}
