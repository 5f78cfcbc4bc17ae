package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sourceplane/devsetup/internal/advisor"
	"github.com/sourceplane/devsetup/internal/config"
	"github.com/sourceplane/devsetup/internal/credentials"
)

var keyCheck bool

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the remediation advisor API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the API key in the system keychain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setKey(cmd)
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCredentialStore()
		if err != nil {
			return err
		}
		if err := store.Delete(credentials.APIKeyItem); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ API key removed")
		return nil
	},
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the API key would be read from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return keyStatus(cmd)
	},
}

func registerKeyCommand(root *cobra.Command) {
	root.AddCommand(keyCmd)
	keyCmd.AddCommand(keySetCmd, keyClearCmd, keyStatusCmd)

	keyStatusCmd.Flags().BoolVar(&keyCheck, "check", false, "Verify the key against the provider's models endpoint")
}

func setKey(cmd *cobra.Command) error {
	provider, _ := config.LookupProvider(cfg.Advisor.Provider)
	placeholder := "sk-..."
	if provider.Name == "openrouter" {
		placeholder = "sk-or-..."
	}

	var key string
	if isTerminal(os.Stdin) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s API key (%s): ", provider.DisplayName, placeholder)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
		key = string(raw)
	} else {
		var line string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &line); err != nil {
			return fmt.Errorf("failed to read key from stdin: %w", err)
		}
		key = line
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("empty API key")
	}

	store, err := openCredentialStore()
	if err != nil {
		return err
	}
	if err := store.Set(credentials.APIKeyItem, key); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ API key %s stored\n", credentials.Mask(key))
	return nil
}

func keyStatus(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	key, source := resolveCredential("")
	base, err := cfg.Advisor.ResolvedBaseURL()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Provider: %s (%s)\n", cfg.Advisor.Provider, base)
	fmt.Fprintf(out, "Model: %s\n", cfg.Advisor.ResolvedModel())
	fmt.Fprintf(out, "Environment variable: %s\n", cfg.Advisor.ResolvedAPIKeyEnv())
	if source == credentials.SourceNone {
		fmt.Fprintln(out, "Key: not configured")
		return nil
	}
	fmt.Fprintf(out, "Key: %s (from %s)\n", credentials.Mask(key), source)

	if !keyCheck {
		return nil
	}
	client, err := newAdvisorClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Advisor.Timeout)
	defer cancel()
	start := time.Now()
	if err := client.CheckKey(ctx, key); err != nil {
		if errors.Is(err, advisor.ErrInvalidKey) {
			return fmt.Errorf("✗ %w", err)
		}
		return fmt.Errorf("✗ key check failed: %w", err)
	}
	fmt.Fprintf(out, "✓ Key accepted (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}
