package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sourceplane/devsetup/internal/config"
)

var (
	configFile  string
	catalogFile string
	archFlag    string
	verbose     bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "devsetup",
	Short:         "Bootstrap a developer machine from a component catalog",
	Long:          "devsetup resolves a dependency-ordered install plan from a catalog, runs each component's install and verification commands, and suggests remediation when a step fails.",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if catalogFile != "" {
			loaded.Catalog.Path = catalogFile
		}
		if archFlag != "" {
			loaded.Catalog.Architecture = archFlag
		}
		if verbose {
			loaded.Log.Verbose = true
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (YAML); DEVSETUP_* environment variables override it")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog", "", "Catalog file (default: built-in macOS catalog)")
	rootCmd.PersistentFlags().StringVar(&archFlag, "arch", "", "Target architecture: arm64 or x86_64 (default: this machine)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Mirror the session log to stderr")

	registerPlanCommand(rootCmd)
	registerRunCommand(rootCmd)
	registerCatalogCommand(rootCmd)
	registerValidateCommand(rootCmd)
	registerRemediateCommand(rootCmd)
	registerAskpassCommand(rootCmd)
	registerKeyCommand(rootCmd)
	registerHistoryCommand(rootCmd)
	registerGitSSHCommand(rootCmd)
}
