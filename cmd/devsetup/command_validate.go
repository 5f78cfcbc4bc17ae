package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sourceplane/devsetup/internal/loader"
)

var validateCmd = &cobra.Command{
	Use:   "validate [catalog-file]",
	Short: "Validate a catalog file",
	Long:  "Check a catalog against the schema, reject duplicate ids and dependency cycles, and report dependencies no component satisfies.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateCatalog(cmd, args)
	},
}

func registerValidateCommand(root *cobra.Command) {
	root.AddCommand(validateCmd)
}

func validateCatalog(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path := cfg.Catalog.Path
	if len(args) == 1 {
		path = args[0]
	}

	fmt.Fprintln(out, "□ Loading catalog...")
	catalog, err := loader.LoadOrDefault(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ %s: %d components\n", catalog.Source, len(catalog.Catalog.Components))

	order, err := catalog.Planner.TopologicalOrder()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Install order: %s\n", strings.Join(order, " → "))

	unknown := catalog.Planner.UnknownDependencies()
	for _, u := range unknown {
		fmt.Fprintf(out, "✗ %s\n", u.Error())
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%d unresolved dependencies", len(unknown))
	}
	fmt.Fprintln(out, "✓ Catalog is valid")
	return nil
}
