package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sourceplane/devsetup/internal/render"
)

var (
	selectIDs   []string
	deselectIDs []string
	outputFile  string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the install plan for the current selection",
	Long:  "Resolve the dependency-closed install plan for the catalog defaults plus --select and minus --deselect, without running anything.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showPlan(cmd)
	},
}

func registerPlanCommand(root *cobra.Command) {
	root.AddCommand(planCmd)

	planCmd.Flags().StringSliceVarP(&selectIDs, "select", "s", nil, "Component ids to add to the default selection")
	planCmd.Flags().StringSliceVarP(&deselectIDs, "deselect", "d", nil, "Component ids to remove from the selection")
	planCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the plan to a file (json or yaml by extension)")
}

func showPlan(cmd *cobra.Command) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	arch, err := targetArchitecture()
	if err != nil {
		return err
	}
	sel, err := buildSelection(catalog.Planner, arch, selectIDs, deselectIDs)
	if err != nil {
		return err
	}

	plan, err := catalog.Planner.Closure(sel.IDs(), arch)
	if err != nil {
		return err
	}

	r := render.NewRenderer()
	fmt.Fprint(cmd.OutOrStdout(), r.Plan(plan))

	if outputFile != "" {
		if err := r.WritePlan(r.Document(plan, catalog.Source), outputFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Plan written to %s\n", outputFile)
	}
	return nil
}
