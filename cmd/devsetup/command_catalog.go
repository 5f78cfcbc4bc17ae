package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sourceplane/devsetup/internal/loader"
	"github.com/sourceplane/devsetup/internal/render"
)

var (
	catalogTree   bool
	catalogExport bool
)

var catalogCmd = &cobra.Command{
	Use:     "catalog [component-id]",
	Aliases: []string{"components"},
	Short:   "List catalog components",
	Long:    "List the catalog grouped by category. Use 'devsetup catalog <id>' for one component's commands and checks.",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listCatalog(cmd, args)
	},
}

func registerCatalogCommand(root *cobra.Command) {
	root.AddCommand(catalogCmd)

	catalogCmd.Flags().BoolVarP(&catalogTree, "tree", "t", false, "Show dependencies and checks as a tree")
	catalogCmd.Flags().BoolVar(&catalogExport, "export", false, "Print the built-in catalog YAML")
}

func listCatalog(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if catalogExport {
		_, err := out.Write(loader.DefaultCatalogYAML())
		return err
	}

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	viewer := render.NewCatalogViewer(catalog.Catalog.Components)

	if len(args) == 1 {
		if _, ok := catalog.Planner.Component(args[0]); !ok {
			return fmt.Errorf("unknown component %q", args[0])
		}
		fmt.Fprint(out, viewer.ViewComponent(args[0]))
		return nil
	}

	if catalogTree {
		fmt.Fprint(out, viewer.DependencyTree())
		return nil
	}

	arch, err := targetArchitecture()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Catalog: %s\n", catalog.Source)
	for _, c := range catalog.Catalog.Components {
		marker := " "
		switch {
		case c.Required:
			marker = "*"
		case c.DefaultSelected:
			marker = "+"
		}
		unsupported := ""
		if !c.Supports(arch) {
			unsupported = fmt.Sprintf(" (not available on %s)", arch)
		}
		fmt.Fprintf(out, "%s %-18s %-24s %s%s\n", marker, c.ID, c.Name, c.Category.Title(), unsupported)
	}
	fmt.Fprintln(out, "\n* required  + selected by default")
	return nil
}
