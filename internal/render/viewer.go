package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sourceplane/devsetup/internal/model"
)

// CatalogViewer provides human-readable views of a component catalog
type CatalogViewer struct {
	components []model.Component
	byID       map[string]model.Component
}

// NewCatalogViewer creates a new catalog viewer
func NewCatalogViewer(components []model.Component) *CatalogViewer {
	byID := make(map[string]model.Component, len(components))
	for _, c := range components {
		byID[c.ID] = c
	}
	return &CatalogViewer{components: components, byID: byID}
}

// DependencyTree returns a tree view of the catalog grouped by category,
// each component listing its dependencies and checks.
func (cv *CatalogViewer) DependencyTree() string {
	if len(cv.components) == 0 {
		return "No components in catalog"
	}

	categories := make([]model.Category, 0)
	grouped := make(map[model.Category][]model.Component)
	for _, c := range cv.components {
		if _, ok := grouped[c.Category]; !ok {
			categories = append(categories, c.Category)
		}
		grouped[c.Category] = append(grouped[c.Category], c)
	}

	var sb strings.Builder
	for i, category := range categories {
		isLastCategory := i == len(categories)-1

		categoryPrefix := "├─ "
		if isLastCategory {
			categoryPrefix = "└─ "
		}
		sb.WriteString(categoryPrefix + titleStyle.Render(category.Title()) + "\n")

		components := grouped[category]
		for j, c := range components {
			isLastComponent := j == len(components)-1

			prefix := "│  ├─ "
			connector := "│  │"
			if isLastComponent {
				prefix = "│  └─ "
				connector = "│   "
			}
			if isLastCategory {
				prefix = strings.Replace(prefix, "│", " ", 1)
				connector = strings.Replace(connector, "│", " ", 1)
			}

			line := fmt.Sprintf("%s%s (%s)", prefix, c.Name, c.ID)
			if c.Required {
				line += " [required]"
			}
			if len(c.SupportedArchitectures) > 0 {
				archs := make([]string, len(c.SupportedArchitectures))
				for k, a := range c.SupportedArchitectures {
					archs[k] = string(a)
				}
				line += dimStyle.Render(" {" + strings.Join(archs, ",") + "}")
			}
			sb.WriteString(line + "\n")

			children := make([]string, 0, len(c.Dependencies)+len(c.VerificationChecks))
			for _, dep := range c.Dependencies {
				children = append(children, "(depends on) "+dep)
			}
			for _, check := range c.VerificationChecks {
				children = append(children, "(check) "+truncate(check.Command, 60))
			}
			for k, child := range children {
				childPrefix := connector + "  ├─ "
				if k == len(children)-1 {
					childPrefix = connector + "  └─ "
				}
				sb.WriteString(childPrefix + child + "\n")
			}
		}
	}

	sb.WriteString(ruleStyle.Render(rule) + "\n")
	sb.WriteString(fmt.Sprintf("Summary: %d categories, %d components\n", len(categories), len(cv.components)))
	return sb.String()
}

// ViewComponent shows every field of one component
func (cv *CatalogViewer) ViewComponent(id string) string {
	c, ok := cv.byID[id]
	if !ok {
		return fmt.Sprintf("No component found with id: %s", id)
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s [%s]", c.Name, c.Category.Title())) + "\n")
	sb.WriteString(ruleStyle.Render(rule) + "\n")
	if c.Summary != "" {
		sb.WriteString(c.Summary + "\n\n")
	}
	sb.WriteString(fmt.Sprintf("ID: %s\n", c.ID))
	sb.WriteString(fmt.Sprintf("Required: %t  Default: %t\n", c.Required, c.DefaultSelected))

	if len(c.Dependencies) > 0 {
		sb.WriteString("Dependencies:\n")
		for _, dep := range c.Dependencies {
			sb.WriteString("  " + dep + "\n")
		}
	}
	if dependents := cv.dependents(id); len(dependents) > 0 {
		sb.WriteString("Required by:\n")
		for _, d := range dependents {
			sb.WriteString("  " + d + "\n")
		}
	}

	if len(c.Commands) > 0 {
		sb.WriteString("Commands:\n")
		for i, cmd := range c.Commands {
			prefix := "├─ "
			if i == len(c.Commands)-1 {
				prefix = "└─ "
			}
			sb.WriteString(fmt.Sprintf("  %s%s\n", prefix, commandStyle.Render(cmd.Shell)))
			sb.WriteString(dimStyle.Render(fmt.Sprintf("       auth: %s, timeout: %s", cmd.EffectiveAuthMode(), cmd.EffectiveTimeout())) + "\n")
		}
	}

	sb.WriteString("Verification:\n")
	for i, check := range c.VerificationChecks {
		prefix := "├─ "
		if i == len(c.VerificationChecks)-1 {
			prefix = "└─ "
		}
		sb.WriteString(fmt.Sprintf("  %s%s: %s\n", prefix, check.Name, commandStyle.Render(check.Command)))
	}

	if len(c.RemediationHints) > 0 {
		sb.WriteString("Hints:\n")
		for _, hint := range c.RemediationHints {
			sb.WriteString("  " + hint + "\n")
		}
	}
	return sb.String()
}

func (cv *CatalogViewer) dependents(id string) []string {
	out := make([]string, 0)
	for _, c := range cv.components {
		for _, dep := range c.Dependencies {
			if dep == id {
				out = append(out, c.ID)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
