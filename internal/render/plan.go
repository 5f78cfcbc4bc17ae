package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sourceplane/devsetup/internal/model"
)

// PlanDocument is the exported form of a resolved install plan
type PlanDocument struct {
	APIVersion    string             `json:"apiVersion" yaml:"apiVersion"`
	Kind          string             `json:"kind" yaml:"kind"`
	CatalogSource string             `json:"catalogSource" yaml:"catalogSource"`
	Architecture  model.Architecture `json:"architecture" yaml:"architecture"`
	Steps         []PlanStep         `json:"steps" yaml:"steps"`
}

type PlanStep struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Category     string   `json:"category" yaml:"category"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Commands     []string `json:"commands,omitempty" yaml:"commands,omitempty"`
	Checks       []string `json:"checks" yaml:"checks"`
}

// Renderer turns plans into documents and terminal text
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Document converts a plan into its exported form
func (r *Renderer) Document(plan model.Plan, catalogSource string) PlanDocument {
	doc := PlanDocument{
		APIVersion:    "devsetup.sourceplane.io/v1",
		Kind:          "Plan",
		CatalogSource: catalogSource,
		Architecture:  plan.Architecture,
		Steps:         make([]PlanStep, 0, plan.Len()),
	}
	for _, c := range plan.Components {
		step := PlanStep{
			ID:           c.ID,
			Name:         c.Name,
			Category:     string(c.Category),
			Dependencies: c.Dependencies,
		}
		for _, cmd := range c.Commands {
			step.Commands = append(step.Commands, cmd.Shell)
		}
		for _, check := range c.VerificationChecks {
			step.Checks = append(step.Checks, check.Command)
		}
		doc.Steps = append(doc.Steps, step)
	}
	return doc
}

// RenderJSON renders the plan document as JSON
func (r *Renderer) RenderJSON(doc PlanDocument) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// RenderYAML renders the plan document as YAML
func (r *Renderer) RenderYAML(doc PlanDocument) ([]byte, error) {
	return yaml.Marshal(doc)
}

// WritePlan writes the plan document to path, as JSON or YAML by extension
func (r *Renderer) WritePlan(doc PlanDocument, path string) error {
	var data []byte
	var err error

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		data, err = r.RenderYAML(doc)
	default:
		data, err = r.RenderJSON(doc)
	}
	if err != nil {
		return fmt.Errorf("failed to render plan: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write plan to %s: %w", path, err)
	}
	return nil
}

// Plan returns the numbered, styled plan listing shown before a run
func (r *Renderer) Plan(plan model.Plan) string {
	if plan.Len() == 0 {
		return "Nothing to install"
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Install plan (%s)", plan.Architecture)) + "\n")
	for i, c := range plan.Components {
		line := fmt.Sprintf("%2d. %s", i+1, c.Name)
		sb.WriteString(line)
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  [%s] %s", c.Category.Title(), c.ID)))
		if len(c.Dependencies) > 0 {
			sb.WriteString(dimStyle.Render("  needs " + strings.Join(c.Dependencies, ", ")))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(ruleStyle.Render(rule) + "\n")
	sb.WriteString(fmt.Sprintf("Summary: %d components, %d commands\n", plan.Len(), countCommands(plan)))
	return sb.String()
}

func countCommands(plan model.Plan) int {
	n := 0
	for _, c := range plan.Components {
		n += len(c.Commands)
	}
	return n
}
