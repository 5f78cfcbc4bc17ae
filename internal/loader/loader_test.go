package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sourceplane/devsetup/internal/model"
	"github.com/sourceplane/devsetup/internal/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultCatalog(t *testing.T) {
	loaded, err := DefaultCatalog()
	require.NoError(t, err)

	assert.Equal(t, BuiltinSource, loaded.Source)
	ids := make([]string, 0)
	for _, c := range loaded.Catalog.Components {
		ids = append(ids, c.ID)
		assert.NotEmpty(t, c.VerificationChecks, c.ID)
		assert.NotEmpty(t, c.RemediationHints, c.ID)
	}
	assert.Equal(t, []string{
		"xcode-cli-tools", "homebrew", "core-cli", "node-lts",
		"python3", "vscode", "codex-cli", "gh-auth",
	}, ids)

	homebrew, ok := loaded.Planner.Component("homebrew")
	require.True(t, ok)
	assert.True(t, homebrew.Required)
	assert.Equal(t, 30*time.Minute, homebrew.Commands[0].Timeout)
	assert.Equal(t, model.AuthSudoAskpass, homebrew.Commands[0].AuthMode)

	codex, _ := loaded.Planner.Component("codex-cli")
	assert.Equal(t, 15*time.Second, codex.VerificationChecks[1].EffectiveTimeout())
	assert.Equal(t, model.DefaultCheckTimeout, codex.VerificationChecks[0].EffectiveTimeout())
	require.NotNil(t, codex.VerificationChecks[0].Package)
	assert.Equal(t, model.PackageCask, codex.VerificationChecks[0].Package.Kind)

	core, _ := loaded.Planner.Component("core-cli")
	assert.Len(t, core.VerificationChecks, 7)
}

func TestDefaultCatalogPlansInDependencyOrder(t *testing.T) {
	loaded, err := DefaultCatalog()
	require.NoError(t, err)

	plan, err := loaded.Planner.ResolvePlan(nil, "key", model.ArchARM64)
	require.NoError(t, err)
	assert.Equal(t, []string{"xcode-cli-tools", "homebrew", "core-cli", "gh-auth"}, plan.IDs())

	seen := map[string]bool{}
	for _, c := range plan.Components {
		for _, dep := range c.Dependencies {
			assert.True(t, seen[dep], "%s planned before its dependency %s", c.ID, dep)
		}
		seen[c.ID] = true
	}

	order, err := loaded.Planner.TopologicalOrder()
	require.NoError(t, err)
	assert.Len(t, order, 8)
	assert.Empty(t, loaded.Planner.UnknownDependencies())
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := writeCatalog(t, `
apiVersion: devsetup.sourceplane.io/v1
kind: Catalog
metadata:
  name: tiny
components:
  - id: base
    name: Base
    category: system
    required: true
    commands:
      - shell: echo base
        timeout: 90s
    verificationChecks:
      - name: base
        command: "true"
  - id: leaf
    name: Leaf
    category: cli
    dependencies: [base]
    architectures: [x86_64]
    verificationChecks:
      - name: leaf
        command: "true"
`)
	loaded, err := LoadCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, path, loaded.Source)
	assert.Equal(t, "tiny", loaded.Catalog.Metadata.Name)
	assert.Equal(t, 90*time.Second, loaded.Catalog.Components[0].Commands[0].Timeout)
	assert.Equal(t, []model.Architecture{model.ArchX8664}, loaded.Catalog.Components[1].SupportedArchitectures)
}

func TestLoadCatalogRejectsCycles(t *testing.T) {
	path := writeCatalog(t, `
apiVersion: devsetup.sourceplane.io/v1
kind: Catalog
components:
  - id: a
    name: A
    category: cli
    dependencies: [b]
    verificationChecks: [{name: a, command: "true"}]
  - id: b
    name: B
    category: cli
    dependencies: [a]
    verificationChecks: [{name: b, command: "true"}]
`)
	_, err := LoadCatalog(path)

	var cycle *planner.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"a", "b", "a"}, cycle.Path)
}

func TestLoadCatalogRejectsDuplicates(t *testing.T) {
	path := writeCatalog(t, `
apiVersion: devsetup.sourceplane.io/v1
kind: Catalog
components:
  - id: a
    name: A
    category: cli
    verificationChecks: [{name: a, command: "true"}]
  - id: a
    name: A again
    category: cli
    verificationChecks: [{name: a, command: "true"}]
`)
	_, err := LoadCatalog(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate component id")
}

func TestLoadCatalogSchemaViolations(t *testing.T) {
	tests := map[string]string{
		"bad category": `
apiVersion: devsetup.sourceplane.io/v1
kind: Catalog
components:
  - id: a
    name: A
    category: games
    verificationChecks: [{name: a, command: "true"}]
`,
		"no checks": `
apiVersion: devsetup.sourceplane.io/v1
kind: Catalog
components:
  - id: a
    name: A
    category: cli
    verificationChecks: []
`,
		"bad duration": `
apiVersion: devsetup.sourceplane.io/v1
kind: Catalog
components:
  - id: a
    name: A
    category: cli
    commands: [{shell: "echo", timeout: "ten minutes"}]
    verificationChecks: [{name: a, command: "true"}]
`,
		"unknown field": `
apiVersion: devsetup.sourceplane.io/v1
kind: Catalog
components:
  - id: a
    name: A
    category: cli
    requiresAdmin: true
    verificationChecks: [{name: a, command: "true"}]
`,
		"wrong kind": `
apiVersion: devsetup.sourceplane.io/v1
kind: Workflow
components:
  - id: a
    name: A
    category: cli
    verificationChecks: [{name: a, command: "true"}]
`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCatalog(writeCatalog(t, body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "schema validation")
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	loaded, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, BuiltinSource, loaded.Source)

	_, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultCatalogYAMLIsCopy(t *testing.T) {
	a := DefaultCatalogYAML()
	a[0] = 'X'
	assert.NotEqual(t, a[0], DefaultCatalogYAML()[0])
}
