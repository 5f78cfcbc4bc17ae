package main

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourceplane/devsetup/internal/config"
	"github.com/sourceplane/devsetup/internal/logging"
	"github.com/sourceplane/devsetup/internal/model"
)

func useConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestConfirm(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("y\nno\nYES\n"))
	var out bytes.Buffer

	assert.True(t, confirm(in, &out, "first?"))
	assert.False(t, confirm(in, &out, "second?"))
	assert.True(t, confirm(in, &out, "third?"))
	assert.False(t, confirm(in, &out, "eof?"))
	assert.Contains(t, out.String(), "first? [y/N] ")
}

func TestPrinter(t *testing.T) {
	var out bytes.Buffer
	p := newPrinter(&out, false)

	p.StepChanged(model.StepState{Position: 0, ComponentID: "homebrew", Status: model.StepPending})
	assert.Empty(t, out.String(), "pending states are quiet unless verbose")

	p.StepChanged(model.StepState{Position: 0, ComponentID: "homebrew", Status: model.StepRunning})
	p.Line("$ brew --version\nHomebrew 4.4.0\n")
	p.Line("   ")

	assert.Contains(t, out.String(), "1. homebrew")
	assert.Contains(t, out.String(), "  $ brew --version\n  Homebrew 4.4.0\n")
}

func TestTargetArchitecture(t *testing.T) {
	useConfig(t, &config.Config{Catalog: config.CatalogConfig{Architecture: "amd64"}})
	arch, err := targetArchitecture()
	require.NoError(t, err)
	assert.Equal(t, model.ArchX8664, arch)

	cfg.Catalog.Architecture = "sparc"
	_, err = targetArchitecture()
	assert.Error(t, err)
}

func TestShowPlanBuiltinCatalog(t *testing.T) {
	useConfig(t, &config.Config{Catalog: config.CatalogConfig{Architecture: "arm64"}})
	selectIDs, deselectIDs, outputFile = []string{"node-lts"}, nil, ""
	t.Cleanup(func() { selectIDs = nil })

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	require.NoError(t, showPlan(cmd))

	assert.Contains(t, out.String(), "Node.js")
	assert.Contains(t, out.String(), "Homebrew")
}

func TestBuildSelectionRejectsRequiredDeselect(t *testing.T) {
	useConfig(t, &config.Config{})
	catalog, err := loadCatalog()
	require.NoError(t, err)

	_, err = buildSelection(catalog.Planner, model.ArchARM64, nil, []string{"homebrew"})
	assert.Error(t, err)

	_, err = buildSelection(catalog.Planner, model.ArchARM64, []string{"does-not-exist"}, nil)
	assert.Error(t, err)
}

func TestValidateBuiltinCatalog(t *testing.T) {
	useConfig(t, &config.Config{})

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	require.NoError(t, validateCatalog(cmd, nil))

	assert.Contains(t, out.String(), "✓ built-in: 8 components")
	assert.Contains(t, out.String(), "✓ Catalog is valid")
}

func TestNewAdvisorHonoursConfiguredTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	useConfig(t, &config.Config{Advisor: config.AdvisorConfig{
		Provider: "openai",
		BaseURL:  srv.URL,
		Timeout:  150 * time.Millisecond,
	}})
	adv, err := newAdvisor(logging.Nop{})
	require.NoError(t, err)

	failure := model.InstallFailure{
		Kind:          model.FailureCommand,
		ComponentID:   "core-cli",
		ComponentName: "Core CLI Tools",
		Command:       "brew install git",
		ExitCode:      1,
	}
	start := time.Now()
	advice := adv.Suggest(context.Background(), failure, nil, "sk-test")

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, model.AdviceHeuristics, advice.Source)
	assert.Contains(t, advice.Notes, "AI guidance unavailable")
}
