package planner

import (
	"testing"

	"github.com/sourceplane/devsetup/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selectionCatalog(t *testing.T) *Planner {
	t.Helper()
	node := component("node", "brew")
	node.DefaultSelected = true
	p, err := New([]model.Component{
		required(component("xcode")),
		component("brew", "xcode"),
		required(component("cli", "brew")),
		node,
		component("yarn", "node"),
		component("editor"),
		only(component("rosetta"), model.ArchARM64),
	})
	require.NoError(t, err)
	return p
}

func TestNewSelectionSeedsDefaultsAndRequired(t *testing.T) {
	s := NewSelection(selectionCatalog(t), model.ArchARM64)

	assert.Equal(t, []string{"brew", "cli", "node", "xcode"}, s.IDs())
	assert.Equal(t, 4, s.Len())
}

func TestSelectionSelectAddsDependencies(t *testing.T) {
	s := NewSelection(selectionCatalog(t), model.ArchARM64)
	require.NoError(t, s.Set("node", false))
	require.False(t, s.Contains("node"))

	require.NoError(t, s.Set("yarn", true))

	assert.True(t, s.Contains("yarn"))
	assert.True(t, s.Contains("node"))
}

func TestSelectionDeselectRemovesDependents(t *testing.T) {
	s := NewSelection(selectionCatalog(t), model.ArchARM64)
	require.NoError(t, s.Set("yarn", true))

	require.NoError(t, s.Set("node", false))

	assert.False(t, s.Contains("node"))
	assert.False(t, s.Contains("yarn"))
	assert.True(t, s.Contains("brew"))
}

func TestSelectionDeselectKeepsRequiredClosure(t *testing.T) {
	s := NewSelection(selectionCatalog(t), model.ArchARM64)

	// cli is required and depends on brew, so brew comes straight back.
	require.NoError(t, s.Set("brew", false))

	assert.True(t, s.Contains("brew"))
	assert.True(t, s.Contains("cli"))
	assert.False(t, s.Contains("node"))
}

func TestSelectionRequiredCannotToggle(t *testing.T) {
	s := NewSelection(selectionCatalog(t), model.ArchARM64)

	err := s.Set("xcode", false)
	assert.ErrorIs(t, err, ErrRequired)
	err = s.Toggle("cli")
	assert.ErrorIs(t, err, ErrRequired)
	assert.True(t, s.Contains("xcode"))
}

func TestSelectionUnknownOrUnsupported(t *testing.T) {
	s := NewSelection(selectionCatalog(t), model.ArchX8664)

	assert.Error(t, s.Set("ghost", true))
	assert.Error(t, s.Set("rosetta", true))
	assert.False(t, s.Contains("rosetta"))
}

func TestSelectionToggle(t *testing.T) {
	s := NewSelection(selectionCatalog(t), model.ArchARM64)

	require.NoError(t, s.Toggle("editor"))
	assert.True(t, s.Contains("editor"))
	require.NoError(t, s.Toggle("editor"))
	assert.False(t, s.Contains("editor"))
}
