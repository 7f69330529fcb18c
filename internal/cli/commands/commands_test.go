// Package commands_test provides tests for CLI command creation.
package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veetance/artifice/internal/cli/output"
	"github.com/veetance/artifice/internal/cli/testutil"
	"github.com/veetance/artifice/pkg/core"
)

func TestNewServeCommand(t *testing.T) {
	cmd := NewServeCommand()

	assert.Equal(t, "serve", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	for _, flag := range []string{"port", "no-browser", "watch", "dev"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.True(t, cmd.Flags().Lookup("dev").Hidden)
}

func TestNewAnalyzeCommand(t *testing.T) {
	cmd := NewAnalyzeCommand()

	assert.Equal(t, "analyze <file|url>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.Error(t, cmd.Args(cmd, nil), "a sketch reference is required")
	assert.NoError(t, cmd.Args(cmd, []string{"sketch.js"}))

	for _, flag := range []string{"code", "no-validate"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewIndexCommand(t *testing.T) {
	cmd := NewIndexCommand()

	assert.Equal(t, "index", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestNewHistoryCommand(t *testing.T) {
	cmd := NewHistoryCommand()

	assert.Equal(t, "history", cmd.Use)
	limit := cmd.Flags().Lookup("limit")
	if assert.NotNil(t, limit) {
		assert.Equal(t, "20", limit.DefValue)
		assert.Equal(t, "n", limit.Shorthand)
	}
}

func TestNewFlaggedCommand(t *testing.T) {
	cmd := NewFlaggedCommand()

	assert.Equal(t, "flagged", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("all"))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Superseded", label("superseded"))
	assert.Equal(t, "Flag", label("flag"))
	assert.Equal(t, "-", label(""))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0b7c3e2a", shortID("0b7c3e2a-5d1f-4c0e-9a7b-1f2e3d4c5b6a"))
	assert.Equal(t, "abc", shortID("abc"))
}

func TestSessionSecret(t *testing.T) {
	got, err := sessionSecret("configured")
	assert.NoError(t, err)
	assert.Equal(t, "configured", got)

	a, err := sessionSecret("")
	assert.NoError(t, err)
	b, _ := sessionSecret("")
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestRenderDescriptor(t *testing.T) {
	desc := core.SketchDescriptor{
		Code:            "circle(0, 0, p.radius);",
		ParameterValues: core.ParameterMap{"radius": 55},
		Parameters:      []core.ParameterDefinition{core.NewParameterDefinition("radius", 40)},
		Diagnostics:     []string{"1:5: Expected \";\""},
	}
	tr := testutil.NewTestRenderer(output.ModeText, false)

	renderDescriptor(tr.Renderer, "orbit.js", desc, true)

	out := tr.Output()
	testutil.AssertNoANSI(t, out)
	assert.Contains(t, out, "orbit.js")
	assert.Contains(t, out, "raw")
	assert.Contains(t, out, "55", "live value wins over the default")
	assert.Contains(t, out, "160")
	assert.Contains(t, out, "circle(0, 0, p.radius);")
	assert.Contains(t, tr.ErrorOutput(), "syntax: 1:5")
}

func TestRenderDescriptor_NoParameters(t *testing.T) {
	tr := testutil.NewTestRenderer(output.ModeText, false)

	renderDescriptor(tr.Renderer, "empty.js", core.SketchDescriptor{Code: "background(0);"}, false)

	assert.Contains(t, tr.Output(), "No tunable parameters")
	assert.NotContains(t, tr.Output(), "background(0);")
}
