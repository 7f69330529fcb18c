// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/veetance/artifice/internal/cli/output"
)

// TestSketches are written into the bank of every test project.
var TestSketches = map[string]string{
	"orbit.js": `let radius = 40;
let speed = 0.5;
function draw() { circle(200, 200, radius * speed); }`,
	"grid/tiles.js": `const cells = 12;
function draw() { for (let i = 0; i < cells; i++) rect(i * 10, 0, 8, 8); }`,
	"poster.json": `{"code": "function draw() { background(params.hue); }", "parameters": [{"name": "hue", "min": 0, "max": 360, "defaultValue": 200}]}`,
}

// SetupTestProject creates a temporary project with a sketch bank and a
// config file pointing at it. Returns the project root.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	bankDir := filepath.Join(root, "bank")

	for name, content := range TestSketches {
		path := filepath.Join(bankDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	cfg := "bank_dir: bank\nstate_path: .artifice/state.db\n"
	if err := os.WriteFile(filepath.Join(root, "artifice.yaml"), []byte(cfg), 0600); err != nil {
		t.Fatalf("failed to write artifice.yaml: %v", err)
	}

	return root
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
