package bank

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadIndex(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		want    []string
		wantErr bool
	}{
		{
			name:    "json list",
			file:    "index.json",
			content: `["fields/flow.js", " hero.artifice ", ""]`,
			want:    []string{"fields/flow.js", "hero.artifice"},
		},
		{
			name:    "yaml list",
			file:    "index.yaml",
			content: "- fields/flow.js\n- hero.artifice\n",
			want:    []string{"fields/flow.js", "hero.artifice"},
		},
		{
			name:    "yml extension",
			file:    "index.yml",
			content: "[a.js]",
			want:    []string{"a.js"},
		},
		{
			name:    "json object is rejected",
			file:    "bad.json",
			content: `{"sketches": []}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			writeFile(t, path, tt.content)

			got, err := LoadIndex(path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := LoadIndex(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.js"), "")
	writeFile(t, filepath.Join(dir, "a.artifice"), "")
	writeFile(t, filepath.Join(dir, "nested", "doc.json"), "")
	writeFile(t, filepath.Join(dir, "nested", "notes.md"), "")
	writeFile(t, filepath.Join(dir, ".git", "x.js"), "")
	writeFile(t, filepath.Join(dir, ".hidden.js"), "")

	refs, err := ScanDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.artifice", "b.js", "nested/doc.json"}, refs)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.js"), "")
	index := filepath.Join(dir, "list.yaml")
	writeFile(t, index, "- remote/one.js\n")

	refs, err := Discover(dir, index)
	require.NoError(t, err)
	assert.Equal(t, []string{"remote/one.js"}, refs)

	refs, err = Discover(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js"}, refs)

	_, err = Discover("", "")
	require.Error(t, err)
}
