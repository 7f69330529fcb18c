// Package bank discovers the sketches available for curation, deals them
// out in random exhaustive order and watches the bank directory for edits.
package bank

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// SketchExtensions are the file extensions picked up by a directory scan.
var SketchExtensions = []string{".js", ".artifice", ".json"}

// LoadIndex reads an asset index: an ordered list of sketch references in
// JSON or YAML, chosen by file extension.
func LoadIndex(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	var refs []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &refs)
	default:
		err = json.Unmarshal(data, &refs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse index %s: %w", path, err)
	}

	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref = strings.TrimSpace(ref); ref != "" {
			out = append(out, ref)
		}
	}
	return out, nil
}

// ScanDir lists every sketch file under dir as a slash-separated path
// relative to dir, sorted. Hidden files and directories are skipped.
func ScanDir(dir string) ([]string, error) {
	var refs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsSketchFile(path) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		refs = append(refs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan bank %s: %w", dir, err)
	}
	slices.Sort(refs)
	return refs, nil
}

// Discover returns the index entries when indexFile is set, otherwise the
// result of scanning bankDir.
func Discover(bankDir, indexFile string) ([]string, error) {
	if indexFile != "" {
		return LoadIndex(indexFile)
	}
	if bankDir == "" {
		return nil, fmt.Errorf("neither bank directory nor index file configured")
	}
	return ScanDir(bankDir)
}

// IsSketchFile reports whether path has a sketch extension.
func IsSketchFile(path string) bool {
	return slices.Contains(SketchExtensions, strings.ToLower(filepath.Ext(path)))
}
