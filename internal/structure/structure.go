// Package structure declares the persisted layout contract a generated SDK
// tree must satisfy, as data rather than per-check logic.
package structure

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Layout is the required relative layout under the SDK sub-path. Entries
// containing the {{ext}} marker are specialized by the module's declared
// source language.
var Layout = []string{
	"README.md",
	"docs/installation.md",
	"docs/quickstart.md",
	"docs/reference.md",
	"docs/examples.md",
	"docs/architecture.md",
	"docs/testing.md",
	"runtime/dagger.json",
	"runtime/main.{{ext}}",
	"runtime/runtime/dag.{{ext}}",
	"runtime/runtime/dag/core.{{ext}}",
	"runtime/runtime/dag/wrappers.{{ext}}",
}

// extensions maps a manifest language to its source file extension.
var extensions = map[string]string{
	"go":     "go",
	"py":     "py",
	"python": "py",
	"ts":     "ts",
	"js":     "js",
	"php":    "php",
	"java":   "java",
	"elixir": "ex",
}

// RequiredPaths returns the layout specialized for the given language.
// Unknown languages keep the raw {{ext}} entries out of the list rather
// than guessing an extension.
func RequiredPaths(language string) []string {
	ext, known := extensions[strings.ToLower(language)]
	out := make([]string, 0, len(Layout))
	for _, entry := range Layout {
		if strings.Contains(entry, "{{ext}}") {
			if !known {
				continue
			}
			entry = strings.ReplaceAll(entry, "{{ext}}", ext)
		}
		out = append(out, entry)
	}
	return out
}

// Verify stats every required path under the tree root and returns the
// relative paths that are missing, in layout order.
func Verify(root string, language string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("layout root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("layout root %s is not a directory", root)
	}

	var missing []string
	for _, rel := range RequiredPaths(language) {
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			missing = append(missing, rel)
		}
	}
	return missing, nil
}
