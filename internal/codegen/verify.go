package codegen

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/modcheck-dev/modcheck/internal/workspace"
)

// maxDiffFiles caps how many per-file unified diffs a drift report embeds;
// the full changed-path list is always complete.
const maxDiffFiles = 5

// DriftReport is the outcome of comparing a fresh generation against the
// committed tree. Clean reports have no changed paths.
type DriftReport struct {
	// Added are paths present in the fresh generation only.
	Added []string

	// Removed are paths present in the committed tree only.
	Removed []string

	// Modified are paths present in both with differing content.
	Modified []string

	// Diffs holds unified diffs for a bounded number of modified text
	// files, keyed by relative path.
	Diffs map[string]string
}

// Clean reports whether generation and committed tree are identical.
func (r *DriftReport) Clean() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Modified) == 0
}

// ChangedPaths returns every differing relative path, sorted.
func (r *DriftReport) ChangedPaths() []string {
	out := make([]string, 0, len(r.Added)+len(r.Removed)+len(r.Modified))
	out = append(out, r.Added...)
	out = append(out, r.Removed...)
	out = append(out, r.Modified...)
	sort.Strings(out)
	return out
}

// Summary renders the report for a CI log: one line per changed path with
// its change class, followed by the embedded diffs.
func (r *DriftReport) Summary() string {
	var b strings.Builder
	for _, p := range r.Added {
		fmt.Fprintf(&b, "only in generated output: %s\n", p)
	}
	for _, p := range r.Removed {
		fmt.Fprintf(&b, "only in committed tree:   %s\n", p)
	}
	for _, p := range r.Modified {
		fmt.Fprintf(&b, "content differs:          %s\n", p)
	}
	if len(r.Diffs) > 0 {
		paths := make([]string, 0, len(r.Diffs))
		for p := range r.Diffs {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			b.WriteString("\n")
			b.WriteString(r.Diffs[p])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Verify regenerates from the schema through the bridge and diffs the
// result against the committed tree resolved at the bridge's source
// sub-path. This is a real structural comparison, file by file; an empty
// report means the committed tree is exactly reproducible.
func Verify(ctx context.Context, bridge *Bridge, schema string, anchor workspace.Context) (*DriftReport, error) {
	generated, err := bridge.Generate(ctx, schema, anchor)
	if err != nil {
		return nil, err
	}
	committed, err := workspace.Resolve(workspace.Context{}, anchor, bridge.SourceSubPath)
	if err != nil {
		return nil, err
	}
	return DiffTrees(committed.Root(), generated.Root())
}

// DiffTrees compares two directory trees by relative path and content
// hash. committed is the checked-in tree; generated is the fresh output.
func DiffTrees(committed, generated string) (*DriftReport, error) {
	oldFiles, err := hashTree(committed)
	if err != nil {
		return nil, fmt.Errorf("reading committed tree: %w", err)
	}
	newFiles, err := hashTree(generated)
	if err != nil {
		return nil, fmt.Errorf("reading generated tree: %w", err)
	}

	report := &DriftReport{Diffs: make(map[string]string)}
	for rel, newHash := range newFiles {
		oldHash, ok := oldFiles[rel]
		switch {
		case !ok:
			report.Added = append(report.Added, rel)
		case oldHash != newHash:
			report.Modified = append(report.Modified, rel)
		}
	}
	for rel := range oldFiles {
		if _, ok := newFiles[rel]; !ok {
			report.Removed = append(report.Removed, rel)
		}
	}
	sort.Strings(report.Added)
	sort.Strings(report.Removed)
	sort.Strings(report.Modified)

	for i, rel := range report.Modified {
		if i >= maxDiffFiles {
			break
		}
		if diff, ok := unifiedDiff(committed, generated, rel); ok {
			report.Diffs[rel] = diff
		}
	}
	return report, nil
}

// hashTree maps every regular file under root to a content hash, keyed by
// slash-separated relative path.
func hashTree(root string) (map[string]string, error) {
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = fmt.Sprintf("%x", sha256.Sum256(data))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// unifiedDiff renders a unified diff for one modified file. Binary content
// is skipped; the changed-path listing already names it.
func unifiedDiff(committed, generated, rel string) (string, bool) {
	oldData, err := os.ReadFile(filepath.Join(committed, rel))
	if err != nil {
		return "", false
	}
	newData, err := os.ReadFile(filepath.Join(generated, rel))
	if err != nil {
		return "", false
	}
	if !utf8.Valid(oldData) || !utf8.Valid(newData) || bytes.ContainsRune(oldData, 0) {
		return "", false
	}

	oldText := string(oldData)
	edits := myers.ComputeEdits(span.URIFromPath(rel), oldText, string(newData))
	unified := gotextdiff.ToUnified("committed/"+rel, "generated/"+rel, oldText, edits)
	return fmt.Sprint(unified), true
}
