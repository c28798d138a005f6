package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathResolutionError reports a default policy whose sub-path does not
// exist under the anchor. It names both sides so a CI log is actionable
// without reproducing the run.
type PathResolutionError struct {
	Anchor  string
	SubPath string
	Err     error
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q under project root %s: %v", e.SubPath, e.Anchor, e.Err)
}

func (e *PathResolutionError) Unwrap() error { return e.Err }

// Resolve produces the context for a directory-kind parameter. An explicit
// context always wins and is returned unchanged. Otherwise the default
// policy's sub-path is applied to the anchor, narrowing it. Resolution
// depends only on the anchor and the sub-path, never on where the module
// declaring the operation happens to live.
func Resolve(explicit Context, anchor Context, subPath string) (Context, error) {
	if !explicit.IsZero() {
		return explicit, nil
	}
	if subPath == "" || subPath == "." {
		return anchor, nil
	}
	return anchor.Sub(subPath)
}

// ResolveFile produces the absolute path for a file-kind parameter's
// default, failing with PathResolutionError when the file is absent under
// the anchor.
func ResolveFile(anchor Context, subPath string) (string, error) {
	target := filepath.Join(anchor.Root(), subPath)
	info, err := os.Stat(target)
	if err != nil {
		return "", &PathResolutionError{Anchor: anchor.Root(), SubPath: subPath, Err: err}
	}
	if info.IsDir() {
		return "", &PathResolutionError{
			Anchor:  anchor.Root(),
			SubPath: subPath,
			Err:     fmt.Errorf("%s is a directory, expected a file", target),
		}
	}
	return target, nil
}
