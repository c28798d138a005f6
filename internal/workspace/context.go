// Package workspace provides the execution context handed to operations:
// an immutable reference to a directory tree plus named sub-paths.
//
// Contexts are passed down explicitly from a single project-root anchor
// supplied by the outermost caller. No operation ever derives a context
// from its own location on disk, which keeps resolution independent of how
// deeply a module is nested inside the project.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Context is an immutable handle to a directory tree. Deriving a narrowed
// or annotated context always produces a new value; the parent is never
// mutated.
type Context struct {
	root  string
	paths map[string]string // logical name -> sub-path relative to root
}

// New returns a context rooted at the given directory. The path is made
// absolute so a context keeps meaning the same tree regardless of the
// process working directory.
func New(root string) (Context, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Context{}, fmt.Errorf("resolving context root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Context{}, fmt.Errorf("context root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return Context{}, fmt.Errorf("context root %s is not a directory", abs)
	}
	return Context{root: abs}, nil
}

// Root returns the absolute path of the tree this context references.
func (c Context) Root() string { return c.root }

// IsZero reports whether this is the zero context (no tree attached).
func (c Context) IsZero() bool { return c.root == "" }

// Path returns the absolute path of a named derived sub-path, or the root
// when the name is unknown.
func (c Context) Path(name string) string {
	if rel, ok := c.paths[name]; ok {
		return filepath.Join(c.root, rel)
	}
	return c.root
}

// WithPath returns a copy of the context with a logical name bound to a
// sub-path. The receiver is unchanged.
func (c Context) WithPath(name, rel string) Context {
	out := Context{root: c.root, paths: make(map[string]string, len(c.paths)+1)}
	for k, v := range c.paths {
		out.paths[k] = v
	}
	out.paths[name] = rel
	return out
}

// Sub returns a new context narrowed to the given sub-path of this
// context's root. Derived names are not carried over; a narrowed context
// starts clean.
func (c Context) Sub(rel string) (Context, error) {
	target := filepath.Join(c.root, rel)
	info, err := os.Stat(target)
	if err != nil {
		return Context{}, &PathResolutionError{Anchor: c.root, SubPath: rel, Err: err}
	}
	if !info.IsDir() {
		return Context{}, &PathResolutionError{
			Anchor:  c.root,
			SubPath: rel,
			Err:     fmt.Errorf("%s is not a directory", target),
		}
	}
	return Context{root: target}, nil
}
