package catalog

// ParamKind is the semantic type tag of an operation parameter. Context
// kinds (Directory, File) are resolved against the project root anchor when
// the caller omits them; primitive kinds fall back to a literal default.
type ParamKind string

const (
	KindDirectory ParamKind = "Directory"
	KindFile      ParamKind = "File"
	KindRecord    ParamKind = "Record"
	KindString    ParamKind = "String"
	KindBool      ParamKind = "Bool"
	KindInt       ParamKind = "Int"
)

// IsContext reports whether values of this kind are directory/file trees
// that must be resolved against the anchor rather than passed as literals.
func (k ParamKind) IsContext() bool {
	return k == KindDirectory || k == KindFile
}

// ReturnKind classifies what an operation produces.
type ReturnKind string

const (
	// ReturnReport means the operation produces a pass/fail result with
	// diagnostics (the usual shape for checks).
	ReturnReport ReturnKind = "report"

	// ReturnContext means the operation produces a directory tree
	// (e.g. codegen output).
	ReturnContext ReturnKind = "context"
)

// TagCheck marks an operation as a discoverable check: eligible for
// automatic listing and execution, provided it has no required parameters.
const TagCheck = "check"

// DefaultPolicy describes how to synthesize an argument the caller omitted.
// It is pure data at registration time; nothing is resolved against the
// filesystem until the operation is actually invoked.
type DefaultPolicy struct {
	// SubPath is applied to the project root anchor to produce a context
	// value (Directory/File kinds). "." means the anchor itself.
	SubPath string

	// Literal is the default value for primitive kinds.
	Literal string
}

// ParameterSpec describes one declared parameter of an operation.
//
// Invariant: a parameter is required iff it carries no DefaultPolicy. The
// manifest loader rejects declarations that state both.
type ParameterSpec struct {
	Name     string
	Kind     ParamKind
	Required bool
	Default  *DefaultPolicy
}

// ExecSpec is the sandboxed body of a manifest-declared operation: a
// container image plus ordered command lists. Mount placeholders of the
// form {{mount:param}} inside arguments are substituted with the container
// path of the named context parameter at invocation time.
type ExecSpec struct {
	Image string
	Steps [][]string
}

// OperationDescriptor is the immutable catalog entry for one callable
// operation. Descriptors are created once at module load and never mutated;
// queries return copies.
type OperationDescriptor struct {
	Name        string
	Description string
	Parameters  []ParameterSpec
	Tags        []string
	Returns     ReturnKind
}

// HasTag reports whether the descriptor carries the given tag.
func (d OperationDescriptor) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Discoverable reports whether every parameter is non-required, i.e. the
// operation can be invoked with no arguments at all.
func (d OperationDescriptor) Discoverable() bool {
	for _, p := range d.Parameters {
		if p.Required {
			return false
		}
	}
	return true
}

// clone returns a deep copy so callers can never reach back into the
// catalog's storage.
func (d OperationDescriptor) clone() OperationDescriptor {
	out := d
	out.Parameters = make([]ParameterSpec, len(d.Parameters))
	for i, p := range d.Parameters {
		cp := p
		if p.Default != nil {
			def := *p.Default
			cp.Default = &def
		}
		out.Parameters[i] = cp
	}
	out.Tags = append([]string(nil), d.Tags...)
	return out
}

// Declaration pairs a descriptor with its body. Exactly one of Exec or
// Handler should be set; a declaration with neither is registered but
// reports NotImplemented when invoked, never a silent pass.
type Declaration struct {
	Descriptor OperationDescriptor

	// Exec is the sandboxed body for manifest-declared operations.
	Exec *ExecSpec

	// Handler names a built-in Go implementation (e.g. "structure",
	// "verify-generated") supplied by the host at invoker construction.
	Handler string
}
