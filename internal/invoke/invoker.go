// Package invoke binds resolved arguments to catalog entries and executes
// operation bodies, normalizing every low-level outcome into a Result.
//
// The invoker is the one place the two halves of the system meet: the
// catalog's pure metadata on one side and the sandbox engine's messy exec
// boundary on the other. Per-invocation failures come back inside Result
// values; an error return from Invoke means the request itself was
// unanswerable (unknown operation), not that a check failed.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/modcheck-dev/modcheck/internal/catalog"
	"github.com/modcheck-dev/modcheck/internal/sandbox"
	"github.com/modcheck-dev/modcheck/internal/workspace"
)

// Bound holds the fully resolved arguments of one invocation, split by
// value shape.
type Bound struct {
	// Anchor is the project root the invocation was resolved against.
	Anchor workspace.Context

	// Dirs holds directory-kind arguments.
	Dirs map[string]workspace.Context

	// Files holds file-kind arguments as absolute host paths.
	Files map[string]string

	// Literals holds primitive arguments, stringly as declared.
	Literals map[string]string
}

// Handler is a built-in Go operation body.
type Handler func(ctx context.Context, op catalog.OperationDescriptor, b Bound) *Result

// Invoker executes operations from one catalog.
type Invoker struct {
	cat      *catalog.Catalog
	engine   sandbox.Engine
	handlers map[string]Handler

	// Timeout bounds each invocation at the sandbox boundary. Zero means
	// no per-invocation deadline.
	Timeout time.Duration
}

// New constructs an invoker. handlers supplies the built-in bodies that
// manifest declarations may reference by name.
func New(cat *catalog.Catalog, engine sandbox.Engine, handlers map[string]Handler) *Invoker {
	if handlers == nil {
		handlers = map[string]Handler{}
	}
	return &Invoker{cat: cat, engine: engine, handlers: handlers}
}

// Catalog returns the catalog this invoker executes from.
func (inv *Invoker) Catalog() *catalog.Catalog { return inv.cat }

// Invoke runs one operation. args may supply explicit values by parameter
// name: workspace.Context or string paths for context kinds, strings for
// primitives. Anything omitted is defaulted through the resolver against
// the anchor. The anchor is supplied here, once, by the outermost caller
// and threaded through everything the invocation touches.
func (inv *Invoker) Invoke(ctx context.Context, name string, args map[string]interface{}, anchor workspace.Context) (*Result, error) {
	decl, err := inv.cat.Get(name)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result := inv.run(ctx, decl, args, anchor)
	result.Operation = name
	result.StartedAt = started
	result.Duration = time.Since(started)
	return result, nil
}

func (inv *Invoker) run(ctx context.Context, decl catalog.Declaration, args map[string]interface{}, anchor workspace.Context) *Result {
	op := decl.Descriptor

	bound, failure := inv.bind(op, args, anchor)
	if failure != nil {
		return failure
	}

	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	switch {
	case decl.Handler != "":
		h, ok := inv.handlers[decl.Handler]
		if !ok {
			return Failf(op.Name, NotImplemented, "declared handler %q is not provided by this host", decl.Handler)
		}
		return h(ctx, op, bound)
	case decl.Exec != nil:
		return inv.execute(ctx, op, decl.Exec, bound)
	default:
		return Failf(op.Name, NotImplemented, "operation %q declares no body", op.Name)
	}
}

// bind resolves every declared parameter: explicit argument first, then
// default policy, then MissingArgument.
func (inv *Invoker) bind(op catalog.OperationDescriptor, args map[string]interface{}, anchor workspace.Context) (Bound, *Result) {
	bound := Bound{
		Anchor:   anchor,
		Dirs:     make(map[string]workspace.Context),
		Files:    make(map[string]string),
		Literals: make(map[string]string),
	}

	// A key that matches no declared parameter is almost always a typo;
	// letting it fall through to the default would mask the mistake.
	if unknown := unknownArgs(op, args); len(unknown) > 0 {
		return Bound{}, Failf(op.Name, MissingArgument,
			"unknown argument(s) %s for operation %q", strings.Join(unknown, ", "), op.Name)
	}

	for _, p := range op.Parameters {
		if v, ok := args[p.Name]; ok {
			if failure := bindExplicit(&bound, op.Name, p, v); failure != nil {
				return Bound{}, failure
			}
			continue
		}

		if p.Default == nil {
			return Bound{}, Failf(op.Name, MissingArgument,
				"required parameter %q was not supplied", p.Name)
		}

		if failure := bindDefault(&bound, op.Name, p, anchor); failure != nil {
			return Bound{}, failure
		}
	}
	return bound, nil
}

// unknownArgs returns the argument names that match no declared
// parameter, sorted for a stable message.
func unknownArgs(op catalog.OperationDescriptor, args map[string]interface{}) []string {
	declared := make(map[string]bool, len(op.Parameters))
	for _, p := range op.Parameters {
		declared[p.Name] = true
	}
	var unknown []string
	for name := range args {
		if !declared[name] {
			unknown = append(unknown, strconv.Quote(name))
		}
	}
	sort.Strings(unknown)
	return unknown
}

// bindExplicit stores a caller-supplied value. Explicit always wins: no
// resolver, no default policy, no existence probing for contexts the
// caller already holds.
func bindExplicit(bound *Bound, opName string, p catalog.ParameterSpec, v interface{}) *Result {
	switch p.Kind {
	case catalog.KindDirectory:
		switch tv := v.(type) {
		case workspace.Context:
			bound.Dirs[p.Name] = tv
		case string:
			cctx, err := workspace.New(tv)
			if err != nil {
				return Failf(opName, PathResolution, "explicit context for %q: %v", p.Name, err)
			}
			bound.Dirs[p.Name] = cctx
		default:
			return Failf(opName, MissingArgument, "parameter %q expects a directory context, got %T", p.Name, v)
		}
	case catalog.KindFile:
		s, ok := v.(string)
		if !ok {
			return Failf(opName, MissingArgument, "parameter %q expects a file path, got %T", p.Name, v)
		}
		bound.Files[p.Name] = s
	default:
		bound.Literals[p.Name] = fmt.Sprint(v)
	}
	return nil
}

// bindDefault evaluates the parameter's default policy against the anchor.
// This is the only moment default policies touch the filesystem.
func bindDefault(bound *Bound, opName string, p catalog.ParameterSpec, anchor workspace.Context) *Result {
	switch p.Kind {
	case catalog.KindDirectory:
		cctx, err := workspace.Resolve(workspace.Context{}, anchor, p.Default.SubPath)
		if err != nil {
			return resolveFailure(opName, err)
		}
		bound.Dirs[p.Name] = cctx
	case catalog.KindFile:
		path, err := workspace.ResolveFile(anchor, p.Default.SubPath)
		if err != nil {
			return resolveFailure(opName, err)
		}
		bound.Files[p.Name] = path
	default:
		bound.Literals[p.Name] = p.Default.Literal
	}
	return nil
}

func resolveFailure(opName string, err error) *Result {
	var perr *workspace.PathResolutionError
	if errors.As(err, &perr) {
		return Failf(opName, PathResolution, "%v", perr)
	}
	return Failf(opName, InfrastructureError, "%v", err)
}

// execute runs a sandboxed exec body and maps its outcome.
func (inv *Invoker) execute(ctx context.Context, op catalog.OperationDescriptor, spec *catalog.ExecSpec, bound Bound) *Result {
	run := sandbox.RunSpec{
		Image:      spec.Image,
		Mounts:     make(map[string]workspace.Context, len(bound.Dirs)),
		FileMounts: make(map[string]string, len(bound.Files)),
	}

	containerPaths := make(map[string]string, len(bound.Dirs)+len(bound.Files))
	for name, cctx := range bound.Dirs {
		p := "/mnt/" + name
		run.Mounts[p] = cctx
		containerPaths[name] = p
	}
	for name, host := range bound.Files {
		p := "/mnt/" + name
		run.FileMounts[p] = host
		containerPaths[name] = p
	}

	const outputPath = "/out"
	if op.Returns == catalog.ReturnContext {
		run.OutputMounts = []string{outputPath}
	}

	run.Steps = make([][]string, len(spec.Steps))
	for i, step := range spec.Steps {
		run.Steps[i] = substituteMounts(step, containerPaths, outputPath)
	}

	result, err := inv.engine.Run(ctx, run)
	if err != nil {
		return mapEngineError(op.Name, err)
	}
	if result.ExitCode != 0 {
		msg := result.StderrTail
		if msg == "" {
			msg = fmt.Sprintf("exit status %d", result.ExitCode)
		}
		return Failf(op.Name, ExecutionFailed, "%s", msg)
	}

	out := Success(op.Name)
	if cctx, ok := result.OutputMounts[outputPath]; ok {
		c := cctx
		out.Artifacts = &c
	}
	return out
}

func mapEngineError(opName string, err error) *Result {
	if errors.Is(err, context.DeadlineExceeded) {
		return Failf(opName, Timeout, "invocation deadline elapsed: %v", err)
	}
	if errors.Is(err, context.Canceled) {
		return Failf(opName, Timeout, "invocation canceled: %v", err)
	}
	var perr *sandbox.ProvisionError
	if errors.As(err, &perr) {
		return Failf(opName, InfrastructureError, "%v", perr)
	}
	return Failf(opName, InfrastructureError, "sandbox run failed: %v", err)
}

// substituteMounts rewrites {{mount:name}} and {{output}} placeholders in
// one exec step.
func substituteMounts(step []string, containerPaths map[string]string, outputPath string) []string {
	// Deterministic replacement order keeps behavior stable across runs.
	names := make([]string, 0, len(containerPaths))
	for name := range containerPaths {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, len(step))
	for i, arg := range step {
		for _, name := range names {
			arg = strings.ReplaceAll(arg, "{{mount:"+name+"}}", containerPaths[name])
		}
		arg = strings.ReplaceAll(arg, "{{output}}", outputPath)
		out[i] = arg
	}
	return out
}
