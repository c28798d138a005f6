package catalog

import (
	"fmt"

	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"
)

// Manifest is the parsed module.yaml: the module's self-description, from
// which the catalog is built. Parsing is pure — no path in the manifest is
// resolved here.
type Manifest struct {
	// Module is the module path, validated with the Go module path rules.
	Module string `yaml:"module"`

	// SDK is the sub-path of the project root holding the SDK tree that
	// default policies written as "sdk" or "sdk/..." resolve under.
	SDK string `yaml:"sdk"`

	// Language selects the source extension structural checks expect
	// (e.g. "go", "py", "ts").
	Language string `yaml:"language"`

	Operations []ManifestOp `yaml:"operations"`
}

// ManifestOp is one operation entry in module.yaml.
type ManifestOp struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Tags        []string        `yaml:"tags"`
	Returns     string          `yaml:"returns"`
	Params      []ManifestParam `yaml:"params"`

	// Image + Exec define a sandboxed body. Handler names a built-in Go
	// implementation instead. An operation may declare neither (it then
	// reports NotImplemented when run) but never both.
	Image   string     `yaml:"image"`
	Exec    [][]string `yaml:"exec"`
	Handler string     `yaml:"handler"`
}

// ManifestParam is one parameter entry. Required is a tri-state: when
// omitted it is inferred from the presence of a default, when stated it is
// taken at face value so contradictory metadata reaches Build and fails
// loudly there.
type ManifestParam struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Required *bool  `yaml:"required"`

	// From is a default policy sub-path applied to the project root
	// anchor (context kinds). Default is a literal (primitive kinds).
	From    string `yaml:"from"`
	Default string `yaml:"default"`
}

// ParseManifest decodes and validates manifest bytes. The returned manifest
// has not been checked against any catalog invariant yet; use Load for the
// full pipeline.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing module manifest: %w", err)
	}
	if m.Module == "" {
		return nil, fmt.Errorf("module manifest: missing module path")
	}
	if err := module.CheckPath(m.Module); err != nil {
		return nil, fmt.Errorf("module manifest: invalid module path %q: %w", m.Module, err)
	}
	if m.SDK == "" {
		m.SDK = "."
	}
	return &m, nil
}

// Load parses manifest bytes and builds the catalog from them.
func Load(data []byte) (*Catalog, *Manifest, error) {
	m, err := ParseManifest(data)
	if err != nil {
		return nil, nil, err
	}
	decls := make([]Declaration, 0, len(m.Operations))
	for _, op := range m.Operations {
		d, err := op.declaration()
		if err != nil {
			return nil, nil, err
		}
		decls = append(decls, d)
	}
	cat, err := Build(m.Module, decls)
	if err != nil {
		return nil, nil, err
	}
	return cat, m, nil
}

func (op ManifestOp) declaration() (Declaration, error) {
	if op.Exec != nil && op.Handler != "" {
		return Declaration{}, &MalformedDeclarationError{
			Op:     op.Name,
			Reason: "declares both an exec body and a handler",
		}
	}

	desc := OperationDescriptor{
		Name:        op.Name,
		Description: op.Description,
		Tags:        append([]string(nil), op.Tags...),
		Returns:     ReturnReport,
	}
	if op.Returns == string(ReturnContext) {
		desc.Returns = ReturnContext
	}

	for _, p := range op.Params {
		spec, err := p.spec(op.Name)
		if err != nil {
			return Declaration{}, err
		}
		desc.Parameters = append(desc.Parameters, spec)
	}

	d := Declaration{Descriptor: desc, Handler: op.Handler}
	if len(op.Exec) > 0 {
		if op.Image == "" {
			return Declaration{}, &MalformedDeclarationError{
				Op:     op.Name,
				Reason: "exec body without an image",
			}
		}
		steps := make([][]string, len(op.Exec))
		for i, s := range op.Exec {
			steps[i] = append([]string(nil), s...)
		}
		d.Exec = &ExecSpec{Image: op.Image, Steps: steps}
	}
	return d, nil
}

func (p ManifestParam) spec(op string) (ParameterSpec, error) {
	kind := ParamKind(p.Kind)
	switch kind {
	case KindDirectory, KindFile, KindRecord, KindString, KindBool, KindInt:
	default:
		return ParameterSpec{}, &MalformedDeclarationError{
			Op:     op,
			Reason: fmt.Sprintf("parameter %s has unknown kind %q", p.Name, p.Kind),
		}
	}

	spec := ParameterSpec{Name: p.Name, Kind: kind}

	if p.From != "" && p.Default != "" {
		return ParameterSpec{}, &MalformedDeclarationError{
			Op:     op,
			Reason: "parameter " + p.Name + " declares both a path default and a literal default",
		}
	}
	switch {
	case p.From != "":
		spec.Default = &DefaultPolicy{SubPath: p.From}
	case p.Default != "":
		spec.Default = &DefaultPolicy{Literal: p.Default}
	}

	if p.Required != nil {
		// Stated explicitly: pass through even when contradictory, so
		// Build reports MalformedDeclaration instead of this loader
		// papering over it.
		spec.Required = *p.Required
	} else {
		spec.Required = spec.Default == nil
	}
	return spec, nil
}
