// Package catalog builds the in-memory catalog of a module's callable
// operations and derives the discoverable check set from it.
//
// The catalog is constructed once at module load from pure metadata (a
// manifest plus built-in declarations) and is read-only afterwards, so it
// can be shared across concurrent invocations without locking. Nothing in
// this package touches the filesystem of the project being checked;
// context resolution happens later, at invocation time.
package catalog

// Catalog is the immutable operation catalog for one loaded module.
type Catalog struct {
	module string
	decls  []Declaration
	byName map[string]int
}

// Build validates a set of declarations and assembles the catalog.
//
// It fails with MalformedDeclarationError when two operations share a name
// or a parameter carries contradictory metadata (required yet defaulted),
// and with DeclarationError when a check-tagged operation declares a
// required parameter. All load-time errors are fatal: a module that fails
// Build exposes no operations at all.
func Build(module string, decls []Declaration) (*Catalog, error) {
	c := &Catalog{
		module: module,
		byName: make(map[string]int, len(decls)),
	}

	for _, d := range decls {
		name := d.Descriptor.Name
		if name == "" {
			return nil, &MalformedDeclarationError{Op: name, Reason: "operation name is empty"}
		}
		if _, dup := c.byName[name]; dup {
			return nil, &MalformedDeclarationError{Op: name, Reason: "duplicate operation name"}
		}

		seen := make(map[string]bool, len(d.Descriptor.Parameters))
		for _, p := range d.Descriptor.Parameters {
			if p.Name == "" {
				return nil, &MalformedDeclarationError{Op: name, Reason: "parameter with empty name"}
			}
			if seen[p.Name] {
				return nil, &MalformedDeclarationError{Op: name, Reason: "duplicate parameter " + p.Name}
			}
			seen[p.Name] = true

			// A parameter is required iff it has no default. Declaring
			// both is contradictory metadata, not a preference.
			if p.Required && p.Default != nil {
				return nil, &MalformedDeclarationError{
					Op:     name,
					Reason: "parameter " + p.Name + " is marked required but declares a default",
				}
			}
			if !p.Required && p.Default == nil {
				return nil, &MalformedDeclarationError{
					Op:     name,
					Reason: "parameter " + p.Name + " is optional but declares no default",
				}
			}
		}

		if d.Descriptor.HasTag(TagCheck) {
			for _, p := range d.Descriptor.Parameters {
				if p.Required {
					return nil, &DeclarationError{Op: name, Param: p.Name}
				}
			}
		}

		c.byName[name] = len(c.decls)
		c.decls = append(c.decls, d)
	}

	return c, nil
}

// Module returns the declared module path.
func (c *Catalog) Module() string { return c.module }

// Get returns the declaration for the named operation.
func (c *Catalog) Get(name string) (Declaration, error) {
	i, ok := c.byName[name]
	if !ok {
		return Declaration{}, &NotFoundError{Op: name}
	}
	d := c.decls[i]
	d.Descriptor = d.Descriptor.clone()
	return d, nil
}

// Operations returns copies of every registered descriptor, in declaration
// order.
func (c *Catalog) Operations() []OperationDescriptor {
	out := make([]OperationDescriptor, 0, len(c.decls))
	for _, d := range c.decls {
		out = append(out, d.Descriptor.clone())
	}
	return out
}

// FindByHandler returns the first operation wired to the named built-in
// handler, in declaration order.
func (c *Catalog) FindByHandler(handler string) (Declaration, bool) {
	for _, d := range c.decls {
		if d.Handler == handler {
			d.Descriptor = d.Descriptor.clone()
			return d, true
		}
	}
	return Declaration{}, false
}

// Checks returns the discoverable check set: exactly the operations tagged
// "check" whose every parameter is non-required. Build already rejects
// check-tagged operations with required parameters, but the invariant is
// re-validated here so a query can never surface a non-invocable check.
func (c *Catalog) Checks() []OperationDescriptor {
	var out []OperationDescriptor
	for _, d := range c.decls {
		if d.Descriptor.HasTag(TagCheck) && d.Descriptor.Discoverable() {
			out = append(out, d.Descriptor.clone())
		}
	}
	return out
}
