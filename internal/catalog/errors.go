package catalog

import "fmt"

// MalformedDeclarationError indicates contradictory or invalid operation
// metadata at load time. It is fatal: the module fails to load and no
// check from it ever becomes visible.
type MalformedDeclarationError struct {
	Op     string
	Reason string
}

func (e *MalformedDeclarationError) Error() string {
	return fmt.Sprintf("malformed declaration for operation %q: %s", e.Op, e.Reason)
}

// DeclarationError indicates a check-tagged operation that violates the
// discoverability invariant (it declares a required parameter). Detected at
// catalog build so CI discovery fails loudly instead of silently dropping
// the check.
type DeclarationError struct {
	Op    string
	Param string
}

func (e *DeclarationError) Error() string {
	return fmt.Sprintf("operation %q is tagged %q but parameter %q is required; checks must be invocable with no arguments",
		e.Op, TagCheck, e.Param)
}

// NotFoundError indicates a lookup for an operation the catalog does not
// contain.
type NotFoundError struct {
	Op string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("operation %q is not declared by this module", e.Op)
}
