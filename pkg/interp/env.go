package interp

import (
	"io"
	"maps"
	"slices"
)

// HookFunc records a branch outcome and returns value unchanged.
type HookFunc func(value Value) (Value, error)

// HookResolver maps a hook id embedded in the tree to the live hook.
type HookResolver func(id int) (HookFunc, bool)

// Scope is a table of local variables. Blocks open child scopes that see the
// locals of their parent.
type Scope struct {
	parent *Scope
	vars   map[string]Value
}

// NewScope creates a scope nested in parent (nil for a top-level scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: make(map[string]Value)}
}

// Lookup finds name in this scope or any enclosing one.
func (scope *Scope) Lookup(name string) (Value, bool) {
	for current := scope; current != nil; current = current.parent {
		if v, ok := current.vars[name]; ok {
			return v, true
		}
	}

	return Nil, false
}

// Set assigns to an existing local in the nearest scope that has it,
// and defines it in this scope otherwise.
func (scope *Scope) Set(name string, v Value) {
	for current := scope; current != nil; current = current.parent {
		if _, ok := current.vars[name]; ok {
			current.vars[name] = v

			return
		}
	}

	scope.vars[name] = v
}

// Define binds name in this scope, shadowing enclosing scopes.
func (scope *Scope) Define(name string, v Value) {
	scope.vars[name] = v
}

// Vars returns a copy of the locals bound directly in this scope.
func (scope *Scope) Vars() map[string]Value {
	return maps.Clone(scope.vars)
}

// Names returns the locals visible from this scope, sorted.
func (scope *Scope) Names() []string {
	seen := make(map[string]struct{})

	for current := scope; current != nil; current = current.parent {
		for name := range current.vars {
			seen[name] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(seen))
}

// Env is the execution environment of a program.
type Env struct {
	// Globals is the top-level scope. Programs read and write the caller's
	// bindings through it. A fresh scope is used when nil.
	Globals *Scope

	// Hooks resolves hook ids to live hooks. Executing a hook node without a
	// resolver is a fault.
	Hooks HookResolver

	// Stdout receives output of puts, print and p. Output is discarded when nil.
	Stdout io.Writer
}
