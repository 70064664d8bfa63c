// Package hooktable defines how entry points are redirected to the shims of
// this module.
package hooktable

import (
	"errors"

	"github.com/stealthrocket/iohook/internal/win32"
)

var (
	// ErrNotFound is returned by resolvers when a symbol is not exported.
	ErrNotFound = errors.New("hooktable: symbol not found")
	// ErrNotLoaded is returned by resolvers when the module is not mapped in
	// the process.
	ErrNotLoaded = errors.New("hooktable: module not loaded")
)

// Symbol describes one entry point to redirect.
//
// Symbols are matched by name, or by ordinal when Ordinal is not zero. Patch
// is the native address of the replacement. When Link is not nil and still
// zero, the installer stores the binding that was replaced, which is the
// genuine implementation the shim must eventually call.
type Symbol struct {
	Name    string
	Ordinal uint16
	Patch   uintptr
	Link    *uintptr
}

// Installer redirects the imports of the process.
type Installer interface {
	// Apply patches the imports of moduleName made by module, or by every
	// module loaded in the process when module is zero.
	Apply(module win32.Handle, moduleName string, syms []Symbol) error
}

// Resolver looks up the address of a symbol exported by a module already
// loaded in the process.
type Resolver interface {
	Resolve(module, name string) (uintptr, error)
}

// importers returns the modules whose imports are patched when every loaded
// module is targeted: all of them except self, the module hosting the
// replacements. Its own runtime calls the platform through the same entry
// points and must keep reaching the genuine implementations.
func importers(modules []win32.Handle, self win32.Handle) []win32.Handle {
	list := make([]win32.Handle, 0, len(modules))
	for _, m := range modules {
		if m != self {
			list = append(list, m)
		}
	}
	return list
}
