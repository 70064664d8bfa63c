package hooktable

import (
	"fmt"
	"sync"

	"github.com/stealthrocket/iohook/internal/win32"
)

// Table is an in-memory model of one module's exports and of the import
// bindings other modules hold on them. It implements both Installer and
// Resolver, which lets the setup path run on hosts where no import table
// exists.
type Table struct {
	mutex    sync.Mutex
	exports  map[string]map[string]uintptr
	ordinals map[string]map[uint16]string
	imports  map[string]map[string]uintptr
}

// Export declares that module exports name at addr. The symbol is imported
// by the process until Omit is called.
func (t *Table) Export(module, name string, ordinal uint16, addr uintptr) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.exports == nil {
		t.exports = make(map[string]map[string]uintptr)
		t.ordinals = make(map[string]map[uint16]string)
		t.imports = make(map[string]map[string]uintptr)
	}
	if t.exports[module] == nil {
		t.exports[module] = make(map[string]uintptr)
		t.ordinals[module] = make(map[uint16]string)
		t.imports[module] = make(map[string]uintptr)
	}
	t.exports[module][name] = addr
	t.imports[module][name] = addr
	if ordinal != 0 {
		t.ordinals[module][ordinal] = name
	}
}

// Omit removes the import of name, as if no loaded module referenced it.
func (t *Table) Omit(module, name string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	delete(t.imports[module], name)
}

// Binding returns the address the process currently calls for name.
func (t *Table) Binding(module, name string) uintptr {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.imports[module][name]
}

func (t *Table) Apply(module win32.Handle, moduleName string, syms []Symbol) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	imports, ok := t.imports[moduleName]
	if !ok {
		return nil
	}
	for i := range syms {
		sym := &syms[i]
		name := sym.Name
		if sym.Ordinal != 0 {
			if n, ok := t.ordinals[moduleName][sym.Ordinal]; ok {
				name = n
			}
		}
		addr, ok := imports[name]
		if !ok {
			continue
		}
		if sym.Link != nil && *sym.Link == 0 {
			*sym.Link = addr
		}
		imports[name] = sym.Patch
	}
	return nil
}

func (t *Table) Resolve(module, name string) (uintptr, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	exports, ok := t.exports[module]
	if !ok {
		return 0, fmt.Errorf("%s: %w", module, ErrNotLoaded)
	}
	addr, ok := exports[name]
	if !ok {
		return 0, fmt.Errorf("%s!%s: %w", module, name, ErrNotFound)
	}
	return addr, nil
}
