package hooktable

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/stealthrocket/iohook/internal/win32"
)

// IAT is the Installer patching the import address tables of the modules
// loaded in the current process.
type IAT struct {
	Logger *slog.Logger
}

const (
	imageDirectoryEntryImport = 1
	ptrSize                   = unsafe.Sizeof(uintptr(0))
	ordinalFlag               = uintptr(1) << (8*ptrSize - 1)
)

func (iat IAT) Apply(module win32.Handle, moduleName string, syms []Symbol) error {
	logger := iat.Logger
	if logger == nil {
		logger = slog.Default()
	}
	modules := []win32.Handle{module}
	if module == 0 {
		loaded, err := loadedModules()
		if err != nil {
			return err
		}
		self, err := hostModule()
		if err != nil {
			return err
		}
		modules = importers(loaded, self)
	}
	for _, base := range modules {
		n, err := patchModule(uintptr(base), moduleName, syms)
		if err != nil {
			return fmt.Errorf("patching imports of module %#x: %w", uintptr(base), err)
		}
		if n > 0 {
			logger.Debug("hooktable: patched imports", "module", moduleName, "importer", uintptr(base), "count", n)
		}
	}
	return nil
}

// hostModule returns the module containing this code, which is also where
// the native replacements live.
func hostModule() (win32.Handle, error) {
	const flags = windows.GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS |
		windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT
	addr := reflect.ValueOf(hostModule).Pointer()
	var h windows.Handle
	if err := windows.GetModuleHandleEx(flags, (*uint16)(unsafe.Pointer(addr)), &h); err != nil {
		return 0, fmt.Errorf("GetModuleHandleEx: %w", err)
	}
	return win32.Handle(h), nil
}

func loadedModules() ([]win32.Handle, error) {
	process := windows.CurrentProcess()
	modules := make([]windows.Handle, 256)
	for {
		var needed uint32
		size := uint32(len(modules)) * uint32(unsafe.Sizeof(modules[0]))
		if err := windows.EnumProcessModules(process, &modules[0], size, &needed); err != nil {
			return nil, fmt.Errorf("EnumProcessModules: %w", err)
		}
		if needed <= size {
			modules = modules[:needed/uint32(unsafe.Sizeof(modules[0]))]
			handles := make([]win32.Handle, len(modules))
			for i, m := range modules {
				handles[i] = win32.Handle(m)
			}
			return handles, nil
		}
		modules = make([]windows.Handle, needed/uint32(unsafe.Sizeof(modules[0])))
	}
}

func at[T any](base, offset uintptr) *T {
	return (*T)(unsafe.Pointer(base + offset))
}

func cstring(p uintptr) string {
	n := 0
	for *at[byte](p, uintptr(n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}

// importDirectory returns the RVA of the import descriptors of the image
// mapped at base.
func importDirectory(base uintptr) (uint32, error) {
	if *at[uint16](base, 0) != 0x5a4d { // MZ
		return 0, fmt.Errorf("missing DOS header")
	}
	nt := base + uintptr(*at[uint32](base, 0x3c))
	if *at[uint32](nt, 0) != 0x4550 { // PE\0\0
		return 0, fmt.Errorf("missing NT headers")
	}
	opt := nt + 24
	var dirs uintptr
	switch magic := *at[uint16](opt, 0); magic {
	case 0x10b:
		dirs = opt + 96
	case 0x20b:
		dirs = opt + 112
	default:
		return 0, fmt.Errorf("unknown optional header magic %#x", magic)
	}
	return *at[uint32](dirs, 8*imageDirectoryEntryImport), nil
}

func patchModule(base uintptr, moduleName string, syms []Symbol) (int, error) {
	rva, err := importDirectory(base)
	if err != nil || rva == 0 {
		return 0, err
	}
	patched := 0
	for desc := base + uintptr(rva); ; desc += 20 {
		nameRVA := *at[uint32](desc, 12)
		if nameRVA == 0 {
			break
		}
		if !strings.EqualFold(cstring(base+uintptr(nameRVA)), moduleName) {
			continue
		}
		lookupRVA := *at[uint32](desc, 0)
		thunkRVA := *at[uint32](desc, 16)
		if lookupRVA == 0 {
			lookupRVA = thunkRVA
		}
		for i := uintptr(0); ; i++ {
			lookup := *at[uintptr](base+uintptr(lookupRVA), i*ptrSize)
			if lookup == 0 {
				break
			}
			sym := matchSymbol(base, lookup, syms)
			if sym == nil {
				continue
			}
			slot := at[uintptr](base+uintptr(thunkRVA), i*ptrSize)
			if err := patchSlot(slot, sym); err != nil {
				return patched, fmt.Errorf("%s: %w", sym.Name, err)
			}
			patched++
		}
	}
	return patched, nil
}

func matchSymbol(base, lookup uintptr, syms []Symbol) *Symbol {
	if lookup&ordinalFlag != 0 {
		ordinal := uint16(lookup)
		for i := range syms {
			if syms[i].Ordinal != 0 && syms[i].Ordinal == ordinal {
				return &syms[i]
			}
		}
		return nil
	}
	// IMAGE_IMPORT_BY_NAME: a 16 bits hint followed by the name.
	name := cstring(base + uintptr(uint32(lookup)) + 2)
	for i := range syms {
		if syms[i].Name == name {
			return &syms[i]
		}
	}
	return nil
}

func patchSlot(slot *uintptr, sym *Symbol) error {
	if *slot == sym.Patch {
		return nil
	}
	addr := uintptr(unsafe.Pointer(slot))
	var old uint32
	if err := windows.VirtualProtect(addr, ptrSize, windows.PAGE_READWRITE, &old); err != nil {
		return fmt.Errorf("VirtualProtect: %w", err)
	}
	if sym.Link != nil && *sym.Link == 0 {
		*sym.Link = *slot
	}
	*slot = sym.Patch
	return windows.VirtualProtect(addr, ptrSize, old, &old)
}

// Procs is the Resolver looking up exports of the modules of the process.
type Procs struct{}

func (Procs) Resolve(module, name string) (uintptr, error) {
	moduleName, err := windows.UTF16PtrFromString(module)
	if err != nil {
		return 0, err
	}
	var h windows.Handle
	const unchanged = windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT
	if err := windows.GetModuleHandleEx(unchanged, moduleName, &h); err != nil {
		return 0, fmt.Errorf("%s: %w", module, ErrNotLoaded)
	}
	addr, err := windows.GetProcAddress(h, name)
	if err != nil {
		return 0, fmt.Errorf("%s!%s: %w", module, name, ErrNotFound)
	}
	return addr, nil
}
