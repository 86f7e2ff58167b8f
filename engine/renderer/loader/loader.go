// Package loader resolves native graphics entry points at startup.
//
// A backend hands the loader a single bootstrap function (for example
// vkGetInstanceProcAddr or the windowing system's GL proc-address hook) and
// asks it to resolve every entry point it requires. The result is a fixed
// Table that is passed explicitly to the backend's constructors; nothing is
// re-resolved later. Missing required entry points are fatal.
package loader

import (
	"sort"
	"unsafe"

	"github.com/spaghettifunk/voxel/engine/core"
)

// ProcAddrFunc is the bootstrap resolver. handle scopes the lookup (an
// instance, a device, or nil for global entry points).
type ProcAddrFunc func(handle unsafe.Pointer, name string) unsafe.Pointer

type Loader struct {
	getProcAddr ProcAddrFunc
	handle      unsafe.Pointer
}

// New builds a loader bound to handle. A nil bootstrap is a programming error
// and panics immediately.
func New(getProcAddr ProcAddrFunc, handle unsafe.Pointer) *Loader {
	if getProcAddr == nil {
		panic("loader: bootstrap proc-address function is nil")
	}
	return &Loader{
		getProcAddr: getProcAddr,
		handle:      handle,
	}
}

// WithHandle returns a loader sharing the bootstrap but scoped to handle.
func (l *Loader) WithHandle(handle unsafe.Pointer) *Loader {
	return &Loader{
		getProcAddr: l.getProcAddr,
		handle:      handle,
	}
}

// Resolve returns the entry point called name. A required entry point that
// cannot be resolved leaves the backend unusable, so the process exits.
func (l *Loader) Resolve(name string) unsafe.Pointer {
	proc := l.getProcAddr(l.handle, name)
	if proc == nil {
		core.LogFatal("loader: failed to resolve required entry point '%s'", name)
	}
	return proc
}

// Lookup resolves name without failing. Only meant for optional entry
// points handed to third-party binders.
func (l *Loader) Lookup(name string) unsafe.Pointer {
	return l.getProcAddr(l.handle, name)
}

// Load resolves every name once and returns the immutable table.
func (l *Loader) Load(names ...string) *Table {
	t := &Table{procs: make(map[string]unsafe.Pointer, len(names))}
	for _, name := range names {
		if _, ok := t.procs[name]; ok {
			continue
		}
		t.procs[name] = l.Resolve(name)
	}
	core.LogDebug("loader: resolved %d entry points.", len(t.procs))
	return t
}

// Table is a fixed set of resolved entry points.
type Table struct {
	procs map[string]unsafe.Pointer
}

// Proc returns the resolved pointer for name, or nil when name was never
// loaded into this table.
func (t *Table) Proc(name string) unsafe.Pointer {
	return t.procs[name]
}

// Has reports whether name was loaded into this table.
func (t *Table) Has(name string) bool {
	_, ok := t.procs[name]
	return ok
}

func (t *Table) Len() int {
	return len(t.procs)
}

// Names returns the loaded entry point names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.procs))
	for name := range t.procs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new table holding the entries of both tables. Entries of
// other win on conflict.
func (t *Table) Merge(other *Table) *Table {
	merged := &Table{procs: make(map[string]unsafe.Pointer, t.Len()+other.Len())}
	for name, proc := range t.procs {
		merged.procs[name] = proc
	}
	for name, proc := range other.procs {
		merged.procs[name] = proc
	}
	return merged
}
