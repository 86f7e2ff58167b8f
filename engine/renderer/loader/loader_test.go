package loader

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"unsafe"
)

var (
	createFence  byte
	destroyFence byte
	waitFences   byte
)

type lookup struct {
	procs   map[string]unsafe.Pointer
	handles []unsafe.Pointer
	calls   int
}

func newLookup() *lookup {
	return &lookup{procs: map[string]unsafe.Pointer{
		"vkCreateFence":   unsafe.Pointer(&createFence),
		"vkDestroyFence":  unsafe.Pointer(&destroyFence),
		"vkWaitForFences": unsafe.Pointer(&waitFences),
	}}
}

func (l *lookup) getProcAddr(handle unsafe.Pointer, name string) unsafe.Pointer {
	l.calls++
	l.handles = append(l.handles, handle)
	return l.procs[name]
}

func TestNewNilBootstrapPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected New(nil, ...) to panic")
		}
	}()
	New(nil, nil)
}

func TestResolvePresentName(t *testing.T) {
	lk := newLookup()
	l := New(lk.getProcAddr, nil)

	first := l.Resolve("vkCreateFence")
	second := l.Resolve("vkCreateFence")
	if first == nil {
		t.Fatal("Resolve returned nil for a present entry point")
	}
	if first != second {
		t.Errorf("repeated resolution differs: %p vs %p", first, second)
	}
	if first != unsafe.Pointer(&createFence) {
		t.Errorf("resolved the wrong pointer: %p", first)
	}
}

func TestResolvePassesHandle(t *testing.T) {
	lk := newLookup()
	var instance int
	l := New(lk.getProcAddr, nil).WithHandle(unsafe.Pointer(&instance))
	l.Resolve("vkDestroyFence")
	if got := lk.handles[len(lk.handles)-1]; got != unsafe.Pointer(&instance) {
		t.Errorf("expected the instance handle to be forwarded, got %p", got)
	}
}

func TestLookupMissingIsNotFatal(t *testing.T) {
	l := New(newLookup().getProcAddr, nil)
	if p := l.Lookup("glOptionalExtension"); p != nil {
		t.Errorf("expected nil for a missing optional entry point, got %p", p)
	}
}

func TestLoadBuildsFixedTable(t *testing.T) {
	lk := newLookup()
	l := New(lk.getProcAddr, nil)

	table := l.Load("vkWaitForFences", "vkCreateFence", "vkCreateFence")
	if table.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", table.Len())
	}
	if lk.calls != 2 {
		t.Errorf("expected each name to be resolved once, got %d calls", lk.calls)
	}
	if !table.Has("vkCreateFence") || table.Has("vkDestroyFence") {
		t.Errorf("unexpected table contents: %v", table.Names())
	}
	if table.Proc("vkWaitForFences") != unsafe.Pointer(&waitFences) {
		t.Error("table returned the wrong pointer")
	}
	if got := strings.Join(table.Names(), ","); got != "vkCreateFence,vkWaitForFences" {
		t.Errorf("Names: got %s", got)
	}

	// No re-resolution after load.
	before := lk.calls
	_ = table.Proc("vkCreateFence")
	if lk.calls != before {
		t.Error("Proc must not call the bootstrap")
	}
}

func TestTableMerge(t *testing.T) {
	l := New(newLookup().getProcAddr, nil)
	merged := l.Load("vkCreateFence").Merge(l.Load("vkDestroyFence"))
	if merged.Len() != 2 || !merged.Has("vkCreateFence") || !merged.Has("vkDestroyFence") {
		t.Errorf("unexpected merged table: %v", merged.Names())
	}
}

// The fatal path terminates the process, so it runs in a child test binary.
func TestResolveMissingIsFatal(t *testing.T) {
	if os.Getenv("VOXEL_LOADER_FATAL") == "1" {
		l := New(newLookup().getProcAddr, nil)
		l.Load("vkCreateFence", "vkMissingEntryPoint")
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestResolveMissingIsFatal$")
	cmd.Env = append(os.Environ(), "VOXEL_LOADER_FATAL=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected the child process to exit with an error, got %v", err)
	}
	if exitErr.ExitCode() == 0 {
		t.Fatal("expected a non-zero exit code")
	}
	if !strings.Contains(stderr.String(), "vkMissingEntryPoint") {
		t.Errorf("expected the missing name in the fatal message, got %q", stderr.String())
	}
}
