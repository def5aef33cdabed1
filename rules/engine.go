package rules

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/nimbusfs/core/cmn"
)

// DefaultTimeout bounds a single rule's evaluation; a rule that runs
// past it is interrupted, and like any other runtime failure the
// evaluation ends in cmn.ErrAccessDenied.
const DefaultTimeout = 200 * time.Millisecond

// programKey identifies one compiled rule revision.
type programKey struct {
	RuleID   cmn.ID
	Revision int64
}

// Engine compiles rule source into goja *Program once per (rule-id,
// revision) and evaluates it fresh — a new goja.Runtime per call — on
// every request (spec.md §9 "compile once per rule-revision, cache by
// (rule-id, revision)"; a bare *goja.Program is safe to share across
// runtimes, but goja.Runtime itself is not goroutine-safe, so each
// evaluation gets its own).
//
// Grounded on the r3e network service layer's goja-backed script
// engine (system/tee/script_engine.go, services/confcompute/marble's
// core.go): a per-call goja.Runtime, a console shim wired to a log
// sink instead of stdout, injected read-only globals, and a
// goroutine + context-deadline pair driving vm.Interrupt for bounded
// execution.
type Engine struct {
	mu       sync.Mutex
	programs map[programKey]*goja.Program
}

func NewEngine() *Engine {
	return &Engine{programs: make(map[programKey]*goja.Program)}
}

// compile returns the cached *goja.Program for (id, revision),
// compiling and caching it on first use. A compile error is returned as
// cmn.KindMalformedRule, matching spec.md §7's taxonomy.
func (e *Engine) compile(id cmn.ID, revision int64, source string) (*goja.Program, error) {
	key := programKey{RuleID: id, Revision: revision}

	e.mu.Lock()
	if p, ok := e.programs[key]; ok {
		e.mu.Unlock()
		return p, nil
	}
	e.mu.Unlock()

	prog, err := goja.Compile(fmt.Sprintf("rule:%s@%d", id, revision), "(function(){ return ("+source+"); })()", false)
	if err != nil {
		return nil, cmn.NewErrorf(cmn.KindMalformedRule, "rule %s revision %d failed to compile", id, revision)
	}

	e.mu.Lock()
	e.programs[key] = prog
	e.mu.Unlock()
	return prog, nil
}

// evalBool runs prog in a fresh runtime with globals injected from
// bind, bounded by DefaultTimeout (or ctx's deadline if sooner).
func (e *Engine) evalBool(ctx context.Context, id cmn.ID, revision int64, source string, bind func(vm *goja.Runtime)) (bool, error) {
	prog, err := e.compile(id, revision, source)
	if err != nil {
		return false, err
	}

	vm := goja.New()
	vm.SetMaxCallStackSize(64) // no recursion (spec.md §4.G "no recursion, no unbounded loops")
	bind(vm)

	timeout := DefaultTimeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < timeout {
			timeout = d
		}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-time.After(timeout):
			vm.Interrupt("rule evaluation timed out")
		case <-done:
		}
	}()

	v, err := vm.RunProgram(prog)
	if err != nil {
		// Runtime failure (including interrupt) never leaks rule
		// source to the caller — only a generic denial.
		return false, cmn.ErrAccessDenied
	}
	return v.ToBoolean(), nil
}

func (e *Engine) EvalRoot(ctx context.Context, id cmn.ID, revision int64, source string, in RootInput) (bool, error) {
	return e.evalBool(ctx, id, revision, source, func(vm *goja.Runtime) {
		_ = vm.Set("user_id", string(in.UserID))
		_ = vm.Set("permissions", toStringMap(in.Permissions))
		_ = vm.Set("attributes", in.Attributes)
		_ = vm.Set("method", in.Method)
		_ = vm.Set("headers", in.Headers)
	})
}

func (e *Engine) EvalObject(ctx context.Context, id cmn.ID, revision int64, source string, in ObjectInput) (bool, error) {
	return e.evalBool(ctx, id, revision, source, func(vm *goja.Runtime) {
		_ = vm.Set("user_id", string(in.UserID))
		_ = vm.Set("permissions", toStringMap(in.Permissions))
		_ = vm.Set("attributes", in.Attributes)
		_ = vm.Set("method", in.Method)
		_ = vm.Set("headers", in.Headers)
		_ = vm.Set("states", in.States)
		_ = vm.Set("add_kvs", in.Delta.Add)
		_ = vm.Set("remove_kvs", in.Delta.Remove)
	})
}

func (e *Engine) EvalPackage(ctx context.Context, id cmn.ID, revision int64, source string, in PackageInput) (bool, error) {
	return e.evalBool(ctx, id, revision, source, func(vm *goja.Runtime) {
		_ = vm.Set("object", in.Object)
		_ = vm.Set("ancestors", in.Ancestors)
		_ = vm.Set("method", in.Method)
		_ = vm.Set("headers", in.Headers)
	})
}

func (e *Engine) EvalBundle(ctx context.Context, id cmn.ID, revision int64, source string, in BundleInput) (bool, error) {
	return e.evalBool(ctx, id, revision, source, func(vm *goja.Runtime) {
		_ = vm.Set("bundle", in.Bundle)
		_ = vm.Set("method", in.Method)
		_ = vm.Set("headers", in.Headers)
	})
}

func toStringMap(perms map[cmn.ID]cmn.PermLevel) map[string]string {
	out := make(map[string]string, len(perms))
	for id, lvl := range perms {
		out[string(id)] = lvl.String()
	}
	return out
}
