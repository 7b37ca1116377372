package compiler_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kbukum/resolvekit/callsite"
	"github.com/kbukum/resolvekit/compiler"
	"github.com/kbukum/resolvekit/interpreter"
	"github.com/kbukum/resolvekit/logger"
	"github.com/kbukum/resolvekit/scope"
)

type Clock interface{ Now() int }

type systemClock struct{}

func (systemClock) Now() int { return 1 }

type fixedClock struct{ at int }

func (c fixedClock) Now() int { return c.at }

type Repo struct {
	clock  Clock
	closed atomic.Int32
}

func (r *Repo) Close() error {
	r.closed.Add(1)
	return nil
}

type Report struct {
	Count int
	Clock Clock
}

func NewReport(count int, clock Clock) *Report { return &Report{Count: count, Clock: clock} }

type Identified interface{ ID() string }

// trail records construction order across goroutines.
type trail struct {
	mu    sync.Mutex
	steps []string
}

func (t *trail) add(step string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, step)
}

func (t *trail) get() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.steps...)
}

type harness struct {
	root   *scope.Scope
	interp *interpreter.Interpreter
	comp   *compiler.Compiler
}

func newHarness(opts ...compiler.Option) *harness {
	return newHarnessWithScope(scope.NewRoot(scope.WithLogger(logger.NewNop())), opts...)
}

func newHarnessWithScope(root *scope.Scope, opts ...compiler.Option) *harness {
	interp := interpreter.New(interpreter.WithLogger(logger.NewNop()))
	opts = append([]compiler.Option{compiler.WithLogger(logger.NewNop())}, opts...)
	return &harness{root: root, interp: interp, comp: compiler.New(root, interp, opts...)}
}

func clockSite() callsite.CallSite {
	return callsite.NewConstant(callsite.TypeOf[Clock](), fixedClock{at: 7})
}

func repoSite(built *atomic.Int32, opts ...callsite.Option) callsite.CallSite {
	return callsite.MustConstructor(callsite.TypeOf[*Repo](), func(c Clock) *Repo {
		built.Add(1)
		return &Repo{clock: c}
	}, []callsite.CallSite{clockSite()}, opts...)
}

func factorySite(step string, tr *trail) callsite.CallSite {
	return callsite.NewFactory(callsite.TypeOf[Clock](), func(context.Context, *scope.Scope) (any, error) {
		tr.add(step)
		return fixedClock{at: len(tr.get())}, nil
	}, callsite.Disposal(false))
}
