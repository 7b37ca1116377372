package compiler_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/kbukum/resolvekit/callsite"
	"github.com/kbukum/resolvekit/scope"
)

func benchTree() callsite.CallSite {
	var built atomic.Int32
	count := callsite.NewFactory(callsite.TypeOf[int](), func(context.Context, *scope.Scope) (any, error) {
		return 3, nil
	})
	report := callsite.MustConstructor(callsite.TypeOf[*Report](), NewReport, []callsite.CallSite{count, clockSite()})
	return callsite.MustConstructor(callsite.TypeOf[[2]any](),
		func(r *Report, repo *Repo) [2]any { return [2]any{r, repo} },
		[]callsite.CallSite{report, repoSite(&built, callsite.Lifetime(callsite.LocationScope))})
}

func BenchmarkResolve_Compiled(b *testing.B) {
	h := newHarness()
	resolver, err := h.comp.Compile(context.Background(), benchTree())
	if err != nil {
		b.Fatal(err)
	}
	s := h.root.NewChild()
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := resolver.Invoke(ctx, s); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkResolve_Interpreted(b *testing.B) {
	h := newHarness()
	site := benchTree()
	s := h.root.NewChild()
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := h.interp.Resolve(ctx, site, s); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompile(b *testing.B) {
	site := benchTree()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h := newHarness()
		if _, err := h.comp.Compile(context.Background(), site); err != nil {
			b.Fatal(err)
		}
	}
}
