package di_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/resolvekit/callsite"
	"github.com/kbukum/resolvekit/compiler"
	"github.com/kbukum/resolvekit/config"
	"github.com/kbukum/resolvekit/di"
	rkerrors "github.com/kbukum/resolvekit/errors"
	"github.com/kbukum/resolvekit/logger"
	"github.com/kbukum/resolvekit/observability"
	"github.com/kbukum/resolvekit/scope"
)

type Clock interface{ Now() int }

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

func repoSite(built *atomic.Int32, opts ...callsite.Option) callsite.CallSite {
	clock := callsite.NewConstant(callsite.TypeOf[Clock](), fixedClock{at: 7})
	return callsite.MustConstructor(callsite.TypeOf[*Repo](), func(c Clock) *Repo {
		built.Add(1)
		return &Repo{clock: c}
	}, []callsite.CallSite{clock}, opts...)
}

func newContainer(t *testing.T, opts ...di.Option) *di.Container {
	t.Helper()
	c, err := di.NewContainer(append([]di.Option{di.WithLogger(logger.NewNop())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

var engines = []di.Engine{di.EngineCompiled, di.EngineInterpreted, di.EngineDynamic}

func TestEngineString(t *testing.T) {
	for _, e := range engines {
		parsed, err := di.ParseEngine(e.String())
		require.NoError(t, err)
		assert.Equal(t, e, parsed)
	}
	_, err := di.ParseEngine("jit")
	assert.Error(t, err)
	assert.Equal(t, "Engine(9)", di.Engine(9).String())
}

func TestResolve_ScopedIdentityAcrossEngines(t *testing.T) {
	for _, engine := range engines {
		t.Run(engine.String(), func(t *testing.T) {
			c := newContainer(t, di.WithEngine(engine), di.WithCompileAfter(1))
			var built atomic.Int32
			site := repoSite(&built, callsite.Lifetime(callsite.LocationScope))
			ctx := context.Background()

			a, b := c.CreateScope(), c.CreateScope()
			a1 := di.MustResolve[*Repo](ctx, c, site, a)
			c.Wait()
			a2 := di.MustResolve[*Repo](ctx, c, site, a)
			b1 := di.MustResolve[*Repo](ctx, c, site, b)

			assert.Same(t, a1, a2)
			assert.NotSame(t, a1, b1)
			assert.Equal(t, int32(2), built.Load())
		})
	}
}

func TestResolve_RootCachedSharedAcrossEngines(t *testing.T) {
	for _, engine := range engines {
		t.Run(engine.String(), func(t *testing.T) {
			c := newContainer(t, di.WithEngine(engine), di.WithCompileAfter(1))
			var built atomic.Int32
			site := repoSite(&built, callsite.Lifetime(callsite.LocationRoot))
			ctx := context.Background()

			first := di.MustResolve[*Repo](ctx, c, site, c.CreateScope())
			c.Wait()
			second := di.MustResolve[*Repo](ctx, c, site, c.CreateScope())
			fromRoot := di.MustResolve[*Repo](ctx, c, site, nil)

			assert.Same(t, first, second)
			assert.Same(t, first, fromRoot)
			assert.Equal(t, int32(1), built.Load())
		})
	}
}

func TestResolve_CompiledEngineCompilesOnFirstUse(t *testing.T) {
	c := newContainer(t, di.WithEngine(di.EngineCompiled))
	var built atomic.Int32
	site := repoSite(&built)

	assert.Equal(t, di.EngineInterpreted, c.Engine(site), "nothing realized yet")
	_, err := c.Resolve(context.Background(), site, c.CreateScope())
	require.NoError(t, err)
	assert.Equal(t, di.EngineCompiled, c.Engine(site))
}

func TestResolve_InterpretedEngineNeverCompiles(t *testing.T) {
	c := newContainer(t, di.WithEngine(di.EngineInterpreted))
	var built atomic.Int32
	site := repoSite(&built)

	for i := 0; i < 5; i++ {
		_, err := c.Resolve(context.Background(), site, c.CreateScope())
		require.NoError(t, err)
	}
	c.Wait()
	assert.Equal(t, di.EngineInterpreted, c.Engine(site))
	assert.Zero(t, c.Compiler().Compilations())
}

func TestResolve_DynamicEngineSwitchesAfterThreshold(t *testing.T) {
	c := newContainer(t, di.WithEngine(di.EngineDynamic), di.WithCompileAfter(3))
	var built atomic.Int32
	site := repoSite(&built)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.Resolve(ctx, site, c.CreateScope())
		require.NoError(t, err)
	}
	c.Wait()
	assert.Equal(t, di.EngineInterpreted, c.Engine(site), "below the threshold")

	_, err := c.Resolve(ctx, site, c.CreateScope())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return c.Engine(site) == di.EngineCompiled
	}, 2*time.Second, 5*time.Millisecond)

	v, err := c.Resolve(ctx, site, c.CreateScope())
	require.NoError(t, err)
	assert.Equal(t, 7, v.(*Repo).clock.Now())
	assert.Equal(t, int64(1), c.Compiler().Compilations())
}

func TestResolve_ConcurrentDynamicConstructsOncePerScope(t *testing.T) {
	c := newContainer(t, di.WithEngine(di.EngineDynamic), di.WithCompileAfter(4),
		di.WithLockMode(scope.LockKey))
	var built atomic.Int32
	site := repoSite(&built, callsite.Lifetime(callsite.LocationScope))
	s := c.CreateScope()

	results := make([]*Repo, 64)
	var g errgroup.Group
	for i := range results {
		i := i
		g.Go(func() (err error) {
			results[i], err = di.Resolve[*Repo](context.Background(), c, site, s)
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, int32(1), built.Load())
}

func TestResolve_PanicRecovered(t *testing.T) {
	for _, engine := range engines {
		t.Run(engine.String(), func(t *testing.T) {
			c := newContainer(t, di.WithEngine(engine))
			site := callsite.MustConstructor(callsite.TypeOf[*Repo](), func() *Repo {
				panic("constructor exploded")
			}, nil, callsite.Lifetime(callsite.LocationScope))
			s := c.CreateScope()

			_, err := c.Resolve(context.Background(), site, s)
			require.Error(t, err)
			assert.True(t, rkerrors.HasCode(err, rkerrors.ErrCodeResolutionPanic), "got %v", err)

			// the scope lock was released while unwinding
			ctx, release := s.Lock(context.Background(), site.Cache().Key)
			defer release()
			assert.True(t, s.Holds(ctx, site.Cache().Key))
		})
	}
}

func TestResolve_UserErrorVerbatim(t *testing.T) {
	boom := errors.New("boom")
	for _, engine := range engines {
		t.Run(engine.String(), func(t *testing.T) {
			c := newContainer(t, di.WithEngine(engine))
			site := callsite.NewFactory(callsite.TypeOf[Clock](), func(context.Context, *scope.Scope) (any, error) {
				return nil, boom
			})
			_, err := c.Resolve(context.Background(), site, c.CreateScope())
			assert.Same(t, boom, err)
		})
	}
}

func TestResolve_DisposedScope(t *testing.T) {
	c := newContainer(t)
	var built atomic.Int32
	s := c.CreateScope()
	require.NoError(t, s.Close())

	_, err := c.Resolve(context.Background(), repoSite(&built), s)
	assert.True(t, rkerrors.HasCode(err, rkerrors.ErrCodeScopeDisposed))
	assert.Zero(t, built.Load())
}

func TestResolve_Malformed(t *testing.T) {
	c := newContainer(t)
	_, err := c.Resolve(context.Background(), nil, nil)
	assert.True(t, rkerrors.HasCode(err, rkerrors.ErrCodeMalformedCallSite))
}

func TestTypedResolve(t *testing.T) {
	c := newContainer(t)
	ctx := context.Background()
	clock := callsite.NewConstant(callsite.TypeOf[Clock](), fixedClock{at: 3})

	got, err := di.Resolve[Clock](ctx, c, clock, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Now())

	_, err = di.Resolve[*Repo](ctx, c, clock, nil)
	assert.True(t, rkerrors.HasCode(err, rkerrors.ErrCodeTypeMismatch))

	_, ok := di.TryResolve[*Repo](ctx, c, clock, nil)
	assert.False(t, ok)
	v, ok := di.TryResolve[Clock](ctx, c, clock, nil)
	assert.True(t, ok)
	assert.Equal(t, 3, v.Now())

	assert.Panics(t, func() { di.MustResolve[*Repo](ctx, c, clock, nil) })

	nilSite := callsite.NewConstant(callsite.TypeOf[Clock](), nil)
	none, err := di.Resolve[Clock](ctx, c, nilSite, nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestClose_DisposesRootAndRejectsResolution(t *testing.T) {
	c, err := di.NewContainer(di.WithLogger(logger.NewNop()), di.WithEngine(di.EngineCompiled))
	require.NoError(t, err)
	var built atomic.Int32
	site := repoSite(&built, callsite.Lifetime(callsite.LocationRoot))

	repo := di.MustResolve[*Repo](context.Background(), c, site, c.CreateScope())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.Equal(t, int32(1), repo.closed.Load())
	_, err = c.Resolve(context.Background(), site, nil)
	assert.True(t, rkerrors.HasCode(err, rkerrors.ErrCodeScopeDisposed))
}

func TestNewContainer_WithConfig(t *testing.T) {
	c := newContainer(t, di.WithConfig(config.ResolverConfig{
		Engine:          config.EngineInterpreted,
		LockGranularity: config.LockKey,
	}))
	assert.Equal(t, scope.LockKey, c.Root().LockMode())

	var built atomic.Int32
	site := repoSite(&built)
	for i := 0; i < 3; i++ {
		_, err := c.Resolve(context.Background(), site, c.CreateScope())
		require.NoError(t, err)
	}
	assert.Equal(t, di.EngineInterpreted, c.Engine(site))

	_, err := di.NewContainer(di.WithConfig(config.ResolverConfig{Engine: "jit"}))
	assert.True(t, rkerrors.HasCode(err, rkerrors.ErrCodeInvalidConfig), "got %v", err)
}

func TestTelemetryAndMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	metrics, err := observability.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	var compiles atomic.Int32
	sink := compiler.TelemetryFunc(func(context.Context, string, int, time.Duration) { compiles.Add(1) })

	c := newContainer(t, di.WithEngine(di.EngineCompiled), di.WithMetrics(metrics),
		di.WithTelemetry(sink), di.WithTracerProvider(tp))
	var built atomic.Int32
	site := repoSite(&built, callsite.Lifetime(callsite.LocationScope))

	for i := 0; i < 3; i++ {
		_, err := c.Resolve(context.Background(), site, c.CreateScope())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), compiles.Load())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), totals["compile.total"])
	assert.Equal(t, int64(3), totals["resolve.total"])

	names := map[string]int{}
	for _, span := range recorder.Ended() {
		names[span.Name()]++
	}
	assert.Equal(t, 3, names[observability.SpanResolve])
	assert.Equal(t, 1, names[observability.SpanCompile])
}
