package callsite_test

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/resolvekit/callsite"
	rkerrors "github.com/kbukum/resolvekit/errors"
	"github.com/kbukum/resolvekit/scope"
)

type Clock interface{ Now() int }

type fixedClock struct{ at int }

func (c fixedClock) Now() int { return c.at }

type Repo struct{ clock Clock }

func (*Repo) Close() error { return nil }

func NewRepo(c Clock) *Repo { return &Repo{clock: c} }

type Settings struct{ Name string }

func NewSettings() (Settings, error) { return Settings{Name: "x"}, nil }

func TestTypeOf(t *testing.T) {
	assert.Equal(t, reflect.Interface, callsite.TypeOf[Clock]().Kind())
	assert.Equal(t, reflect.TypeOf(&Repo{}), callsite.TypeOf[*Repo]())
}

func TestNewConstant_Defaults(t *testing.T) {
	c := callsite.NewConstant(callsite.TypeOf[Clock](), fixedClock{at: 1})

	assert.Equal(t, callsite.KindConstant, c.Kind())
	assert.Equal(t, callsite.TypeOf[fixedClock](), c.ImplementationType())
	assert.Equal(t, callsite.LocationNone, c.Cache().Location)
	assert.False(t, c.CaptureDisposal())
	require.NoError(t, callsite.Check(c))
}

func TestOptions_LifetimeAndSlot(t *testing.T) {
	c := callsite.NewConstant(callsite.TypeOf[int](), 7,
		callsite.Lifetime(callsite.LocationScope), callsite.Slot(2))

	assert.Equal(t, callsite.LocationScope, c.Cache().Location)
	assert.Equal(t, scope.NewKey(callsite.TypeOf[int](), 2), c.Cache().Key)
}

func TestNewConstructor_DisposalFlag(t *testing.T) {
	clock := callsite.NewConstant(callsite.TypeOf[Clock](), fixedClock{})

	repo, err := callsite.NewConstructor(callsite.TypeOf[*Repo](), NewRepo, []callsite.CallSite{clock})
	require.NoError(t, err)
	assert.True(t, repo.CaptureDisposal(), "*Repo implements Close")
	assert.False(t, repo.ReturnsError())

	settings, err := callsite.NewConstructor(callsite.TypeOf[Settings](), NewSettings, nil)
	require.NoError(t, err)
	assert.False(t, settings.CaptureDisposal())
	assert.True(t, settings.ReturnsError())

	forced := callsite.MustConstructor(callsite.TypeOf[*Repo](), NewRepo,
		[]callsite.CallSite{clock}, callsite.Disposal(false))
	assert.False(t, forced.CaptureDisposal())
}

func TestNewConstructor_Rejects(t *testing.T) {
	tests := []struct {
		name string
		fn   any
		args []callsite.CallSite
		code rkerrors.ErrorCode
	}{
		{"not a function", 42, nil, rkerrors.ErrCodeMalformedCallSite},
		{"arity mismatch", NewRepo, nil, rkerrors.ErrCodeMalformedCallSite},
		{"bad second result", func() (Settings, int) { return Settings{}, 0 }, nil, rkerrors.ErrCodeMalformedCallSite},
		{"no result", func() {}, nil, rkerrors.ErrCodeMalformedCallSite},
		{"variadic", func(...int) Settings { return Settings{} }, nil, rkerrors.ErrCodeMalformedCallSite},
		{"wrong result type", func() int { return 1 }, nil, rkerrors.ErrCodeTypeMismatch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := callsite.NewConstructor(callsite.TypeOf[Settings](), tc.fn, tc.args)
			require.Error(t, err)
			assert.True(t, rkerrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestMustConstructor_Panics(t *testing.T) {
	assert.Panics(t, func() {
		callsite.MustConstructor(callsite.TypeOf[Settings](), "nope", nil)
	})
}

func TestNewEnumerable(t *testing.T) {
	items := []callsite.CallSite{
		callsite.NewConstant(callsite.TypeOf[Clock](), fixedClock{at: 1}),
		callsite.NewConstant(callsite.TypeOf[Clock](), fixedClock{at: 2}),
	}
	e := callsite.NewEnumerable(callsite.TypeOf[Clock](), items)

	assert.Equal(t, reflect.TypeOf([]Clock{}), e.ServiceType())
	assert.Len(t, e.Items, 2)
	require.NoError(t, callsite.Check(e))
}

func TestNewFactoryAndSelf(t *testing.T) {
	f := callsite.NewFactory(callsite.TypeOf[io.Closer](), func(context.Context, *scope.Scope) (any, error) {
		return nil, nil
	})
	assert.True(t, f.CaptureDisposal())
	require.NoError(t, callsite.Check(f))

	self := callsite.NewSelf(scope.Type)
	assert.Equal(t, scope.Type, self.ImplementationType())
	require.NoError(t, callsite.Check(self))
}

type strangeNode struct{ callsite.Base }

func (strangeNode) Kind() callsite.Kind { return callsite.Kind(99) }

func TestCheck_Malformed(t *testing.T) {
	var nilCtor *callsite.Constructor
	tests := []struct {
		name string
		site callsite.CallSite
		code rkerrors.ErrorCode
	}{
		{"nil interface", nil, rkerrors.ErrCodeMalformedCallSite},
		{"typed nil", nilCtor, rkerrors.ErrCodeMalformedCallSite},
		{"missing service type", &callsite.Constant{Value: 1}, rkerrors.ErrCodeMalformedCallSite},
		{"constant type mismatch", callsite.NewConstant(callsite.TypeOf[string](), 1), rkerrors.ErrCodeTypeMismatch},
		{"factory without func", callsite.NewFactory(callsite.TypeOf[int](), nil), rkerrors.ErrCodeMalformedCallSite},
		{"self not satisfied", callsite.NewSelf(callsite.TypeOf[Clock]()), rkerrors.ErrCodeTypeMismatch},
		{"enumerable nil item", callsite.NewEnumerable(callsite.TypeOf[int](), []callsite.CallSite{nil}), rkerrors.ErrCodeMalformedCallSite},
		{"constructor arity", &callsite.Constructor{
			Base: callsite.Base{Service: callsite.TypeOf[*Repo]()},
			Func: reflect.ValueOf(NewRepo),
		}, rkerrors.ErrCodeMalformedCallSite},
		{"scope cached without key", &callsite.Constant{
			Base:  callsite.Base{Service: callsite.TypeOf[int](), Result: callsite.ResultCache{Location: callsite.LocationScope}},
			Value: 1,
		}, rkerrors.ErrCodeMalformedCallSite},
		{"unknown node", strangeNode{Base: callsite.Base{Service: callsite.TypeOf[int]()}}, rkerrors.ErrCodeMalformedCallSite},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := callsite.Check(tc.site)
			require.Error(t, err)
			var appErr *rkerrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tc.code, appErr.Code)
		})
	}
}

func TestEmptySequence_Shared(t *testing.T) {
	a := callsite.EmptySequence(callsite.TypeOf[Clock]())
	b := callsite.EmptySequence(callsite.TypeOf[Clock]())

	require.IsType(t, []Clock{}, a)
	assert.Empty(t, a)
	assert.Equal(t, reflect.ValueOf(a).Pointer(), reflect.ValueOf(b).Pointer())
	assert.IsType(t, []int{}, callsite.EmptySequence(callsite.TypeOf[int]()))
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "scope", callsite.LocationScope.String())
	assert.Equal(t, "constructor", callsite.KindConstructor.String())
	assert.Equal(t, "Kind(99)", callsite.Kind(99).String())
}
