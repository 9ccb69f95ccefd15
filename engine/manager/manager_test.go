package manager

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stub struct{ t Type }

func (s *stub) Type() Type { return s.t }

func ctor(t Type) Constructor {
	return Constructor{
		Type: t,
		New:  func(Registry) (Manager, error) { return &stub{t: t}, nil },
	}
}

func TestResolveDeduplicatesByType(t *testing.T) {
	defaults := []Constructor{ctor("instance"), ctor("graphics"), ctor("time")}
	sceneA := []Constructor{ctor("audio"), ctor("time")}
	sceneB := []Constructor{ctor("graphics"), ctor("audio"), ctor("net")}

	got := Types(Resolve(defaults, sceneA, sceneB))
	assert.Equal(t, []Type{"instance", "graphics", "time", "audio", "net"}, got)
}

func TestConstructRegistersInOrder(t *testing.T) {
	r := NewRegistry(event.NewBus())
	var seenBeforeSecond bool
	second := Constructor{
		Type: "second",
		New: func(r Registry) (Manager, error) {
			_, seenBeforeSecond = r.Get("first")
			return &stub{t: "second"}, nil
		},
	}

	require.NoError(t, Construct(r, []Constructor{ctor("first"), second}))
	assert.True(t, seenBeforeSecond)
	require.Len(t, r.All(), 2)
	assert.Equal(t, Type("first"), r.All()[0].Type())

	s, ok := Lookup[*stub](r, "second")
	require.True(t, ok)
	assert.Equal(t, Type("second"), s.t)

	_, ok = Lookup[*stub](r, "missing")
	assert.False(t, ok)

	err := r.Add(&stub{t: "first"})
	assert.ErrorIs(t, err, ErrDuplicateManager)

	r.Clear()
	assert.Empty(t, r.All())
}

func TestConstructPropagatesFailure(t *testing.T) {
	r := NewRegistry(event.NewBus())
	boom := errors.New("boom")
	err := Construct(r, []Constructor{{
		Type: "bad",
		New:  func(Registry) (Manager, error) { return nil, boom },
	}})
	assert.ErrorIs(t, err, boom)
}

func TestInitAllRunsEveryInitializer(t *testing.T) {
	var calls atomic.Int32
	var ctors []Constructor
	for _, name := range []Type{"a", "b", "c", "d", "e"} {
		c := ctor(name)
		c.Init = func(context.Context) error {
			calls.Add(1)
			return nil
		}
		ctors = append(ctors, c)
	}
	ctors = append(ctors, ctor("no-init"))

	require.NoError(t, InitAll(context.Background(), ctors, 2))
	assert.Equal(t, int32(5), calls.Load())
}

func TestInitAllFailsFast(t *testing.T) {
	boom := errors.New("shader library unavailable")
	bad := ctor("bad")
	bad.Init = func(context.Context) error { return boom }
	good := ctor("good")
	good.Init = func(context.Context) error { return nil }

	err := InitAll(context.Background(), []Constructor{good, bad}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "bad")
}

func TestInitAllWithNothingToRun(t *testing.T) {
	assert.NoError(t, InitAll(context.Background(), []Constructor{ctor("x")}, 0))
}
