package scene

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-deferred/engine/clock"
	"github.com/Carmen-Shannon/oxy-deferred/engine/event"
	game_object "github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/manager"
	"github.com/Carmen-Shannon/oxy-deferred/engine/transform"
)

func TestRegistryBuild(t *testing.T) {
	var got string
	r := Registry{
		"menu": Define(func(_ context.Context, env *Env) error {
			got = env.Name()
			return nil
		}),
	}

	s, err := r.Build("menu")
	require.NoError(t, err)
	assert.Equal(t, "menu", s.Name())
	require.NoError(t, s.Setup(context.Background(), NewEnv("menu", nil, manager.NewRegistry(event.NewBus()), transform.NewPool())))
	assert.Equal(t, "menu", got)

	_, err = r.Build("level")
	assert.ErrorIs(t, err, ErrUnknownScene)
	assert.True(t, r.Has("menu"))
	assert.False(t, r.Has("level"))
}

func TestRegistryManagersInNameOrder(t *testing.T) {
	a := manager.Constructor{Type: "a"}
	b := manager.Constructor{Type: "b"}
	r := Registry{
		"zeta":  Define(nil, b),
		"alpha": Define(nil, a),
		"empty": Define(nil),
	}

	assert.Equal(t, []string{"alpha", "empty", "zeta"}, r.Names())
	sets := r.Managers()
	require.Len(t, sets, 3)
	assert.Equal(t, []manager.Constructor{a}, sets[0])
	assert.Empty(t, sets[1])
	assert.Equal(t, []manager.Type{"a", "b"}, manager.Types(manager.Resolve(sets...)))
	assert.Equal(t, []manager.Constructor{b}, r.ManagersOf("zeta"))
}

func TestNewSceneExitHook(t *testing.T) {
	exited := false
	s := NewScene("level", nil, WithExit(func() { exited = true }))
	require.NoError(t, s.Setup(context.Background(), nil))

	x, ok := s.(Exiter)
	require.True(t, ok)
	x.Exit()
	assert.True(t, exited)
}

func TestEnvAccessorsAndSpawn(t *testing.T) {
	bus := event.NewBus()
	reg := manager.NewRegistry(bus)
	require.NoError(t, manager.Construct(reg, []manager.Constructor{
		game_object.InstanceManagerConstructor(),
		clock.ClockConstructor(),
	}))
	pool := transform.NewPool()
	env := NewEnv("level", 42, reg, pool)

	assert.Equal(t, 42, env.Data())
	assert.Same(t, bus, env.Bus())
	assert.Same(t, pool, env.Transforms())
	require.NotNil(t, env.Instances())
	require.NotNil(t, env.Clock())
	assert.Nil(t, env.Input())
	assert.Nil(t, env.Physics())
	assert.Nil(t, env.Graphics())

	obj := env.Spawn(env.NewObject(game_object.WithName("crate")))
	assert.True(t, obj.Instantiated())
	assert.Equal(t, 1, env.Instances().PendingCount())
	assert.Equal(t, 1, pool.Live())
}
