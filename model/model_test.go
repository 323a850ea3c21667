package model

import (
	"context"
	"testing"
	"time"

	"github.com/discovery-tools/scout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDBName = "scout_model_test"

func newTestEnv(ctx context.Context, t *testing.T) scout.Environment {
	env, err := scout.NewEnvironment(ctx, testDBName, &scout.Configuration{
		MongoDBURI:   "mongodb://localhost:27017",
		DatabaseName: testDBName,
		NumWorkers:   2,
	})
	require.NoError(t, err)
	require.NoError(t, env.GetDB().Drop(ctx))
	return env
}

func tearDownEnv(ctx context.Context, t *testing.T, env scout.Environment) {
	assert.NoError(t, env.GetDB().Drop(ctx))
	assert.NoError(t, env.Close(ctx))
}

type commonModel interface {
	Setup(e scout.Environment)
	IsNil() bool
	Find(context.Context) error
	SaveNew(context.Context) error
}

type commonModelFactory func() commonModel

func TestModelInterface(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := newTestEnv(ctx, t)
	defer tearDownEnv(ctx, t, env)

	models := map[string]commonModelFactory{
		"User":       func() commonModel { return &User{} },
		"Hypothesis": func() commonModel { return &Hypothesis{} },
	}

	for name, factory := range models {
		t.Run(name, func(t *testing.T) {
			t.Run("NilCheckIsCorrect", func(t *testing.T) {
				assert.True(t, factory().IsNil())
			})
			t.Run("FindErrorsWithoutEnv", func(t *testing.T) {
				err := factory().Find(ctx)
				require.Error(t, err)
				assert.Contains(t, err.Error(), "nil environment")
			})
			t.Run("SaveErrorsWhenUnpopulated", func(t *testing.T) {
				m := factory()
				m.Setup(env)
				err := m.SaveNew(ctx)
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unpopulated")
			})
			t.Run("FindErrorsWithNoResults", func(t *testing.T) {
				m := factory()
				m.Setup(env)
				err := m.Find(ctx)
				require.Error(t, err)
				assert.Contains(t, err.Error(), "could not find")
				assert.True(t, m.IsNil())
			})
		})
	}
}

func TestNextIDs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := newTestEnv(ctx, t)
	defer tearDownEnv(ctx, t, env)

	first, err := nextID(ctx, env, "things")
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	first, err = nextIDs(ctx, env, "things", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, first)

	first, err = nextID(ctx, env, "things")
	require.NoError(t, err)
	assert.Equal(t, 12, first)

	first, err = nextID(ctx, env, "others")
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	_, err = nextIDs(ctx, env, "things", 0)
	assert.Error(t, err)
	_, err = nextID(ctx, nil, "things")
	assert.Error(t, err)
}

func TestEnsureIndexes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	env := newTestEnv(ctx, t)
	defer tearDownEnv(ctx, t, env)

	require.NoError(t, EnsureIndexes(ctx, env))
	// running twice is harmless
	require.NoError(t, EnsureIndexes(ctx, env))

	assert.Error(t, EnsureIndexes(ctx, nil))
}
