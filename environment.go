package scout

import (
	"context"
	"sync"
	"time"

	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/queue"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/mongodb/grip/recovery"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var globalEnv *envState
var globalEnvLock sync.RWMutex

func init() { resetEnv() }

func resetEnv() {
	globalEnvLock.Lock()
	defer globalEnvLock.Unlock()
	globalEnv = &envState{name: "global", conf: &Configuration{}}
}

// GetEnvironment returns the global application level environment.
func GetEnvironment() Environment {
	globalEnvLock.RLock()
	defer globalEnvLock.RUnlock()

	return globalEnv
}

// SetEnvironment replaces the global environment. Intended for process start
// up and tests.
func SetEnvironment(env Environment) {
	globalEnvLock.Lock()
	defer globalEnvLock.Unlock()

	if e, ok := env.(*envState); ok {
		globalEnv = e
	}
}

// Environment objects provide access to shared configuration and state, in a
// way that you can isolate and test for.
type Environment interface {
	GetConfig() *Configuration

	// GetQueue retrieves the application's shared queue, which is cached
	// for easy access from within units or inside of requests or command
	// line operations.
	GetQueue() amboy.Queue
	// SetQueue configures the shared queue. It is an error to replace a
	// queue that is already set.
	SetQueue(amboy.Queue) error

	GetClient() *mongo.Client
	GetDB() *mongo.Database

	// AddStat records user activity in the named stats cache (see
	// StatsCacheCalls and StatsCacheTAL). It never blocks.
	AddStat(string, Stat) error

	// Context returns a context that is canceled when the environment
	// closes.
	Context() (context.Context, context.CancelFunc)

	// RegisterCloser adds a function that is called, one at a time and in
	// reverse order of registration, when the environment closes.
	RegisterCloser(string, func(context.Context) error)
	Close(context.Context) error
}

// NewEnvironment connects to the database and builds the local job queue
// described by conf. The queue is not started.
func NewEnvironment(ctx context.Context, name string, conf *Configuration) (Environment, error) {
	env := &envState{
		name: name,
		conf: conf,
	}

	if err := conf.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	var err error
	env.client, err = mongo.NewClient(options.Client().ApplyURI(conf.MongoDBURI).SetConnectTimeout(conf.MongoDBDialTimeout))
	if err != nil {
		return nil, errors.Wrap(err, "problem constructing mongodb client")
	}

	connctx, cancel := context.WithTimeout(ctx, conf.MongoDBDialTimeout)
	defer cancel()
	if err = env.client.Connect(connctx); err != nil {
		return nil, errors.Wrapf(err, "could not connect to db %s", conf.MongoDBURI)
	}
	env.RegisterCloser("mongodb-client", func(ctx context.Context) error {
		return errors.WithStack(env.client.Disconnect(ctx))
	})

	env.ctx, env.cancel = context.WithCancel(context.Background())
	env.statsCaches = newStatsCacheRegistry(env.ctx)

	env.queue = queue.NewLocalLimitedSize(conf.NumWorkers, 1024)
	env.RegisterCloser("local-queue", func(ctx context.Context) error {
		if !amboy.WaitInterval(ctx, env.queue, 100*time.Millisecond) {
			grip.Critical(message.Fields{
				"message": "pending jobs failed to finish",
				"queue":   "local",
				"status":  env.queue.Stats(ctx),
			})
			return errors.New("failed to stop with running jobs")
		}
		env.queue.Close(ctx)
		return nil
	})

	grip.Info(message.Fields{
		"message": "configured environment",
		"name":    name,
		"db":      conf.DatabaseName,
		"workers": conf.NumWorkers,
		"root":    conf.WorkingRoot,
		"storage": conf.Knowledge.Type,
	})

	return env, nil
}

type envState struct {
	name        string
	queue       amboy.Queue
	client      *mongo.Client
	conf        *Configuration
	statsCaches map[string]*statsCache
	ctx         context.Context
	cancel      context.CancelFunc
	closers     []closerOp
	mutex       sync.RWMutex
}

type closerOp struct {
	name   string
	closer func(context.Context) error
}

func (e *envState) GetConfig() *Configuration {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	if e.conf == nil {
		return nil
	}

	// copy the struct
	out := &Configuration{}
	*out = *e.conf

	return out
}

func (e *envState) GetQueue() amboy.Queue {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.queue
}

func (e *envState) SetQueue(q amboy.Queue) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.queue != nil {
		return errors.New("queue exists, cannot overwrite")
	}

	if q == nil {
		return errors.New("cannot set queue to nil")
	}

	e.queue = q
	grip.Noticef("caching a '%T' queue in the '%s' environment for use in tasks", q, e.name)
	return nil
}

func (e *envState) GetClient() *mongo.Client {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.client
}

func (e *envState) GetDB() *mongo.Database {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	if e.client == nil || e.conf == nil {
		return nil
	}

	return e.client.Database(e.conf.DatabaseName)
}

func (e *envState) AddStat(name string, stat Stat) error {
	e.mutex.RLock()
	cache, ok := e.statsCaches[name]
	e.mutex.RUnlock()

	if !ok {
		return errors.Errorf("stats cache '%s' does not exist", name)
	}
	return cache.AddStat(stat)
}

func (e *envState) Context() (context.Context, context.CancelFunc) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	if e.ctx == nil {
		return context.WithCancel(context.Background())
	}

	return context.WithCancel(e.ctx)
}

func (e *envState) RegisterCloser(name string, op func(context.Context) error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.closers = append(e.closers, closerOp{name: name, closer: op})
}

func (e *envState) Close(ctx context.Context) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.cancel != nil {
		e.cancel()
	}

	// the queue drains before the client it writes through disconnects
	catcher := grip.NewBasicCatcher()
	for i := len(e.closers) - 1; i >= 0; i-- {
		op := e.closers[i]
		func() {
			defer recovery.LogStackTraceAndContinue("closing registered resources")
			catcher.Wrapf(op.closer(ctx), "closing '%s'", op.name)
		}()
	}

	grip.Info(message.Fields{
		"message":     "closed environment",
		"name":        e.name,
		"errors":      catcher.HasErrors(),
		"num_closers": len(e.closers),
	})
	e.closers = nil

	return catcher.Resolve()
}
