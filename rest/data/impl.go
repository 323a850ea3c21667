package data

import (
	"context"
	"sync"

	"github.com/discovery-tools/scout"
	"github.com/discovery-tools/scout/knowledge"
	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/pgsink"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// DBConnector is a struct that implements all of the methods which connect to
// the service layer of scout. These methods abstract the link between the
// service and the API layers, allowing for changes in the service architecture
// without forcing changes to the API.
type DBConnector struct {
	env scout.Environment

	mu    sync.Mutex
	store *knowledge.Store
	sink  *pgsink.Sink
}

func CreateDBConnector(env scout.Environment) Connector {
	return &DBConnector{
		env: env,
	}
}

// CreateDBConnectorWithStore uses the given card store instead of the
// configured one.
func CreateDBConnectorWithStore(env scout.Environment, store *knowledge.Store) Connector {
	return &DBConnector{
		env:   env,
		store: store,
	}
}

func (dbc *DBConnector) cardStore(ctx context.Context) (*knowledge.Store, error) {
	dbc.mu.Lock()
	defer dbc.mu.Unlock()

	if dbc.store != nil {
		return dbc.store, nil
	}

	store, err := knowledge.NewStore(ctx, dbc.env.GetConfig())
	if err != nil {
		return nil, errors.Wrap(err, "problem setting up card store")
	}
	dbc.store = store
	return store, nil
}

// addStat records activity for the periodic activity log. A full cache drops
// the stat.
func (dbc *DBConnector) addStat(cache string, stat scout.Stat) {
	grip.Debug(message.WrapError(dbc.env.AddStat(cache, stat), message.Fields{
		"message": "dropped activity stat",
		"cache":   cache,
		"user":    stat.User,
	}))
}

// eventSink opens the Postgres pool on first use and closes it with the
// environment.
func (dbc *DBConnector) eventSink() (*pgsink.Sink, error) {
	dbc.mu.Lock()
	defer dbc.mu.Unlock()

	if dbc.sink != nil {
		return dbc.sink, nil
	}

	sink, err := pgsink.Open(dbc.env.GetConfig().PostgresDSN)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	dbc.env.RegisterCloser("postgres-event-sink", func(_ context.Context) error {
		return sink.Close()
	})
	dbc.sink = sink
	return sink, nil
}

// MockConnector implements the Connector interface in memory. Collections
// are plain slices and maps so tests can seed and inspect them directly.
type MockConnector struct {
	Users         map[int]dbmodel.User
	Hypotheses    map[int]dbmodel.Hypothesis
	Scripts       map[int]dbmodel.Script
	VPPoints      []dbmodel.VPPoint
	ICPs          []dbmodel.ICP
	Verticals     []dbmodel.Vertical
	SubVerticals  []dbmodel.SubVertical
	TALs          map[int]dbmodel.TAL
	TALAccounts   []dbmodel.TALAccount
	Companies     []dbmodel.Company
	Calls         []dbmodel.Call
	WeeklyMetrics []dbmodel.WeeklyMetric
	Documents     []dbmodel.Document
	Cards         map[string]string
	Operations    map[string]dbmodel.OperationRun
	Events        []MockEvent

	// ImportResult and ReindexResult are what the admin operations
	// report. A nil ImportResult behaves like a missing export file.
	ImportResult  *dbmodel.ImportResult
	ReindexResult dbmodel.ReindexResult
	// Root is the directory documents are opened from.
	Root string
	// SinkError, when set, fails every debug insert.
	SinkError error

	lastID int
	mu     sync.Mutex
}

// MockEvent is a debug insert recorded by the mock.
type MockEvent struct {
	Table  string
	Record map[string]interface{}
}

// nextID hands out ids above everything seeded, shared across collections.
func (mc *MockConnector) nextID() int {
	if mc.lastID == 0 {
		ids := []int{}
		for id := range mc.Users {
			ids = append(ids, id)
		}
		for id := range mc.Hypotheses {
			ids = append(ids, id)
		}
		for _, t := range mc.TALs {
			ids = append(ids, t.ID)
		}
		for _, v := range mc.VPPoints {
			ids = append(ids, v.ID)
		}
		for _, v := range mc.ICPs {
			ids = append(ids, v.ID)
		}
		for _, v := range mc.Verticals {
			ids = append(ids, v.ID)
		}
		for _, v := range mc.SubVerticals {
			ids = append(ids, v.ID)
		}
		for _, v := range mc.TALAccounts {
			ids = append(ids, v.ID)
		}
		for _, v := range mc.Companies {
			ids = append(ids, v.ID)
		}
		for _, v := range mc.Calls {
			ids = append(ids, v.ID)
		}
		for _, v := range mc.Documents {
			ids = append(ids, v.ID)
		}
		for _, id := range ids {
			if id > mc.lastID {
				mc.lastID = id
			}
		}
	}
	mc.lastID++
	return mc.lastID
}

func logWarning(err error, msg string, fields message.Fields) {
	if fields == nil {
		fields = message.Fields{}
	}
	fields["message"] = msg
	grip.Warning(message.WrapError(err, fields))
}
