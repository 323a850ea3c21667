package operations

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/discovery-tools/scout"
	"github.com/discovery-tools/scout/util"
	"github.com/joho/godotenv"
	"github.com/mongodb/amboy"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

const jobPollInterval = 100 * time.Millisecond

// loadConfig assembles the configuration for a command. Later sources win:
// the YAML file named by --conf, then the .env file in the working root,
// then flags and their environment variables.
func loadConfig(c *cli.Context) (*scout.Configuration, error) {
	conf := &scout.Configuration{}
	if fn := c.String(confFlag); fn != "" {
		if err := util.ReadFileYAML(fn, conf); err != nil {
			return nil, errors.Wrapf(err, "problem reading configuration file '%s'", fn)
		}
	}

	setString(c, rootFlag, &conf.WorkingRoot)
	if err := applyDotEnv(conf, filepath.Join(conf.WorkingRoot, ".env")); err != nil {
		return nil, errors.WithStack(err)
	}
	applyFlags(c, conf)

	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "problem setting up config")
	}
	return conf, nil
}

func setString(c *cli.Context, name string, dst *string) {
	if c.IsSet(name) || *dst == "" {
		*dst = c.String(name)
	}
}

func setInt(c *cli.Context, name string, dst *int) {
	if c.IsSet(name) || *dst == 0 {
		*dst = c.Int(name)
	}
}

// applyFlags copies flags onto the configuration. Flags the command does not
// define read as zero values and only fill fields that are still empty.
func applyFlags(c *cli.Context, conf *scout.Configuration) {
	setInt(c, numWorkersFlag, &conf.NumWorkers)
	setString(c, dbURIFlag, &conf.MongoDBURI)
	setString(c, dbNameFlag, &conf.DatabaseName)

	setString(c, hostFlag, &conf.Host)
	setInt(c, portFlag, &conf.Port)
	setString(c, secretFlag, &conf.SecretKey)
	if origins := c.StringSlice(corsOriginsFlag); len(origins) > 0 {
		conf.CORSOrigins = origins
	}
	if c.IsSet(disableJobsFlag) {
		conf.DisableBackgroundJobs = c.Bool(disableJobsFlag)
	}

	setString(c, githubTokenFlag, &conf.GitHub.Token)
	setString(c, githubRepoFlag, &conf.GitHub.Repo)
	setString(c, githubBranchFlag, &conf.GitHub.Branch)
	setString(c, postgresDSNFlag, &conf.PostgresDSN)
}

// dotEnvKeys maps the variables recognized in a .env file to the
// configuration fields they set.
var dotEnvKeys = map[string]func(*scout.Configuration, string) error{
	"SCOUT_MONGODB_URL":   func(c *scout.Configuration, v string) error { c.MongoDBURI = v; return nil },
	"SCOUT_DATABASE_NAME": func(c *scout.Configuration, v string) error { c.DatabaseName = v; return nil },
	"SCOUT_HOST":          func(c *scout.Configuration, v string) error { c.Host = v; return nil },
	"SCOUT_PORT": func(c *scout.Configuration, v string) error {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid port '%s'", v)
		}
		c.Port = port
		return nil
	},
	"SCOUT_SECRET_KEY":    func(c *scout.Configuration, v string) error { c.SecretKey = v; return nil },
	"PRODUCT_SECRET_KEY":  func(c *scout.Configuration, v string) error { c.SecretKey = v; return nil },
	"GITHUB_TOKEN":        func(c *scout.Configuration, v string) error { c.GitHub.Token = v; return nil },
	"GITHUB_REPO":         func(c *scout.Configuration, v string) error { c.GitHub.Repo = v; return nil },
	"GITHUB_BRANCH":       func(c *scout.Configuration, v string) error { c.GitHub.Branch = v; return nil },
	"SUPABASE_DB_URL":     func(c *scout.Configuration, v string) error { c.PostgresDSN = v; return nil },
	"SCOUT_POSTGRES_DSN":  func(c *scout.Configuration, v string) error { c.PostgresDSN = v; return nil },
	"SCOUT_COMPANIES_CSV": func(c *scout.Configuration, v string) error { c.CompaniesCSV = v; return nil },
}

// applyDotEnv reads the .env file at path, when it exists, onto conf.
// Variables already present in the process environment are left to the
// flags that read them.
func applyDotEnv(conf *scout.Configuration, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	vals, err := godotenv.Read(path)
	if err != nil {
		return errors.Wrapf(err, "problem reading '%s'", path)
	}

	catcher := grip.NewBasicCatcher()
	applied := []string{}
	for key, val := range vals {
		set, ok := dotEnvKeys[key]
		if !ok || strings.TrimSpace(val) == "" {
			continue
		}
		if _, inProcess := os.LookupEnv(key); inProcess {
			continue
		}
		catcher.Wrapf(set(conf, strings.TrimSpace(val)), "setting '%s' from '%s'", key, path)
		applied = append(applied, key)
	}

	grip.Debug(message.Fields{
		"message": "loaded .env file",
		"path":    path,
		"keys":    applied,
	})
	return catcher.Resolve()
}

// setupEnvironment builds the environment and installs it as the global
// environment used by jobs.
func setupEnvironment(ctx context.Context, name string, conf *scout.Configuration) (scout.Environment, error) {
	env, err := scout.NewEnvironment(ctx, name, conf)
	if err != nil {
		return nil, errors.Wrap(err, "problem configuring environment")
	}
	scout.SetEnvironment(env)
	return env, nil
}

// withEnvironment runs op against a freshly configured environment and
// closes the environment afterwards.
func withEnvironment(c *cli.Context, name string, op func(context.Context, scout.Environment) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conf, err := loadConfig(c)
	if err != nil {
		return errors.WithStack(err)
	}

	env, err := setupEnvironment(ctx, name, conf)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		grip.Warning(message.WrapError(env.Close(ctx), message.Fields{
			"message": "problem closing environment",
			"name":    name,
		}))
	}()

	return errors.WithStack(op(ctx, env))
}

// runJob runs the job on the environment's queue and waits for the queue to
// drain.
func runJob(ctx context.Context, env scout.Environment, j amboy.Job) error {
	q := env.GetQueue()
	if q == nil {
		return errors.New("environment has no queue")
	}
	if !q.Info().Started {
		if err := q.Start(ctx); err != nil {
			return errors.Wrap(err, "problem starting queue")
		}
	}

	if err := q.Put(ctx, j); err != nil {
		return errors.Wrapf(err, "problem queuing job '%s'", j.ID())
	}
	if !amboy.WaitInterval(ctx, q, jobPollInterval) {
		return errors.Errorf("job '%s' did not finish", j.ID())
	}

	return errors.Wrapf(j.Error(), "job '%s' failed", j.ID())
}
