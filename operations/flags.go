package operations

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

////////////////////////////////////////////////////////////////////////
//
// Flag Name Constants

const (
	confFlag = "conf"
	rootFlag = "root"

	numWorkersFlag = "workers"

	dbURIFlag  = "dbUri"
	dbNameFlag = "dbName"

	hostFlag        = "host"
	portFlag        = "port"
	secretFlag      = "secret"
	corsOriginsFlag = "corsOrigin"
	disableJobsFlag = "disableJobs"

	githubTokenFlag  = "githubToken"
	githubRepoFlag   = "githubRepo"
	githubBranchFlag = "githubBranch"
	postgresDSNFlag  = "postgres"

	limitFlag = "limit"
	fileFlag  = "file"
	emailFlag = "email"
)

////////////////////////////////////////////////////////////////////////
//
// Utility Functions

func joinFlagNames(ids ...string) string { return strings.Join(ids, ", ") }

func mergeFlags(in ...[]cli.Flag) []cli.Flag {
	out := []cli.Flag{}

	for idx := range in {
		out = append(out, in[idx]...)
	}

	return out
}

////////////////////////////////////////////////////////////////////////
//
// Flag Groups

func baseFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:   joinFlagNames(confFlag, "c"),
			Usage:  "path to a YAML configuration file",
			EnvVar: "SCOUT_CONF",
		},
		cli.StringFlag{
			Name:   rootFlag,
			Usage:  "working root holding the indexed files and the company export",
			Value:  ".",
			EnvVar: "SCOUT_ROOT",
		},
		cli.IntFlag{
			Name:   numWorkersFlag,
			Usage:  "specify the number of worker jobs this process will have",
			Value:  2,
			EnvVar: "SCOUT_WORKERS",
		})
}

func dbFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:   dbURIFlag,
			Usage:  "specify a mongodb connection string",
			Value:  "mongodb://localhost:27017",
			EnvVar: "SCOUT_MONGODB_URL",
		},
		cli.StringFlag{
			Name:   dbNameFlag,
			Usage:  "specify a database name to use",
			Value:  "scout",
			EnvVar: "SCOUT_DATABASE_NAME",
		})
}

func serviceFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:   hostFlag,
			Usage:  "interface to listen on",
			Value:  "127.0.0.1",
			EnvVar: "SCOUT_HOST",
		},
		cli.IntFlag{
			Name:   joinFlagNames(portFlag, "p"),
			Usage:  "specify a port to run the service on",
			Value:  8000,
			EnvVar: "SCOUT_PORT",
		},
		cli.StringFlag{
			Name:   secretFlag,
			Usage:  "key used to sign session tokens",
			EnvVar: "SCOUT_SECRET_KEY,PRODUCT_SECRET_KEY",
		},
		cli.StringSliceFlag{
			Name:  corsOriginsFlag,
			Usage: "origin allowed to call the API from a browser (may be repeated)",
		},
		cli.BoolFlag{
			Name:   disableJobsFlag,
			Usage:  "do not schedule the periodic reindex and metrics jobs",
			EnvVar: "SCOUT_DISABLE_BACKGROUND_JOBS",
		})
}

func integrationFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:   githubTokenFlag,
			Usage:  "token used to push hypothesis cards to GitHub",
			EnvVar: "SCOUT_GITHUB_TOKEN,GITHUB_TOKEN",
		},
		cli.StringFlag{
			Name:   githubRepoFlag,
			Usage:  "repository (owner/name) that receives hypothesis cards",
			EnvVar: "SCOUT_GITHUB_REPO,GITHUB_REPO",
		},
		cli.StringFlag{
			Name:   githubBranchFlag,
			Usage:  "branch that receives hypothesis cards",
			Value:  "main",
			EnvVar: "SCOUT_GITHUB_BRANCH,GITHUB_BRANCH",
		},
		cli.StringFlag{
			Name:   postgresDSNFlag,
			Usage:  "postgres connection string for the raw event sink",
			EnvVar: "SCOUT_POSTGRES_DSN,SUPABASE_DB_URL",
		})
}

func importFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:  joinFlagNames(fileFlag, "f"),
			Usage: "company export to import, defaults to the configured path",
		},
		cli.IntFlag{
			Name:  limitFlag,
			Usage: "stop after this many rows (0 imports everything)",
		})
}

func setFlagOrFirstPositional(name string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		val := c.String(name)
		if val == "" {
			if c.NArg() != 1 {
				return errors.Errorf("must specify exactly one positional argument for '%s'", name)
			}

			val = c.Args().Get(0)
		}

		return c.Set(name, val)
	}
}
