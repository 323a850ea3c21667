package operations

import (
	"context"
	"time"

	"github.com/discovery-tools/scout"
	"github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/units"
	"github.com/discovery-tools/scout/util"
	"github.com/mongodb/anser/db"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Admin groups the maintenance commands that work on the database directly,
// without a running service.
func Admin() cli.Command {
	return cli.Command{
		Name:  "admin",
		Usage: "manage a scout deployment",
		Subcommands: []cli.Command{
			importCompanies(),
			reindexFiles(),
			ensureIndexes(),
			promoteUser(),
		},
	}
}

func importCompanies() cli.Command {
	return cli.Command{
		Name:   "import-companies",
		Usage:  "import the company CSV export",
		Flags:  mergeFlags(baseFlags(), dbFlags(), importFlags()),
		Before: mergeBeforeFuncs(requireFileExistsIfSet(confFlag), requireNonNegativeInt(limitFlag)),
		Action: func(c *cli.Context) error {
			return withEnvironment(c, "scout-import", func(ctx context.Context, env scout.Environment) error {
				path := c.String(fileFlag)
				if path == "" {
					path = env.GetConfig().CompaniesCSV
				}
				path = env.GetConfig().ResolvePath(path)

				if err := runJob(ctx, env, units.NewImportCompaniesJob(path, c.Int(limitFlag))); err != nil {
					return errors.WithStack(err)
				}
				return errors.WithStack(printLastRun(ctx, env, model.OperationCompanyImport))
			})
		},
	}
}

func reindexFiles() cli.Command {
	return cli.Command{
		Name:   "reindex",
		Usage:  "rescan the working root and update the file index",
		Flags:  mergeFlags(baseFlags(), dbFlags()),
		Before: requireFileExistsIfSet(confFlag),
		Action: func(c *cli.Context) error {
			return withEnvironment(c, "scout-reindex", func(ctx context.Context, env scout.Environment) error {
				id := "admin." + time.Now().UTC().Format("2006-01-02.15-04-05")
				if err := runJob(ctx, env, units.NewReindexDocumentsJob(id)); err != nil {
					return errors.WithStack(err)
				}
				return errors.WithStack(printLastRun(ctx, env, model.OperationFilesReindex))
			})
		},
	}
}

func ensureIndexes() cli.Command {
	return cli.Command{
		Name:   "ensure-indexes",
		Usage:  "create the database indexes",
		Flags:  mergeFlags(baseFlags(), dbFlags()),
		Before: requireFileExistsIfSet(confFlag),
		Action: func(c *cli.Context) error {
			return withEnvironment(c, "scout-indexes", func(ctx context.Context, env scout.Environment) error {
				if err := model.EnsureIndexes(ctx, env); err != nil {
					return errors.WithStack(err)
				}
				if err := model.CheckIndexes(ctx, env.GetDB(), model.GetRequiredIndexes()); err != nil {
					return errors.Wrap(err, "problem verifying indexes")
				}
				grip.Infof("ensured %d indexes", len(model.GetRequiredIndexes()))
				return nil
			})
		},
	}
}

func promoteUser() cli.Command {
	return cli.Command{
		Name:  "promote",
		Usage: "give an existing user the admin role",
		Flags: mergeFlags(baseFlags(), dbFlags(), []cli.Flag{
			cli.StringFlag{
				Name:  joinFlagNames(emailFlag, "e"),
				Usage: "email of the user to promote",
			},
		}),
		Before: mergeBeforeFuncs(
			requireFileExistsIfSet(confFlag),
			setFlagOrFirstPositional(emailFlag),
			requireStringFlag(emailFlag),
		),
		Action: func(c *cli.Context) error {
			return withEnvironment(c, "scout-promote", func(ctx context.Context, env scout.Environment) error {
				email := c.String(emailFlag)
				u, err := model.FindUserByEmail(ctx, env, email)
				if db.ResultsNotFound(errors.Cause(err)) {
					return errors.Errorf("no user with email '%s', the user must log in once first", email)
				} else if err != nil {
					return errors.WithStack(err)
				}

				if u.IsAdmin() {
					grip.Infof("'%s' is already an admin", u.Email)
					return nil
				}
				if err = u.SetRole(ctx, scout.RoleAdmin); err != nil {
					return errors.WithStack(err)
				}
				grip.Info(message.Fields{
					"message": "promoted user",
					"user":    u.Email,
					"id":      u.ID,
				})
				return nil
			})
		},
	}
}

func printLastRun(ctx context.Context, env scout.Environment, kind string) error {
	run, err := model.FindOperationRun(ctx, env, kind)
	if err != nil {
		return errors.WithStack(err)
	}
	if run == nil {
		return errors.Errorf("no '%s' run was recorded", kind)
	}
	return util.PrintJSON(run)
}
