package operations

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/discovery-tools/scout"
	"github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest"
	"github.com/discovery-tools/scout/units"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Service returns the ./scout service sub-command object, which is
// responsible for starting the service.
func Service() cli.Command {
	return cli.Command{
		Name:   "service",
		Usage:  "run the scout api service",
		Flags:  mergeFlags(baseFlags(), dbFlags(), serviceFlags(), integrationFlags()),
		Before: requireFileExistsIfSet(confFlag),
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			conf, err := loadConfig(c)
			if err != nil {
				return errors.WithStack(err)
			}

			env, err := setupEnvironment(ctx, "scout-service", conf)
			if err != nil {
				return errors.WithStack(err)
			}
			defer func() {
				grip.Warning(message.WrapError(env.Close(context.Background()), message.Fields{
					"message": "problem closing environment",
				}))
			}()

			if err = startBackground(ctx, env); err != nil {
				return errors.WithStack(err)
			}

			service := &rest.Service{Environment: env}
			if err = service.Validate(); err != nil {
				return errors.Wrap(err, "problem validating service")
			}

			if err = service.Start(ctx); err != nil {
				return errors.Wrap(err, "problem running service")
			}
			grip.Info("completed service, terminating.")
			return nil
		},
	}
}

// startBackground prepares the database and starts the queue with the
// periodic jobs.
func startBackground(ctx context.Context, env scout.Environment) error {
	if err := model.EnsureIndexes(ctx, env); err != nil {
		return errors.Wrap(err, "problem ensuring indexes")
	}

	if err := env.GetQueue().Start(ctx); err != nil {
		return errors.Wrap(err, "problem starting queue")
	}

	return errors.Wrap(units.StartCrons(ctx, env), "problem starting background jobs")
}
