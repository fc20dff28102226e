package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kbukum/spindle/bootstrap"
	"github.com/kbukum/spindle/dag"
	"github.com/kbukum/spindle/logger"
	"github.com/kbukum/spindle/observability"
	"github.com/kbukum/spindle/server"
	"github.com/kbukum/spindle/spindle"
)

// flags parses the common -config flag plus any command-specific flags
// registered by setup.
func flags(name string, args []string, setup func(fs *flag.FlagSet)) (*Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "path to config.yml")
	if setup != nil {
		setup(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, &exitError{code: 2, msg: err.Error()}
	}
	return loadConfig(*path)
}

// runCommand builds the graph from the current variables and executes it
// once. Any failed task fails the command.
func runCommand(ctx context.Context, args []string) error {
	cfg, err := flags("run", args, nil)
	if err != nil {
		return err
	}
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	in, err := registerAll(app)
	if err != nil {
		return err
	}

	shutdown, err := observability.Init(ctx, cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)
	if err != nil {
		return err
	}
	app.OnStop(shutdown)
	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return err
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		d, err := in.build(ctx)
		if err != nil {
			return err
		}
		dag.Instrument(d, app.Logger.WithComponent("dag"), metrics)

		engine := &dag.Engine{
			MaxParallel: cfg.DAG.MaxParallel,
			Metrics:     metrics,
			Logger:      app.Logger.WithComponent("dag"),
		}
		result, err := engine.Run(ctx, d, dag.NewState())
		if err != nil {
			return err
		}

		if in.notify != nil {
			if err := in.notify.Publisher().Publish(ctx, result); err != nil {
				app.Logger.Warn("run notification not sent", logger.Fields(
					logger.FieldRunID, result.RunID,
					logger.FieldError, err.Error(),
				))
			}
		}

		if result.Failed() {
			return &exitError{
				code: 1,
				msg:  fmt.Sprintf("%s run %s failed: %s", d.ID, result.RunID, strings.Join(result.FailedNodes(), ", ")),
			}
		}
		return nil
	})
}

// graphCommand prints the graph the next run would execute. Only the
// variable store is opened.
func graphCommand(ctx context.Context, args []string, stdout io.Writer) error {
	var format string
	cfg, err := flags("graph", args, func(fs *flag.FlagSet) {
		fs.StringVar(&format, "format", "yaml", "output format: yaml or json")
	})
	if err != nil {
		return err
	}
	if format != "yaml" && format != "json" {
		return &exitError{code: 2, msg: fmt.Sprintf("unsupported format %q", format)}
	}
	// stdout carries the document.
	cfg.Logging.Output = "stderr"
	app, err := bootstrap.NewApp(cfg, bootstrap.WithoutSummary())
	if err != nil {
		return err
	}
	in, err := registerVariables(app)
	if err != nil {
		return err
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		d, err := in.build(ctx)
		if err != nil {
			return err
		}
		p, err := dag.Describe(d)
		if err != nil {
			return err
		}
		return p.Encode(stdout, format)
	})
}

// serveCommand starts the admin server. GET /dag rebuilds the graph from
// the variable store on each request.
func serveCommand(ctx context.Context, args []string) error {
	cfg, err := flags("serve", args, nil)
	if err != nil {
		return err
	}
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	in, err := registerVariables(app)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, app.Logger)
	srv.RegisterDefaultEndpoints(cfg.Name, spindle.DAGID, app.Components.HealthAll)
	srv.RegisterDAG(in.build)
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}
	return app.Run(ctx)
}
