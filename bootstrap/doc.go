// Package bootstrap runs a spindle command with a uniform lifecycle:
// components are started in registration order, configure callbacks wire
// the business layer, and everything is stopped in reverse order when the
// command finishes or a signal arrives.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(storageComponent)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return runPipeline(ctx)
//	})
//
// Long-running commands such as the admin server use Run, which blocks until
// SIGINT or SIGTERM.
package bootstrap
