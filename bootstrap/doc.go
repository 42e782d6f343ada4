// Package bootstrap runs an application's lifecycle: it validates the typed
// configuration, initializes logging, starts registered components, runs a
// task and shuts everything down again.
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	_ = app.RegisterComponent(session.NewComponent(cfg.Session))
//	return app.RunTask(ctx, func(ctx context.Context) error {
//	    return call(ctx)
//	})
//
// SIGINT and SIGTERM cancel the task's context.
package bootstrap
