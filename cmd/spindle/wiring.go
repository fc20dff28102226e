package main

import (
	"context"

	"google.golang.org/api/option"

	"github.com/kbukum/spindle/bootstrap"
	"github.com/kbukum/spindle/component"
	"github.com/kbukum/spindle/dag"
	"github.com/kbukum/spindle/dv360"
	"github.com/kbukum/spindle/httpclient"
	"github.com/kbukum/spindle/notify"
	"github.com/kbukum/spindle/reportdef"
	"github.com/kbukum/spindle/spindle"
	"github.com/kbukum/spindle/storage"
	"github.com/kbukum/spindle/variables"
	"github.com/kbukum/spindle/version"
	"github.com/kbukum/spindle/warehouse"

	// Storage backends register themselves with the storage factory.
	_ "github.com/kbukum/spindle/storage/gcs"
	_ "github.com/kbukum/spindle/storage/local"
	_ "github.com/kbukum/spindle/storage/minio"
	_ "github.com/kbukum/spindle/storage/s3"
)

// infra holds the components a command registers. Fields stay nil for
// components the command does not need.
type infra struct {
	cfg       *Config
	vars      *variables.Component
	store     *storage.Component
	http      *httpclient.Component
	dv360     *dv360.Component
	warehouse *warehouse.Component
	notify    *notify.Component
}

// registerVariables registers the variable store only. `graph` needs
// nothing else.
func registerVariables(app *bootstrap.App[*Config]) (*infra, error) {
	in := &infra{
		cfg:  app.Cfg,
		vars: variables.NewComponent(app.Cfg.Variables, app.Logger),
	}
	return in, app.RegisterComponent(in.vars)
}

// registerAll registers every component a run needs, dependencies first.
// The bucket and project fall back to the gcs_bucket and cloud_project_id
// variables, so the variable store is registered before them.
func registerAll(app *bootstrap.App[*Config]) (*infra, error) {
	in, err := registerVariables(app)
	if err != nil {
		return nil, err
	}
	cfg := app.Cfg
	ua := option.WithUserAgent(version.UserAgent())

	in.store = storage.NewComponent(cfg.Storage, nil, app.Logger).
		BucketFrom(in.vars.Lookup(spindle.VarGCSBucket))
	in.http = httpclient.NewComponent(cfg.HTTPClient)
	in.dv360 = dv360.NewComponent(cfg.DV360, ua)
	in.warehouse = warehouse.NewComponent(cfg.Warehouse, ua).
		ProjectFrom(in.vars.Lookup(spindle.VarCloudProjectID))

	for _, c := range []component.Component{in.store, in.http, in.dv360, in.warehouse} {
		if err := app.RegisterComponent(c); err != nil {
			return nil, err
		}
	}

	if cfg.Notify.Enabled {
		in.notify = notify.NewComponent(cfg.Notify, ua).
			ProjectFrom(in.vars.Lookup(spindle.VarCloudProjectID))
		if err := app.RegisterComponent(in.notify); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// deps collects the operator collaborators from started components. A
// command that registered only the variable store gets nil clients, which
// is enough to build and describe the graph.
func (in *infra) deps() (spindle.Deps, error) {
	defs, err := reportdef.Load(in.cfg.DV360.TemplatesDir)
	if err != nil {
		return spindle.Deps{}, err
	}
	sql, err := warehouse.LoadSQL(in.cfg.Warehouse.SQLDir)
	if err != nil {
		return spindle.Deps{}, err
	}
	d := spindle.Deps{
		Variables:   in.vars.Store(),
		Definitions: defs,
		SQL:         sql,
	}
	if in.store != nil {
		d.Store = in.store.Storage()
	}
	if in.http != nil {
		d.Fetcher = in.http.Client()
	}
	if in.dv360 != nil {
		d.Reports = in.dv360.Reports()
		d.SDF = in.dv360.SDF()
	}
	if in.warehouse != nil {
		d.Warehouse = in.warehouse.BigQuery()
	}
	return d, nil
}

// build reads the variables and constructs the graph.
func (in *infra) build(ctx context.Context) (*dag.DAG, error) {
	vars, err := spindle.LoadVariables(ctx, in.vars.Store())
	if err != nil {
		return nil, err
	}
	deps, err := in.deps()
	if err != nil {
		return nil, err
	}
	return spindle.Build(vars, deps, in.cfg.DAG.Options)
}
