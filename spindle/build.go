package spindle

import (
	"fmt"
	"time"

	"github.com/kbukum/spindle/dag"
	"github.com/kbukum/spindle/errors"
	"github.com/kbukum/spindle/logger"
	"github.com/kbukum/spindle/operators"
	"github.com/kbukum/spindle/reportdef"
	"github.com/kbukum/spindle/util"
	"github.com/kbukum/spindle/warehouse"
)

// Graph metadata.
const (
	DAGID    = "spindle_v3"
	Schedule = "0 22 * * *"
)

// Task ids.
const (
	TaskCreateReport        = "create_report"
	TaskRunReport           = "run_report"
	TaskWaitForReport       = "wait_for_report"
	TaskRecordAdvertisers   = "record_advertisers"
	TaskDeleteReport        = "delete_report"
	TaskStartSDF            = "start_sdf"
	TaskEndSDF              = "end_sdf"
	TaskCreatePerfReport    = "create_performance_report"
	TaskRunPerfReport       = "run_performance_report"
	TaskWaitForPerfReport   = "wait_for_performance_report"
	TaskDownloadReportToGCS = "download_report_to_gcs"
	TaskLoadCSVToBigQuery   = "load_csv_to_bq"
	TaskCreateBigQueryTable = "create_bq_table"
	TaskCreateBigQueryViews = "create_bq_views"
)

const (
	sdfTaskPrefix             = "upload_sdf_"
	reportsTable              = "Reports"
	lineItemViewTable         = "spindle_lineitem_view"
	lineItemViewPartitionDays = 30
)

// DefaultArgs are the retry and ownership settings of every task.
func DefaultArgs() dag.DefaultArgs {
	return dag.DefaultArgs{
		Owner:      "spindle",
		Retries:    3,
		RetryDelay: 300 * time.Second,
	}
}

// Deps are the collaborators the operators delegate to.
type Deps struct {
	Reports   operators.Reports
	Fetcher   operators.Fetcher
	Store     operators.ObjectStore
	SDF       operators.SDFDownloader
	Warehouse operators.Warehouse
	Variables operators.VariableWriter
	// Definitions defaults to the built-in report definitions.
	Definitions *reportdef.Set
	// SQL defaults to the built-in warehouse queries.
	SQL *warehouse.SQLSet
}

// Options tune graph construction.
type Options struct {
	PokeInterval time.Duration `yaml:"poke_interval" mapstructure:"poke_interval"`
	PokeTimeout  time.Duration `yaml:"poke_timeout" mapstructure:"poke_timeout"`
	// EndSDFTriggerRule decides whether the performance branch runs after a
	// failed SDF load. all_done (the default) runs it; the run result still
	// reports the failed loads.
	EndSDFTriggerRule string `yaml:"end_sdf_trigger_rule" mapstructure:"end_sdf_trigger_rule"`
	ReportObject      string `yaml:"report_object" mapstructure:"report_object"`
	SchemaObject      string `yaml:"schema_object" mapstructure:"schema_object"`
}

// ApplyDefaults sets default values for unset fields.
func (o *Options) ApplyDefaults() {
	if o.PokeInterval == 0 {
		o.PokeInterval = time.Minute
	}
	if o.PokeTimeout == 0 {
		o.PokeTimeout = 12 * time.Hour
	}
	if o.EndSDFTriggerRule == "" {
		o.EndSDFTriggerRule = string(dag.AllDone)
	}
	if o.ReportObject == "" {
		o.ReportObject = "reports/spindle_performance_report.csv"
	}
	if o.SchemaObject == "" {
		o.SchemaObject = "dags/schema/report.json"
	}
}

// SDFTaskID returns the id of the load task of g.
func SDFTaskID(g AdvertiserGroup) string {
	first := ""
	if len(g.Advertisers) > 0 {
		first = g.Advertisers[0]
	}
	return util.SanitizeID(fmt.Sprintf("%s%s_%d_%s", sdfTaskPrefix, g.Partner, g.Index, first))
}

// Build constructs the spindle_v3 graph from vars.
func Build(vars *Variables, deps Deps, opts Options) (*dag.DAG, error) {
	if err := vars.Validate(); err != nil {
		return nil, err
	}
	opts.ApplyDefaults()
	endRule, err := dag.ParseTriggerRule(opts.EndSDFTriggerRule)
	if err != nil {
		return nil, errors.ConfigInvalid("dag.end_sdf_trigger_rule", err.Error())
	}
	if deps.Definitions == nil {
		deps.Definitions = reportdef.MustLoad()
	}
	if deps.SQL == nil {
		deps.SQL = warehouse.MustLoadSQL()
	}

	advertisersDef, err := deps.Definitions.Expand(reportdef.Advertisers, vars.PartnerIDs)
	if err != nil {
		return nil, err
	}
	performanceDef, err := deps.Definitions.Expand(reportdef.Performance, vars.PartnerIDs)
	if err != nil {
		return nil, err
	}
	params := warehouse.SQLParams{Project: vars.CloudProjectID, Dataset: vars.SDFDataset}
	createTableSQL, err := deps.SQL.Render(warehouse.CreateTable, params)
	if err != nil {
		return nil, err
	}
	createViewsSQL, err := deps.SQL.Render(warehouse.CreateViews, params)
	if err != nil {
		return nil, err
	}

	d := dag.New(DAGID, Schedule, DefaultArgs())
	d.Catchup = false
	d.DefaultView = "graph"
	g := d.Graph
	dataset := warehouse.TableRef{Project: vars.CloudProjectID, Dataset: vars.SDFDataset}

	// Advertisers report, recorded for the next construction.
	queryID := operators.QueryIDPort(TaskCreateReport)
	if err := g.Add(
		operators.NewCreateReport(TaskCreateReport, advertisersDef, deps.Reports),
		operators.NewRunReport(TaskRunReport, queryID, deps.Reports),
		operators.NewReportSensor(TaskWaitForReport, queryID, operators.ReportIDPort(TaskRunReport),
			deps.Reports, opts.PokeInterval, opts.PokeTimeout),
		operators.NewRecordAdvertisers(TaskRecordAdvertisers, operators.ReportURLPort(TaskWaitForReport),
			deps.Fetcher, deps.Variables, VarSDFAdvertisers),
		operators.NewDeleteReport(TaskDeleteReport, queryID, deps.Reports),
		dag.NewMarker(TaskStartSDF),
		&dag.Marker{ID: TaskEndSDF, Rule: endRule},
	); err != nil {
		return nil, err
	}

	// SDF fan-out.
	log := logger.Get("spindle")
	groups := Groups(vars.Advertisers, vars.AdvertisersPerCall)
	loads := make([]string, 0, len(groups))
	for _, grp := range groups {
		log.Info("running requests for partner", logger.Fields(
			logger.FieldPartner, grp.Partner,
			"advertisers", grp.Advertisers,
		))
		id := SDFTaskID(grp)
		if err := g.Add(&operators.SDFToBigQuery{
			ID:        id,
			Group:     grp,
			FileTypes: vars.SDFFileTypes,
			Version:   vars.SDFAPIVersion,
			Dataset:   dataset,
			SDF:       deps.SDF,
			Store:     deps.Store,
			Warehouse: deps.Warehouse,
		}); err != nil {
			return nil, err
		}
		loads = append(loads, id)
	}

	// Performance report into the warehouse.
	perfQueryID := operators.QueryIDPort(TaskCreatePerfReport)
	reportURL := operators.ReportURLPort(TaskWaitForPerfReport)
	reports := dataset
	reports.Table = reportsTable
	view := dataset
	view.Table = lineItemViewTable
	if err := g.Add(
		operators.NewCreateReport(TaskCreatePerfReport, performanceDef, deps.Reports),
		operators.NewRunReport(TaskRunPerfReport, perfQueryID, deps.Reports),
		operators.NewReportSensor(TaskWaitForPerfReport, perfQueryID, operators.ReportIDPort(TaskRunPerfReport),
			deps.Reports, opts.PokeInterval, opts.PokeTimeout),
		operators.NewDownloadReport(TaskDownloadReportToGCS, reportURL, deps.Fetcher, deps.Store, opts.ReportObject),
		&operators.GCSToBigQuery{
			ID:           TaskLoadCSVToBigQuery,
			Object:       opts.ReportObject,
			SchemaObject: opts.SchemaObject,
			Request: warehouse.LoadRequest{
				Table:             reports,
				SkipLeadingRows:   1,
				MaxBadRecords:     100,
				Schema:            warehouse.ReportSchema(),
				WriteDisposition:  warehouse.WriteTruncate,
				CreateDisposition: warehouse.CreateIfNeeded,
			},
			Store:     deps.Store,
			Warehouse: deps.Warehouse,
		},
		&operators.BigQueryQuery{
			ID: TaskCreateBigQueryTable,
			Request: warehouse.QueryRequest{
				SQL:               createTableSQL,
				Destination:       &view,
				WriteDisposition:  warehouse.WriteAppend,
				CreateDisposition: warehouse.CreateIfNeeded,
				AllowLargeResults: true,
				Partition: &warehouse.Partition{
					Field:      "report_date",
					Expiration: lineItemViewPartitionDays * 24 * time.Hour,
				},
			},
			Warehouse: deps.Warehouse,
		},
		&operators.BigQueryQuery{
			ID:        TaskCreateBigQueryViews,
			Request:   warehouse.QueryRequest{SQL: createViewsSQL},
			Warehouse: deps.Warehouse,
		},
	); err != nil {
		return nil, err
	}

	if err := g.Chain(TaskCreateReport, TaskRunReport, TaskWaitForReport,
		TaskRecordAdvertisers, TaskDeleteReport, TaskStartSDF); err != nil {
		return nil, err
	}
	if err := g.FanOut(TaskStartSDF, loads, TaskEndSDF); err != nil {
		return nil, err
	}
	if err := g.Chain(TaskEndSDF, TaskCreatePerfReport, TaskRunPerfReport, TaskWaitForPerfReport,
		TaskDownloadReportToGCS, TaskLoadCSVToBigQuery, TaskCreateBigQueryTable, TaskCreateBigQueryViews); err != nil {
		return nil, err
	}

	if err := d.Validate(); err != nil {
		return nil, errors.Internal(err)
	}
	return d, nil
}
