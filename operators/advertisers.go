package operators

import (
	"context"
	"encoding/json"

	"github.com/kbukum/spindle/dag"
	"github.com/kbukum/spindle/dv360"
	"github.com/kbukum/spindle/errors"
	"github.com/kbukum/spindle/logger"
)

// RecordAdvertisers downloads the advertisers report, extracts the
// partner to advertiser mapping and stores it as JSON under VariableName.
// The stored value shapes the SDF fan-out of the next graph construction.
type RecordAdvertisers struct {
	ID           string
	URL          dag.Port[string]
	Fetcher      Fetcher
	Variables    VariableWriter
	VariableName string
}

// NewRecordAdvertisers creates a RecordAdvertisers node.
func NewRecordAdvertisers(id string, url dag.Port[string], fetcher Fetcher, vars VariableWriter, variableName string) *RecordAdvertisers {
	return &RecordAdvertisers{ID: id, URL: url, Fetcher: fetcher, Variables: vars, VariableName: variableName}
}

func (o *RecordAdvertisers) Name() string { return o.ID }
func (o *RecordAdvertisers) Kind() string { return "dv360.record_advertisers" }

func (o *RecordAdvertisers) Run(ctx context.Context, state *dag.State) (any, error) {
	url, err := dag.Read(state, o.URL)
	if err != nil {
		return nil, errors.Internal(err)
	}
	body, err := o.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	partners, err := dv360.ParseAdvertiserReport(body)
	if err != nil {
		return nil, err
	}
	value, err := json.Marshal(partners)
	if err != nil {
		return nil, errors.Internal(err)
	}

	log := logger.WithContext(ctx)
	advertisers := 0
	for _, g := range partners {
		advertisers += len(g.Advertisers)
	}
	if advertisers == 0 {
		log.Warn("advertisers report has no rows", logger.Fields("variable", o.VariableName))
	}
	if err := o.Variables.Set(ctx, o.VariableName, string(value)); err != nil {
		return nil, err
	}
	log.Info("advertisers recorded", logger.Fields(
		"variable", o.VariableName,
		"partners", len(partners),
		"advertisers", advertisers,
	))
	return partners, nil
}
